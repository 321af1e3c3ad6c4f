package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/pagekit/internal/metrics"
	"github.com/maxviazov/pagekit/internal/model"
	"github.com/maxviazov/pagekit/internal/repository"
	"github.com/maxviazov/pagekit/pkg/pagination"
	"github.com/maxviazov/pagekit/pkg/query"
)

var articleEntity = query.Entity{Table: "articles", Alias: "a", IDColumn: "id"}

type articleRepository struct {
	pool    *pgxpool.Pool
	metrics *metrics.Metrics
}

func NewArticleRepository(pool *pgxpool.Pool, m *metrics.Metrics) repository.ArticleRepository {
	return &articleRepository{pool: pool, metrics: m}
}

// articleQuery selects articles newest first. The tag filter is a semi-join: joining
// article_tags would repeat an article once per matching tag, and LIMIT would then window
// joined rows while the total counts articles, pushing articles past the last page.
func articleQuery(f repository.ArticleFilter) *query.Select {
	q := query.From(articleEntity)
	if len(f.Tags) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM article_tags t WHERE t.article_id = a.id AND t.tag = ANY(?))", f.Tags)
	}
	if f.Author != "" {
		q = q.Where("a.author = ?", f.Author)
	}
	return q.OrderBy("a.created_at DESC", "a.id DESC")
}

func (r *articleRepository) Create(ctx context.Context, a model.Article) (model.Article, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Article{}, err
	}
	var out model.Article
	err := inTx(ctx, r.pool, func(exec q) error {
		row := exec.QueryRow(ctx,
			`INSERT INTO articles (title, author) VALUES ($1, $2)
			 RETURNING id, title, author, created_at`,
			a.Title, a.Author,
		)
		if err := row.Scan(&out.ID, &out.Title, &out.Author, &out.CreatedAt); err != nil {
			return err
		}
		if len(a.Tags) > 0 {
			if _, err := exec.Exec(ctx,
				`INSERT INTO article_tags (article_id, tag)
				 SELECT $1, unnest($2::text[])
				 ON CONFLICT DO NOTHING`,
				out.ID, a.Tags,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Article{}, repository.MapPgError(err)
	}
	out.Tags = append([]string{}, a.Tags...)
	return out, nil
}

func (r *articleRepository) GetByID(ctx context.Context, id int64) (model.Article, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Article{}, err
	}
	exec := getQ(ctx, r.pool)
	rows, err := exec.Query(ctx, `SELECT id, title, author, created_at FROM articles WHERE id = $1`, id)
	if err != nil {
		return model.Article{}, repository.MapPgError(err)
	}
	out, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[model.Article])
	if err != nil {
		return model.Article{}, repository.MapPgError(err)
	}
	items := []model.Article{out}
	if err := attachTags(ctx, exec, items); err != nil {
		return model.Article{}, repository.MapPgError(err)
	}
	return items[0], nil
}

func (r *articleRepository) Exists(ctx context.Context, id int64) (bool, error) {
	if err := ensurePool(r.pool); err != nil {
		return false, err
	}
	var exists bool
	exec := getQ(ctx, r.pool)
	err := exec.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM articles WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, repository.MapPgError(err)
	}
	return exists, nil
}

func (r *articleRepository) List(ctx context.Context, f repository.ArticleFilter, p repository.Page) (repository.PageResult[model.Article], error) {
	if err := ensurePool(r.pool); err != nil {
		return repository.PageResult[model.Article]{}, err
	}
	start := time.Now()
	exec := getQ(ctx, r.pool)

	page, err := pagination.Create[model.Article](ctx, exec, articleQuery(f), p.Page, p.PageSize, nil)
	if err != nil {
		return repository.PageResult[model.Article]{}, repository.MapPgError(err)
	}
	res := page.Result()
	if err := attachTags(ctx, exec, res.Items); err != nil {
		return repository.PageResult[model.Article]{}, repository.MapPgError(err)
	}

	r.metrics.ObservePage("articles", metrics.ModeAsync, p.Page, res.Summary, len(res.Items), time.Since(start))
	return res, nil
}

func (r *articleRepository) Headlines(ctx context.Context, f repository.ArticleFilter, p repository.Page) (repository.PageResult[model.Headline], error) {
	if err := ensurePool(r.pool); err != nil {
		return repository.PageResult[model.Headline]{}, err
	}
	start := time.Now()

	q := articleQuery(f).WithOnlyColumns("a.id", "a.title")
	page, err := pagination.CreateRows(ctx, getQ(ctx, r.pool), q, p.Page, p.PageSize)
	if err != nil {
		return repository.PageResult[model.Headline]{}, repository.MapPgError(err)
	}
	rows := page.Result()

	res := repository.PageResult[model.Headline]{
		Summary: rows.Summary,
		Items:   make([]model.Headline, 0, len(rows.Items)),
	}
	for _, row := range rows.Items {
		h, err := toHeadline(row)
		if err != nil {
			return repository.PageResult[model.Headline]{}, err
		}
		res.Items = append(res.Items, h)
	}

	r.metrics.ObservePage("headlines", metrics.ModeAsync, p.Page, res.Summary, len(res.Items), time.Since(start))
	return res, nil
}

func toHeadline(row pagination.Row) (model.Headline, error) {
	if len(row) != 2 {
		return model.Headline{}, fmt.Errorf("headline row: want 2 columns, got %d", len(row))
	}
	id, ok := row[0].(int64)
	if !ok {
		return model.Headline{}, fmt.Errorf("headline row: id is %T", row[0])
	}
	title, ok := row[1].(string)
	if !ok {
		return model.Headline{}, fmt.Errorf("headline row: title is %T", row[1])
	}
	return model.Headline{ID: id, Title: title}, nil
}

// attachTags loads the tags of every article in items with a single query.
func attachTags(ctx context.Context, exec q, items []model.Article) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	byID := make(map[int64]int, len(items))
	for i := range items {
		ids[i] = items[i].ID
		byID[items[i].ID] = i
		items[i].Tags = []string{}
	}

	rows, err := exec.Query(ctx,
		`SELECT article_id, tag FROM article_tags WHERE article_id = ANY($1) ORDER BY tag`, ids)
	if err != nil {
		return err
	}
	var (
		articleID int64
		tag       string
	)
	_, err = pgx.ForEachRow(rows, []any{&articleID, &tag}, func() error {
		if i, ok := byID[articleID]; ok {
			items[i].Tags = append(items[i].Tags, tag)
		}
		return nil
	})
	return err
}

var _ repository.ArticleRepository = (*articleRepository)(nil)
