package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/maxviazov/pagekit/internal/metrics"
	"github.com/maxviazov/pagekit/internal/model"
	"github.com/maxviazov/pagekit/internal/repository"
	"github.com/maxviazov/pagekit/pkg/pagination"
)

type commentRepository struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// NewCommentRepository builds the GORM-backed comment store. db may be any GORM session;
// in production it shares the pgx pool through database/sql.
func NewCommentRepository(db *gorm.DB, m *metrics.Metrics) repository.CommentRepository {
	return &commentRepository{db: db, metrics: m}
}

func (r *commentRepository) Create(ctx context.Context, c model.Comment) (model.Comment, error) {
	if r.db == nil {
		return model.Comment{}, errors.New("gorm session is nil")
	}
	c.ID = 0
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Comment{}, repository.MapPgError(err)
	}
	return c, nil
}

func (r *commentRepository) ListByArticle(ctx context.Context, articleID int64, p repository.Page) (repository.PageResult[model.Comment], error) {
	if r.db == nil {
		return repository.PageResult[model.Comment]{}, errors.New("gorm session is nil")
	}
	start := time.Now()

	chain := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("article_id = ?", articleID).
		Order("created_at").
		Order("id")

	page, err := pagination.NewSync(pagination.FromGorm[model.Comment](chain), p.Page, p.PageSize)
	if err != nil {
		return repository.PageResult[model.Comment]{}, err
	}
	res, err := pagination.Collect[model.Comment](page)
	if err != nil {
		return repository.PageResult[model.Comment]{}, repository.MapPgError(err)
	}

	r.metrics.ObservePage("comments", metrics.ModeSync, p.Page, res.Summary, len(res.Items), time.Since(start))
	return res, nil
}

var _ repository.CommentRepository = (*commentRepository)(nil)
