package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/pagekit/internal/model"
	"github.com/maxviazov/pagekit/internal/repository"
)

// articleService holds article use-case logic: validation + orchestration, no transport / SQL details.
type articleService struct {
	repo   repository.ArticleRepository
	limits PageLimits
	log    zerolog.Logger
}

func NewArticleService(repo repository.ArticleRepository, limits PageLimits, logger zerolog.Logger) ArticleService {
	l := logger.With().Str("module", "service").Str("component", "article").Logger()
	return &articleService{repo: repo, limits: limits, log: l}
}

func (s *articleService) CreateArticle(ctx context.Context, title, author string, tags []string) (model.Article, error) {
	start := time.Now()
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)

	var ferrs []FieldError
	ferrs = append(ferrs, checkText("title", title, maxTitleLen)...)
	ferrs = append(ferrs, checkText("author", author, maxAuthorLen)...)
	tags, tagErrs := normalizeTags(tags)
	ferrs = append(ferrs, tagErrs...)
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("article validation failed")
		return model.Article{}, err
	}

	out, err := s.repo.Create(ctx, model.Article{Title: title, Author: author, Tags: tags})
	if err != nil {
		// Repository surfaces domain-level errors already, do not wrap.
		s.log.Error().Err(err).Str("title", title).Str("author", author).Msg("create article failed")
		return model.Article{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("article_id", out.ID).Msg("article created")
	return out, nil
}

func (s *articleService) GetArticle(ctx context.Context, id int64) (model.Article, error) {
	if id <= 0 {
		return model.Article{}, newInvalidInput([]FieldError{{Field: "id", Message: "must be > 0"}})
	}
	return s.repo.GetByID(ctx, id)
}

func (s *articleService) ListArticles(ctx context.Context, f repository.ArticleFilter, page repository.Page) (repository.PageResult[model.Article], error) {
	f, p, err := s.prepareList(f, page)
	if err != nil {
		return repository.PageResult[model.Article]{}, err
	}
	res, err := s.repo.List(ctx, f, p)
	if err != nil {
		s.log.Error().Err(err).Strs("tags", f.Tags).Int("page", p.Page).Int("page_size", p.PageSize).Msg("list articles failed")
		return repository.PageResult[model.Article]{}, err
	}
	s.logClamp("articles", p, res.Summary.Page)
	return res, nil
}

func (s *articleService) ListHeadlines(ctx context.Context, f repository.ArticleFilter, page repository.Page) (repository.PageResult[model.Headline], error) {
	f, p, err := s.prepareList(f, page)
	if err != nil {
		return repository.PageResult[model.Headline]{}, err
	}
	res, err := s.repo.Headlines(ctx, f, p)
	if err != nil {
		s.log.Error().Err(err).Strs("tags", f.Tags).Int("page", p.Page).Int("page_size", p.PageSize).Msg("list headlines failed")
		return repository.PageResult[model.Headline]{}, err
	}
	s.logClamp("headlines", p, res.Summary.Page)
	return res, nil
}

func (s *articleService) prepareList(f repository.ArticleFilter, page repository.Page) (repository.ArticleFilter, repository.Page, error) {
	p, err := s.limits.normalize(page)
	ferrs := FieldErrors(err)
	if err != nil && ferrs == nil {
		return f, p, err
	}
	tags, tagErrs := normalizeTags(f.Tags)
	ferrs = append(ferrs, tagErrs...)
	f.Tags = tags
	f.Author = strings.TrimSpace(f.Author)
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("list validation failed")
		return f, p, err
	}
	return f, p, nil
}

func (s *articleService) logClamp(what string, p repository.Page, served int) {
	if served != p.Page {
		s.log.Debug().Str("listing", what).Int("requested", p.Page).Int("served", served).Msg("page out of range, served first page")
	}
}
