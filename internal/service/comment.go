package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/pagekit/internal/model"
	"github.com/maxviazov/pagekit/internal/repository"
)

type commentService struct {
	comments repository.CommentRepository
	articles repository.ArticleRepository
	limits   PageLimits
	log      zerolog.Logger
}

func NewCommentService(comments repository.CommentRepository, articles repository.ArticleRepository, limits PageLimits, logger zerolog.Logger) CommentService {
	l := logger.With().Str("module", "service").Str("component", "comment").Logger()
	return &commentService{comments: comments, articles: articles, limits: limits, log: l}
}

func (s *commentService) AddComment(ctx context.Context, articleID int64, author, body string) (model.Comment, error) {
	start := time.Now()
	author = strings.TrimSpace(author)
	body = strings.TrimSpace(body)

	var ferrs []FieldError
	if articleID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "article_id", Message: "must be > 0"})
	}
	ferrs = append(ferrs, checkText("author", author, maxAuthorLen)...)
	ferrs = append(ferrs, checkText("body", body, maxBodyLen)...)
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("comment validation failed")
		return model.Comment{}, err
	}

	if err := s.mustExist(ctx, articleID); err != nil {
		return model.Comment{}, err
	}

	out, err := s.comments.Create(ctx, model.Comment{ArticleID: articleID, Author: author, Body: body})
	if err != nil {
		s.log.Error().Err(err).Int64("article_id", articleID).Msg("create comment failed")
		return model.Comment{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("comment_id", out.ID).Int64("article_id", articleID).Msg("comment added")
	return out, nil
}

func (s *commentService) ListComments(ctx context.Context, articleID int64, page repository.Page) (repository.PageResult[model.Comment], error) {
	p, err := s.limits.normalize(page)
	ferrs := FieldErrors(err)
	if err != nil && ferrs == nil {
		return repository.PageResult[model.Comment]{}, err
	}
	if articleID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "article_id", Message: "must be > 0"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return repository.PageResult[model.Comment]{}, err
	}

	if err := s.mustExist(ctx, articleID); err != nil {
		return repository.PageResult[model.Comment]{}, err
	}

	res, err := s.comments.ListByArticle(ctx, articleID, p)
	if err != nil {
		s.log.Error().Err(err).Int64("article_id", articleID).Int("page", p.Page).Int("page_size", p.PageSize).Msg("list comments failed")
		return repository.PageResult[model.Comment]{}, err
	}
	return res, nil
}

// mustExist turns a missing article into ErrNotFound before touching comments, which
// would otherwise answer with an empty page or a foreign key violation.
func (s *commentService) mustExist(ctx context.Context, articleID int64) error {
	ok, err := s.articles.Exists(ctx, articleID)
	if err != nil {
		s.log.Error().Err(err).Int64("article_id", articleID).Msg("article lookup failed")
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	return nil
}

