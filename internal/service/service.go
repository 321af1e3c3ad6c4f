// Package service holds business logic orchestration across repositories and handlers.
// Kept intentionally lean: only use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"errors"

	"github.com/maxviazov/pagekit/internal/model"
	"github.com/maxviazov/pagekit/internal/repository"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// InvalidInput aggregates field errors found outside the service layer, e.g. while
// parsing a request. It returns nil when fe is empty.
func InvalidInput(fe ...FieldError) error { return newInvalidInput(fe) }

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	var v interface{ Fields() []FieldError }
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// ArticleService defines article-oriented use cases.
type ArticleService interface {
	CreateArticle(ctx context.Context, title, author string, tags []string) (model.Article, error)
	GetArticle(ctx context.Context, id int64) (model.Article, error)
	ListArticles(ctx context.Context, f repository.ArticleFilter, page repository.Page) (repository.PageResult[model.Article], error)
	ListHeadlines(ctx context.Context, f repository.ArticleFilter, page repository.Page) (repository.PageResult[model.Headline], error)
}

// CommentService defines comment use cases.
type CommentService interface {
	AddComment(ctx context.Context, articleID int64, author, body string) (model.Comment, error)
	ListComments(ctx context.Context, articleID int64, page repository.Page) (repository.PageResult[model.Comment], error)
}
