package repository

import (
	"context"

	"github.com/maxviazov/pagekit/internal/model"
)

// Pinger represents a minimal readiness probe capability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// ArticleRepository declares persistence operations for articles.
// Listings are paged through the async paginator over pgx.
type ArticleRepository interface {
	Create(ctx context.Context, a model.Article) (model.Article, error)
	GetByID(ctx context.Context, id int64) (model.Article, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, f ArticleFilter, p Page) (PageResult[model.Article], error)
	// Headlines pages raw (id, title) rows; join duplicates are collapsed row by row.
	Headlines(ctx context.Context, f ArticleFilter, p Page) (PageResult[model.Headline], error)
}

// CommentRepository declares persistence operations for comments.
// Listings are paged through the sync paginator over GORM.
type CommentRepository interface {
	Create(ctx context.Context, c model.Comment) (model.Comment, error)
	ListByArticle(ctx context.Context, articleID int64, p Page) (PageResult[model.Comment], error)
}
