// Package pagination pages query results out of a relational store.
//
// Two variants share one contract: Sync resolves lazily through blocking calls on a
// composable Query, Async is built eagerly by Create/CreateRows through a pgx-style
// Session. Both count the rows first, reset an out-of-range page back to 1 and then
// fetch only the rows of the effective page.
package pagination

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultPageSize is used by callers that do not ask for a specific size.
const DefaultPageSize = 20

// ErrInvalidRequest marks a page request that cannot be served.
var ErrInvalidRequest = errors.New("pagination: invalid page request")

// Paginator is the read surface every pagination variant exposes.
type Paginator[T any] interface {
	// Page is the current, possibly clamped, 1-indexed page.
	Page() int
	PageSize() int
	Total() (int64, error)
	Items() ([]T, error)
	TotalPages() (int, error)
}

// TotalPages returns ceil(total/pageSize), never less than 1.
// A zero pageSize panics with an integer divide fault; that is caller misuse.
func TotalPages(total int64, pageSize int) int {
	size := int64(pageSize)
	pages := int((total + size - 1) / size)
	if pages == 0 {
		return 1
	}
	return pages
}

// Offset returns the number of rows preceding page.
func Offset(page, pageSize int) int { return (page - 1) * pageSize }

// clamp resets page to 1 when it lies past the last page.
func clamp(page, pageSize int, total int64) int {
	if page > TotalPages(total, pageSize) {
		return 1
	}
	return page
}

// Request is a page request as it arrives from a caller.
type Request struct {
	Page     int `json:"page"      form:"page"      validate:"min=1"`
	PageSize int `json:"page_size" form:"page_size" validate:"min=1"`
}

// NewRequest returns a request for the first page with the default page size.
func NewRequest() Request {
	return Request{Page: 1, PageSize: DefaultPageSize}
}

// WithDefaults fills unset fields: page 1, DefaultPageSize.
func (r Request) WithDefaults() Request {
	if r.Page == 0 {
		r.Page = 1
	}
	if r.PageSize == 0 {
		r.PageSize = DefaultPageSize
	}
	return r
}

var validate = validator.New()

// Validate reports the first invalid field as a *ValidationError.
func (r Request) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("must be greater than or equal to %s", fe.Param()),
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
}

// ValidationError describes an invalid page request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("pagination: %s %s", snake(e.Field), e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// JSONField returns the field name as callers send it.
func (e *ValidationError) JSONField() string { return snake(e.Field) }

func snake(field string) string {
	switch field {
	case "PageSize":
		return "page_size"
	default:
		return strings.ToLower(field)
	}
}

// Summary is the metadata part of a page.
type Summary struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Result is a resolved page, ready to be serialized.
type Result[T any] struct {
	Summary
	Items []T `json:"items"`
}

// Collect resolves p into a Result. Items are read first so the reported page is the
// effective one.
func Collect[T any](p Paginator[T]) (Result[T], error) {
	items, err := p.Items()
	if err != nil {
		return Result[T]{}, err
	}
	total, err := p.Total()
	if err != nil {
		return Result[T]{}, err
	}
	pages, err := p.TotalPages()
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{
		Summary: Summary{
			Page:       p.Page(),
			PageSize:   p.PageSize(),
			Total:      total,
			TotalPages: pages,
		},
		Items: items,
	}, nil
}

func assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
