package repository

import "github.com/maxviazov/pagekit/pkg/pagination"

// Page is the page request every list operation takes.
// Repositories expect it already defaulted and bounded by the service layer.
type Page = pagination.Request

// PageResult carries a page of items together with the summary clients need to navigate.
type PageResult[T any] = pagination.Result[T]

// ArticleFilter narrows article listings. An article matches when it carries any of Tags.
type ArticleFilter struct {
	Tags   []string
	Author string
}
