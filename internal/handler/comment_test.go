package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/maxviazov/pagekit/internal/model"
	"github.com/maxviazov/pagekit/internal/repository"
	"github.com/maxviazov/pagekit/pkg/pagination"
)

type stubCommentService struct {
	gotArticle int64
	gotPage    repository.Page
	err        error
}

func (s *stubCommentService) AddComment(_ context.Context, articleID int64, author, body string) (model.Comment, error) {
	s.gotArticle = articleID
	return model.Comment{ID: 1, ArticleID: articleID, Author: author, Body: body}, s.err
}

func (s *stubCommentService) ListComments(_ context.Context, articleID int64, p repository.Page) (repository.PageResult[model.Comment], error) {
	s.gotArticle, s.gotPage = articleID, p
	return repository.PageResult[model.Comment]{
		Summary: pagination.Summary{Page: 1, PageSize: 20, TotalPages: 1},
		Items:   []model.Comment{},
	}, s.err
}

func TestCommentHandler_Create(t *testing.T) {
	stub := &stubCommentService{}
	r := newRouter(&stubArticleService{}, stub, nil)
	w := do(r, http.MethodPost, "/api/v1/articles/3/comments", map[string]string{"author": "ann", "body": "hi"})
	if w.Code != http.StatusCreated || stub.gotArticle != 3 {
		t.Fatalf("expected 201 for article 3, got %d: %s", w.Code, w.Body.String())
	}

	stub.err = repository.ErrNotFound
	w = do(r, http.MethodPost, "/api/v1/articles/4/comments", map[string]string{"author": "ann", "body": "hi"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCommentHandler_List(t *testing.T) {
	stub := &stubCommentService{}
	r := newRouter(&stubArticleService{}, stub, nil)
	w := do(r, http.MethodGet, "/api/v1/articles/3/comments?page=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if stub.gotArticle != 3 || stub.gotPage != (repository.Page{Page: 2}) {
		t.Fatalf("unexpected args: article=%d page=%+v", stub.gotArticle, stub.gotPage)
	}
	if !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Fatalf("expected empty items array, got %s", w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/v1/articles/x/comments?page_size=y", nil)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "article_id") || !strings.Contains(w.Body.String(), "page_size") {
		t.Fatalf("expected 400 with both fields, got %d: %s", w.Code, w.Body.String())
	}
}
