// Package contract holds behaviour suites every repository implementation must pass,
// independent of the backing store.
package contract

import (
	"context"
	"fmt"
	"testing"

	"github.com/maxviazov/pagekit/internal/model"
	"github.com/maxviazov/pagekit/internal/repository"
)

type ArticleFactory func(t *testing.T) (repository.ArticleRepository, func())

type CommentFactory func(t *testing.T) (repo repository.CommentRepository, mkArticle func(ctx context.Context) (int64, error), cleanup func())

type TxFactory func(t *testing.T) (tx repository.TxManager, articles repository.ArticleRepository, cleanup func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

func page(n, size int) repository.Page { return repository.Page{Page: n, PageSize: size} }

func seedArticles(t *testing.T, repo repository.ArticleRepository, n int, author string, tags ...string) []model.Article {
	t.Helper()
	out := make([]model.Article, 0, n)
	for i := 0; i < n; i++ {
		a, err := repo.Create(context.Background(), model.Article{
			Title:  fmt.Sprintf("%s article %02d", author, i+1),
			Author: author,
			Tags:   tags,
		})
		if err != nil {
			t.Fatalf("seed article %d: %v", i, err)
		}
		out = append(out, a)
	}
	return out
}

func RunArticleRepositoryContract(t *testing.T, makeRepo ArticleFactory) {
	t.Helper()

	t.Run("create_and_get", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, model.Article{Title: "Paging in Go", Author: "ann", Tags: []string{"go", "sql"}})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.ID != created.ID || got.Title != "Paging in Go" || len(got.Tags) != 2 {
			t.Fatalf("mismatch: %+v", got)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		_, err := repo.GetByID(context.Background(), 999999)
		if err != repository.ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("create_duplicate_conflict", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := repo.Create(ctx, model.Article{Title: "Dup", Author: "ann"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
		_, err := repo.Create(ctx, model.Article{Title: "Dup", Author: "ann"})
		if err != repository.ErrAlreadyExists {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("list_pages_and_total", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedArticles(t, repo, 45, "ann")

		wantLens := []int{20, 20, 5}
		seen := map[int64]bool{}
		for i, want := range wantLens {
			res, err := repo.List(context.Background(), repository.ArticleFilter{}, page(i+1, 20))
			if err != nil {
				t.Fatalf("list page %d: %v", i+1, err)
			}
			if res.Total != 45 || res.TotalPages != 3 || res.Page != i+1 || len(res.Items) != want {
				t.Fatalf("unexpected page %d: %+v len=%d", i+1, res.Summary, len(res.Items))
			}
			for _, a := range res.Items {
				if seen[a.ID] {
					t.Fatalf("article %d served twice", a.ID)
				}
				seen[a.ID] = true
			}
		}
		if len(seen) != 45 {
			t.Fatalf("expected every article once, got %d", len(seen))
		}
	})

	t.Run("list_out_of_range_page_resets_to_first", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedArticles(t, repo, 45, "ann")
		first, err := repo.List(context.Background(), repository.ArticleFilter{}, page(1, 20))
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		res, err := repo.List(context.Background(), repository.ArticleFilter{}, page(10, 20))
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Page != 1 || len(res.Items) != 20 || res.Items[0].ID != first.Items[0].ID {
			t.Fatalf("expected page 1 back, got %+v", res.Summary)
		}
	})

	t.Run("list_empty", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		res, err := repo.List(context.Background(), repository.ArticleFilter{}, page(1, 20))
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 0 || res.TotalPages != 1 || len(res.Items) != 0 || res.Items == nil {
			t.Fatalf("unexpected empty page: %+v items=%v", res.Summary, res.Items)
		}
	})

	t.Run("list_by_tags_counts_each_article_once", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedArticles(t, repo, 1, "ann", "go", "sql", "paging")
		seedArticles(t, repo, 2, "bob", "go")
		seedArticles(t, repo, 2, "cid", "rust")

		f := repository.ArticleFilter{Tags: []string{"go", "sql", "paging"}}
		res, err := repo.List(context.Background(), f, page(1, 20))
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 3 || len(res.Items) != 3 {
			t.Fatalf("expected 3 distinct articles, got total=%d len=%d", res.Total, len(res.Items))
		}
		for _, a := range res.Items {
			if a.Author == "ann" && len(a.Tags) != 3 {
				t.Fatalf("tags not attached: %+v", a)
			}
		}

		heads, err := repo.Headlines(context.Background(), f, page(1, 20))
		if err != nil {
			t.Fatalf("headlines: %v", err)
		}
		if heads.Total != 3 || len(heads.Items) != 3 {
			t.Fatalf("expected 3 distinct headlines, got total=%d len=%d", heads.Total, len(heads.Items))
		}
	})

	t.Run("list_by_tags_walks_every_article_once", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		// every article matches all three requested tags
		seeded := seedArticles(t, repo, 10, "ann", "go", "sql", "paging")
		seedArticles(t, repo, 2, "bob", "rust")

		f := repository.ArticleFilter{Tags: []string{"go", "sql", "paging"}}
		const size = 3
		first, err := repo.List(context.Background(), f, page(1, size))
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if first.Total != 10 || first.TotalPages != 4 {
			t.Fatalf("unexpected summary: %+v", first.Summary)
		}

		seen := map[int64]int{}
		heads := map[int64]int{}
		for n := 1; n <= first.TotalPages; n++ {
			res, err := repo.List(context.Background(), f, page(n, size))
			if err != nil {
				t.Fatalf("list page %d: %v", n, err)
			}
			if res.Page != n {
				t.Fatalf("page %d was served as page %d", n, res.Page)
			}
			for _, a := range res.Items {
				seen[a.ID]++
			}
			hl, err := repo.Headlines(context.Background(), f, page(n, size))
			if err != nil {
				t.Fatalf("headlines page %d: %v", n, err)
			}
			for _, h := range hl.Items {
				heads[h.ID]++
			}
		}
		for _, a := range seeded {
			if seen[a.ID] != 1 || heads[a.ID] != 1 {
				t.Fatalf("article %d served %d times, headline %d times", a.ID, seen[a.ID], heads[a.ID])
			}
		}
		if len(seen) != 10 || len(heads) != 10 {
			t.Fatalf("expected 10 distinct articles, got %d and %d headlines", len(seen), len(heads))
		}
	})

	t.Run("list_by_author", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		seedArticles(t, repo, 3, "ann")
		seedArticles(t, repo, 4, "bob")
		res, err := repo.List(context.Background(), repository.ArticleFilter{Author: "bob"}, page(1, 2))
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 4 || res.TotalPages != 2 || len(res.Items) != 2 {
			t.Fatalf("unexpected page: %+v len=%d", res.Summary, len(res.Items))
		}
	})
}

func RunCommentRepositoryContract(t *testing.T, makeRepo CommentFactory) {
	t.Helper()

	t.Run("create_and_list", func(t *testing.T) {
		repo, mkArticle, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		articleID, err := mkArticle(ctx)
		if err != nil {
			t.Fatalf("seed article: %v", err)
		}
		otherID, err := mkArticle(ctx)
		if err != nil {
			t.Fatalf("seed article: %v", err)
		}
		for i := 0; i < 45; i++ {
			if _, err := repo.Create(ctx, model.Comment{ArticleID: articleID, Author: "ann", Body: fmt.Sprintf("c%02d", i+1)}); err != nil {
				t.Fatalf("seed comment %d: %v", i, err)
			}
		}
		if _, err := repo.Create(ctx, model.Comment{ArticleID: otherID, Author: "bob", Body: "elsewhere"}); err != nil {
			t.Fatalf("seed other comment: %v", err)
		}

		wantLens := []int{20, 20, 5}
		for i, want := range wantLens {
			res, err := repo.ListByArticle(ctx, articleID, page(i+1, 20))
			if err != nil {
				t.Fatalf("list page %d: %v", i+1, err)
			}
			if res.Total != 45 || res.TotalPages != 3 || len(res.Items) != want {
				t.Fatalf("unexpected page %d: %+v len=%d", i+1, res.Summary, len(res.Items))
			}
			if first := res.Items[0].Body; first != fmt.Sprintf("c%02d", i*20+1) {
				t.Fatalf("page %d starts at %q", i+1, first)
			}
		}

		res, err := repo.ListByArticle(ctx, articleID, page(4, 20))
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Page != 1 || res.Items[0].Body != "c01" {
			t.Fatalf("expected clamp to page 1, got %+v", res.Summary)
		}
	})

	t.Run("list_empty", func(t *testing.T) {
		repo, mkArticle, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		articleID, err := mkArticle(ctx)
		if err != nil {
			t.Fatalf("seed article: %v", err)
		}
		res, err := repo.ListByArticle(ctx, articleID, page(1, 20))
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 0 || res.TotalPages != 1 || len(res.Items) != 0 {
			t.Fatalf("unexpected empty page: %+v", res.Summary)
		}
	})
}

func RunTxManagerContract(t *testing.T, makeTx TxFactory) {
	t.Helper()

	t.Run("commit_on_nil_error", func(t *testing.T) {
		tx, articles, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID int64
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := articles.Create(ctx, model.Article{Title: "TxCommit", Author: "ann", Tags: []string{"tx"}})
			if err != nil {
				return err
			}
			createdID = out.ID
			// pages read inside the unit of work see its own writes
			res, err := articles.List(ctx, repository.ArticleFilter{Tags: []string{"tx"}}, page(1, 20))
			if err != nil {
				return err
			}
			if res.Total != 1 {
				return fmt.Errorf("expected own write to be visible, total=%d", res.Total)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("WithinTx: %v", err)
		}
		if _, err := articles.GetByID(ctx, createdID); err != nil {
			t.Fatalf("expected committed row visible, got err=%v", err)
		}
	})

	t.Run("rollback_on_error", func(t *testing.T) {
		tx, articles, cleanup := makeTx(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		var createdID int64
		errMarker := assertErr("boom")
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			out, err := articles.Create(ctx, model.Article{Title: "TxRollback", Author: "ann"})
			if err != nil {
				return err
			}
			createdID = out.ID
			return errMarker
		})
		if err == nil || err.Error() != errMarker.Error() {
			t.Fatalf("expected marker error, got %v", err)
		}
		if _, err := articles.GetByID(ctx, createdID); err != repository.ErrNotFound {
			t.Fatalf("expected ErrNotFound after rollback, got %v", err)
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		if err := p.Ping(context.Background()); err != nil {
			t.Fatalf("expected ping ok, got %v", err)
		}
	})
}

// assertErr builds a sentinel error without importing errors to keep helpers local.
func assertErr(msg string) error { return &sentinel{msg} }

type sentinel struct{ s string }

func (e *sentinel) Error() string { return e.s }
