package pagination

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/maxviazov/pagekit/pkg/query"
)

// Session executes a query and hands back its rows.
// *pgxpool.Pool, *pgx.Conn and pgx.Tx all satisfy it; the paginator never closes it.
type Session interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Row is a raw result row as returned by pgx.Rows.Values.
type Row = []any

// Async is a page resolved up front by Create or CreateRows.
// The zero value is not usable: its accessors panic.
type Async[T any] struct {
	page     int
	pageSize int
	total    int64
	items    []T
	ready    bool
}

// Create counts q, clamps page and fetches it, mapping every row to one entity with scan
// (pgx.RowToStructByNameLax[T] when nil). Rows repeating an entity identity already seen,
// as produced by one-to-many joins, are collapsed into the first occurrence.
func Create[T any](ctx context.Context, sess Session, q *query.Select, page, pageSize int, scan pgx.RowToFunc[T]) (*Async[T], error) {
	if scan == nil {
		scan = pgx.RowToStructByNameLax[T]
	}
	idColumn := q.Entity().IDName()
	return create(ctx, sess, q, page, pageSize, func(rows pgx.Rows) ([]T, error) {
		return collectUnique(rows, idColumn, scan)
	})
}

// CreateRows is Create for raw rows: each row is kept as its decoded values and exact
// duplicates are dropped.
func CreateRows(ctx context.Context, sess Session, q *query.Select, page, pageSize int) (*Async[Row], error) {
	return create(ctx, sess, q, page, pageSize, func(rows pgx.Rows) ([]Row, error) {
		return collectUnique(rows, "", func(r pgx.CollectableRow) (Row, error) { return r.Values() })
	})
}

func create[T any](ctx context.Context, sess Session, q *query.Select, page, pageSize int, collect func(pgx.Rows) ([]T, error)) (*Async[T], error) {
	if err := (Request{Page: page, PageSize: pageSize}).Validate(); err != nil {
		return nil, err
	}

	total, err := countDistinct(ctx, sess, q)
	if err != nil {
		return nil, err
	}

	page = clamp(page, pageSize, total)

	sql, args := q.Limit(pageSize).Offset(Offset(page, pageSize)).ToSQL()
	rows, err := sess.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("pagination: fetch page %d of %s: %w", page, q.Entity().Table, err)
	}
	items, err := collect(rows)
	if err != nil {
		return nil, fmt.Errorf("pagination: fetch page %d of %s: %w", page, q.Entity().Table, err)
	}

	return &Async[T]{
		page:     page,
		pageSize: pageSize,
		total:    total,
		items:    items,
		ready:    true,
	}, nil
}

// countDistinct counts distinct identities of the primary entity. Ordering is stripped:
// it means nothing for an aggregate and Postgres rejects it next to count().
func countDistinct(ctx context.Context, sess Session, q *query.Select) (int64, error) {
	countQ := q.WithOnlyColumns(fmt.Sprintf("count(DISTINCT %s)", q.Entity().ID())).ClearOrderBy()
	sql, args := countQ.ToSQL()

	rows, err := sess.Query(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("pagination: count %s: %w", q.Entity().Table, err)
	}
	counts, err := pgx.CollectRows(rows, pgx.RowTo[*int64])
	if err != nil {
		return 0, fmt.Errorf("pagination: count %s: %w", q.Entity().Table, err)
	}
	if len(counts) == 0 || counts[0] == nil {
		return 0, nil
	}
	return *counts[0], nil
}

// collectUnique maps rows with fn, skipping rows whose identity was already seen.
// Identity is the value of idColumn when the result carries it, the whole row otherwise.
func collectUnique[T any](rows pgx.Rows, idColumn string, fn pgx.RowToFunc[T]) ([]T, error) {
	defer rows.Close()

	out := make([]T, 0)
	seen := make(map[string]struct{})
	idx := -2
	for rows.Next() {
		if idx == -2 {
			idx = columnIndex(rows.FieldDescriptions(), idColumn)
		}
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		key := identity(values, idx)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		item, err := fn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func columnIndex(fields []pgconn.FieldDescription, name string) int {
	if name == "" {
		return -1
	}
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func identity(values []any, idx int) string {
	if idx >= 0 && idx < len(values) {
		return fmt.Sprintf("%#v", values[idx])
	}
	return fmt.Sprintf("%#v", values)
}

func (p *Async[T]) mustBeReady() {
	assert(p != nil && p.ready, "pagination: Async used before Create completed")
}

func (p *Async[T]) Page() int {
	p.mustBeReady()
	return p.page
}

func (p *Async[T]) PageSize() int {
	p.mustBeReady()
	return p.pageSize
}

func (p *Async[T]) Total() (int64, error) {
	p.mustBeReady()
	return p.total, nil
}

func (p *Async[T]) Items() ([]T, error) {
	p.mustBeReady()
	return p.items, nil
}

func (p *Async[T]) TotalPages() (int, error) {
	p.mustBeReady()
	return TotalPages(p.total, p.pageSize), nil
}

// Result returns the resolved page without going through the error-returning contract.
func (p *Async[T]) Result() Result[T] {
	p.mustBeReady()
	return Result[T]{
		Summary: Summary{
			Page:       p.page,
			PageSize:   p.pageSize,
			Total:      p.total,
			TotalPages: TotalPages(p.total, p.pageSize),
		},
		Items: p.items,
	}
}

var _ Paginator[Row] = (*Async[Row])(nil)
