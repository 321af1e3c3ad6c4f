package pagination_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/pagekit/pkg/pagination"
	"github.com/maxviazov/pagekit/pkg/query"
)

// memRows is a minimal pgx.Rows over in-memory values.
type memRows struct {
	fields []pgconn.FieldDescription
	data   [][]any
	pos    int
	closed bool
	err    error
}

func newMemRows(columns []string, data [][]any) *memRows {
	fields := make([]pgconn.FieldDescription, len(columns))
	for i, c := range columns {
		fields[i] = pgconn.FieldDescription{Name: c}
	}
	return &memRows{fields: fields, data: data, pos: -1}
}

func (r *memRows) Close()                                       { r.closed = true }
func (r *memRows) Err() error                                   { return r.err }
func (r *memRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *memRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *memRows) RawValues() [][]byte                          { return nil }
func (r *memRows) Conn() *pgx.Conn                              { return nil }

func (r *memRows) Next() bool {
	if r.closed {
		return false
	}
	r.pos++
	if r.pos >= len(r.data) {
		r.Close()
		return false
	}
	return true
}

func (r *memRows) Values() ([]any, error) {
	return append([]any(nil), r.data[r.pos]...), nil
}

func (r *memRows) Scan(dest ...any) error {
	row := r.data[r.pos]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d targets for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		if err := assign(d, row[i]); err != nil {
			return err
		}
	}
	return nil
}

func assign(dest, v any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return errors.New("scan: destination must be a non-nil pointer")
	}
	target := dv.Elem()
	if v == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}
	val := reflect.ValueOf(v)
	if target.Kind() == reflect.Pointer {
		p := reflect.New(target.Type().Elem())
		p.Elem().Set(val.Convert(target.Type().Elem()))
		target.Set(p)
		return nil
	}
	target.Set(val.Convert(target.Type()))
	return nil
}

var windowRe = regexp.MustCompile(`LIMIT (\d+) OFFSET (\d+)$`)

// memSession answers count queries with count and windowed queries from data.
type memSession struct {
	columns []string
	data    [][]any
	count   any

	countErr error
	fetchErr error
	queries  []string
	args     [][]any
}

func (s *memSession) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	s.queries = append(s.queries, sql)
	s.args = append(s.args, args)
	if strings.HasPrefix(sql, "SELECT count(") {
		if s.countErr != nil {
			return nil, s.countErr
		}
		if s.count == "absent" {
			return newMemRows([]string{"count"}, nil), nil
		}
		return newMemRows([]string{"count"}, [][]any{{s.count}}), nil
	}
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	m := windowRe.FindStringSubmatch(sql)
	if m == nil {
		return nil, fmt.Errorf("unexpected query %q", sql)
	}
	limit, _ := strconv.Atoi(m[1])
	offset, _ := strconv.Atoi(m[2])
	if offset > len(s.data) {
		offset = len(s.data)
	}
	end := offset + limit
	if end > len(s.data) {
		end = len(s.data)
	}
	return newMemRows(s.columns, s.data[offset:end]), nil
}

type article struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
}

var articlesEntity = query.Entity{Table: "articles", Alias: "a", IDColumn: "id"}

func articleRows(n int) [][]any {
	out := make([][]any, n)
	for i := range out {
		out[i] = []any{int64(i + 1), fmt.Sprintf("article %d", i+1)}
	}
	return out
}

func TestCreate_FortyFiveRowsByTwenty(t *testing.T) {
	ctx := context.Background()
	sess := &memSession{columns: []string{"id", "title"}, data: articleRows(45), count: int64(45)}
	q := query.From(articlesEntity).OrderBy("a.id")

	wantLens := map[int]int{1: 20, 2: 20, 3: 5}
	for page, wantLen := range wantLens {
		p, err := pagination.Create[article](ctx, sess, q, page, 20, nil)
		require.NoError(t, err)

		res := p.Result()
		assert.Equal(t, int64(45), res.Total)
		assert.Equal(t, 3, res.TotalPages)
		assert.Equal(t, page, res.Page)
		require.Len(t, res.Items, wantLen)
		assert.Equal(t, int64((page-1)*20+1), res.Items[0].ID)
		assert.Equal(t, fmt.Sprintf("article %d", (page-1)*20+1), res.Items[0].Title)
	}
}

func TestCreate_CountQueryDropsOrderingAndCountsDistinctIdentity(t *testing.T) {
	sess := &memSession{columns: []string{"id", "title"}, data: articleRows(3), count: int64(3)}
	q := query.From(articlesEntity).
		Join("JOIN article_tags t ON t.article_id = a.id").
		Where("t.tag = ANY(?)", []string{"go"}).
		OrderBy("a.created_at DESC")

	_, err := pagination.Create[article](context.Background(), sess, q, 1, 20, nil)
	require.NoError(t, err)

	require.Len(t, sess.queries, 2)
	assert.Equal(t,
		"SELECT count(DISTINCT a.id) FROM articles a JOIN article_tags t ON t.article_id = a.id WHERE (t.tag = ANY($1))",
		sess.queries[0])
	assert.Equal(t,
		"SELECT a.* FROM articles a JOIN article_tags t ON t.article_id = a.id WHERE (t.tag = ANY($1)) ORDER BY a.created_at DESC LIMIT 20 OFFSET 0",
		sess.queries[1])
	assert.Equal(t, []any{[]string{"go"}}, sess.args[0])

	assert.True(t, q.HasOrderBy(), "caller query must not be mutated")
}

func TestCreate_EmptyAndNullCount(t *testing.T) {
	for name, count := range map[string]any{"zero": int64(0), "null": nil, "no row": "absent"} {
		t.Run(name, func(t *testing.T) {
			sess := &memSession{columns: []string{"id", "title"}, count: count}
			p, err := pagination.Create[article](context.Background(), sess, query.From(articlesEntity), 1, 20, nil)
			require.NoError(t, err)

			total, err := p.Total()
			require.NoError(t, err)
			assert.Zero(t, total)

			pages, err := p.TotalPages()
			require.NoError(t, err)
			assert.Equal(t, 1, pages)

			items, err := p.Items()
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestCreate_OutOfRangePageResetsToFirst(t *testing.T) {
	sess := &memSession{columns: []string{"id", "title"}, data: articleRows(45), count: int64(45)}
	p, err := pagination.Create[article](context.Background(), sess, query.From(articlesEntity), 10, 20, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, p.Page())
	items, err := p.Items()
	require.NoError(t, err)
	require.Len(t, items, 20)
	assert.Equal(t, int64(1), items[0].ID)
	assert.True(t, strings.HasSuffix(sess.queries[1], "LIMIT 20 OFFSET 0"))
}

func TestCreate_CollapsesJoinDuplicates(t *testing.T) {
	// One article joined to three tags comes back three times.
	sess := &memSession{
		columns: []string{"id", "title"},
		data: [][]any{
			{int64(1), "joined"},
			{int64(1), "joined"},
			{int64(1), "joined"},
			{int64(2), "single"},
		},
		count: int64(2),
	}
	p, err := pagination.Create[article](context.Background(), sess, query.From(articlesEntity), 1, 20, nil)
	require.NoError(t, err)

	items, err := p.Items()
	require.NoError(t, err)
	assert.Equal(t, []article{{ID: 1, Title: "joined"}, {ID: 2, Title: "single"}}, items)
}

func TestCreate_CustomScanFunc(t *testing.T) {
	sess := &memSession{columns: []string{"id", "title"}, data: articleRows(2), count: int64(2)}
	titles := func(row pgx.CollectableRow) (string, error) {
		var (
			id    int64
			title string
		)
		err := row.Scan(&id, &title)
		return strings.ToUpper(title), err
	}
	p, err := pagination.Create[string](context.Background(), sess, query.From(articlesEntity), 1, 20, titles)
	require.NoError(t, err)
	assert.Equal(t, []string{"ARTICLE 1", "ARTICLE 2"}, p.Result().Items)
}

func TestCreateRows_DedupesIdenticalRowsOnly(t *testing.T) {
	sess := &memSession{
		columns: []string{"id", "title"},
		data: [][]any{
			{int64(1), "a"},
			{int64(1), "a"},
			{int64(1), "b"},
			{int64(2), "c"},
		},
		count: int64(2),
	}
	p, err := pagination.CreateRows(context.Background(), sess, query.From(articlesEntity), 1, 20)
	require.NoError(t, err)

	items, err := p.Items()
	require.NoError(t, err)
	assert.Equal(t, []pagination.Row{{int64(1), "a"}, {int64(1), "b"}, {int64(2), "c"}}, items)
}

func TestCreate_PropagatesFailures(t *testing.T) {
	boom := errors.New("server closed the connection")

	t.Run("count", func(t *testing.T) {
		sess := &memSession{countErr: boom}
		p, err := pagination.Create[article](context.Background(), sess, query.From(articlesEntity), 1, 20, nil)
		assert.Nil(t, p)
		assert.ErrorIs(t, err, boom)
		assert.Len(t, sess.queries, 1)
	})

	t.Run("fetch", func(t *testing.T) {
		sess := &memSession{count: int64(5), fetchErr: boom}
		p, err := pagination.CreateRows(context.Background(), sess, query.From(articlesEntity), 1, 20)
		assert.Nil(t, p)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("invalid request never reaches the session", func(t *testing.T) {
		sess := &memSession{}
		_, err := pagination.Create[article](context.Background(), sess, query.From(articlesEntity), 1, 0, nil)
		assert.ErrorIs(t, err, pagination.ErrInvalidRequest)
		assert.Empty(t, sess.queries)
	})
}

func TestAsync_ZeroValuePanics(t *testing.T) {
	var p pagination.Async[article]
	assert.Panics(t, func() { _, _ = p.Items() })
	assert.Panics(t, func() { _, _ = p.Total() })

	var nilPtr *pagination.Async[article]
	assert.Panics(t, func() { _ = nilPtr.Page() })
}

func TestAsync_SatisfiesContract(t *testing.T) {
	sess := &memSession{columns: []string{"id", "title"}, data: articleRows(45), count: int64(45)}
	p, err := pagination.Create[article](context.Background(), sess, query.From(articlesEntity), 3, 20, nil)
	require.NoError(t, err)

	res, err := pagination.Collect[article](p)
	require.NoError(t, err)
	assert.Equal(t, p.Result(), res)
	assert.Len(t, sess.queries, 2, "reads must not hit the session again")
}

func TestCreate_RoundTripCoversEveryRowOnce(t *testing.T) {
	const total, size = 45, 7
	sess := &memSession{columns: []string{"id", "title"}, data: articleRows(total), count: int64(total)}
	q := query.From(articlesEntity).OrderBy("a.id")

	first, err := pagination.Create[article](context.Background(), sess, q, 1, size, nil)
	require.NoError(t, err)
	pages, err := first.TotalPages()
	require.NoError(t, err)
	require.Equal(t, 7, pages)

	seen := map[int64]int{}
	for page := 1; page <= pages; page++ {
		p, err := pagination.Create[article](context.Background(), sess, q, page, size, nil)
		require.NoError(t, err)
		require.Equal(t, page, p.Page(), "an in-range page must not be reset")
		for _, a := range p.Result().Items {
			seen[a.ID]++
		}
	}
	assert.Len(t, seen, total)
	for id, n := range seen {
		assert.Equal(t, 1, n, "article %d served %d times", id, n)
	}
}

func TestCreateRows_RoundTripCoversEveryRowOnce(t *testing.T) {
	const total, size = 23, 5
	sess := &memSession{columns: []string{"id", "title"}, data: articleRows(total), count: int64(total)}
	q := query.From(articlesEntity).WithOnlyColumns("a.id", "a.title").OrderBy("a.id")

	var got []int64
	for page := 1; page <= pagination.TotalPages(total, size); page++ {
		p, err := pagination.CreateRows(context.Background(), sess, q, page, size)
		require.NoError(t, err)
		require.Equal(t, page, p.Page())
		for _, row := range p.Result().Items {
			got = append(got, row[0].(int64))
		}
	}
	want := make([]int64, total)
	for i := range want {
		want[i] = int64(i + 1)
	}
	assert.Equal(t, want, got)
}

func TestCreate_DedupeAndCountShareIdentityColumn(t *testing.T) {
	users := query.Entity{Table: "users", Alias: "u", IDColumn: "uid"}
	sess := &memSession{
		columns: []string{"uid", "name"},
		data: [][]any{
			{int64(7), "ann"},
			{int64(7), "ann"},
			{int64(8), "bob"},
		},
		count: int64(2),
	}
	name := func(row pgx.CollectableRow) (string, error) {
		var (
			uid int64
			n   string
		)
		err := row.Scan(&uid, &n)
		return n, err
	}
	p, err := pagination.Create[string](context.Background(), sess, query.From(users), 1, 20, name)
	require.NoError(t, err)

	assert.Equal(t, []string{"ann", "bob"}, p.Result().Items)
	assert.Equal(t, "SELECT count(DISTINCT u.uid) FROM users u", sess.queries[0])
}
