package pagination_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/pagekit/pkg/pagination"
)

// sliceQuery is an in-memory Query that records how often the store was hit.
type sliceQuery struct {
	rows     []int
	limit    int
	offset   int
	countErr error
	allErr   error

	stats *queryStats
}

type queryStats struct {
	counts  int
	fetches int
	windows [][2]int
}

func newSliceQuery(rows []int) *sliceQuery {
	return &sliceQuery{rows: rows, limit: -1, stats: &queryStats{}}
}

func (q *sliceQuery) Limit(n int) pagination.Query[int] {
	c := *q
	c.limit = n
	return &c
}

func (q *sliceQuery) Offset(n int) pagination.Query[int] {
	c := *q
	c.offset = n
	return &c
}

func (q *sliceQuery) Count() (int64, error) {
	q.stats.counts++
	if q.countErr != nil {
		return 0, q.countErr
	}
	return int64(len(q.rows)), nil
}

func (q *sliceQuery) All() ([]int, error) {
	q.stats.fetches++
	q.stats.windows = append(q.stats.windows, [2]int{q.limit, q.offset})
	if q.allErr != nil {
		return nil, q.allErr
	}
	if q.offset >= len(q.rows) {
		return nil, nil
	}
	end := len(q.rows)
	if q.limit >= 0 && q.offset+q.limit < end {
		end = q.offset + q.limit
	}
	return append([]int(nil), q.rows[q.offset:end]...), nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestNewSync_RejectsInvalidRequest(t *testing.T) {
	_, err := pagination.NewSync[int](newSliceQuery(nil), 0, 20)
	assert.ErrorIs(t, err, pagination.ErrInvalidRequest)

	_, err = pagination.NewSync[int](newSliceQuery(nil), 1, 0)
	assert.ErrorIs(t, err, pagination.ErrInvalidRequest)
}

func TestSync_FortyFiveRowsByTwenty(t *testing.T) {
	rows := seq(45)
	wantLens := map[int]int{1: 20, 2: 20, 3: 5}

	for page, wantLen := range wantLens {
		p, err := pagination.NewSync[int](newSliceQuery(rows), page, 20)
		require.NoError(t, err)

		pages, err := p.TotalPages()
		require.NoError(t, err)
		assert.Equal(t, 3, pages)

		items, err := p.Items()
		require.NoError(t, err)
		assert.Len(t, items, wantLen, "page %d", page)
		assert.Equal(t, rows[(page-1)*20], items[0])
		assert.Equal(t, page, p.Page())
	}
}

func TestSync_EmptyResult(t *testing.T) {
	q := newSliceQuery(nil)
	p, err := pagination.NewSync[int](q, 1, 20)
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
}

func TestSync_OutOfRangePageResetsToFirst(t *testing.T) {
	q := newSliceQuery(seq(45))
	p, err := pagination.NewSync[int](q, 10, 20)
	require.NoError(t, err)

	items, err := p.Items()
	require.NoError(t, err)

	assert.Equal(t, 1, p.Page())
	assert.Equal(t, seq(20), items)
	assert.Equal(t, [][2]int{{20, 0}}, q.stats.windows)
}

func TestSync_LastPageIsNotClamped(t *testing.T) {
	q := newSliceQuery(seq(45))
	p, err := pagination.NewSync[int](q, 3, 20)
	require.NoError(t, err)

	items, err := p.Items()
	require.NoError(t, err)
	assert.Equal(t, 3, p.Page())
	assert.Equal(t, []int{41, 42, 43, 44, 45}, items)
}

func TestSync_MemoizesIncludingZero(t *testing.T) {
	tests := []struct {
		name string
		rows []int
	}{
		{"non-empty", seq(5)},
		{"empty total and page are cached too", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := newSliceQuery(tc.rows)
			p, err := pagination.NewSync[int](q, 1, 20)
			require.NoError(t, err)

			for i := 0; i < 3; i++ {
				_, err := p.Total()
				require.NoError(t, err)
				_, err = p.Items()
				require.NoError(t, err)
				_, err = p.TotalPages()
				require.NoError(t, err)
			}

			assert.Equal(t, 1, q.stats.counts)
			assert.Equal(t, 1, q.stats.fetches)
		})
	}
}

func TestSync_LazyUntilRead(t *testing.T) {
	q := newSliceQuery(seq(5))
	_, err := pagination.NewSync[int](q, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, q.stats.counts)
	assert.Zero(t, q.stats.fetches)
}

func TestSync_ErrorsPropagateAndAreNotCached(t *testing.T) {
	boom := errors.New("db down")
	q := newSliceQuery(seq(5))
	q.allErr = boom

	p, err := pagination.NewSync[int](q, 1, 2)
	require.NoError(t, err)

	_, err = p.Items()
	assert.Same(t, boom, err)
	_, err = p.Items()
	assert.Same(t, boom, err)
	assert.Equal(t, 2, q.stats.fetches)
	assert.Equal(t, 1, q.stats.counts)
}

func TestSync_RoundTripCoversEveryRowOnce(t *testing.T) {
	for _, size := range []int{1, 3, 7, 20, 50} {
		rows := seq(45)
		first, err := pagination.NewSync[int](newSliceQuery(rows), 1, size)
		require.NoError(t, err)
		pages, err := first.TotalPages()
		require.NoError(t, err)

		var all []int
		seen := map[int]bool{}
		for page := 1; page <= pages; page++ {
			p, err := pagination.NewSync[int](newSliceQuery(rows), page, size)
			require.NoError(t, err)
			items, err := p.Items()
			require.NoError(t, err)
			for _, it := range items {
				require.False(t, seen[it], "duplicate %d with size %d", it, size)
				seen[it] = true
			}
			all = append(all, items...)
		}
		assert.Equal(t, rows, all, "size %d", size)
	}
}
