package pagination

// Query is the composable, blocking query handle Sync pages over.
// Limit and Offset must return a derived query and leave the receiver untouched.
type Query[T any] interface {
	Limit(n int) Query[T]
	Offset(n int) Query[T]
	Count() (int64, error)
	All() ([]T, error)
}

// Sync pages a Query lazily: the count and the fetch run on first access and are cached
// for the lifetime of the value.
type Sync[T any] struct {
	query    Query[T]
	page     int
	pageSize int

	total     int64
	totalDone bool
	items     []T
	itemsDone bool
}

// NewSync validates the request and wraps q. No query runs until Total or Items is read.
func NewSync[T any](q Query[T], page, pageSize int) (*Sync[T], error) {
	if err := (Request{Page: page, PageSize: pageSize}).Validate(); err != nil {
		return nil, err
	}
	return &Sync[T]{query: q, page: page, pageSize: pageSize}, nil
}

func (p *Sync[T]) Page() int     { return p.page }
func (p *Sync[T]) PageSize() int { return p.pageSize }

// Total counts the rows of the underlying query once. Failures are not cached.
func (p *Sync[T]) Total() (int64, error) {
	if p.totalDone {
		return p.total, nil
	}
	total, err := p.query.Count()
	if err != nil {
		return 0, err
	}
	p.total, p.totalDone = total, true
	return p.total, nil
}

func (p *Sync[T]) TotalPages() (int, error) {
	total, err := p.Total()
	if err != nil {
		return 0, err
	}
	return TotalPages(total, p.pageSize), nil
}

// Items fetches the rows of the effective page. A page past the last one is reset to 1
// before fetching.
func (p *Sync[T]) Items() ([]T, error) {
	if p.itemsDone {
		return p.items, nil
	}
	total, err := p.Total()
	if err != nil {
		return nil, err
	}
	p.page = clamp(p.page, p.pageSize, total)

	items, err := p.paginate().All()
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	p.items, p.itemsDone = items, true
	return p.items, nil
}

func (p *Sync[T]) paginate() Query[T] {
	return p.query.Limit(p.pageSize).Offset(Offset(p.page, p.pageSize))
}

var _ Paginator[struct{}] = (*Sync[struct{}])(nil)
