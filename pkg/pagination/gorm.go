package pagination

import "gorm.io/gorm"

type gormQuery[T any] struct{ db *gorm.DB }

// FromGorm adapts a GORM chain to Query. The chain is forked into a new session so
// deriving limited/offset copies never leaks conditions back into db.
//
//	q := pagination.FromGorm[Comment](db.WithContext(ctx).Where("article_id = ?", id).Order("id"))
func FromGorm[T any](db *gorm.DB) Query[T] {
	return gormQuery[T]{db: db.Session(&gorm.Session{})}
}

func (q gormQuery[T]) Limit(n int) Query[T] {
	return gormQuery[T]{db: q.db.Limit(n).Session(&gorm.Session{})}
}

func (q gormQuery[T]) Offset(n int) Query[T] {
	return gormQuery[T]{db: q.db.Offset(n).Session(&gorm.Session{})}
}

// Count ignores any window already applied; GORM drops ORDER BY on its own.
func (q gormQuery[T]) Count() (int64, error) {
	var n int64
	err := q.db.Offset(-1).Limit(-1).Model(new(T)).Count(&n).Error
	return n, err
}

func (q gormQuery[T]) All() ([]T, error) {
	var out []T
	if err := q.db.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
