// Package query provides a small composable SELECT builder for Postgres.
// Every modifier returns a copy, so a base query can be shared and derived from freely.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Entity describes the primary model a query selects: its table, alias and identity column.
type Entity struct {
	Table    string
	Alias    string
	IDColumn string
}

// Ref returns the qualifier used for the entity's columns (alias if set, table otherwise).
func (e Entity) Ref() string {
	if e.Alias != "" {
		return e.Alias
	}
	return e.Table
}

// IDName returns the bare identity column name, "id" unless IDColumn says otherwise.
func (e Entity) IDName() string {
	if e.IDColumn == "" {
		return "id"
	}
	return e.IDColumn
}

// ID returns the qualified identity column, e.g. "a.id".
func (e Entity) ID() string { return e.Ref() + "." + e.IDName() }

// All returns the star projection for the entity, e.g. "a.*".
func (e Entity) All() string { return e.Ref() + ".*" }

type clause struct {
	sql  string
	args []any
}

// Select is an immutable SELECT statement.
type Select struct {
	entity   Entity
	columns  []string
	distinct bool
	joins    []clause
	where    []clause
	groupBy  []string
	orderBy  []string
	limit    *int
	offset   *int
}

// From starts a query selecting every column of the entity.
func From(e Entity) *Select {
	return &Select{entity: e, columns: []string{e.All()}}
}

func (s *Select) clone() *Select {
	c := *s
	c.columns = append([]string(nil), s.columns...)
	c.joins = append([]clause(nil), s.joins...)
	c.where = append([]clause(nil), s.where...)
	c.groupBy = append([]string(nil), s.groupBy...)
	c.orderBy = append([]string(nil), s.orderBy...)
	return &c
}

// Entity returns the primary selected model.
func (s *Select) Entity() Entity { return s.entity }

// Columns returns the current projection.
func (s *Select) Columns() []string { return append([]string(nil), s.columns...) }

// WithOnlyColumns replaces the projection.
func (s *Select) WithOnlyColumns(cols ...string) *Select {
	c := s.clone()
	c.columns = append([]string(nil), cols...)
	return c
}

// Distinct toggles SELECT DISTINCT.
func (s *Select) Distinct(on bool) *Select {
	c := s.clone()
	c.distinct = on
	return c
}

// Join appends a join clause verbatim, e.g. "JOIN article_tags t ON t.article_id = a.id".
// Placeholders are written as "?" and rebound at build time.
func (s *Select) Join(sql string, args ...any) *Select {
	c := s.clone()
	c.joins = append(c.joins, clause{sql: sql, args: args})
	return c
}

// Where appends a predicate; predicates are AND-ed.
func (s *Select) Where(sql string, args ...any) *Select {
	c := s.clone()
	c.where = append(c.where, clause{sql: sql, args: args})
	return c
}

// GroupBy appends grouping expressions.
func (s *Select) GroupBy(exprs ...string) *Select {
	c := s.clone()
	c.groupBy = append(c.groupBy, exprs...)
	return c
}

// OrderBy appends ordering expressions.
func (s *Select) OrderBy(exprs ...string) *Select {
	c := s.clone()
	c.orderBy = append(c.orderBy, exprs...)
	return c
}

// ClearOrderBy drops every ordering expression.
func (s *Select) ClearOrderBy() *Select {
	c := s.clone()
	c.orderBy = nil
	return c
}

// HasOrderBy reports whether the query carries an ORDER BY clause.
func (s *Select) HasOrderBy() bool { return len(s.orderBy) > 0 }

// Limit sets LIMIT.
func (s *Select) Limit(n int) *Select {
	c := s.clone()
	c.limit = &n
	return c
}

// Offset sets OFFSET.
func (s *Select) Offset(n int) *Select {
	c := s.clone()
	c.offset = &n
	return c
}

// ToSQL renders the statement with $n placeholders and returns its arguments in order.
func (s *Select) ToSQL() (string, []any) {
	var (
		b    strings.Builder
		args []any
	)

	b.WriteString("SELECT ")
	if s.distinct {
		b.WriteString("DISTINCT ")
	}
	if len(s.columns) == 0 {
		b.WriteString(s.entity.All())
	} else {
		b.WriteString(strings.Join(s.columns, ", "))
	}

	b.WriteString(" FROM ")
	b.WriteString(s.entity.Table)
	if s.entity.Alias != "" {
		b.WriteString(" ")
		b.WriteString(s.entity.Alias)
	}

	for _, j := range s.joins {
		b.WriteString(" ")
		b.WriteString(rebind(j.sql, len(args)))
		args = append(args, j.args...)
	}

	if len(s.where) > 0 {
		parts := make([]string, 0, len(s.where))
		for _, w := range s.where {
			parts = append(parts, "("+rebind(w.sql, len(args))+")")
			args = append(args, w.args...)
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(parts, " AND "))
	}

	if len(s.groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(s.groupBy, ", "))
	}

	if len(s.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.orderBy, ", "))
	}

	if s.limit != nil {
		b.WriteString(fmt.Sprintf(" LIMIT %d", *s.limit))
	}
	if s.offset != nil {
		b.WriteString(fmt.Sprintf(" OFFSET %d", *s.offset))
	}

	return b.String(), args
}

// String renders the SQL text only; handy in logs.
func (s *Select) String() string {
	sql, _ := s.ToSQL()
	return sql
}

// rebind turns "?" placeholders into "$n", numbering from start+1.
func rebind(sql string, start int) string {
	if !strings.Contains(sql, "?") {
		return sql
	}
	var b strings.Builder
	n := start
	for _, r := range sql {
		if r == '?' {
			n++
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
