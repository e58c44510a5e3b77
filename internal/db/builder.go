package db

import (
	"strconv"
	"strings"
)

// Dialect selects placeholder syntax for bound parameters.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Placeholder returns the n-th (1-based) bind marker.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// likeEscaper makes LIKE wildcards in user text match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// WhereBuilder accumulates conjunctive clauses and their bound values.
// Column names are trusted identifiers supplied by code; every user value
// goes through Bind and never reaches the SQL text.
type WhereBuilder struct {
	dialect Dialect
	clauses []string
	args    []any
}

// NewWhere starts an empty predicate (matches everything).
func NewWhere(d Dialect) *WhereBuilder {
	return &WhereBuilder{dialect: d}
}

// Bind appends a value and returns its placeholder.
func (b *WhereBuilder) Bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

// Eq adds "col = value" unless value is empty.
func (b *WhereBuilder) Eq(col, value string) *WhereBuilder {
	if value == "" {
		return b
	}
	b.clauses = append(b.clauses, col+" = "+b.Bind(value))
	return b
}

// Gte adds "col >= value" when value is set.
func (b *WhereBuilder) Gte(col string, value *int) *WhereBuilder {
	if value == nil {
		return b
	}
	b.clauses = append(b.clauses, col+" >= "+b.Bind(*value))
	return b
}

// Lte adds "col <= value" when value is set.
func (b *WhereBuilder) Lte(col string, value *int) *WhereBuilder {
	if value == nil {
		return b
	}
	b.clauses = append(b.clauses, col+" <= "+b.Bind(*value))
	return b
}

// ContainsFold adds a case-insensitive substring match against any of cols.
// Both sides are folded by the engine's LOWER so column and pattern share one
// case mapping. Blank text adds nothing.
func (b *WhereBuilder) ContainsFold(text string, cols ...string) *WhereBuilder {
	text = strings.TrimSpace(text)
	if text == "" || len(cols) == 0 {
		return b
	}
	pattern := "%" + likeEscaper.Replace(text) + "%"
	ors := make([]string, len(cols))
	for i, col := range cols {
		ors[i] = "LOWER(" + col + ") LIKE LOWER(" + b.Bind(pattern) + `) ESCAPE '\'`
	}
	b.clauses = append(b.clauses, "("+strings.Join(ors, " OR ")+")")
	return b
}

// Where renders " WHERE c1 AND c2 ..." or "" when no clause was added.
func (b *WhereBuilder) Where() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

// Args returns the bound values in placeholder order.
func (b *WhereBuilder) Args() []any {
	return b.args
}

// Len returns the number of clauses.
func (b *WhereBuilder) Len() int { return len(b.clauses) }
