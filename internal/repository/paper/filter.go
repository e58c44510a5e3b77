package paper

import (
	"github.com/fincatalog/catalog/internal/db"
	"github.com/fincatalog/catalog/internal/domain/query"
)

// textColumns are the fields searched by the free-text criterion.
var textColumns = []string{"title", "authors", "summary"}

// compileCriteria turns search criteria into a conjunctive WHERE clause.
// An empty criteria set yields an empty clause (matches all rows).
func compileCriteria(d db.Dialect, c query.Criteria) *db.WhereBuilder {
	return db.NewWhere(d).
		ContainsFold(c.Q, textColumns...).
		Eq("function", c.Function).
		Eq("technique", c.Technique).
		Eq("industry", c.Industry).
		Eq("stage", c.Stage).
		Gte("year", c.YearFrom).
		Lte("year", c.YearTo)
}

// orderClauses maps whitelisted orderings onto SQL. NULL sort keys always go
// last and id breaks ties, so paging is stable across dialects.
var orderClauses = map[query.Order]string{
	query.OrderYearAsc:   " ORDER BY year IS NULL, year ASC, id ASC",
	query.OrderYearDesc:  " ORDER BY year IS NULL, year DESC, id ASC",
	query.OrderTitleAsc:  " ORDER BY title IS NULL, title ASC, id ASC",
	query.OrderTitleDesc: " ORDER BY title IS NULL, title DESC, id ASC",
}

func orderClause(o query.Order) string {
	if clause, ok := orderClauses[o]; ok {
		return clause
	}
	return orderClauses[query.DefaultOrder]
}
