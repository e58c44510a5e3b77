package query

import (
	"strings"

	"github.com/fincatalog/catalog/internal/domain/paper"
)

// Pagination limits.
const (
	DefaultLimit = 20
	MaxLimit     = 50
	DefaultPage  = 1
)

// Criteria is the set of optional search parameters. Zero values mean "absent".
type Criteria struct {
	Q         string
	Function  string
	Technique string
	Industry  string
	Stage     string
	YearFrom  *int
	YearTo    *int
}

// Text returns the trimmed free-text query.
func (c Criteria) Text() string { return strings.TrimSpace(c.Q) }

// IsEmpty reports whether no criterion is present.
func (c Criteria) IsEmpty() bool {
	return c.Text() == "" && c.Function == "" && c.Technique == "" &&
		c.Industry == "" && c.Stage == "" && c.YearFrom == nil && c.YearTo == nil
}

// Order is a whitelisted sort key. A leading "-" means descending.
type Order string

// Supported orderings.
const (
	OrderYearAsc   Order = "year"
	OrderYearDesc  Order = "-year"
	OrderTitleAsc  Order = "title"
	OrderTitleDesc Order = "-title"

	DefaultOrder = OrderYearDesc
)

// ParseOrder maps raw input onto the whitelist, falling back to DefaultOrder.
func ParseOrder(s string) Order {
	switch o := Order(s); o {
	case OrderYearAsc, OrderYearDesc, OrderTitleAsc, OrderTitleDesc:
		return o
	default:
		return DefaultOrder
	}
}

// Offset returns the row offset of a 1-based page.
func Offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// TotalPages returns ceil(total/limit), never less than 1.
func TotalPages(total, limit int) int {
	if limit < 1 || total <= 0 {
		return 1
	}
	return max(1, (total+limit-1)/limit)
}

// Page is one page of search results plus its metadata.
type Page struct {
	Count      int
	Page       int
	Limit      int
	TotalPages int
	Papers     []paper.Paper
}

// NewPage assembles the envelope. Papers is never nil.
func NewPage(total, page, limit int, papers []paper.Paper) Page {
	if papers == nil {
		papers = []paper.Paper{}
	}
	return Page{
		Count:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: TotalPages(total, limit),
		Papers:     papers,
	}
}

// Request is one normalized list query.
type Request struct {
	Criteria Criteria
	Order    Order
	Page     int
	Limit    int
}

// NewRequest whitelists the order and fills zero page/limit with defaults.
// Range validation of page and limit belongs to the caller.
func NewRequest(c Criteria, order string, page, limit int) Request {
	if page == 0 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	return Request{Criteria: c, Order: ParseOrder(order), Page: page, Limit: limit}
}

// Offset returns the row offset of the requested page.
func (r Request) Offset() int { return Offset(r.Page, r.Limit) }
