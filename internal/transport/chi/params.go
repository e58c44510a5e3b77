package chi

import (
	"fmt"
	"net/url"

	"github.com/oapi-codegen/runtime"

	"github.com/fincatalog/catalog/internal/domain"
	"github.com/fincatalog/catalog/internal/domain/query"
)

// paramError describes a query parameter that failed to parse or validate.
type paramError struct {
	Name   string
	Reason string
}

func (e *paramError) Error() string { return e.Name + ": " + e.Reason }

func (e *paramError) Unwrap() error { return domain.ErrInvalidParameter }

// listParams mirrors the GET /api/papers query string. Nil means absent.
type listParams struct {
	Q         *string
	Function  *string
	Technique *string
	Industry  *string
	Stage     *string
	YearFrom  *int
	YearTo    *int
	Order     *string
	Page      *int
	Limit     *int
}

func bindListParams(values url.Values) (listParams, error) {
	var p listParams
	bindings := []struct {
		name string
		dest any
	}{
		{"q", &p.Q},
		{"function", &p.Function},
		{"technique", &p.Technique},
		{"industry", &p.Industry},
		{"stage", &p.Stage},
		{"year_from", &p.YearFrom},
		{"year_to", &p.YearTo},
		{"order", &p.Order},
		{"page", &p.Page},
		{"limit", &p.Limit},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, values, b.dest); err != nil {
			return listParams{}, &paramError{Name: b.name, Reason: reasonFor(b.dest)}
		}
	}
	return p, nil
}

func reasonFor(dest any) string {
	if _, ok := dest.(**int); ok {
		return "must be a single valid integer"
	}
	return "must be a single value"
}

// parseListParams binds and validates the list query. page must be >= 1 and
// limit must lie in [1, maxLimit]; order is normalized, never rejected.
func parseListParams(values url.Values, defaultLimit, maxLimit int) (query.Request, error) {
	p, err := bindListParams(values)
	if err != nil {
		return query.Request{}, err
	}

	page := query.DefaultPage
	if p.Page != nil {
		if *p.Page < 1 {
			return query.Request{}, &paramError{Name: "page", Reason: "must be greater than or equal to 1"}
		}
		page = *p.Page
	}

	limit := defaultLimit
	if p.Limit != nil {
		if *p.Limit < 1 || *p.Limit > maxLimit {
			return query.Request{}, &paramError{
				Name:   "limit",
				Reason: fmt.Sprintf("must be between 1 and %d", maxLimit),
			}
		}
		limit = *p.Limit
	}

	c := query.Criteria{
		Q:         deref(p.Q),
		Function:  deref(p.Function),
		Technique: deref(p.Technique),
		Industry:  deref(p.Industry),
		Stage:     deref(p.Stage),
		YearFrom:  p.YearFrom,
		YearTo:    p.YearTo,
	}
	return query.NewRequest(c, deref(p.Order), page, limit), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
