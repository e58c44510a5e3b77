package catalog

import (
	"github.com/fincatalog/catalog/internal/domain"
	"github.com/fincatalog/catalog/internal/domain/paper"
	"github.com/fincatalog/catalog/internal/domain/query"
)

// Paper is one catalog record.
type Paper = paper.Paper

// Criteria holds optional search filters. Zero values mean "absent".
type Criteria = query.Criteria

// Page is one page of search results plus its metadata.
type Page = query.Page

// Query describes one list request. Zero Page and Limit take the defaults
// (page 1, 20 per page); Order accepts year, -year, title, -title and falls
// back to -year for anything else.
type Query struct {
	Criteria Criteria
	Order    string
	Page     int
	Limit    int
}

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound           = domain.ErrPaperNotFound
	ErrInvalidParameter   = domain.ErrInvalidParameter
	ErrStorageUnavailable = domain.ErrStorageUnavailable
)

// DeriveID returns the identity a record without an explicit id receives.
func DeriveID(link, title string) string { return paper.DeriveID(link, title) }
