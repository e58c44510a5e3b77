package paper

import (
	"database/sql"
	"strings"

	dompaper "github.com/fincatalog/catalog/internal/domain/paper"
)

// columns lists every persisted field in table order; id comes first.
var columns = []string{
	"id", "title", "authors", "year", "venue", "link", "doi", "open_access",
	"summary", "use_case", "dataset", "model", "results", "business_impact",
	"industry", "function", "modality", "technique", "stage", "source_evidence",
}

var selectColumns = strings.Join(columns, ", ")

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

type paperRow struct {
	id             string
	title          sql.NullString
	authors        sql.NullString
	year           sql.NullInt64
	venue          sql.NullString
	link           sql.NullString
	doi            sql.NullString
	openAccess     sql.NullInt64
	summary        sql.NullString
	useCase        sql.NullString
	dataset        sql.NullString
	model          sql.NullString
	results        sql.NullString
	businessImpact sql.NullString
	industry       sql.NullString
	function       sql.NullString
	modality       sql.NullString
	technique      sql.NullString
	stage          sql.NullString
	sourceEvidence sql.NullString
}

func scanPaper(s rowScanner) (dompaper.Paper, error) {
	var r paperRow
	err := s.Scan(
		&r.id, &r.title, &r.authors, &r.year, &r.venue, &r.link, &r.doi, &r.openAccess,
		&r.summary, &r.useCase, &r.dataset, &r.model, &r.results, &r.businessImpact,
		&r.industry, &r.function, &r.modality, &r.technique, &r.stage, &r.sourceEvidence,
	)
	if err != nil {
		return dompaper.Paper{}, err
	}

	p := dompaper.Paper{
		ID:             r.id,
		Title:          r.title.String,
		Authors:        r.authors.String,
		Venue:          r.venue.String,
		Link:           r.link.String,
		DOI:            r.doi.String,
		Summary:        r.summary.String,
		UseCase:        r.useCase.String,
		Dataset:        r.dataset.String,
		Model:          r.model.String,
		Results:        r.results.String,
		BusinessImpact: r.businessImpact.String,
		Industry:       r.industry.String,
		Function:       r.function.String,
		Modality:       r.modality.String,
		Technique:      r.technique.String,
		Stage:          r.stage.String,
		SourceEvidence: r.sourceEvidence.String,
	}
	if r.year.Valid {
		p.Year = dompaper.IntPtr(int(r.year.Int64))
	}
	if r.openAccess.Valid {
		p.OpenAccess = dompaper.BoolPtr(r.openAccess.Int64 != 0)
	}
	return p, nil
}

// values returns column values in table order. Empty strings persist as NULL.
func values(p *dompaper.Paper) []any {
	var year, openAccess any
	if p.Year != nil {
		year = int64(*p.Year)
	}
	if p.OpenAccess != nil {
		var v int64
		if *p.OpenAccess {
			v = 1
		}
		openAccess = v
	}
	return []any{
		p.ID, nullString(p.Title), nullString(p.Authors), year, nullString(p.Venue),
		nullString(p.Link), nullString(p.DOI), openAccess, nullString(p.Summary),
		nullString(p.UseCase), nullString(p.Dataset), nullString(p.Model),
		nullString(p.Results), nullString(p.BusinessImpact), nullString(p.Industry),
		nullString(p.Function), nullString(p.Modality), nullString(p.Technique),
		nullString(p.Stage), nullString(p.SourceEvidence),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
