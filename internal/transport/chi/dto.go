package chi

import (
	"github.com/fincatalog/catalog/internal/domain/paper"
	"github.com/fincatalog/catalog/internal/domain/query"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type healthResponse struct {
	OK     bool              `json:"ok"`
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type listResponse struct {
	Count      int             `json:"count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Papers     []paperResponse `json:"papers"`
}

// paperResponse is the wire shape of a record. Absent fields serialize as null.
type paperResponse struct {
	ID             string  `json:"id"`
	Title          *string `json:"title"`
	Authors        *string `json:"authors"`
	Year           *int    `json:"year"`
	Venue          *string `json:"venue"`
	Link           *string `json:"link"`
	DOI            *string `json:"doi"`
	OpenAccess     *bool   `json:"open_access"`
	Summary        *string `json:"summary"`
	UseCase        *string `json:"use_case"`
	Dataset        *string `json:"dataset"`
	Model          *string `json:"model"`
	Results        *string `json:"results"`
	BusinessImpact *string `json:"business_impact"`
	Industry       *string `json:"industry"`
	Function       *string `json:"function"`
	Modality       *string `json:"modality"`
	Technique      *string `json:"technique"`
	Stage          *string `json:"stage"`
	SourceEvidence *string `json:"source_evidence"`
}

func pageToResponse(p query.Page) listResponse {
	papers := make([]paperResponse, len(p.Papers))
	for i := range p.Papers {
		papers[i] = paperToResponse(&p.Papers[i])
	}
	return listResponse{
		Count:      p.Count,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: p.TotalPages,
		Papers:     papers,
	}
}

func paperToResponse(p *paper.Paper) paperResponse {
	return paperResponse{
		ID:             p.ID,
		Title:          nullable(p.Title),
		Authors:        nullable(p.Authors),
		Year:           p.Year,
		Venue:          nullable(p.Venue),
		Link:           nullable(p.Link),
		DOI:            nullable(p.DOI),
		OpenAccess:     p.OpenAccess,
		Summary:        nullable(p.Summary),
		UseCase:        nullable(p.UseCase),
		Dataset:        nullable(p.Dataset),
		Model:          nullable(p.Model),
		Results:        nullable(p.Results),
		BusinessImpact: nullable(p.BusinessImpact),
		Industry:       nullable(p.Industry),
		Function:       nullable(p.Function),
		Modality:       nullable(p.Modality),
		Technique:      nullable(p.Technique),
		Stage:          nullable(p.Stage),
		SourceEvidence: nullable(p.SourceEvidence),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
