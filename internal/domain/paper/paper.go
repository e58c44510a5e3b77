package paper

import (
	"crypto/sha256"
	"encoding/hex"
)

// Paper is one catalog record describing a research paper.
// Year and OpenAccess are pointers so that "absent" stays distinct from zero values.
type Paper struct {
	ID             string
	Title          string
	Authors        string
	Year           *int
	Venue          string
	Link           string
	DOI            string
	OpenAccess     *bool
	Summary        string
	UseCase        string
	Dataset        string
	Model          string
	Results        string
	BusinessImpact string
	Industry       string
	Function       string
	Modality       string
	Technique      string
	Stage          string
	SourceEvidence string
}

// DeriveID returns the hex SHA-256 of the first non-empty of link and title.
// Records with neither hash the empty string.
func DeriveID(link, title string) string {
	src := link
	if src == "" {
		src = title
	}
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

// WithIdentity returns a copy carrying its explicit ID, or a derived one when ID is empty.
func (p Paper) WithIdentity() Paper {
	if p.ID == "" {
		p.ID = DeriveID(p.Link, p.Title)
	}
	return p
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }
