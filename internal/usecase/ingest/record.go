package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fincatalog/catalog/internal/domain/paper"
)

// Record is the incoming wire shape of one paper.
type Record struct {
	ID             string     `json:"id" yaml:"id"`
	Title          string     `json:"title" yaml:"title"`
	Authors        Authors    `json:"authors" yaml:"authors"`
	Year           *int       `json:"year" yaml:"year"`
	Venue          string     `json:"venue" yaml:"venue"`
	Link           string     `json:"link" yaml:"link"`
	DOI            string     `json:"doi" yaml:"doi"`
	OpenAccess     OpenAccess `json:"open_access" yaml:"open_access"`
	Summary        string     `json:"summary" yaml:"summary"`
	UseCase        string     `json:"use_case" yaml:"use_case"`
	Dataset        string     `json:"dataset" yaml:"dataset"`
	Model          string     `json:"model" yaml:"model"`
	Results        string     `json:"results" yaml:"results"`
	BusinessImpact string     `json:"business_impact" yaml:"business_impact"`
	Industry       string     `json:"industry" yaml:"industry"`
	Function       string     `json:"function" yaml:"function"`
	Modality       string     `json:"modality" yaml:"modality"`
	Technique      string     `json:"technique" yaml:"technique"`
	Stage          string     `json:"stage" yaml:"stage"`
	SourceEvidence string     `json:"source_evidence" yaml:"source_evidence"`
}

// ToPaper converts the record into a domain paper. Identity is not assigned here.
func (r Record) ToPaper() paper.Paper {
	return paper.Paper{
		ID:             r.ID,
		Title:          r.Title,
		Authors:        string(r.Authors),
		Year:           r.Year,
		Venue:          r.Venue,
		Link:           r.Link,
		DOI:            r.DOI,
		OpenAccess:     r.OpenAccess.Value,
		Summary:        r.Summary,
		UseCase:        r.UseCase,
		Dataset:        r.Dataset,
		Model:          r.Model,
		Results:        r.Results,
		BusinessImpact: r.BusinessImpact,
		Industry:       r.Industry,
		Function:       r.Function,
		Modality:       r.Modality,
		Technique:      r.Technique,
		Stage:          r.Stage,
		SourceEvidence: r.SourceEvidence,
	}
}

// Authors accepts a plain string or a list of names joined with ", ".
type Authors string

// UnmarshalJSON implements json.Unmarshaler.
func (a *Authors) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Authors(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("authors: want string or list of strings: %w", err)
	}
	*a = Authors(strings.Join(list, ", "))
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Authors) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return fmt.Errorf("authors: %w", err)
		}
		*a = Authors(strings.Join(list, ", "))
	case yaml.ScalarNode:
		*a = Authors(node.Value)
	default:
		return fmt.Errorf("authors: line %d: want string or list", node.Line)
	}
	return nil
}

// OpenAccess accepts a boolean or the legacy 0/1 integer. Null stays absent.
type OpenAccess struct {
	Value *bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OpenAccess) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "null":
		o.Value = nil
	case "true", "1":
		o.Value = paper.BoolPtr(true)
	case "false", "0":
		o.Value = paper.BoolPtr(false)
	default:
		return fmt.Errorf("open_access: want bool or 0/1, got %s", data)
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *OpenAccess) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("open_access: line %d: want scalar", node.Line)
	}
	if node.Tag == "!!null" {
		o.Value = nil
		return nil
	}
	switch node.Value {
	case "1":
		o.Value = paper.BoolPtr(true)
		return nil
	case "0":
		o.Value = paper.BoolPtr(false)
		return nil
	}
	var b bool
	if err := node.Decode(&b); err != nil {
		return fmt.Errorf("open_access: want bool or 0/1: %w", err)
	}
	o.Value = &b
	return nil
}

type envelope struct {
	Papers []Record `json:"papers" yaml:"papers"`
}

// LoadFile reads records from a .yaml, .yml or .json file.
// The document is either a list of records or a mapping with a "papers" list.
func LoadFile(path string) ([]paper.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var records []Record
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		records, err = DecodeYAML(data)
	case ".json":
		records, err = DecodeJSON(data)
	default:
		return nil, fmt.Errorf("unsupported file extension %q (want .yaml, .yml or .json)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	papers := make([]paper.Paper, len(records))
	for i, r := range records {
		papers[i] = r.ToPaper()
	}
	return papers, nil
}

// DecodeJSON parses a JSON list of records or a {"papers": [...]} object.
func DecodeJSON(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("json list: %w", err)
		}
		return records, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("json object: %w", err)
	}
	return env.Papers, nil
}

// DecodeYAML parses a YAML list of records or a mapping with a "papers" key.
func DecodeYAML(data []byte) ([]Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var records []Record
		if err := root.Decode(&records); err != nil {
			return nil, fmt.Errorf("yaml list: %w", err)
		}
		return records, nil
	case yaml.MappingNode:
		var env envelope
		if err := root.Decode(&env); err != nil {
			return nil, fmt.Errorf("yaml mapping: %w", err)
		}
		return env.Papers, nil
	default:
		return nil, fmt.Errorf("yaml: line %d: want list or mapping", root.Line)
	}
}
