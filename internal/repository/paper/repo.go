package paper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fincatalog/catalog/internal/db"
	"github.com/fincatalog/catalog/internal/domain"
	dompaper "github.com/fincatalog/catalog/internal/domain/paper"
	"github.com/fincatalog/catalog/internal/domain/query"
)

const tableName = "papers"

// store is the consumer interface for papers (ISP).
type store interface {
	Dialect() db.Dialect
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Exec(ctx context.Context, query string, args ...any) error
	WithWriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Repo is the paper record store. It implements the catalog and ingest repositories.
type Repo struct {
	store store
}

// New creates a paper repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS papers (
		id TEXT PRIMARY KEY,
		title TEXT,
		authors TEXT,
		year INTEGER,
		venue TEXT,
		link TEXT,
		doi TEXT,
		open_access INTEGER,
		summary TEXT,
		use_case TEXT,
		dataset TEXT,
		model TEXT,
		results TEXT,
		business_impact TEXT,
		industry TEXT,
		function TEXT,
		modality TEXT,
		technique TEXT,
		stage TEXT,
		source_evidence TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_papers_year ON papers(year)`,
	`CREATE INDEX IF NOT EXISTS idx_papers_function ON papers(function)`,
	`CREATE INDEX IF NOT EXISTS idx_papers_technique ON papers(technique)`,
	`CREATE INDEX IF NOT EXISTS idx_papers_industry ON papers(industry)`,
	`CREATE INDEX IF NOT EXISTS idx_papers_stage ON papers(stage)`,
}

// EnsureSchema creates the papers table and its indexes if absent. Safe to repeat.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if err := r.store.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w: %w", domain.ErrStorageUnavailable, err)
		}
	}
	return nil
}

// Get returns the paper with the given id or domain.ErrPaperNotFound.
func (r *Repo) Get(ctx context.Context, id string) (dompaper.Paper, error) {
	q := "SELECT " + selectColumns + " FROM " + tableName +
		" WHERE id = " + r.store.Dialect().Placeholder(1)

	p, err := scanPaper(r.store.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dompaper.Paper{}, fmt.Errorf("get paper %s: %w: %w", id, domain.ErrPaperNotFound, db.ErrRowNotFound)
		}
		return dompaper.Paper{}, fmt.Errorf("get paper %s: %w: %w",
			id, domain.ErrStorageUnavailable, &db.Error{Op: db.OpSelect, Err: err})
	}
	return p, nil
}

// Count returns the number of papers matching the criteria.
func (r *Repo) Count(ctx context.Context, c query.Criteria) (int, error) {
	where := compileCriteria(r.store.Dialect(), c)
	q := "SELECT COUNT(*) FROM " + tableName + where.Where()

	var n int
	if err := r.store.QueryRow(ctx, q, where.Args()...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count papers: %w: %w",
			domain.ErrStorageUnavailable, &db.Error{Op: db.OpCount, Err: err})
	}
	return n, nil
}

// Scan returns one ordered page of matching papers. limit <= 0 means unlimited.
func (r *Repo) Scan(
	ctx context.Context, c query.Criteria, order query.Order, limit, offset int,
) ([]dompaper.Paper, error) {
	where := compileCriteria(r.store.Dialect(), c)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectColumns)
	sb.WriteString(" FROM ")
	sb.WriteString(tableName)
	sb.WriteString(where.Where())
	sb.WriteString(orderClause(order))
	if limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(where.Bind(limit))
		sb.WriteString(" OFFSET ")
		sb.WriteString(where.Bind(max(offset, 0)))
	}

	rows, err := r.store.Query(ctx, sb.String(), where.Args()...)
	if err != nil {
		return nil, fmt.Errorf("scan papers: %w: %w", domain.ErrStorageUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	papers := make([]dompaper.Paper, 0, max(limit, 0))
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paper row: %w: %w", domain.ErrStorageUnavailable, err)
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate papers: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return papers, nil
}

// Write inserts the paper or fully replaces every non-id field of an existing row.
// Returns true if the row was created. Each call is its own transaction.
func (r *Repo) Write(ctx context.Context, p *dompaper.Paper) (bool, error) {
	if p.ID == "" {
		return false, fmt.Errorf("write paper: empty id")
	}

	d := r.store.Dialect()
	vals := values(p)
	var created bool

	err := r.store.WithWriteTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM "+tableName+" WHERE id = "+d.Placeholder(1), p.ID,
		).Scan(&one)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			created = true
			if _, err := tx.ExecContext(ctx, insertSQL(d), vals...); err != nil {
				return &db.Error{Op: db.OpInsert, Err: err}
			}
		case err != nil:
			return &db.Error{Op: db.OpSelect, Err: err}
		default:
			// Non-id values bind first, id binds last.
			args := append(append(make([]any, 0, len(vals)), vals[1:]...), p.ID)
			if _, err := tx.ExecContext(ctx, updateSQL(d), args...); err != nil {
				return &db.Error{Op: db.OpUpdate, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("write paper %s: %w: %w", p.ID, domain.ErrStorageUnavailable, err)
	}
	return created, nil
}

func insertSQL(d db.Dialect) string {
	ph := make([]string, len(columns))
	for i := range columns {
		ph[i] = d.Placeholder(i + 1)
	}
	return "INSERT INTO " + tableName + " (" + selectColumns + ") VALUES (" + strings.Join(ph, ", ") + ")"
}

func updateSQL(d db.Dialect) string {
	sets := make([]string, 0, len(columns)-1)
	for i, col := range columns[1:] {
		sets = append(sets, col+" = "+d.Placeholder(i+1))
	}
	return "UPDATE " + tableName + " SET " + strings.Join(sets, ", ") +
		" WHERE id = " + d.Placeholder(len(columns))
}
