package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver

	"github.com/fincatalog/catalog/internal/db"
)

// Compile-time check: Store implements db.SQLStore.
var _ db.SQLStore = (*Store)(nil)

// Config holds connection parameters for a relational store.
type Config struct {
	Driver       string // sqlite, postgres
	DSN          string
	MaxOpenConns int
}

// Store implements db.SQLStore over database/sql.
// Writes are serialized by mu; reads run unlocked at the engine's default isolation.
type Store struct {
	mu      sync.Mutex
	db      *sql.DB
	dialect db.Dialect
}

// Open connects to the configured driver.
func Open(cfg Config) (*Store, error) {
	switch cfg.Driver {
	case "", string(db.DialectSQLite):
		return openSQLite(cfg)
	case string(db.DialectPostgres):
		return openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openSQLite(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	path := strings.TrimPrefix(cfg.DSN, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", withSQLitePragmas(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", cfg.DSN, err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	return &Store{db: conn, dialect: db.DialectSQLite}, nil
}

// withSQLitePragmas adds a busy timeout so concurrent readers wait on the writer instead of failing.
func withSQLitePragmas(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)"
}

func openPostgres(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	conn, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return &Store{db: conn, dialect: db.DialectPostgres}, nil
}

// NewStoreForTest wraps an existing connection (test-only).
func NewStoreForTest(conn *sql.DB, d db.Dialect) *Store {
	return &Store{db: conn, dialect: d}
}

// Dialect returns the placeholder dialect of the underlying driver.
func (s *Store) Dialect() db.Dialect { return s.dialect }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// QueryRow runs a single-row query. Errors surface on Scan.
func (s *Store) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

// Query runs a multi-row query.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return rows, nil
}

// Exec runs a statement under the write lock.
func (s *Store) Exec(ctx context.Context, query string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return &db.Error{Op: db.OpSchema, Err: err}
	}
	return nil
}

// WithWriteTx runs fn inside a transaction while holding the write lock.
// The transaction is rolled back if fn fails or ctx is done before commit.
func (s *Store) WithWriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpBegin, Err: err}
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpCommit, Err: err}
	}
	return nil
}
