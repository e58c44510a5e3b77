package db

import (
	"context"
	"database/sql"
	"time"
)

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SQLStore is the relational facade used by the paper repository.
type SQLStore interface {
	Pinger
	Dialect() Dialect
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Exec(ctx context.Context, query string, args ...any) error
	// WithWriteTx runs fn in a transaction while holding the store-wide write lock.
	WithWriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	Close() error
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// KVStore provides simple key-value operations for caches.
type KVStore interface {
	Pinger
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Close()
}
