package catalog

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver string // "sqlite" or "postgres"
	dsn    string

	redisAddrs    []string
	redisPassword string
	cacheTTL      time.Duration
	cachePrefix   string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithSQLite stores the catalog in a SQLite file. The parent directory is created if missing.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.dsn = path
	})
}

// WithPostgres stores the catalog in PostgreSQL.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "postgres"
		c.dsn = dsn
	})
}

// WithRedisCache caches list pages in Redis for ttl. Upserts invalidate the cache.
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
		c.cacheTTL = ttl
	})
}

// WithCachePrefix sets the Redis key prefix. Default: "catalog:".
func WithCachePrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cachePrefix = prefix
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
