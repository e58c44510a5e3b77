package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbRedis "github.com/fincatalog/catalog/internal/db/redis"
	"github.com/fincatalog/catalog/internal/db/sqldb"
	"github.com/fincatalog/catalog/internal/domain/query"
	"github.com/fincatalog/catalog/internal/repository/pagecache"
	paperrepo "github.com/fincatalog/catalog/internal/repository/paper"
	cataloguc "github.com/fincatalog/catalog/internal/usecase/catalog"
	ingestuc "github.com/fincatalog/catalog/internal/usecase/ingest"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCacheTTL         = 5 * time.Minute
	defaultCachePrefix      = "catalog:"
)

// Internal interfaces for substitution in tests.
type searchUseCase interface {
	Search(ctx context.Context, req query.Request) (query.Page, error)
	Get(ctx context.Context, id string) (Paper, error)
}

type ingestUseCase interface {
	Upsert(ctx context.Context, papers []Paper) (ingestuc.Result, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Client is the embedded catalog entry point. Safe for concurrent use.
type Client struct {
	store     *sqldb.Store
	kv        *dbRedis.Store
	db        pinger
	searchSvc searchUseCase
	ingestSvc ingestUseCase
	obs       *observer
}

// Open connects to the record store, bootstraps the schema and wires the services.
// The provided context is used for the readiness check and schema bootstrap.
func Open(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{cacheTTL: defaultCacheTTL, cachePrefix: defaultCachePrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.dsn == "" {
		return nil, errors.New("catalog: record store required (use WithSQLite or WithPostgres)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := sqldb.Open(sqldb.Config{Driver: cfg.driver, DSN: cfg.dsn})
	if err != nil {
		return nil, fmt.Errorf("catalog: open store: %w", err)
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("catalog: store not ready: %w", err)
	}

	repo := paperrepo.New(store)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("catalog: %w", err)
	}

	c := &Client{store: store, db: store, obs: obs}

	var searchOpts []cataloguc.Option
	var ingestOpts []ingestuc.Option
	if len(cfg.redisAddrs) > 0 {
		kv, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.redisAddrs, Password: cfg.redisPassword})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("catalog: create redis cache: %w", err)
		}
		c.kv = kv
		cache := pagecache.New(kv, cfg.cachePrefix, cfg.cacheTTL)
		searchOpts = append(searchOpts, cataloguc.WithCache(cache))
		ingestOpts = append(ingestOpts, ingestuc.WithInvalidator(cache))
	}

	c.searchSvc = cataloguc.New(repo, searchOpts...)
	c.ingestSvc = ingestuc.New(repo, ingestOpts...)
	return c, nil
}

// Close releases all resources.
func (c *Client) Close() error {
	if c.kv != nil {
		c.kv.Close()
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}

// Ping checks record store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search returns one page of matching papers. A zero Page or Limit selects
// the default (page 1, limit 20). Negative values and Limit above 50 return
// ErrInvalidParameter.
func (c *Client) Search(ctx context.Context, q Query) (page Page, err error) {
	start := time.Now()
	defer func() { c.obs.observeSearch(start, q, page, err) }()

	if q.Page < 0 {
		return Page{}, fmt.Errorf("%w: page must be >= 1, or 0 for the default", ErrInvalidParameter)
	}
	if q.Limit < 0 || q.Limit > query.MaxLimit {
		return Page{}, fmt.Errorf("%w: limit must be between 1 and %d, or 0 for the default",
			ErrInvalidParameter, query.MaxLimit)
	}

	page, err = c.searchSvc.Search(ctx, query.NewRequest(q.Criteria, q.Order, q.Page, q.Limit))
	if err != nil {
		return Page{}, fmt.Errorf("search: %w", err)
	}
	return page, nil
}

// Get returns the paper with the given id or ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (p Paper, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get", start, err) }()

	p, err = c.searchSvc.Get(ctx, id)
	if err != nil {
		return Paper{}, fmt.Errorf("get %s: %w", id, err)
	}
	return p, nil
}

// Upsert merges papers into the catalog in order and reports how many were
// inserted and how many replaced existing rows. On failure the counts cover
// the records written before it.
func (c *Client) Upsert(ctx context.Context, papers []Paper) (inserted, updated int, err error) {
	start := time.Now()
	defer func() { c.obs.observeUpsert(start, len(papers), inserted, updated, err) }()

	res, err := c.ingestSvc.Upsert(ctx, papers)
	if err != nil {
		return res.Inserted, res.Updated, fmt.Errorf("upsert: %w", err)
	}
	return res.Inserted, res.Updated, nil
}
