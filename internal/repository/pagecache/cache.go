package pagecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fincatalog/catalog/internal/db"
	"github.com/fincatalog/catalog/internal/domain/query"
)

// store is the consumer interface for the cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// Cache stores list envelopes in a KV store. Entries are namespaced by a
// catalog generation counter; bumping the counter orphans every older entry.
type Cache struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates a page cache.
func New(s store, prefix string, ttl time.Duration) *Cache {
	return &Cache{store: s, prefix: prefix, ttl: ttl}
}

// Key returns the cache key for req under the current generation.
// Callers must Put with the key obtained before reading the store.
func (c *Cache) Key(ctx context.Context, req query.Request) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", err
	}
	canonical, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return c.prefix + "page:" + strconv.FormatInt(gen, 10) + ":" + hex.EncodeToString(sum[:]), nil
}

// Get returns a cached page. The boolean is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) (query.Page, bool, error) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return query.Page{}, false, nil
		}
		return query.Page{}, false, fmt.Errorf("cache GET %s: %w", key, err)
	}
	var page query.Page
	if err := json.Unmarshal(data, &page); err != nil {
		return query.Page{}, false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return page, true, nil
}

// Put stores a page under key with the configured TTL.
func (c *Cache) Put(ctx context.Context, key string, page query.Page) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		return fmt.Errorf("cache SET %s: %w", key, err)
	}
	return nil
}

// Invalidate bumps the generation so later lookups miss.
func (c *Cache) Invalidate(ctx context.Context) error {
	if _, err := c.store.Incr(ctx, c.genKey()); err != nil {
		return fmt.Errorf("cache INCR generation: %w", err)
	}
	return nil
}

func (c *Cache) generation(ctx context.Context) (int64, error) {
	data, err := c.store.Get(ctx, c.genKey())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("cache GET generation: %w", err)
	}
	gen, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cache generation parse: %w", err)
	}
	return gen, nil
}

func (c *Cache) genKey() string { return c.prefix + "gen" }
