package pagecache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/fincatalog/catalog/internal/db"
	"github.com/fincatalog/catalog/internal/domain/paper"
	"github.com/fincatalog/catalog/internal/domain/query"
)

// memStore is an in-memory stand-in for the Redis KV store.
type memStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Incr(_ context.Context, key string) (int64, error) {
	n, _ := strconv.ParseInt(string(m.data[key]), 10, 64)
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func TestCache_MissThenHit(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	c := New(s, "catalog:", time.Minute)
	req := query.NewRequest(query.Criteria{Function: "Fraud"}, "-year", 1, 20)

	key, err := c.Key(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(key, "catalog:page:0:") {
		t.Errorf("unexpected key %q", key)
	}

	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		t.Fatalf("expected miss, got hit=%v err=%v", hit, err)
	}

	year := 2023
	page := query.NewPage(1, 1, 20, []paper.Paper{{ID: "a", Title: "T", Year: &year}})
	if err := c.Put(ctx, key, page); err != nil {
		t.Fatalf("put: %v", err)
	}
	if s.ttls[key] != time.Minute {
		t.Errorf("expected ttl 1m, got %v", s.ttls[key])
	}

	got, hit, err := c.Get(ctx, key)
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if got.Count != 1 || len(got.Papers) != 1 || got.Papers[0].ID != "a" || *got.Papers[0].Year != 2023 {
		t.Errorf("unexpected page: %+v", got)
	}
}

func TestCache_KeyDependsOnRequest(t *testing.T) {
	ctx := context.Background()
	c := New(newMemStore(), "catalog:", time.Minute)

	k1, _ := c.Key(ctx, query.NewRequest(query.Criteria{}, "-year", 1, 20))
	k2, _ := c.Key(ctx, query.NewRequest(query.Criteria{}, "-year", 2, 20))
	k3, _ := c.Key(ctx, query.NewRequest(query.Criteria{}, "bogus", 1, 20))
	if k1 == k2 {
		t.Error("different pages must map to different keys")
	}
	if k1 != k3 {
		t.Error("unknown order normalizes to -year and must share the key")
	}
}

func TestCache_InvalidateOrphansEntries(t *testing.T) {
	ctx := context.Background()
	c := New(newMemStore(), "catalog:", time.Minute)
	req := query.NewRequest(query.Criteria{}, "", 1, 20)

	before, _ := c.Key(ctx, req)
	_ = c.Put(ctx, before, query.NewPage(0, 1, 20, nil))

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	after, _ := c.Key(ctx, req)
	if before == after {
		t.Fatal("key must change after invalidation")
	}
	if _, hit, _ := c.Get(ctx, after); hit {
		t.Error("expected miss after invalidation")
	}
}

func TestCache_StoreErrorSurfaces(t *testing.T) {
	s := newMemStore()
	s.getErr = errors.New("conn refused")
	c := New(s, "catalog:", time.Minute)

	if _, err := c.Key(context.Background(), query.NewRequest(query.Criteria{}, "", 1, 20)); err == nil {
		t.Fatal("expected error from generation lookup")
	}
	if _, _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error from get")
	}
}

func TestCache_CorruptEntry(t *testing.T) {
	s := newMemStore()
	s.data["k"] = []byte("{not json")
	c := New(s, "catalog:", time.Minute)
	if _, hit, err := c.Get(context.Background(), "k"); err == nil || hit {
		t.Fatalf("expected decode error, got hit=%v err=%v", hit, err)
	}
}
