package catalog

import (
	"context"

	"github.com/fincatalog/catalog/internal/domain/paper"
	"github.com/fincatalog/catalog/internal/domain/query"
)

// Repository defines the read contract for the paper catalog.
type Repository interface {
	Get(ctx context.Context, id string) (paper.Paper, error)
	Count(ctx context.Context, c query.Criteria) (int, error)
	Scan(ctx context.Context, c query.Criteria, order query.Order, limit, offset int) ([]paper.Paper, error)
}

// PageCache caches list envelopes. Implementations must treat a miss as (zero, false, nil).
type PageCache interface {
	Key(ctx context.Context, req query.Request) (string, error)
	Get(ctx context.Context, key string) (query.Page, bool, error)
	Put(ctx context.Context, key string, page query.Page) error
}
