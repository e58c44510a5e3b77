package ingest

import (
	"context"

	"github.com/fincatalog/catalog/internal/domain/paper"
)

// Writer persists one paper, reporting whether the row was created.
type Writer interface {
	Write(ctx context.Context, p *paper.Paper) (created bool, err error)
}

// Invalidator drops cached list pages after the catalog changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}
