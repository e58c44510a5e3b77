package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fincatalog/catalog/internal/domain/paper"
	"github.com/fincatalog/catalog/internal/logger"
	"github.com/fincatalog/catalog/internal/metrics"
)

// Result reports how many records were inserted and how many replaced existing rows.
type Result struct {
	Inserted int
	Updated  int
}

// Service merges batches of candidate papers into the store.
type Service struct {
	repo   Writer
	cache  Invalidator
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithInvalidator sets the page cache to invalidate after writes. A nil value is ignored.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) {
		if inv != nil {
			s.cache = inv
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an ingest service.
func New(repo Writer, opts ...Option) *Service {
	s := &Service{repo: repo, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Upsert writes papers in batch order. Records without an explicit id get one
// derived from link, then title, then the empty string; later duplicates win.
// On the first failure it returns the counts so far alongside the error.
// Rows already committed stay intact.
func (s *Service) Upsert(ctx context.Context, papers []paper.Paper) (Result, error) {
	var res Result
	defer s.invalidate(ctx, &res)

	for i := range papers {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("upsert aborted at record %d: %w", i, err)
		}

		p := papers[i].WithIdentity()
		if p.Link == "" && p.Title == "" && papers[i].ID == "" {
			logger.FromContext(ctx, s.logger).Warn("Record has neither link nor title, using empty-input identity",
				zap.Int("index", i), zap.String("id", p.ID))
		}

		created, err := s.repo.Write(ctx, &p)
		if err != nil {
			metrics.UpsertRecordsTotal.WithLabelValues("failed").Inc()
			return res, fmt.Errorf("upsert record %d: %w", i, err)
		}
		if created {
			res.Inserted++
			metrics.UpsertRecordsTotal.WithLabelValues("inserted").Inc()
		} else {
			res.Updated++
			metrics.UpsertRecordsTotal.WithLabelValues("updated").Inc()
		}
	}

	logger.FromContext(ctx, s.logger).Info("Upsert complete",
		zap.Int("inserted", res.Inserted), zap.Int("updated", res.Updated))
	return res, nil
}

// UpsertFile decodes records from a YAML or JSON file and upserts them.
func (s *Service) UpsertFile(ctx context.Context, path string) (Result, error) {
	papers, err := LoadFile(path)
	if err != nil {
		return Result{}, err
	}
	return s.Upsert(ctx, papers)
}

func (s *Service) invalidate(ctx context.Context, res *Result) {
	if s.cache == nil || res.Inserted+res.Updated == 0 {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		logger.FromContext(ctx, s.logger).Warn("Page cache invalidation failed", zap.Error(err))
	}
}
