package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fincatalog/catalog/internal/domain/paper"
	"github.com/fincatalog/catalog/internal/domain/query"
	"github.com/fincatalog/catalog/internal/logger"
	"github.com/fincatalog/catalog/internal/metrics"
)

// Service executes catalog searches and point lookups.
type Service struct {
	repo   Repository
	cache  PageCache
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables the page cache. A nil cache is ignored.
func WithCache(c PageCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithLogger sets the logger used for cache degradation warnings.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a catalog service.
func New(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Search returns one page of papers matching req plus the total match count.
// Count and page come from the same criteria; ordering ties break on id.
func (s *Service) Search(ctx context.Context, req query.Request) (query.Page, error) {
	start := time.Now()
	log := logger.FromContext(ctx, s.logger)

	key := s.cacheKey(ctx, req)
	if key != "" {
		page, hit, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.CacheTotal.WithLabelValues("error").Inc()
			log.Warn("Page cache read failed", zap.String("key", key), zap.Error(err))
		case hit:
			metrics.CacheTotal.WithLabelValues("hit").Inc()
			metrics.QueryDuration.WithLabelValues("cache").Observe(time.Since(start).Seconds())
			return page, nil
		default:
			metrics.CacheTotal.WithLabelValues("miss").Inc()
		}
	}

	total, err := s.repo.Count(ctx, req.Criteria)
	if err != nil {
		metrics.QueryErrorsTotal.Inc()
		return query.Page{}, fmt.Errorf("count: %w", err)
	}

	var papers []paper.Paper
	if req.Offset() < total {
		papers, err = s.repo.Scan(ctx, req.Criteria, req.Order, req.Limit, req.Offset())
		if err != nil {
			metrics.QueryErrorsTotal.Inc()
			return query.Page{}, fmt.Errorf("scan: %w", err)
		}
	}

	page := query.NewPage(total, req.Page, req.Limit, papers)
	metrics.QueryDuration.WithLabelValues("store").Observe(time.Since(start).Seconds())

	if key != "" {
		if err := s.cache.Put(ctx, key, page); err != nil {
			log.Warn("Page cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return page, nil
}

// Get returns the paper with the given id or domain.ErrPaperNotFound.
func (s *Service) Get(ctx context.Context, id string) (paper.Paper, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return paper.Paper{}, fmt.Errorf("get paper: %w", err)
	}
	return p, nil
}

func (s *Service) cacheKey(ctx context.Context, req query.Request) string {
	if s.cache == nil {
		return ""
	}
	key, err := s.cache.Key(ctx, req)
	if err != nil {
		metrics.CacheTotal.WithLabelValues("error").Inc()
		logger.FromContext(ctx, s.logger).Warn("Page cache unavailable", zap.Error(err))
		return ""
	}
	return key
}
