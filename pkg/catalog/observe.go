package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// clientMetrics holds prometheus metrics registered for the client.
type clientMetrics struct {
	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	searchResults prometheus.Histogram
	searchMatches prometheus.Histogram
	upserted      *prometheus.CounterVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "client",
			Name:      "operations_total",
			Help:      "Embedded catalog calls by operation and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "catalog",
			Subsystem: "client",
			Name:      "operation_duration_seconds",
			Help:      "Embedded catalog call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "catalog",
			Subsystem: "client",
			Name:      "search_page_papers",
			Help:      "Papers returned on one search page.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50},
		}),
		searchMatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "catalog",
			Subsystem: "client",
			Name:      "search_matches",
			Help:      "Total papers matching a search, across all pages.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		upserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "client",
			Name:      "upserted_papers_total",
			Help:      "Papers written through Upsert, by result.",
		}, []string{"result"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.searchResults); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.searchMatches); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.upserted); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("catalog: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("catalog: register metric: %w", err)
	}
	return nil
}

// observer provides logging and metrics for client operations.
type observer struct {
	logger  *slog.Logger
	metrics *clientMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *clientMetrics
	if reg != nil {
		var err error
		if m, err = newClientMetrics(reg); err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(op string, start time.Time, err error, attrs ...any) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger != nil {
		attrs = append([]any{"op", op, "duration", dur}, attrs...)
		if err != nil {
			o.logger.Warn("catalog call failed", append(attrs, "error", err)...)
		} else {
			o.logger.Debug("catalog call completed", attrs...)
		}
	}
}

// observeSearch records a search with the size of the returned page.
func (o *observer) observeSearch(start time.Time, q Query, page Page, err error) {
	if o == nil {
		return
	}
	if err == nil && o.metrics != nil {
		o.metrics.searchResults.Observe(float64(len(page.Papers)))
		o.metrics.searchMatches.Observe(float64(page.Count))
	}
	o.observe("search", start, err,
		"page", q.Page, "limit", q.Limit, "count", page.Count, "returned", len(page.Papers))
}

// observeUpsert records an upsert with its inserted/updated split.
// Partial counts are recorded on failure too.
func (o *observer) observeUpsert(start time.Time, submitted, inserted, updated int, err error) {
	if o == nil {
		return
	}
	if o.metrics != nil {
		o.metrics.upserted.WithLabelValues("inserted").Add(float64(inserted))
		o.metrics.upserted.WithLabelValues("updated").Add(float64(updated))
	}
	o.observe("upsert", start, err,
		"submitted", submitted, "inserted", inserted, "updated", updated)
}
