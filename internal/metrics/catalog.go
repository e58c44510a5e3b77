package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Catalog Prometheus metrics.
var (
	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "catalog",
			Name:      "query_duration_seconds",
			Help:      "Catalog search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"source"}, // "store" / "cache"
	)

	QueryErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "query_errors_total",
			Help:      "Total failed catalog searches",
		},
	)

	UpsertRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "upsert_records_total",
			Help:      "Records written by the upsert reconciler",
		},
		[]string{"result"}, // "inserted" / "updated" / "failed"
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "page_cache_total",
			Help:      "Page cache lookups",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)
)

var registerOnce sync.Once

// RegisterCatalogMetrics registers catalog metrics with the default registry.
// Safe to call more than once.
func RegisterCatalogMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(QueryDuration, QueryErrorsTotal, UpsertRecordsTotal, CacheTotal)
	})
}
