package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes. Handlers tag the catalog-specific ones with SetOutcome;
// the rest are derived from the status code.
const (
	OutcomeOK            = "ok"
	OutcomeInvalidParam  = "invalid_param"
	OutcomePaperNotFound = "paper_not_found"
	OutcomeDegraded      = "degraded"
	OutcomeNoRoute       = "no_route"
	OutcomeRejected      = "rejected"
	OutcomeError         = "error"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "catalog",
			Name:      "http_request_duration_seconds",
			Help:      "Catalog API request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route", "outcome"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalog",
			Name:      "http_requests_total",
			Help:      "Catalog API requests by route, status and outcome",
		},
		[]string{"method", "route", "status", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration, httpRequestsTotal)
}

type outcomeKey struct{}

type outcomeTag struct{ value string }

// SetOutcome labels the in-flight request. No-op outside Middleware.
func SetOutcome(ctx context.Context, outcome string) {
	if tag, ok := ctx.Value(outcomeKey{}).(*outcomeTag); ok {
		tag.value = outcome
	}
}

// Middleware records request duration and count per chi route pattern.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			tag := &outcomeTag{}
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), outcomeKey{}, tag)))

			route := normalizePath(chi.RouteContext(r.Context()).RoutePattern())
			outcome := resolveOutcome(tag.value, route, ww.status)

			httpRequestDuration.WithLabelValues(r.Method, route, outcome).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.status), outcome).Inc()
		})
	}
}

func resolveOutcome(tagged, route string, status int) string {
	switch {
	case tagged != "":
		return tagged
	case status >= http.StatusInternalServerError:
		return OutcomeError
	case route == unknownRoute && status >= http.StatusBadRequest:
		return OutcomeNoRoute
	case status >= http.StatusBadRequest:
		return OutcomeRejected
	default:
		return OutcomeOK
	}
}

const unknownRoute = "unknown"

// normalizePath keeps unmatched paths out of the label set.
func normalizePath(path string) string {
	if path == "" {
		return unknownRoute
	}
	return path
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
