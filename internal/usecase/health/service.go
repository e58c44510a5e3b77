package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates the record store is reachable.
	Healthy Status = "healthy"
	// Degraded indicates the record store failed its ping.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// OK reports whether the service can serve reads.
func (r Report) OK() bool { return r.Status == Healthy }

// Service coordinates health checks.
type Service struct {
	db    Pinger
	cache Pinger
}

// New creates a Service. cache can be nil; its failures never degrade the status
// because searches fall back to the store.
func New(db, cache Pinger) *Service {
	return &Service{db: db, cache: cache}
}

// Check pings the record store and, when configured, the page cache.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{"database": CheckOK}
	status := Healthy

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		status = Degraded
	}

	if s.cache != nil {
		checks["cache"] = CheckOK
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		}
	}

	return Report{Status: status, Checks: checks}
}
