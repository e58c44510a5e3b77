package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fincatalog/catalog/internal/domain"
	"github.com/fincatalog/catalog/internal/domain/query"
	"github.com/fincatalog/catalog/internal/metrics"
	cataloguc "github.com/fincatalog/catalog/internal/usecase/catalog"
	healthuc "github.com/fincatalog/catalog/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, r *http.Request, err error) bool

// Server serves the read-only catalog API.
type Server struct {
	catalog       *cataloguc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	maxLimit      int
	defaultLimit  int
	errorHandlers []errorHandler
}

// Option configures a Server.
type Option func(*Server)

// WithLimits overrides the default and maximum page size. Non-positive values keep the defaults.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(s *Server) {
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
	}
}

// NewServer creates an HTTP API server.
func NewServer(
	catalog *cataloguc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		catalog:      catalog,
		health:       health,
		logger:       logger,
		maxLimit:     query.MaxLimit,
		defaultLimit: query.DefaultLimit,
	}
	for _, o := range opts {
		o(s)
	}
	s.defaultLimit = min(s.defaultLimit, s.maxLimit)
	s.errorHandlers = []errorHandler{
		paramErrorHandler,
		sentinelHandler(domain.ErrPaperNotFound, http.StatusNotFound, "Paper not found", metrics.OutcomePaperNotFound),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/api/health", s.HealthCheck)
	r.Get("/api/papers", s.ListPapers)
	r.Get("/api/papers/{id}", s.GetPaper)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
}

// ListPapers handles GET /api/papers.
func (s *Server) ListPapers(w http.ResponseWriter, r *http.Request) {
	req, err := parseListParams(r.URL.Query(), s.defaultLimit, s.maxLimit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	page, err := s.catalog.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageToResponse(page))
}

// GetPaper handles GET /api/papers/{id}.
func (s *Server) GetPaper(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paperToResponse(&p))
}

// HealthCheck handles GET /api/health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if !report.OK() {
		httpStatus = http.StatusServiceUnavailable
		metrics.SetOutcome(r.Context(), metrics.OutcomeDegraded)
	}

	writeJSON(w, httpStatus, healthResponse{
		OK:     report.OK(),
		Status: string(report.Status),
		Checks: checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, detail, outcome string) errorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		metrics.SetOutcome(r.Context(), outcome)
		writeDetail(w, status, detail)
		return true
	}
}

// paramErrorHandler answers unparsable or out-of-range query parameters with 422.
func paramErrorHandler(w http.ResponseWriter, r *http.Request, err error) bool {
	var pe *paramError
	if !errors.As(err, &pe) {
		return false
	}
	metrics.SetOutcome(r.Context(), metrics.OutcomeInvalidParam)
	writeDetail(w, http.StatusUnprocessableEntity, pe.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, h := range s.errorHandlers {
		if h(w, r, err) {
			s.logger.Debug("request rejected", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeDetail(w, http.StatusInternalServerError, "internal error")
}
