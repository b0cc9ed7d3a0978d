// Package httpserver provides the HTTP REST API consumed by the scholarview
// browser UI.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/helixir/scholarview/internal/domain"
	"github.com/helixir/scholarview/internal/observability"
)

// QueryService is the bibliographic query surface served over HTTP.
// *scholar.Service implements it.
type QueryService interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResultPage, error)
	GetByID(ctx context.Context, id string) (*domain.PaperRecord, error)
	FormatCitation(ctx context.Context, id string, style domain.CitationStyle) (string, error)
	GetRelated(ctx context.Context, id string, limit int) []domain.PaperRecord
	ListPopularAuthors(ctx context.Context, limit int) []string
	ListPopularJournals(ctx context.Context, limit int) []string
	ClearCache()
	Now() time.Time
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	service    QueryService
	metrics    *observability.Metrics
	logger     zerolog.Logger
	cfg        Config
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// AllowedOrigins lists the CORS origins allowed to call the API.
	AllowedOrigins []string

	// DefaultPerPage is applied when a search leaves per_page unset.
	DefaultPerPage int
	// MaxPerPage caps the per_page a caller may request.
	MaxPerPage int
}

// NewServer creates a new HTTP server. metrics may be nil.
func NewServer(cfg Config, service QueryService, metrics *observability.Metrics, logger zerolog.Logger) *Server {
	if cfg.DefaultPerPage <= 0 {
		cfg.DefaultPerPage = domain.DefaultPerPage
	}
	if cfg.MaxPerPage <= 0 || cfg.MaxPerPage > domain.MaxPerPage {
		cfg.MaxPerPage = domain.MaxPerPage
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		service: service,
		metrics: metrics,
		logger:  observability.WithComponent(logger, "http-server"),
		cfg:     cfg,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestContextMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(s.instrumentMiddleware)
	r.Use(jsonContentTypeMiddleware)

	r.Get("/healthz", s.healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/papers", func(r chi.Router) {
			r.Get("/", s.searchPapers)
			r.Get("/{id}", s.getPaper)
			r.Get("/{id}/related", s.getRelatedPapers)
			r.Get("/{id}/citation", s.getCitation)
		})
		r.Get("/authors/popular", s.listPopularAuthors)
		r.Get("/journals/popular", s.listPopularJournals)
		r.Delete("/cache", s.clearCache)
	})

	return r
}

// Handler returns the root handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}
