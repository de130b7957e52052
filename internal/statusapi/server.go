package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/canopy-docs/canopy/internal/config"
	"github.com/canopy-docs/canopy/internal/logging"
)

// Server is the local HTTP server backing `canopy serve --status`.
// Grounded on the teacher's internal/web.Server, narrowed from a full
// SPA+SSE+API surface to a single polling JSON endpoint.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      *Store
	logger     *logging.Logger
}

// New constructs a Server bound to cfg.Addr, serving store's current
// status at GET /status.
func New(cfg config.ServerConfig, store *Store, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{store: store, logger: logger}
	s.router = s.setupRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	return s
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler)

	r.Get("/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// handleStatus serves the current snapshot with a strong ETag so a client
// polling at a fixed interval (spec.md's --status flag is meant for
// dashboards and CI watchers) can send If-None-Match and get a 304 on the
// common case where nothing changed between polls.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(s.store.Snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	etag := config.CalculateETag(body)
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// Start runs the HTTP server in the background; it logs and returns once
// the listener is ready to accept connections is not guaranteed — callers
// needing that should instead probe /health.
func (s *Server) Start() {
	s.logger.Info("starting status server", "addr", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server error", "error", err.Error())
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	return nil
}

// Router exposes the underlying chi router, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}
