// Package server wires the admin API routes, middleware, and lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/quillstore/admind/internal/config"
	adminerrors "github.com/quillstore/admind/internal/errors"
	"github.com/quillstore/admind/internal/handler"
	"github.com/quillstore/admind/internal/health"
	"github.com/quillstore/admind/internal/metrics"
	"github.com/quillstore/admind/internal/middleware"
)

// Server is the admin HTTP server.
type Server struct {
	router       *mux.Router
	httpServer   *http.Server
	handlers     *handler.Handlers
	healthCheck  *health.Check
	errorHandler *adminerrors.Handler
	metrics      *metrics.Metrics
	logger       *zap.Logger
	cfg          *config.Config
}

// New creates the admin HTTP server around the prepared handlers.
func New(cfg *config.Config, handlers *handler.Handlers, healthCheck *health.Check, errorHandler *adminerrors.Handler, m *metrics.Metrics, logger *zap.Logger) *Server {
	router := mux.NewRouter()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		router:       router,
		httpServer:   httpServer,
		handlers:     handlers,
		healthCheck:  healthCheck,
		errorHandler: errorHandler,
		metrics:      m,
		logger:       logger,
		cfg:          cfg,
	}
}

// SetupRoutes configures all admin API routes.
func (s *Server) SetupRoutes() {
	middlewareChain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logging(s.logger),
	}
	if s.metrics != nil {
		middlewareChain = append(middlewareChain, middleware.Metrics(s.metrics.RecordRequest))
	}

	if s.cfg.RateLimiter.Enabled {
		rateLimiter := middleware.NewRateLimiter(
			s.cfg.RateLimiter.RequestsPerSecond,
			s.cfg.RateLimiter.BurstSize,
			s.logger,
		)
		middlewareChain = append(middlewareChain, rateLimiter.Limit)
	}

	chain := middleware.Chain(middlewareChain...)
	s.router.Use(func(next http.Handler) http.Handler {
		return chain(next)
	})

	// Health endpoints
	s.router.HandleFunc("/_up", s.healthCheck.UpHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/_ready", s.healthCheck.ReadyHandler).Methods(http.MethodGet)

	// Database listings
	s.router.HandleFunc("/_all_dbs", s.handlers.AllDatabases).Methods(http.MethodGet)
	s.router.HandleFunc("/_dbs_info", s.handlers.DatabasesInfo).Methods(http.MethodGet)
	s.router.HandleFunc("/_dbs_info", s.handlers.DatabasesInfoPost).Methods(http.MethodPost)

	// Database lifecycle
	s.router.HandleFunc("/_dbs", s.handlers.CreateDatabase).Methods(http.MethodPost)
	s.router.HandleFunc("/_dbs/{name}", s.handlers.DeleteDatabase).Methods(http.MethodDelete)

	// Soft-delete lifecycle
	s.router.HandleFunc("/_deleted_dbs", s.handlers.DeletedDatabases).Methods(http.MethodGet)
	s.router.HandleFunc("/_deleted_dbs", s.handlers.UndeleteDatabase).Methods(http.MethodPost)
	s.router.HandleFunc("/_deleted_dbs/{name}", s.handlers.RemoveDeletedDatabase).Methods(http.MethodDelete)

	// Replication control
	s.router.HandleFunc("/_replicate", s.handlers.Replicate).Methods(http.MethodPost)
	s.router.HandleFunc("/_active_tasks", s.handlers.ActiveTasks).Methods(http.MethodGet)
	s.router.HandleFunc("/_membership", s.handlers.Membership).Methods(http.MethodGet)

	// Node-internal endpoints hit by other members
	s.router.HandleFunc("/_node/replicate", s.handlers.NodeReplicate).Methods(http.MethodPost)
	s.router.HandleFunc("/_node/tasks", s.handlers.NodeTasks).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.errorHandler.Write(w, http.StatusNotFound, adminerrors.CodeNotFound, "endpoint not found", r.Header.Get("X-Request-ID"))
	})

	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.errorHandler.WriteMethodNotAllowed(w, r.Header.Get("X-Request-ID"))
	})
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting admin HTTP server", zap.Int("port", s.cfg.Server.Port))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start admin HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down admin HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the routed handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
