// Package api exposes the query pipeline over HTTP: the source view,
// the search endpoints and the define redirect, with per-request fault
// isolation in front of every handler.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"quarry/internal/backends"
	"quarry/internal/config"
	"quarry/internal/logging"
	"quarry/internal/search"
)

// Server is the HTTP front end
type Server struct {
	router   *http.ServeMux
	server   *http.Server
	addr     string
	cfg      *config.Config
	logger   *logging.Logger
	searcher *search.Searcher
	static   http.Handler

	// requestTimeout is the hard wall-clock deadline for one request
	requestTimeout time.Duration
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, b *backends.Backends, logger *logging.Logger) *Server {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	timeout := time.Duration(cfg.Server.RequestTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	s := &Server{
		addr:           addr,
		cfg:            cfg,
		logger:         logger,
		searcher:       search.New(cfg, logger, b),
		static:         http.FileServer(http.Dir(cfg.StaticRoot)),
		router:         http.NewServeMux(),
		requestTimeout: timeout,
	}

	s.registerRoutes()

	handler := s.applyMiddleware(s.router)
	s.server = &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", map[string]interface{}{
		"addr": s.addr,
	})

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", nil)

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shut down successfully", nil)
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// applyMiddleware wraps the handler with middleware in the correct order
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (last one wraps first)
	handler = GzipMiddleware()(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware()(handler)
	return handler
}
