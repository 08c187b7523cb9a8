// Package api exposes market metrics over HTTP: per-market and combined
// metric endpoints, a health probe, a JSON index, and the Prometheus
// scrape surface.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bellwether/internal/config"
	"bellwether/internal/telemetry"
)

// Server runs the HTTP API.
type Server struct {
	handlers *Handlers
	server   *http.Server
	tel      *telemetry.Metrics
	logger   *slog.Logger
}

// NewServer wires routes and middleware around the metrics provider.
func NewServer(
	cfg config.ServerConfig,
	provider MetricsProvider,
	health Health,
	tel *telemetry.Metrics,
	logger *slog.Logger,
) *Server {
	handlers := NewHandlers(provider, health, logger)

	s := &Server{
		handlers: handlers,
		tel:      tel,
		logger:   logger.With("component", "api-server"),
	}

	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.HandleFunc("GET /{$}", handlers.HandleIndex)
	mux.HandleFunc("GET /api/metrics/combined", handlers.HandleCombined)
	mux.HandleFunc("GET /api/metrics/{venue}/{id}", handlers.HandleMarketMetrics)
	mux.HandleFunc("GET /metrics/{id}", handlers.HandleLegacyMetrics)

	// Prometheus scrape endpoint
	mux.Handle("GET /metrics", tel.Handler())

	// Everything else is a JSON 404, never the stdlib text page.
	mux.HandleFunc("/", handlers.HandleNotFound)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      withRequestID(withCORS(s.observe(mux))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start serves until Stop is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop gracefully stops the server, draining in-flight requests.
func (s *Server) Stop() error {
	s.logger.Info("stopping http server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Handler returns the fully assembled middleware and route stack.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
