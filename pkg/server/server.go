// Package server exposes the engine's operations over a JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"mizan-hq/mizan/pkg/agent/gate"
	"mizan-hq/mizan/pkg/agent/governor"
	"mizan-hq/mizan/pkg/config"
	"mizan-hq/mizan/pkg/decision/store"
	"mizan-hq/mizan/pkg/rules"
	"mizan-hq/mizan/pkg/workflow"
)

// Server serves the engine API.
type Server struct {
	config *config.ServerConfig

	rules     *rules.Manager
	governor  *governor.Governor
	gates     *gate.Service
	workflows *workflow.Runner
	decisions store.Store
	metrics   http.Handler

	logger     *slog.Logger
	httpServer *http.Server
	mu         sync.Mutex
	running    bool
}

// Components carries the engine pieces the server fronts. Workflows,
// decisions, and metrics are optional.
type Components struct {
	Rules     *rules.Manager
	Governor  *governor.Governor
	Gates     *gate.Service
	Workflows *workflow.Runner
	Decisions store.Store
	Metrics   http.Handler
}

// NewServer creates an engine API server.
func NewServer(cfg *config.ServerConfig, c Components, logger *slog.Logger) (*Server, error) {
	if c.Rules == nil || c.Governor == nil || c.Gates == nil {
		return nil, fmt.Errorf("rules manager, governor, and gate service are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:    cfg,
		rules:     c.Rules,
		governor:  c.Governor,
		gates:     c.Gates,
		workflows: c.Workflows,
		decisions: c.Decisions,
		metrics:   c.Metrics,
		logger:    logger.With("component", "server"),
	}, nil
}

// Start starts the HTTP server and blocks until ctx is cancelled or
// the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.routes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("engine api listening", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.httpServer == nil {
		return nil
	}
	s.running = false

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down engine api")
	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler returns the configured HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/scope/derive", s.handleDeriveScope)
	mux.HandleFunc("POST /v1/agent/actions", s.handleAgentAction)
	mux.HandleFunc("GET /v1/gates/{id}", s.handleGetGate)
	mux.HandleFunc("POST /v1/gates/{id}/decision", s.handleDecideGate)
	mux.HandleFunc("POST /v1/gates/sweep", s.handleSweepGates)
	mux.HandleFunc("GET /v1/decisions", s.handleQueryDecisions)
	mux.HandleFunc("GET /health", s.handleHealth)

	if s.workflows != nil {
		mux.HandleFunc("POST /v1/workflows", s.handleStartWorkflow)
		mux.HandleFunc("GET /v1/workflows/{id}", s.handleGetWorkflow)
		mux.HandleFunc("POST /v1/workflows/{id}/advance", s.handleAdvanceWorkflow)
	}
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	return s.withLogging(mux)
}
