// Package server hosts an HTTP handler with health probes and graceful
// shutdown. The mock API server runs on it.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/clientdesk/internal/health"
	"github.com/felixgeelhaar/clientdesk/internal/log"
)

// Server serves an application handler next to /health/live,
// /health/ready and /health/startup.
type Server struct {
	httpServer      *http.Server
	probeManager    *health.ProbeManager
	logger          *log.Logger
	inShutdown      atomic.Bool
	shutdownTimeout time.Duration

	mu   sync.Mutex
	addr net.Addr
}

// Config holds server configuration. Zero durations take defaults.
type Config struct {
	// Address is the listen address, e.g. ":8000".
	Address string

	// ShutdownTimeout bounds connection draining. Default 30s.
	ShutdownTimeout time.Duration

	// ReadTimeout, WriteTimeout and IdleTimeout default to 10s, 10s and 60s.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates a server for app. A nil logger discards.
func NewServer(app http.Handler, probeManager *health.ProbeManager, cfg Config, logger *log.Logger) *Server {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = log.Discard()
	}

	s := &Server{
		probeManager:    probeManager,
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", s.handleLiveness)
	mux.HandleFunc("/health/ready", s.handleReadiness)
	mux.HandleFunc("/health/startup", s.handleStartup)
	if app != nil {
		mux.Handle("/", app)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the bound address once the server is listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Serve accepts connections on l until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	s.addr = l.Addr()
	s.mu.Unlock()

	s.probeManager.MarkInitialized()
	s.logger.Info("server listening", "addr", l.Addr().String())

	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run listens on the configured address and serves until ctx is done,
// then drains connections.
func (s *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(l) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", s.shutdownTimeout.String())
	if err := s.Shutdown(context.Background()); err != nil {
		return err
	}
	return <-errCh
}

// Shutdown fails the readiness probe, stops keep-alives and waits up to
// ShutdownTimeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.inShutdown.Store(true)
	s.probeManager.MarkShutdown()
	s.httpServer.SetKeepAlivesEnabled(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// IsShuttingDown returns whether the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	return s.inShutdown.Load()
}

func (s *Server) writeProbeResponse(w http.ResponseWriter, result *health.ProbeResult, unhealthyStatus int) {
	w.Header().Set("Content-Type", "application/json")

	if result.Status == health.StatusUnhealthy {
		w.WriteHeader(unhealthyStatus)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Warn("failed to encode probe response", "error", err.Error())
	}
}

// handleLiveness always answers 200, degraded while draining.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeProbeResponse(w, s.probeManager.CheckLiveness(r.Context()), http.StatusOK)
}

// handleReadiness answers 503 while draining or when a check is unhealthy.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeProbeResponse(w, s.probeManager.CheckReadiness(r.Context()), http.StatusServiceUnavailable)
}

// handleStartup answers 503 until Serve has been called.
func (s *Server) handleStartup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeProbeResponse(w, s.probeManager.CheckStartup(r.Context()), http.StatusServiceUnavailable)
}
