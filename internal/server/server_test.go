package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/felixgeelhaar/clientdesk/internal/health"
)

func appHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "app:%s", r.URL.Path)
	})
}

func TestNewServerDefaults(t *testing.T) {
	s := NewServer(appHandler(), health.NewProbeManager("1.0.0"), Config{Address: ":0"}, nil)

	if s.shutdownTimeout != 30*time.Second {
		t.Errorf("default shutdown timeout: expected 30s, got %v", s.shutdownTimeout)
	}
	if s.httpServer.ReadTimeout != 10*time.Second {
		t.Errorf("default read timeout: expected 10s, got %v", s.httpServer.ReadTimeout)
	}
	if s.httpServer.WriteTimeout != 10*time.Second {
		t.Errorf("default write timeout: expected 10s, got %v", s.httpServer.WriteTimeout)
	}
	if s.httpServer.IdleTimeout != 60*time.Second {
		t.Errorf("default idle timeout: expected 60s, got %v", s.httpServer.IdleTimeout)
	}
}

func TestRouting(t *testing.T) {
	pm := health.NewProbeManager("1.0.0")
	pm.MarkInitialized()
	s := NewServer(appHandler(), pm, Config{}, nil)

	tests := []struct {
		path       string
		wantStatus int
		wantApp    bool
	}{
		{"/health/live", http.StatusOK, false},
		{"/health/ready", http.StatusOK, false},
		{"/health/startup", http.StatusOK, false},
		{"/client", http.StatusOK, true},
		{"/health", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			gotApp := rec.Body.String() == "app:"+tt.path
			if gotApp != tt.wantApp {
				t.Errorf("served by app = %v, want %v (body %q)", gotApp, tt.wantApp, rec.Body.String())
			}
		})
	}
}

func TestProbeResponses(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		method      string
		initialized bool
		shutdown    bool
		checker     health.Checker
		wantStatus  int
		wantHealth  health.Status
	}{
		{name: "live", path: "/health/live", method: http.MethodGet, wantStatus: 200, wantHealth: health.StatusHealthy},
		{name: "live draining", path: "/health/live", method: http.MethodGet, shutdown: true, wantStatus: 200, wantHealth: health.StatusDegraded},
		{name: "ready draining", path: "/health/ready", method: http.MethodGet, shutdown: true, wantStatus: 503, wantHealth: health.StatusUnhealthy},
		{
			name: "ready failing check", path: "/health/ready", method: http.MethodGet,
			checker: health.CheckFunc("fixtures", func(context.Context) *health.Result {
				return health.Unhealthy("no users")
			}),
			wantStatus: 503, wantHealth: health.StatusUnhealthy,
		},
		{name: "startup pending", path: "/health/startup", method: http.MethodGet, wantStatus: 503, wantHealth: health.StatusUnhealthy},
		{name: "startup done", path: "/health/startup", method: http.MethodGet, initialized: true, wantStatus: 200, wantHealth: health.StatusHealthy},
		{name: "wrong method", path: "/health/ready", method: http.MethodPost, wantStatus: 405},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := health.NewProbeManager("1.0.0")
			if tt.initialized {
				pm.MarkInitialized()
			}
			if tt.shutdown {
				pm.MarkShutdown()
			}
			if tt.checker != nil {
				pm.AddChecker(tt.checker)
			}
			s := NewServer(nil, pm, Config{}, nil)

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantHealth == "" {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			var result health.ProbeResult
			if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if result.Status != tt.wantHealth {
				t.Errorf("health = %s, want %s", result.Status, tt.wantHealth)
			}
		})
	}
}

func TestServeAndShutdown(t *testing.T) {
	pm := health.NewProbeManager("1.0.0")
	s := NewServer(appHandler(), pm, Config{ShutdownTimeout: time.Second}, nil)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Serve(l) }()

	url := "http://" + l.Addr().String()
	resp, err := http.Get(url + "/client")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "app:/client" {
		t.Errorf("body = %q", body)
	}
	if !pm.IsInitialized() {
		t.Error("Serve should mark the probes initialized")
	}
	if s.Addr() == nil {
		t.Error("Addr() should be set while serving")
	}

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v, want nil after shutdown", err)
	}
	if !s.IsShuttingDown() || !pm.IsShuttingDown() {
		t.Error("shutdown state not recorded")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := NewServer(appHandler(), health.NewProbeManager("1.0.0"),
		Config{Address: "127.0.0.1:0", ShutdownTimeout: time.Second}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for s.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s.Addr() == nil {
		t.Fatal("server did not start")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
