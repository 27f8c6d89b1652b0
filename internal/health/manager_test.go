package health

import (
	"context"
	"testing"
	"time"
)

// mockChecker returns a fixed result, optionally after a delay.
type mockChecker struct {
	name   string
	result *Result
	delay  time.Duration
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) *Result {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return Unhealthy("check cancelled").WithDetail("error", ctx.Err().Error())
		}
	}
	return m.result
}

func TestNewManager(t *testing.T) {
	m := NewManager()
	if m.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", m.timeout, DefaultTimeout)
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
}

func TestAddChecker(t *testing.T) {
	m := NewManager()
	m.AddChecker(&mockChecker{name: "api-server", result: Healthy("ok")})
	m.AddChecker(&mockChecker{name: "token-store", result: Healthy("ok")})

	names := m.CheckNames()
	if len(names) != 2 || names[0] != "api-server" || names[1] != "token-store" {
		t.Errorf("CheckNames() = %v, want [api-server token-store]", names)
	}
}

func TestCheck(t *testing.T) {
	m := NewManager()
	m.AddChecker(&mockChecker{name: "healthy", result: Healthy("all good")})
	m.AddChecker(&mockChecker{name: "degraded", result: Degraded("partial")})
	m.AddChecker(&mockChecker{name: "empty", result: nil})

	results := m.Check(context.Background())
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results["healthy"].Status != StatusHealthy {
		t.Errorf("healthy status = %v", results["healthy"].Status)
	}
	if results["degraded"].Status != StatusDegraded {
		t.Errorf("degraded status = %v", results["degraded"].Status)
	}
	if results["empty"].Status != StatusUnhealthy {
		t.Errorf("nil result should become unhealthy, got %v", results["empty"].Status)
	}
}

func TestCheckWithTimeout(t *testing.T) {
	m := NewManager().WithTimeout(20 * time.Millisecond)
	m.AddChecker(&mockChecker{name: "slow", result: Healthy("ok"), delay: time.Second})

	start := time.Now()
	results := m.Check(context.Background())
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Check took %v, timeout not applied", elapsed)
	}
	if results["slow"].Status != StatusUnhealthy {
		t.Errorf("slow status = %v, want unhealthy", results["slow"].Status)
	}
}

func TestReport(t *testing.T) {
	m := NewManager()
	m.AddChecker(&mockChecker{name: "token-store", result: Healthy("no saved session")})
	m.AddChecker(&mockChecker{name: "api-server", result: Unhealthy("unreachable")})

	report := m.Report(context.Background())
	if len(report) != 2 {
		t.Fatalf("got %d entries, want 2", len(report))
	}
	if report[0].Name != "api-server" || report[1].Name != "token-store" {
		t.Errorf("report not sorted: %s, %s", report[0].Name, report[1].Name)
	}
	if report[0].Status != StatusUnhealthy || report[0].Message != "unreachable" {
		t.Errorf("report[0] = %+v", report[0])
	}
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name    string
		results map[string]*Result
		want    Status
	}{
		{"empty", map[string]*Result{}, StatusHealthy},
		{"all healthy", map[string]*Result{"a": Healthy(""), "b": Healthy("")}, StatusHealthy},
		{"one degraded", map[string]*Result{"a": Healthy(""), "b": Degraded("")}, StatusDegraded},
		{"unhealthy wins", map[string]*Result{"a": Degraded(""), "b": Unhealthy("")}, StatusUnhealthy},
	}

	m := NewManager()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.OverallStatus(tt.results); got != tt.want {
				t.Errorf("OverallStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}
