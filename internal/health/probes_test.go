package health

import (
	"context"
	"sync"
	"testing"
)

func TestProbeLifecycle(t *testing.T) {
	pm := NewProbeManager("1.0.0")
	ctx := context.Background()

	if got := pm.CheckStartup(ctx).Status; got != StatusUnhealthy {
		t.Errorf("startup before init = %v, want unhealthy", got)
	}
	if got := pm.CheckLiveness(ctx).Status; got != StatusHealthy {
		t.Errorf("liveness during startup = %v, want healthy", got)
	}

	pm.MarkInitialized()
	if got := pm.CheckStartup(ctx).Status; got != StatusHealthy {
		t.Errorf("startup after init = %v, want healthy", got)
	}

	pm.AddChecker(&mockChecker{name: "fixtures", result: Healthy("ok")})
	ready := pm.CheckReadiness(ctx)
	if ready.Status != StatusHealthy {
		t.Errorf("readiness = %v, want healthy", ready.Status)
	}
	if _, ok := ready.Checks["fixtures"]; !ok {
		t.Error("readiness should include registered checks")
	}
	if ready.Version != "1.0.0" {
		t.Errorf("Version = %q", ready.Version)
	}

	pm.MarkShutdown()
	if got := pm.CheckLiveness(ctx).Status; got != StatusDegraded {
		t.Errorf("liveness while draining = %v, want degraded", got)
	}
	ready = pm.CheckReadiness(ctx)
	if ready.Status != StatusUnhealthy {
		t.Errorf("readiness while draining = %v, want unhealthy", ready.Status)
	}
	if len(ready.Checks) != 0 {
		t.Error("checks should not run while draining")
	}
}

func TestReadinessReflectsChecks(t *testing.T) {
	pm := NewProbeManager("dev")
	pm.AddChecker(&mockChecker{name: "fixtures", result: Unhealthy("no users")})

	if got := pm.CheckReadiness(context.Background()).Status; got != StatusUnhealthy {
		t.Errorf("readiness = %v, want unhealthy", got)
	}
}

func TestConcurrentProbeAccess(t *testing.T) {
	pm := NewProbeManager("1.0.0")
	pm.AddChecker(&mockChecker{name: "a", result: Healthy("ok")})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				pm.CheckLiveness(ctx)
				pm.CheckReadiness(ctx)
				pm.CheckStartup(ctx)
				pm.MarkInitialized()
			}
		}()
	}
	wg.Wait()

	if !pm.IsInitialized() {
		t.Error("expected initialized")
	}
}
