package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultTimeout bounds each check.
const DefaultTimeout = 5 * time.Second

// Manager runs registered checks in parallel, each under its own timeout.
type Manager struct {
	checkers []Checker
	timeout  time.Duration
	mu       sync.RWMutex
}

// NewManager creates a manager with DefaultTimeout.
func NewManager() *Manager {
	return &Manager{
		checkers: make([]Checker, 0),
		timeout:  DefaultTimeout,
	}
}

// WithTimeout sets the per-check timeout. Non-positive values keep the
// current one.
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	if timeout <= 0 {
		return m
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return m
}

// AddChecker registers a checker.
func (m *Manager) AddChecker(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
}

// Check runs every checker and returns results keyed by name.
func (m *Manager) Check(ctx context.Context) map[string]*Result {
	m.mu.RLock()
	checkers := make([]Checker, len(m.checkers))
	copy(checkers, m.checkers)
	timeout := m.timeout
	m.mu.RUnlock()

	results := make(map[string]*Result, len(checkers))
	var resultsMu sync.Mutex
	var wg sync.WaitGroup

	for _, checker := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			result := c.Check(checkCtx)
			if result == nil {
				result = Unhealthy("check returned no result")
			}
			if result.Latency == 0 {
				result.Latency = time.Since(start)
			}

			resultsMu.Lock()
			results[c.Name()] = result
			resultsMu.Unlock()
		}(checker)
	}

	wg.Wait()
	return results
}

// NamedResult is a Result labelled with its checker name.
type NamedResult struct {
	Name    string                 `json:"name" yaml:"name"`
	Status  Status                 `json:"status" yaml:"status"`
	Message string                 `json:"message" yaml:"message"`
	Details map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration          `json:"latency_ns" yaml:"latency"`
}

// Report runs Check and returns results sorted by name.
func (m *Manager) Report(ctx context.Context) []NamedResult {
	results := m.Check(ctx)
	report := make([]NamedResult, 0, len(results))
	for name, r := range results {
		report = append(report, NamedResult{
			Name:    name,
			Status:  r.Status,
			Message: r.Message,
			Details: r.Details,
			Latency: r.Latency,
		})
	}
	sort.Slice(report, func(i, j int) bool { return report[i].Name < report[j].Name })
	return report
}

// OverallStatus is unhealthy if any result is, else degraded if any result
// is, else healthy.
func (m *Manager) OverallStatus(results map[string]*Result) Status {
	hasDegraded := false
	for _, result := range results {
		if result.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if result.Status == StatusDegraded {
			hasDegraded = true
		}
	}

	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// CheckNames returns the names of all registered checkers.
func (m *Manager) CheckNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.checkers))
	for i, checker := range m.checkers {
		names[i] = checker.Name()
	}
	return names
}

// Count returns the number of registered checkers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.checkers)
}
