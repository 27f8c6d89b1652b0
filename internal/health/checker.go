// Package health runs dependency checks for the status command and the
// mock server's probes.
//
//	m := health.NewManager()
//	m.AddChecker(health.NewAPIChecker(baseURL, httpClient))
//	m.AddChecker(health.NewStoreChecker(store))
//	for _, r := range m.Report(ctx) {
//	    fmt.Println(r.Name, r.Status)
//	}
package health

import (
	"context"
	"time"
)

// Checker verifies one dependency.
type Checker interface {
	// Name is lowercase with hyphens, e.g. "api-server".
	Name() string

	// Check must respect the context deadline.
	Check(ctx context.Context) *Result
}

// Status is the outcome of a check.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Result is what a Checker reports.
type Result struct {
	Status  Status                 `json:"status" yaml:"status"`
	Message string                 `json:"message" yaml:"message"`
	Details map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration          `json:"latency_ns" yaml:"latency"`
}

// NewResult creates a result with empty details.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WithDetail adds a detail and returns r for chaining.
func (r *Result) WithDetail(key string, value interface{}) *Result {
	r.Details[key] = value
	return r
}

// WithLatency sets the latency and returns r for chaining.
func (r *Result) WithLatency(latency time.Duration) *Result {
	r.Latency = latency
	return r
}

func Healthy(message string) *Result   { return NewResult(StatusHealthy, message) }
func Degraded(message string) *Result  { return NewResult(StatusDegraded, message) }
func Unhealthy(message string) *Result { return NewResult(StatusUnhealthy, message) }

// funcChecker adapts a function to Checker.
type funcChecker struct {
	name string
	fn   func(ctx context.Context) *Result
}

// CheckFunc wraps fn as a named Checker.
func CheckFunc(name string, fn func(ctx context.Context) *Result) Checker {
	return &funcChecker{name: name, fn: fn}
}

func (c *funcChecker) Name() string                      { return c.name }
func (c *funcChecker) Check(ctx context.Context) *Result { return c.fn(ctx) }
