package health

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIChecker probes the API server's /health endpoint.
type APIChecker struct {
	baseURL string
	client  *http.Client
}

// NewAPIChecker creates a checker for the API at baseURL. A nil client
// means http.DefaultClient.
func NewAPIChecker(baseURL string, client *http.Client) *APIChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &APIChecker{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Name returns the name of this health check.
func (c *APIChecker) Name() string {
	return "api-server"
}

// Check is healthy on a 2xx from /health, degraded on any other HTTP
// answer (the server is up but has no health route) and unhealthy when
// nothing answers.
func (c *APIChecker) Check(ctx context.Context) *Result {
	url := c.baseURL + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Unhealthy("invalid API URL").
			WithDetail("url", c.baseURL).
			WithDetail("error", err.Error())
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return Unhealthy("API server unreachable").
			WithDetail("url", c.baseURL).
			WithDetail("error", err.Error()).
			WithDetail("suggestion", "Start it with 'clientdesk mock-server' or set api.base_url").
			WithLatency(latency)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Healthy("API server is reachable").
			WithDetail("url", c.baseURL).
			WithDetail("status_code", resp.StatusCode).
			WithLatency(latency)
	}
	return Degraded("API server answered without a health endpoint").
		WithDetail("url", c.baseURL).
		WithDetail("status_code", resp.StatusCode).
		WithLatency(latency)
}
