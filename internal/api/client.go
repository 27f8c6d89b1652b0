package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/felixgeelhaar/clientdesk/internal/log"
	"github.com/felixgeelhaar/clientdesk/internal/telemetry"
	"github.com/felixgeelhaar/clientdesk/internal/version"
)

const (
	// DefaultTimeout bounds every request so a stalled server cannot hang the UI.
	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 10 << 20

	tokenPath  = "/token"
	clientPath = "/client"
)

// Client talks to the clients API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	userAgent string
	logger    *log.Logger
	contract  *Contract
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTPClient.Timeout = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithContract enables response validation.
func WithContract(ct *Contract) Option {
	return func(c *Client) { c.contract = ct }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a new API client. Requests are traced with the
// provider installed by telemetry.InitProvider.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		userAgent: version.UserAgent(),
		logger:    log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.HTTPClient = traced(c.HTTPClient)
	return c
}

// traced returns a copy of hc whose transport records a client span per
// request and propagates the trace context.
func traced(hc *http.Client) *http.Client {
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	out := *hc
	out.Transport = otelhttp.NewTransport(base,
		otelhttp.WithTracerProvider(telemetry.GetTracerProvider()),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	return &out
}

// doRequest performs an HTTP request. Transport failures come back as
// *NetworkError; the caller owns resp.Body.
func (c *Client) doRequest(ctx context.Context, method, path, token string, body io.Reader, contentType string) (*http.Request, *http.Response, error) {
	url := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "request failed",
			"method", method, "path", path, "request_id", requestID, "error", err.Error())
		return req, nil, &NetworkError{Method: method, URL: url, Err: err}
	}

	c.logger.DebugContext(ctx, "request completed",
		"method", method,
		"path", path,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	return req, resp, nil
}

// parseResponse classifies the response and decodes a 2xx body into target.
func (c *Client) parseResponse(ctx context.Context, req *http.Request, path string, resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &NetworkError{Method: req.Method, URL: req.URL.String(), Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, body)
	}

	if c.contract != nil {
		if err := c.contract.ValidateResponse(ctx, req, path, resp.StatusCode, resp.Header, body); err != nil {
			return &DecodeError{Err: err}
		}
	}

	if target != nil {
		if err := json.Unmarshal(body, target); err != nil {
			return &DecodeError{Err: err}
		}
	}

	return nil
}
