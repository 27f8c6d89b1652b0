package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of the mock API server
type Metrics struct {
	// HTTP metrics
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Token lifecycle metrics
	LoginAttempts *prometheus.CounterVec
	TokensIssued  prometheus.Counter
	TokensRevoked prometheus.Counter
	ActiveTokens  prometheus.Gauge

	// Data metrics
	ClientListings *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clientdesk_mock_requests_total",
				Help: "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clientdesk_mock_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"route"},
		),
		LoginAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clientdesk_mock_login_attempts_total",
				Help: "Total number of token requests by result",
			},
			[]string{"result"},
		),
		TokensIssued: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "clientdesk_mock_tokens_issued_total",
				Help: "Total number of access tokens issued",
			},
		),
		TokensRevoked: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "clientdesk_mock_tokens_revoked_total",
				Help: "Total number of access tokens revoked or expired",
			},
		),
		ActiveTokens: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "clientdesk_mock_active_tokens",
				Help: "Number of access tokens currently accepted",
			},
		),
		ClientListings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clientdesk_mock_client_listings_total",
				Help: "Total number of client list requests by result",
			},
			[]string{"result"},
		),
	}
}

// RecordRequest records one served request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordLogin records a token request. A successful one also counts an
// issued token.
func (m *Metrics) RecordLogin(success bool) {
	if success {
		m.LoginAttempts.WithLabelValues("success").Inc()
		m.TokensIssued.Inc()
		return
	}
	m.LoginAttempts.WithLabelValues("rejected").Inc()
}

// RecordRevocations counts n tokens leaving the active set.
func (m *Metrics) RecordRevocations(n int) {
	if n > 0 {
		m.TokensRevoked.Add(float64(n))
	}
}

// RecordListing records a client list request.
func (m *Metrics) RecordListing(authorized bool) {
	if authorized {
		m.ClientListings.WithLabelValues("ok").Inc()
		return
	}
	m.ClientListings.WithLabelValues("unauthorized").Inc()
}
