package telemetry

import "fmt"

// Config holds configuration for the tracer
type Config struct {
	// ServiceName is the name of the service
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Environment is the deployment environment (dev, staging, production)
	Environment string

	// Enabled determines whether tracing is enabled.
	// When false, a noop tracer is used
	Enabled bool

	// Endpoint is the OTLP/HTTP collector as host:port. Empty falls back
	// to OTEL_EXPORTER_OTLP_ENDPOINT, then localhost:4318.
	Endpoint string

	// Insecure sends spans over plain HTTP
	Insecure bool

	// SampleRate is the fraction of traces to sample (0.0 to 1.0)
	SampleRate float64
}

// DefaultConfig returns the CLI default: tracing disabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "clientdesk",
		ServiceVersion: "dev",
		Environment:    "development",
		Enabled:        false,
		SampleRate:     1.0,
	}
}

// Validate rejects a sample rate outside [0, 1].
func (c Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample rate %v is not between 0 and 1", c.SampleRate)
	}
	return nil
}
