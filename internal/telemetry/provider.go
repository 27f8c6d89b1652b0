// Package telemetry sets up OpenTelemetry tracing for API calls and the
// session and client-list operations built on them. Tracing is off unless
// enabled in configuration.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	// globalProvider holds the current tracer provider
	globalProvider trace.TracerProvider
	// globalShutdown holds the shutdown function for the provider
	globalShutdown func(context.Context) error
	// providerMu protects access to global provider state
	providerMu sync.RWMutex
)

// createResource describes the service on every exported span.
func createResource(cfg Config) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	)
}

// InitProvider installs the tracer provider described by cfg and returns
// its shutdown function, which flushes pending spans.
func InitProvider(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providerMu.Lock()
	defer providerMu.Unlock()

	if !cfg.Enabled {
		globalProvider = noop.NewTracerProvider()
		globalShutdown = func(context.Context) error { return nil }
		return globalShutdown, nil
	}

	exporterOpts := []otlptracehttp.Option{
		otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
	}
	if cfg.Endpoint != "" {
		exporterOpts = append(exporterOpts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(createResource(cfg)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(5*time.Second),
			sdktrace.WithMaxExportBatchSize(512),
		),
	)

	globalProvider = tp
	globalShutdown = tp.Shutdown
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return globalShutdown, nil
}

// Shutdown gracefully shuts down the tracer provider
func Shutdown(ctx context.Context) error {
	providerMu.RLock()
	shutdown := globalShutdown
	providerMu.RUnlock()

	if shutdown != nil {
		return shutdown(ctx)
	}
	return nil
}

// ForceFlush forces all pending spans to be exported
func ForceFlush(ctx context.Context) error {
	providerMu.RLock()
	provider := globalProvider
	providerMu.RUnlock()

	if tp, ok := provider.(*sdktrace.TracerProvider); ok {
		return tp.ForceFlush(ctx)
	}
	return nil
}

// GetTracerProvider returns the current tracer provider, noop before
// InitProvider.
func GetTracerProvider() trace.TracerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()

	if globalProvider != nil {
		return globalProvider
	}
	return noop.NewTracerProvider()
}

// UseTracerProvider replaces the provider and returns a function that
// restores the previous one. Tests use it with an in-memory exporter.
func UseTracerProvider(tp trace.TracerProvider) (restore func()) {
	providerMu.Lock()
	prev := globalProvider
	globalProvider = tp
	providerMu.Unlock()

	return func() {
		providerMu.Lock()
		globalProvider = prev
		providerMu.Unlock()
	}
}
