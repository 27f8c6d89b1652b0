package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs a provider that records spans in memory.
func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	restore := UseTracerProvider(tp)
	t.Cleanup(func() {
		restore()
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx := context.Background()
	spanCtx, span := StartSpan(ctx, "clients", "load", attribute.String("api.base_url", "http://localhost:8000"))
	if spanCtx == ctx {
		t.Error("expected new context with span, got same context")
	}
	RecordSuccess(span, attribute.Int("clients.count", 4))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != "clients.load" {
		t.Errorf("span name = %q, want clients.load", got.Name)
	}
	if got.Status.Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status.Code)
	}
	if v, ok := attrValue(got.Attributes, "component"); !ok || v.AsString() != "clients" {
		t.Errorf("component attribute = %v", v)
	}
	if v, ok := attrValue(got.Attributes, "clients.count"); !ok || v.AsInt64() != 4 {
		t.Errorf("clients.count attribute = %v", v)
	}
}

func TestRecordError(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartSpan(context.Background(), "session", "login")
	RecordError(span, errors.New("Incorrect username or password"), "unauthorized")
	span.End()

	got := exporter.GetSpans()[0]
	if got.Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", got.Status.Code)
	}
	if v, ok := attrValue(got.Attributes, "error.kind"); !ok || v.AsString() != "unauthorized" {
		t.Errorf("error.kind attribute = %v", v)
	}
	if len(got.Events) != 1 || got.Events[0].Name != "exception" {
		t.Errorf("events = %+v, want one exception event", got.Events)
	}
}

func TestRecordErrorNil(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartSpan(context.Background(), "session", "logout")
	RecordError(span, nil, "none")
	span.End()

	if got := exporter.GetSpans()[0]; got.Status.Code != codes.Unset {
		t.Errorf("status = %v, want Unset", got.Status.Code)
	}
}
