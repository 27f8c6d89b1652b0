package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName names the tracer for spans created here.
const instrumentationName = "github.com/felixgeelhaar/clientdesk"

// StartSpan creates a span named "<component>.<operation>".
//
// Usage:
//
//	ctx, span := telemetry.StartSpan(ctx, "clients", "load")
//	defer span.End()
func StartSpan(ctx context.Context, component, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := GetTracerProvider().Tracer(instrumentationName)
	ctx, span := tracer.Start(ctx, component+"."+operation)

	span.SetAttributes(attribute.String("component", component))
	span.SetAttributes(attrs...)
	return ctx, span
}

// RecordSuccess marks a span as successful with optional result attributes.
func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError records err on the span with its kind, such as
// "unauthorized" or "network", and sets error status.
func RecordError(span trace.Span, err error, kind string) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error.kind", kind))
}
