package log

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// redacted replaces the value of any attribute that may hold a secret.
const redacted = "[REDACTED]"

var secretKeys = map[string]bool{
	"password":      true,
	"access_token":  true,
	"token":         true,
	"authorization": true,
}

// redactSecrets is a slog ReplaceAttr hook. Tokens are logged by
// fingerprint only, so a raw value reaching a handler is a mistake.
func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}
	return a
}

// traceHandler adds trace_id and span_id to records logged inside a
// sampled span, so log lines can be joined to exported traces.
type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() && sc.IsSampled() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}
