package log

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/clientdesk/internal/errors"
)

// Logger wraps slog. Records carry the trace of the span in their
// context, and secret-looking attributes are redacted.
type Logger struct {
	slog   *slog.Logger
	config Config
}

// New creates a Logger for config.
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{
		Level:       config.Level,
		AddSource:   config.AddSource,
		ReplaceAttr: redactSecrets,
	}

	var handler slog.Handler
	switch config.Format {
	case FormatText:
		handler = slog.NewTextHandler(config.Output.Writer(), opts)
	default:
		handler = slog.NewJSONHandler(config.Output.Writer(), opts)
	}

	logger := slog.New(traceHandler{handler})
	if config.ServiceName != "" {
		logger = logger.With("service", config.ServiceName)
	}
	if config.ServiceVersion != "" {
		logger = logger.With("version", config.ServiceVersion)
	}

	return &Logger{
		slog:   logger,
		config: config,
	}
}

// Default creates a logger with default configuration
func Default() *Logger {
	return New(DefaultConfig())
}

// With returns a new Logger with the given attributes added to all log entries
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
	}
}

// WithError adds error details to the logger.
// AppErrors contribute error_code and suggestions.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}

	if appErr, ok := errors.As(err); ok {
		args := []any{
			"error", appErr.Message,
			"error_code", string(appErr.Code),
		}

		if len(appErr.Suggestions) > 0 {
			args = append(args, "suggestions", appErr.Suggestions)
		}

		if appErr.Cause != nil {
			args = append(args, "cause", appErr.Cause.Error())
		}

		return l.With(args...)
	}

	return l.With("error", err.Error())
}

// DebugContext logs a debug message with context
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slog.DebugContext(ctx, msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// InfoContext logs an info message with context
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slog.InfoContext(ctx, msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// WarnContext logs a warning message with context
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slog.WarnContext(ctx, msg, args...)
}

// ErrorContext logs an error message with context
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slog.ErrorContext(ctx, msg, args...)
}

// LogErrorContext logs err with full AppError details.
func (l *Logger) LogErrorContext(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}
	l.WithError(err).ErrorContext(ctx, msg)
}

// Enabled returns whether the logger is enabled for the given level
func (l *Logger) Enabled(ctx context.Context, level Level) bool {
	return l.slog.Enabled(ctx, level)
}

// Slog exposes the underlying *slog.Logger for libraries that want one.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Config returns the logger configuration
func (l *Logger) Config() Config {
	return l.config
}
