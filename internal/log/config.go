package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format represents the output format for logs
type Format int

const (
	// FormatJSON outputs logs in JSON format
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format
	FormatText
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	default:
		return "json"
	}
}

// ParseFormat parses a string into a Format
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "console":
		return FormatText
	default:
		return FormatJSON
	}
}

// Output represents where logs should be written
type Output struct {
	writer io.Writer
}

// Writer returns the underlying io.Writer
func (o Output) Writer() io.Writer {
	if o.writer == nil {
		return os.Stderr
	}
	return o.writer
}

// NewOutput creates an Output from an io.Writer
func NewOutput(w io.Writer) Output {
	return Output{writer: w}
}

// OutputStderr creates an Output that writes to stderr
func OutputStderr() Output {
	return Output{writer: os.Stderr}
}

// OutputDiscard creates an Output that drops everything
func OutputDiscard() Output {
	return Output{writer: io.Discard}
}

// OpenFile opens (or creates) an append-only log file, creating parent
// directories as needed. The caller owns the returned closer.
func OpenFile(path string) (Output, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Output{}, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Output{}, nil, fmt.Errorf("open log file: %w", err)
	}
	return Output{writer: f}, f, nil
}

// Config holds configuration for the logger
type Config struct {
	// Level is the minimum log level to output
	Level Level

	// Format is the output format (JSON or Text)
	Format Format

	// Output is where logs should be written
	Output Output

	// AddSource includes source file and line number in logs
	AddSource bool

	// ServiceName is attached to every record as "service"
	ServiceName string

	// ServiceVersion is attached to every record as "version"
	ServiceVersion string
}

// DefaultConfig logs at INFO in text format to stderr, leaving stdout
// free for command output.
func DefaultConfig() Config {
	return Config{
		Level:          LevelInfo,
		Format:         FormatText,
		Output:         OutputStderr(),
		ServiceName:    "clientdesk",
		ServiceVersion: "dev",
	}
}

// DevelopmentConfig logs at DEBUG with source locations.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = LevelDebug
	cfg.AddSource = true
	return cfg
}
