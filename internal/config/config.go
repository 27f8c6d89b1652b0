// Package config loads and saves the clientdesk configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/felixgeelhaar/clientdesk/internal/errors"
	"github.com/felixgeelhaar/clientdesk/internal/session"
	"github.com/felixgeelhaar/clientdesk/internal/telemetry"
)

// Environment variables that override the file.
const (
	EnvAPIURL   = "CLIENTDESK_API_URL"
	EnvHome     = "CLIENTDESK_HOME"
	EnvLogLevel = "CLIENTDESK_LOG_LEVEL"
)

const (
	// DefaultBaseURL is where the API is expected during development.
	DefaultBaseURL = "http://localhost:8000"

	// FileName is the config file inside the home directory.
	FileName = "config.yaml"

	defaultHomeDir = ".clientdesk"
)

// Config represents the clientdesk configuration
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Display DisplayConfig `yaml:"display"`
	Tracing TracingConfig `yaml:"tracing"`
}

type APIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	ValidateResponses bool          `yaml:"validate_responses"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"` // "file", "sqlite", "memory"
	Path    string `yaml:"path,omitempty"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format     string `yaml:"format"` // "text", "json"
	EnableFile bool   `yaml:"enable_file"`
	LogDir     string `yaml:"log_dir,omitempty"` // Default <home>/logs
}

type DisplayConfig struct {
	Timezone string `yaml:"timezone,omitempty"` // IANA name; empty keeps the server's zone
	NoColor  bool   `yaml:"no_color,omitempty"`
}

// TracingConfig exports OpenTelemetry spans over OTLP/HTTP.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint,omitempty"` // host:port, default localhost:4318
	Insecure   bool    `yaml:"insecure,omitempty"`
	SampleRate float64 `yaml:"sample_rate"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           DefaultBaseURL,
			Timeout:           30 * time.Second,
			ValidateResponses: true,
		},
		Storage: StorageConfig{
			Backend: session.BackendFile,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			EnableFile: true,
		},
		Tracing: TracingConfig{
			SampleRate: 1.0,
		},
	}
}

// ResolveHome returns flagValue, then $CLIENTDESK_HOME, then ~/.clientdesk.
func ResolveHome(flagValue string) (string, error) {
	if flagValue != "" {
		return expandHome(flagValue)
	}
	if env := os.Getenv(EnvHome); env != "" {
		return expandHome(env)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, defaultHomeDir), nil
}

// Path returns the config file path for home.
func Path(home string) string {
	return filepath.Join(home, FileName)
}

// Load reads the config file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, invalidConfig(path, err)
	}
	return cfg, nil
}

// LoadFile reads the config file at path over the defaults without
// environment overrides. It is what "config set" edits and saves back.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, nil
	case err != nil:
		return nil, apperrors.NewConfigLoadError(path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.NewConfigLoadError(path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, invalidConfig(path, err)
	}
	return cfg, nil
}

func invalidConfig(path string, err error) error {
	return apperrors.Wrap(apperrors.ErrCodeConfigInvalid, "invalid configuration in "+path, err).
		WithSuggestion("Run 'clientdesk config view' to inspect the effective values")
}

// Save writes cfg to path with owner-only permissions.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigSave, "failed to create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigSave, "failed to write config", err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects values that cannot be used.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	switch c.Storage.Backend {
	case "", session.BackendFile, session.BackendSQLite, session.BackendMemory:
	default:
		return fmt.Errorf("storage.backend %q is not one of file, sqlite, memory", c.Storage.Backend)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("display.timezone: %w", err)
	}
	if err := c.Telemetry("").Validate(); err != nil {
		return fmt.Errorf("tracing.sample_rate: %w", err)
	}
	return nil
}

// Telemetry returns the tracer settings for a build of serviceVersion.
func (c *Config) Telemetry(serviceVersion string) telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = serviceVersion
	tc.Enabled = c.Tracing.Enabled
	tc.Endpoint = c.Tracing.Endpoint
	tc.Insecure = c.Tracing.Insecure
	tc.SampleRate = c.Tracing.SampleRate
	return tc
}

// Location returns the display time zone, or nil to keep each
// timestamp's own zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Display.Timezone == "" {
		return nil, nil
	}
	return time.LoadLocation(c.Display.Timezone)
}

// StoreConfig returns the session store settings rooted at home.
func (c *Config) StoreConfig(home string) session.StoreConfig {
	return session.StoreConfig{
		Backend: c.Storage.Backend,
		Path:    c.Storage.Path,
		Home:    home,
	}
}

// LogDir returns the log directory, defaulting to <home>/logs.
func (c *Config) LogDir(home string) string {
	if c.Logging.LogDir == "" {
		return filepath.Join(home, "logs")
	}
	dir, err := expandHome(c.Logging.LogDir)
	if err != nil {
		return c.Logging.LogDir
	}
	return dir
}

// Keys lists every key accepted by Get and Set.
func Keys() []string {
	return []string{
		"api.base_url",
		"api.timeout",
		"api.validate_responses",
		"storage.backend",
		"storage.path",
		"logging.level",
		"logging.format",
		"logging.enable_file",
		"logging.log_dir",
		"display.timezone",
		"display.no_color",
		"tracing.enabled",
		"tracing.endpoint",
		"tracing.insecure",
		"tracing.sample_rate",
	}
}

// Get retrieves a value using dot notation.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api.base_url":
		return c.API.BaseURL, nil
	case "api.timeout":
		return c.API.Timeout.String(), nil
	case "api.validate_responses":
		return strconv.FormatBool(c.API.ValidateResponses), nil
	case "storage.backend":
		return c.Storage.Backend, nil
	case "storage.path":
		return c.Storage.Path, nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "logging.enable_file":
		return strconv.FormatBool(c.Logging.EnableFile), nil
	case "logging.log_dir":
		return c.Logging.LogDir, nil
	case "display.timezone":
		return c.Display.Timezone, nil
	case "display.no_color":
		return strconv.FormatBool(c.Display.NoColor), nil
	case "tracing.enabled":
		return strconv.FormatBool(c.Tracing.Enabled), nil
	case "tracing.endpoint":
		return c.Tracing.Endpoint, nil
	case "tracing.insecure":
		return strconv.FormatBool(c.Tracing.Insecure), nil
	case "tracing.sample_rate":
		return strconv.FormatFloat(c.Tracing.SampleRate, 'g', -1, 64), nil
	default:
		return "", apperrors.NewConfigUnknownKeyError(key, Keys())
	}
}

// Set assigns a value using dot notation. The result is validated; on
// error c is left unchanged.
func (c *Config) Set(key, value string) error {
	next := *c

	switch key {
	case "api.base_url":
		next.API.BaseURL = strings.TrimRight(value, "/")
	case "api.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("api.timeout: %w", err)
		}
		next.API.Timeout = d
	case "api.validate_responses":
		next.API.ValidateResponses = parseBool(value)
	case "storage.backend":
		next.Storage.Backend = value
	case "storage.path":
		next.Storage.Path = value
	case "logging.level":
		next.Logging.Level = value
	case "logging.format":
		next.Logging.Format = value
	case "logging.enable_file":
		next.Logging.EnableFile = parseBool(value)
	case "logging.log_dir":
		next.Logging.LogDir = value
	case "display.timezone":
		next.Display.Timezone = value
	case "display.no_color":
		next.Display.NoColor = parseBool(value)
	case "tracing.enabled":
		next.Tracing.Enabled = parseBool(value)
	case "tracing.endpoint":
		next.Tracing.Endpoint = value
	case "tracing.insecure":
		next.Tracing.Insecure = parseBool(value)
	case "tracing.sample_rate":
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("tracing.sample_rate: %w", err)
		}
		next.Tracing.SampleRate = rate
	default:
		return apperrors.NewConfigUnknownKeyError(key, Keys())
	}

	if err := next.Validate(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigInvalid, fmt.Sprintf("invalid value for %s", key), err)
	}
	*c = next
	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
