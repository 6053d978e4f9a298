package conproxy

import (
	"fmt"
	"time"
)

// Config holds the configuration of the default console sink and the runtime
// built around it.
type Config struct {
	// Level sets the minimum sink level: debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level" json:"level"`

	// Development enables development mode with:
	// - Pretty console output by default
	// - Caller information in logs
	// - Stack traces on error
	Development bool `yaml:"development" json:"development"`

	// ServiceName identifies this service in logs and OTEL.
	// Default: "unknown"
	ServiceName string `yaml:"service_name" json:"service_name"`

	// Version is the application version, included in logs.
	Version string `yaml:"version" json:"version"`

	// Console output configuration.
	Console ConsoleConfig `yaml:"console" json:"console"`

	// File output configuration (with rotation).
	File FileConfig `yaml:"file" json:"file"`

	// OTEL (OpenTelemetry) log exporter configuration.
	OTEL OTELConfig `yaml:"otel" json:"otel"`

	// Metrics configures OTLP export of interception counters.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Tracing configures the global tracer provider that console span events
	// and the HTTP admin handler record into.
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`

	// Levels configures the level-enablement policy.
	Levels LevelsConfig `yaml:"levels" json:"levels"`
}

// ConsoleConfig configures console (stdout/stderr) output.
type ConsoleConfig struct {
	// Enabled controls whether console output is active.
	// Default: true
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Format: "json" for structured JSON, "pretty" for human-readable.
	// Default: "json" (production), "pretty" (development)
	Format string `yaml:"format" json:"format"`

	// Color enables ANSI colors in pretty format.
	// Default: true
	Color bool `yaml:"color" json:"color"`

	// ErrorsToStderr sends warn/error to stderr, others to stdout.
	// Default: true
	ErrorsToStderr bool `yaml:"errors_to_stderr" json:"errors_to_stderr"`
}

// FileConfig configures file output with rotation.
type FileConfig struct {
	// Enabled controls whether file output is active.
	// Default: false
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Path is the log file path.
	Path string `yaml:"path" json:"path"`

	// MaxSizeMB is the maximum size in MB before rotation.
	// Default: 100
	MaxSizeMB int `yaml:"max_size_mb" json:"max_size_mb"`

	// MaxAgeDays is the maximum age in days to retain old logs.
	// Default: 7
	MaxAgeDays int `yaml:"max_age_days" json:"max_age_days"`

	// MaxBackups is the maximum number of old log files to keep.
	// Default: 5
	MaxBackups int `yaml:"max_backups" json:"max_backups"`

	// Compress enables gzip compression of rotated log files.
	// Default: true
	Compress bool `yaml:"compress" json:"compress"`
}

// OTELConfig configures OpenTelemetry log export.
type OTELConfig struct {
	// Enabled controls whether OTEL export is active.
	// Default: false
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Protocol: "grpc" or "http".
	// Default: "grpc"
	Protocol string `yaml:"protocol" json:"protocol"`

	// Endpoint is the OTEL collector endpoint.
	// Examples: "localhost:4317" (gRPC), "localhost:4318" (HTTP)
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Insecure disables TLS for the connection.
	Insecure bool `yaml:"insecure" json:"insecure"`

	// Username and Password add a Basic Authorization header when both are set.
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`

	// Headers are additional headers to send (e.g., auth tokens).
	Headers map[string]string `yaml:"headers" json:"headers"`

	// Timeout is the export timeout.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// BatchSize is the number of logs per export batch.
	// Default: 512
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// ExportInterval is how often to export batched logs.
	// Default: 5s
	ExportInterval time.Duration `yaml:"export_interval" json:"export_interval"`

	// Attributes are additional resource attributes for OTEL.
	Attributes map[string]string `yaml:"attributes" json:"attributes"`
}

// MetricsConfig configures OTLP metric export.
type MetricsConfig struct {
	// Enabled controls whether metric export is active.
	// Default: false
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Protocol: "grpc" or "http".
	// Default: "grpc"
	Protocol string `yaml:"protocol" json:"protocol"`

	Endpoint string            `yaml:"endpoint" json:"endpoint"`
	Insecure bool              `yaml:"insecure" json:"insecure"`
	Username string            `yaml:"username" json:"username"`
	Password string            `yaml:"password" json:"password"`
	Headers  map[string]string `yaml:"headers" json:"headers"`

	// Timeout is the export timeout.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Interval is the periodic reader interval.
	// Default: 15s
	Interval time.Duration `yaml:"interval" json:"interval"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	// Enabled controls whether a tracer provider is installed.
	// Default: false
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Protocol: "grpc" or "http".
	// Default: "grpc"
	Protocol string `yaml:"protocol" json:"protocol"`

	Endpoint string            `yaml:"endpoint" json:"endpoint"`
	Insecure bool              `yaml:"insecure" json:"insecure"`
	Username string            `yaml:"username" json:"username"`
	Password string            `yaml:"password" json:"password"`
	Headers  map[string]string `yaml:"headers" json:"headers"`

	// Sampler: "always", "never" or "ratio:0.1".
	// Default: "always"
	Sampler string `yaml:"sampler" json:"sampler"`

	// Timeout is the export timeout.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// BatchSize is the maximum number of spans per export batch.
	// Default: 512
	BatchSize int `yaml:"batch_size" json:"batch_size"`

	// ExportInterval is how often batched spans are exported.
	// Default: 5s
	ExportInterval time.Duration `yaml:"export_interval" json:"export_interval"`
}

// LevelsConfig configures which console levels start disabled.
type LevelsConfig struct {
	// Disabled lists levels to switch off: log, info, warn, debug, error or all.
	Disabled []string `yaml:"disabled" json:"disabled"`
}

// Default returns a Config with sensible production defaults.
func Default() Config {
	return Config{
		Level:       "info",
		Development: false,
		ServiceName: "unknown",
		Console: ConsoleConfig{
			Enabled:        true,
			Format:         "json",
			Color:          true,
			ErrorsToStderr: true,
		},
		File: FileConfig{
			Enabled:    false,
			MaxSizeMB:  100,
			MaxAgeDays: 7,
			MaxBackups: 5,
			Compress:   true,
		},
		OTEL: OTELConfig{
			Enabled:        false,
			Protocol:       "grpc",
			Timeout:        10 * time.Second,
			BatchSize:      512,
			ExportInterval: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Protocol: "grpc",
			Interval: 15 * time.Second,
		},
		Tracing: TracingConfig{
			Enabled:        false,
			Protocol:       "grpc",
			Sampler:        "always",
			Timeout:        10 * time.Second,
			BatchSize:      512,
			ExportInterval: 5 * time.Second,
		},
	}
}

// Development returns a Config optimized for development.
func Development() Config {
	cfg := Default()
	cfg.Level = "debug"
	cfg.Development = true
	cfg.Console.Format = "pretty"
	return cfg
}

// WithLevel returns a copy of the config with the specified level.
func (c Config) WithLevel(level string) Config {
	c.Level = level
	return c
}

// WithService returns a copy of the config with the specified service name.
func (c Config) WithService(name string) Config {
	c.ServiceName = name
	return c
}

// WithOTEL returns a copy of the config with OTEL enabled.
func (c Config) WithOTEL(endpoint string) Config {
	c.OTEL.Enabled = true
	c.OTEL.Endpoint = endpoint
	return c
}

// WithTracing returns a copy of the config with trace export enabled.
func (c Config) WithTracing(endpoint string) Config {
	c.Tracing.Enabled = true
	c.Tracing.Endpoint = endpoint
	return c
}

// WithFile returns a copy of the config with file logging enabled.
func (c Config) WithFile(path string) Config {
	c.File.Enabled = true
	c.File.Path = path
	return c
}

// WithDisabledLevels returns a copy of the config with the given levels disabled.
func (c Config) WithDisabledLevels(levels ...string) Config {
	c.Levels.Disabled = append([]string(nil), levels...)
	return c
}

// ApplyLevels resets lp to the enablement described by c.Levels: every level
// enabled except the disabled ones. Unknown level names are reported.
func (c Config) ApplyLevels(lp *LevelPolicy) error {
	parsed := make([]Level, 0, len(c.Levels.Disabled))
	for _, s := range c.Levels.Disabled {
		l, err := ParseLevel(s)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrConfig, err)
		}
		parsed = append(parsed, l)
	}

	lp.SetAllLevelsEnabled(true)
	for _, l := range parsed {
		lp.SetLevelEnabled(l, false)
	}
	return nil
}
