// Package config provides application configuration loading and parsing.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Errors
var (
	ErrConfigNotFound    = errors.New("config: file not found")
	ErrInvalidFormat     = errors.New("config: invalid format")
	ErrUnsupportedFormat = errors.New("config: unsupported format")
	ErrValidationFailed  = errors.New("config: validation failed")
	ErrMissingEnvVar     = errors.New("config: missing environment variable")
)

// Duration wraps time.Duration so config files can use values like "5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	parsed, err := time.ParseDuration(n.Value)
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalidFormat, n.Value)
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: duration %q", ErrInvalidFormat, s)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the application configuration.
type Config struct {
	KnowledgeBase KnowledgeBaseConfig `yaml:"knowledge_base" json:"knowledge_base"`
	Storage       StorageConfig       `yaml:"storage" json:"storage"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
	Resilience    ResilienceConfig    `yaml:"resilience" json:"resilience"`
}

// KnowledgeBaseConfig configures definition loading.
type KnowledgeBaseConfig struct {
	// Dir is the root directory holding spaces/, objects/ and actions/.
	Dir string `yaml:"dir" json:"dir"`

	// StrictFields rejects definition files with unknown fields.
	StrictFields bool `yaml:"strict_fields" json:"strict_fields"`
}

// Storage backends.
const (
	BackendMemory     = "memory"
	BackendFilesystem = "filesystem"
	BackendBadger     = "badger"
	BackendSQLite     = "sqlite"
)

// StorageConfig configures run persistence.
type StorageConfig struct {
	// Backend selects the store implementation.
	Backend string `yaml:"backend" json:"backend"`

	// Dir is the data directory for the filesystem and badger backends.
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`

	// DSN is the data source name for the sqlite backend.
	DSN string `yaml:"dsn,omitempty" json:"dsn,omitempty"`

	// KeyPrefix namespaces keys in the badger backend.
	KeyPrefix string `yaml:"key_prefix,omitempty" json:"key_prefix,omitempty"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `yaml:"level" json:"level"`

	// Format is the output format (json or console).
	Format string `yaml:"format" json:"format"`
}

// ObservabilityConfig configures tracing and metrics.
type ObservabilityConfig struct {
	// ServiceName identifies this service in telemetry.
	ServiceName string `yaml:"service_name" json:"service_name"`

	// Environment is the deployment environment tag.
	Environment string `yaml:"environment" json:"environment"`

	// TraceExporter selects the trace exporter (noop or stdout).
	TraceExporter string `yaml:"trace_exporter" json:"trace_exporter"`

	// MetricExporter selects the metric exporter (noop or stdout).
	MetricExporter string `yaml:"metric_exporter" json:"metric_exporter"`

	// SampleRate is the trace sampling rate in [0, 1].
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate"`
}

// ResilienceConfig configures the store operation guard.
type ResilienceConfig struct {
	// MaxConcurrent limits concurrent store operations.
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`

	// BreakerThreshold is the consecutive failure count that opens
	// the circuit.
	BreakerThreshold int `yaml:"breaker_threshold" json:"breaker_threshold"`

	// RetryMaxAttempts is the maximum number of attempts per operation.
	RetryMaxAttempts int `yaml:"retry_max_attempts" json:"retry_max_attempts"`

	// OpTimeout bounds a single store operation, retries included.
	OpTimeout Duration `yaml:"op_timeout" json:"op_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		KnowledgeBase: KnowledgeBaseConfig{
			Dir: "kb",
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Observability: ObservabilityConfig{
			ServiceName:    "worldsim",
			Environment:    "development",
			TraceExporter:  "noop",
			MetricExporter: "noop",
			SampleRate:     1.0,
		},
		Resilience: ResilienceConfig{
			MaxConcurrent:    4,
			BreakerThreshold: 5,
			RetryMaxAttempts: 3,
			OpTimeout:        Duration(5 * time.Second),
		},
	}
}

var validLevels = map[string]bool{
	"": true, "trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validExporters = map[string]bool{
	"": true, "noop": true, "stdout": true,
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	var errs []error

	if c.KnowledgeBase.Dir == "" {
		errs = append(errs, errors.New("knowledge_base.dir must be set"))
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFilesystem, BackendBadger:
		if c.Storage.Dir == "" {
			errs = append(errs, fmt.Errorf("storage.dir must be set for the %s backend", c.Storage.Backend))
		}
	case BackendSQLite:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn must be set for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Logging.Level))
	}
	if f := c.Logging.Format; f != "" && f != "json" && f != "console" {
		errs = append(errs, fmt.Errorf("unknown log format %q", f))
	}

	if !validExporters[c.Observability.TraceExporter] {
		errs = append(errs, fmt.Errorf("unknown trace exporter %q", c.Observability.TraceExporter))
	}
	if !validExporters[c.Observability.MetricExporter] {
		errs = append(errs, fmt.Errorf("unknown metric exporter %q", c.Observability.MetricExporter))
	}
	if r := c.Observability.SampleRate; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("sample_rate %v outside [0, 1]", r))
	}

	if c.Resilience.MaxConcurrent < 0 {
		errs = append(errs, errors.New("resilience.max_concurrent must not be negative"))
	}
	if c.Resilience.RetryMaxAttempts < 0 {
		errs = append(errs, errors.New("resilience.retry_max_attempts must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrValidationFailed, errors.Join(errs...))
	}
	return nil
}
