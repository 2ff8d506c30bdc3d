package observability

import "time"

// Exporter selects where telemetry is written.
type Exporter string

const (
	// ExporterNoop discards all telemetry.
	ExporterNoop Exporter = "noop"

	// ExporterStdout writes telemetry to standard output.
	ExporterStdout Exporter = "stdout"
)

// Config configures the observability provider.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// TraceExporter selects the span destination.
	TraceExporter Exporter

	// SampleRate is the trace sampling ratio in [0, 1].
	SampleRate float64

	// MetricExporter selects the metric destination.
	MetricExporter Exporter

	// MetricInterval is the metric export period.
	MetricInterval time.Duration
}

// DefaultConfig returns a configuration that keeps telemetry off.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "worldsim",
		ServiceVersion: "dev",
		Environment:    "development",
		TraceExporter:  ExporterNoop,
		SampleRate:     1.0,
		MetricExporter: ExporterNoop,
		MetricInterval: 30 * time.Second,
	}
}

// Option configures the provider.
type Option func(*Config)

// WithServiceName sets the service name reported on telemetry.
func WithServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

// WithServiceVersion sets the service version reported on telemetry.
func WithServiceVersion(version string) Option {
	return func(c *Config) {
		c.ServiceVersion = version
	}
}

// WithEnvironment sets the deployment environment.
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithTraceExporter selects the span destination.
func WithTraceExporter(e Exporter) Option {
	return func(c *Config) {
		c.TraceExporter = e
	}
}

// WithSampleRate sets the trace sampling ratio.
func WithSampleRate(rate float64) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

// WithMetricExporter selects the metric destination.
func WithMetricExporter(e Exporter) Option {
	return func(c *Config) {
		c.MetricExporter = e
	}
}

// WithMetricInterval sets the metric export period.
func WithMetricInterval(d time.Duration) Option {
	return func(c *Config) {
		c.MetricInterval = d
	}
}
