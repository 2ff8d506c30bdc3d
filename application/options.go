package application

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/NickG503/World-Simulator/domain/history"
	"github.com/NickG503/World-Simulator/infrastructure/observability"
	"github.com/NickG503/World-Simulator/infrastructure/resilience"
)

// Option configures the simulator.
type Option func(*SimulatorConfig)

// WithStore sets the history store.
func WithStore(s history.Store) Option {
	return func(c *SimulatorConfig) {
		c.Store = s
	}
}

// WithGuard sets the resilience guard used for store operations.
func WithGuard(g *resilience.Guard) Option {
	return func(c *SimulatorConfig) {
		c.Guard = g
	}
}

// WithTracer sets the tracer for run spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *SimulatorConfig) {
		c.Tracer = t
	}
}

// WithMetrics sets the run metrics recorder.
func WithMetrics(m *observability.RunMetrics) Option {
	return func(c *SimulatorConfig) {
		c.Metrics = m
	}
}

// WithClock sets the time source. Used by tests for stable timestamps.
func WithClock(clock func() time.Time) Option {
	return func(c *SimulatorConfig) {
		c.Clock = clock
	}
}

// WithIDSource sets the run id generator. Used by tests for stable ids.
func WithIDSource(ids func() string) Option {
	return func(c *SimulatorConfig) {
		c.IDs = ids
	}
}
