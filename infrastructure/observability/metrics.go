package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/NickG503/World-Simulator/domain/graph"
)

// RunMetrics records counters and timings for simulation runs.
type RunMetrics struct {
	runs     metric.Int64Counter
	nodes    metric.Int64Counter
	merges   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewRunMetrics registers the run instruments on a meter.
func NewRunMetrics(m metric.Meter) (*RunMetrics, error) {
	runs, err := m.Int64Counter("worldsim.runs",
		metric.WithDescription("Completed simulation runs"))
	if err != nil {
		return nil, fmt.Errorf("observability: runs counter: %w", err)
	}
	nodes, err := m.Int64Counter("worldsim.nodes",
		metric.WithDescription("Graph nodes produced by simulation runs"))
	if err != nil {
		return nil, fmt.Errorf("observability: nodes counter: %w", err)
	}
	merges, err := m.Int64Counter("worldsim.merged_nodes",
		metric.WithDescription("Nodes merged by matching world state"))
	if err != nil {
		return nil, fmt.Errorf("observability: merges counter: %w", err)
	}
	duration, err := m.Float64Histogram("worldsim.run.duration",
		metric.WithDescription("Simulation run duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("observability: duration histogram: %w", err)
	}

	return &RunMetrics{
		runs:     runs,
		nodes:    nodes,
		merges:   merges,
		duration: duration,
	}, nil
}

// RecordRun records a finished run's outcome and graph shape.
func (r *RunMetrics) RecordRun(ctx context.Context, objectType, outcome string, elapsed time.Duration, stats graph.Stats) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("object_type", objectType),
		attribute.String("outcome", outcome),
	)
	r.runs.Add(ctx, 1, attrs)
	r.nodes.Add(ctx, int64(stats.Nodes), attrs)
	r.merges.Add(ctx, int64(stats.MergedNodes), attrs)
	r.duration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
}
