package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/NickG503/World-Simulator/domain/graph"
	"github.com/NickG503/World-Simulator/domain/history"
	"github.com/NickG503/World-Simulator/domain/kb"
	"github.com/NickG503/World-Simulator/infrastructure/logging"
	"github.com/NickG503/World-Simulator/infrastructure/observability"
	"github.com/NickG503/World-Simulator/infrastructure/resilience"
	"github.com/NickG503/World-Simulator/infrastructure/statemachine"
)

// Simulator is the main orchestration service for simulation runs.
type Simulator struct {
	kb      *kb.KnowledgeBase
	runner  *Runner
	store   history.Store
	guard   *resilience.Guard
	tracer  trace.Tracer
	metrics *observability.RunMetrics
	now     func() time.Time
	newID   func() string
}

// SimulatorConfig contains configuration for the simulator.
type SimulatorConfig struct {
	KB      *kb.KnowledgeBase
	Store   history.Store
	Guard   *resilience.Guard
	Tracer  trace.Tracer
	Metrics *observability.RunMetrics
	Clock   func() time.Time
	IDs     func() string
}

// NewSimulator creates a simulator with the given configuration.
func NewSimulator(config SimulatorConfig, opts ...Option) (*Simulator, error) {
	for _, opt := range opts {
		opt(&config)
	}
	if config.KB == nil {
		return nil, errors.New("knowledge base is required")
	}

	s := &Simulator{
		kb:      config.KB,
		runner:  NewRunner(config.KB),
		store:   config.Store,
		guard:   config.Guard,
		tracer:  config.Tracer,
		metrics: config.Metrics,
		now:     config.Clock,
		newID:   config.IDs,
	}

	if s.guard == nil {
		s.guard = resilience.NewDefaultGuard()
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer("simulator")
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	return s, nil
}

// RunResult is the outcome of a simulation run.
type RunResult struct {
	RunID     string
	Graph     *graph.Graph
	Record    *history.Record
	Stats     graph.Stats
	Persisted bool
}

// Run executes a simulation, persists its record when a store is
// configured, and returns the resulting graph.
func (s *Simulator) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	runID := s.newID()
	start := s.now()

	ctx, span := s.tracer.Start(ctx, "simulator.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("object.type", req.ObjectType),
		attribute.Int("run.steps", len(req.Steps)),
	))
	defer span.End()

	lc, err := statemachine.NewLifecycle(runID)
	if err != nil {
		return nil, err
	}
	defer lc.Stop()

	if err := lc.Expand(); err != nil {
		return nil, err
	}

	g, err := s.runner.Run(ctx, req)
	if err != nil {
		lc.Fail(err.Error())
		span.RecordError(err)
		s.metrics.RecordRun(ctx, req.ObjectType, "failed", s.now().Sub(start), graph.Stats{})
		logging.Error().
			Add(logging.Component("simulator")).
			Add(logging.RunID(runID)).
			Add(logging.ObjectType(req.ObjectType)).
			Add(logging.ErrorField(err)).
			Msg("run failed")
		return nil, err
	}

	rec := history.FromGraph(runID, req.ObjectType, req.Steps, g, s.now())
	result := &RunResult{
		RunID:  runID,
		Graph:  g,
		Record: rec,
		Stats:  rec.Stats,
	}

	if s.store != nil {
		if err := lc.Persist(); err != nil {
			return nil, err
		}
		if err := s.guard.Do(ctx, func(ctx context.Context) error {
			return s.store.Save(ctx, rec)
		}); err != nil {
			lc.Fail(err.Error())
			span.RecordError(err)
			return nil, fmt.Errorf("save run %s: %w", runID, err)
		}
		result.Persisted = true
	}

	if err := lc.Complete(); err != nil {
		return nil, err
	}

	s.metrics.RecordRun(ctx, req.ObjectType, "completed", s.now().Sub(start), rec.Stats)
	logging.Info().
		Add(logging.Component("simulator")).
		Add(logging.RunID(runID)).
		Add(logging.ObjectType(req.ObjectType)).
		Add(logging.Nodes(rec.Stats.Nodes)).
		Add(logging.Branches(rec.Stats.BranchPoints)).
		Add(logging.Duration(s.now().Sub(start))).
		Msg("run completed")

	return result, nil
}

// KnowledgeBase exposes the simulator's knowledge base.
func (s *Simulator) KnowledgeBase() *kb.KnowledgeBase {
	return s.kb
}
