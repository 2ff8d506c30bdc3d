package application

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/NickG503/World-Simulator/domain/state"
	"github.com/NickG503/World-Simulator/domain/transition"
)

// ApplyRequest describes a single-action transition preview.
type ApplyRequest struct {
	// ObjectType names the object type to instantiate.
	ObjectType string

	// Overrides replaces attribute defaults in the root snapshot.
	Overrides map[string]state.Value

	// Action is the action to apply.
	Action string

	// Params binds the action's parameters.
	Params map[string]string
}

// TransitionResult is the branch set of one action applied to one world.
type TransitionResult struct {
	Root     state.Snapshot
	Branches []transition.Branch
}

// Apply runs a single action against a fresh root snapshot and returns
// every branch, without building a graph or touching the store.
func (s *Simulator) Apply(ctx context.Context, req ApplyRequest) (*TransitionResult, error) {
	_, span := s.tracer.Start(ctx, "simulator.apply", trace.WithAttributes(
		attribute.String("object.type", req.ObjectType),
		attribute.String("action", req.Action),
	))
	defer span.End()

	typ, err := s.kb.Object(req.ObjectType)
	if err != nil {
		return nil, err
	}
	act, err := s.kb.Action(req.Action)
	if err != nil {
		return nil, err
	}
	root, err := s.kb.Root(req.ObjectType, req.Overrides)
	if err != nil {
		return nil, err
	}

	engine := transition.NewEngine(s.kb.Spaces, typ, s.kb.Constraints[req.ObjectType])
	branches, err := engine.Transition(root, act, req.Params)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &TransitionResult{Root: root, Branches: branches}, nil
}
