// Package application orchestrates simulation runs over the domain
// engine and the history store.
package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/NickG503/World-Simulator/domain/graph"
	"github.com/NickG503/World-Simulator/domain/history"
	"github.com/NickG503/World-Simulator/domain/kb"
	"github.com/NickG503/World-Simulator/domain/state"
	"github.com/NickG503/World-Simulator/domain/transition"
	"github.com/NickG503/World-Simulator/infrastructure/logging"
)

// Errors returned by the application layer.
var (
	ErrNoSteps = errors.New("application: run has no steps")
	ErrNoStore = errors.New("application: no history store configured")
)

// RunRequest describes a simulation to execute.
type RunRequest struct {
	// ObjectType names the object type to simulate.
	ObjectType string

	// Overrides replaces attribute defaults in the root snapshot.
	Overrides map[string]state.Value

	// Steps is the action sequence to apply, in order.
	Steps []history.Step
}

// Runner expands a simulation graph one action layer at a time. Every
// expandable leaf receives the next action; branches that land on the
// same world state and status within a layer are merged into one node.
type Runner struct {
	kb *kb.KnowledgeBase
}

// NewRunner creates a runner over a knowledge base.
func NewRunner(base *kb.KnowledgeBase) *Runner {
	return &Runner{kb: base}
}

// Run executes the requested steps and returns the resulting graph.
// An engine error on any branch aborts the whole run.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*graph.Graph, error) {
	if len(req.Steps) == 0 {
		return nil, ErrNoSteps
	}
	typ, err := r.kb.Object(req.ObjectType)
	if err != nil {
		return nil, err
	}
	root, err := r.kb.Root(req.ObjectType, req.Overrides)
	if err != nil {
		return nil, err
	}

	engine := transition.NewEngine(r.kb.Spaces, typ, r.kb.Constraints[req.ObjectType])
	g := graph.New(root)
	frontier := []*graph.Node{g.Root()}

	for layer, step := range req.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		act, err := r.kb.Action(step.Action)
		if err != nil {
			return nil, err
		}

		// Merge key is world state plus status, scoped to this layer.
		merged := make(map[string]string)
		var next []*graph.Node

		for _, parent := range frontier {
			branches, err := engine.Transition(parent.Snapshot, act, step.Params)
			if err != nil {
				return nil, fmt.Errorf("step %d (%s) at %s: %w", layer+1, step.Action, parent.ID, err)
			}

			for _, b := range branches {
				edge := graph.Edge{Changes: b.Changes, Condition: b.Condition}
				key := string(b.Status) + "\x00" + b.Snapshot.Fingerprint()

				if id, ok := merged[key]; ok {
					if err := g.AddEdge(id, parent.ID, edge); err != nil {
						return nil, err
					}
					continue
				}

				node, err := g.NewNode(parent.ID, b.Snapshot, act.Name, b.Status, edge)
				if err != nil {
					return nil, err
				}
				node.Violations = b.Violations
				node.Deferred = b.Deferred
				merged[key] = node.ID

				if node.Status.IsExpandable() {
					next = append(next, node)
				}
			}
		}

		logging.Debug().
			Add(logging.Component("runner")).
			Add(logging.Action(step.Action)).
			Add(logging.Layer(layer + 1)).
			Add(logging.Frontier(len(next))).
			Add(logging.Nodes(g.Len())).
			Msg("layer expanded")

		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	return g, nil
}
