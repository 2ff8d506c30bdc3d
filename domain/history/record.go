// Package history provides persistent simulation run records. A record
// stores the root snapshot in full and every other node as deltas on
// its incoming edges, so any node's world can be replayed from the
// root.
package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/NickG503/World-Simulator/domain/constraint"
	"github.com/NickG503/World-Simulator/domain/graph"
	"github.com/NickG503/World-Simulator/domain/state"
)

// Errors returned by history operations.
var (
	ErrRunNotFound  = errors.New("history: run not found")
	ErrRunExists    = errors.New("history: run already exists")
	ErrInvalidRunID = errors.New("history: invalid run id")
	ErrNodeNotFound = errors.New("history: node not found")
)

// Step is one requested action of a run.
type Step struct {
	Action string            `yaml:"action" json:"action"`
	Params map[string]string `yaml:"params,omitempty" json:"params,omitempty"`
}

// Node is the persisted form of a graph node: identity, status, and
// per-parent change lists, without the materialized snapshot.
type Node struct {
	ID         string                 `yaml:"id" json:"id"`
	Action     string                 `yaml:"action,omitempty" json:"action,omitempty"`
	Status     graph.Status           `yaml:"status" json:"status"`
	Depth      int                    `yaml:"depth" json:"depth"`
	Edges      []graph.Edge           `yaml:"edges,omitempty" json:"edges,omitempty"`
	Violations []constraint.Violation `yaml:"violations,omitempty" json:"violations,omitempty"`
	Deferred   []constraint.Deferred  `yaml:"deferred,omitempty" json:"deferred,omitempty"`
}

// Record is one persisted simulation run.
type Record struct {
	ID         string                 `yaml:"id" json:"id"`
	ObjectType string                 `yaml:"object_type" json:"object_type"`
	CreatedAt  time.Time              `yaml:"created_at" json:"created_at"`
	Steps      []Step                 `yaml:"steps" json:"steps"`
	Root       map[string]state.Value `yaml:"root" json:"root"`
	Nodes      []Node                 `yaml:"nodes" json:"nodes"`
	Stats      graph.Stats            `yaml:"stats" json:"stats"`
}

// FromGraph flattens a simulation graph into a record. Nodes keep
// their creation order, so parents always precede children.
func FromGraph(id, objectType string, steps []Step, g *graph.Graph, createdAt time.Time) *Record {
	rec := &Record{
		ID:         id,
		ObjectType: objectType,
		CreatedAt:  createdAt,
		Steps:      steps,
		Root:       g.Root().Snapshot.Map(),
		Stats:      g.Stats(),
	}
	for _, n := range g.Nodes() {
		rec.Nodes = append(rec.Nodes, Node{
			ID:         n.ID,
			Action:     n.Action,
			Status:     n.Status,
			Depth:      n.Depth,
			Edges:      n.Edges,
			Violations: n.Violations,
			Deferred:   n.Deferred,
		})
	}
	return rec
}

// Node returns a persisted node by id.
func (r *Record) Node(id string) (Node, error) {
	for _, n := range r.Nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return Node{}, fmt.Errorf("%w: %s in run %s", ErrNodeNotFound, id, r.ID)
}

// Snapshot replays a node's world state from the root snapshot and the
// deltas along its first-parent path.
func (r *Record) Snapshot(nodeID string) (state.Snapshot, error) {
	byID := make(map[string]Node, len(r.Nodes))
	for _, n := range r.Nodes {
		byID[n.ID] = n
	}

	// Collect the change lists from the node back to the root.
	var path [][]state.Change
	cur, ok := byID[nodeID]
	if !ok {
		return state.Snapshot{}, fmt.Errorf("%w: %s in run %s", ErrNodeNotFound, nodeID, r.ID)
	}
	for len(cur.Edges) > 0 {
		edge := cur.Edges[0]
		path = append(path, edge.Changes)
		parent, ok := byID[edge.Parent]
		if !ok {
			return state.Snapshot{}, fmt.Errorf("%w: parent %s in run %s", ErrNodeNotFound, edge.Parent, r.ID)
		}
		cur = parent
	}

	snap := state.NewSnapshot(r.ObjectType, r.Root)
	for i := len(path) - 1; i >= 0; i-- {
		snap = state.ApplyChanges(snap, path[i])
	}
	return snap, nil
}

// Summary is a run listing entry.
type Summary struct {
	ID         string    `yaml:"id" json:"id"`
	ObjectType string    `yaml:"object_type" json:"object_type"`
	CreatedAt  time.Time `yaml:"created_at" json:"created_at"`
	Nodes      int       `yaml:"nodes" json:"nodes"`
}

// Summarize returns the record's listing entry.
func (r *Record) Summarize() Summary {
	return Summary{
		ID:         r.ID,
		ObjectType: r.ObjectType,
		CreatedAt:  r.CreatedAt,
		Nodes:      len(r.Nodes),
	}
}
