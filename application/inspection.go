package application

import (
	"context"

	"github.com/NickG503/World-Simulator/domain/graph"
	"github.com/NickG503/World-Simulator/domain/history"
)

// Inspection summarizes a stored run: its shape, per-status node
// counts, and the leaves the simulation ended on.
type Inspection struct {
	Summary      history.Summary      `yaml:"summary" json:"summary"`
	Steps        []history.Step       `yaml:"steps" json:"steps"`
	Stats        graph.Stats          `yaml:"stats" json:"stats"`
	StatusCounts map[graph.Status]int `yaml:"status_counts" json:"status_counts"`
	Leaves       []string             `yaml:"leaves" json:"leaves"`
}

// Inspect loads a stored run and computes its inspection summary.
func (s *Simulator) Inspect(ctx context.Context, runID string) (*Inspection, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}

	var rec *history.Record
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.store.Get(ctx, runID)
		return err
	})
	if err != nil {
		return nil, err
	}

	insp := &Inspection{
		Summary:      rec.Summarize(),
		Steps:        rec.Steps,
		Stats:        rec.Stats,
		StatusCounts: make(map[graph.Status]int),
	}

	// A node is a leaf when no persisted edge points back to it.
	parents := make(map[string]bool)
	for _, n := range rec.Nodes {
		for _, e := range n.Edges {
			parents[e.Parent] = true
		}
	}
	for _, n := range rec.Nodes {
		insp.StatusCounts[n.Status]++
		if !parents[n.ID] {
			insp.Leaves = append(insp.Leaves, n.ID)
		}
	}

	return insp, nil
}

// ListRuns lists stored runs, newest first.
func (s *Simulator) ListRuns(ctx context.Context, filter history.ListFilter) ([]history.Summary, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}

	var out []history.Summary
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.store.List(ctx, filter)
		return err
	})
	return out, err
}

// DeleteRun removes a stored run.
func (s *Simulator) DeleteRun(ctx context.Context, runID string) error {
	if s.store == nil {
		return ErrNoStore
	}
	return s.guard.DoOnce(ctx, func(ctx context.Context) error {
		return s.store.Delete(ctx, runID)
	})
}
