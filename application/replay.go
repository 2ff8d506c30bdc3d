package application

import (
	"context"

	"github.com/NickG503/World-Simulator/domain/history"
	"github.com/NickG503/World-Simulator/domain/state"
)

// ReplayResult is a node's world state reconstructed from a stored run.
type ReplayResult struct {
	Record   *history.Record
	Node     history.Node
	Snapshot state.Snapshot
}

// Replay loads a stored run and rebuilds a node's world from the root
// snapshot and the deltas along its path. An empty node id replays the
// root.
func (s *Simulator) Replay(ctx context.Context, runID, nodeID string) (*ReplayResult, error) {
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

	if nodeID == "" {
		nodeID = "state0"
	}
	node, err := rec.Node(nodeID)
	if err != nil {
		return nil, err
	}
	snap, err := rec.Snapshot(nodeID)
	if err != nil {
		return nil, err
	}

	return &ReplayResult{Record: rec, Node: node, Snapshot: snap}, nil
}
