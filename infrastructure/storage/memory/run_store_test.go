package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NickG503/World-Simulator/domain/graph"
	"github.com/NickG503/World-Simulator/domain/history"
	"github.com/NickG503/World-Simulator/domain/state"
)

func makeRecord(id, objectType string, created time.Time) *history.Record {
	return &history.Record{
		ID:         id,
		ObjectType: objectType,
		CreatedAt:  created,
		Steps:      []history.Step{{Action: "switch_on"}},
		Root: map[string]state.Value{
			"battery.level": state.Known("high"),
			"bulb.state":    state.Known("off"),
		},
		Nodes: []history.Node{
			{ID: "state0", Status: graph.StatusInitial},
			{ID: "state1", Action: "switch_on", Status: graph.StatusSuccess, Depth: 1, Edges: []graph.Edge{{
				Parent: "state0",
				Changes: []state.Change{{
					Attribute: "bulb.state",
					Before:    state.Known("off"),
					After:     state.Known("on"),
					Kind:      state.ChangeValue,
				}},
			}}},
		},
		Stats: graph.Stats{Nodes: 2, Edges: 1, Depth: 1},
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	s := NewRunStore()
	defer s.Close()
	ctx := context.Background()

	rec := makeRecord("run-1", "flashlight", time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, rec); !errors.Is(err, history.ErrRunExists) {
		t.Errorf("second Save() error = %v, want ErrRunExists", err)
	}

	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ObjectType != "flashlight" || len(got.Nodes) != 2 {
		t.Errorf("Get() = %+v", got)
	}
	snap, err := got.Snapshot("state1")
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if v, _ := snap.Get("bulb.state"); !v.Equal(state.Known("on")) {
		t.Errorf("replayed bulb.state = %v, want on", v)
	}

	if _, err := s.Get(ctx, "run-2"); !errors.Is(err, history.ErrRunNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrRunNotFound", err)
	}
	if err := s.Save(ctx, &history.Record{}); !errors.Is(err, history.ErrInvalidRunID) {
		t.Errorf("Save(empty id) error = %v, want ErrInvalidRunID", err)
	}
}

func TestListFilters(t *testing.T) {
	s := NewRunStore()
	defer s.Close()
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, spec := range []struct {
		id, objectType string
		offset         time.Duration
	}{
		{"run-a", "flashlight", 0},
		{"run-b", "flashlight", time.Hour},
		{"run-c", "kettle", 2 * time.Hour},
	} {
		if err := s.Save(ctx, makeRecord(spec.id, spec.objectType, base.Add(spec.offset))); err != nil {
			t.Fatalf("Save(%d) error = %v", i, err)
		}
	}

	all, err := s.List(ctx, history.ListFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != "run-c" || all[2].ID != "run-a" {
		t.Errorf("List() = %+v, want newest first", all)
	}

	flashlights, err := s.List(ctx, history.ListFilter{ObjectType: "flashlight"})
	if err != nil {
		t.Fatalf("List(object type) error = %v", err)
	}
	if len(flashlights) != 2 {
		t.Errorf("List(flashlight) = %+v", flashlights)
	}

	recent, err := s.List(ctx, history.ListFilter{Since: base.Add(time.Hour), Limit: 1})
	if err != nil {
		t.Fatalf("List(since) error = %v", err)
	}
	if len(recent) != 1 || recent[0].ID != "run-c" {
		t.Errorf("List(since, limit) = %+v", recent)
	}
}

func TestDelete(t *testing.T) {
	s := NewRunStore()
	defer s.Close()
	ctx := context.Background()

	rec := makeRecord("run-1", "flashlight", time.Now())
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Delete(ctx, "run-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "run-1"); !errors.Is(err, history.ErrRunNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrRunNotFound", err)
	}
}
