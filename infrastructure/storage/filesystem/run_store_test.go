package filesystem

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NickG503/World-Simulator/domain/graph"
	"github.com/NickG503/World-Simulator/domain/history"
	"github.com/NickG503/World-Simulator/domain/state"
)

func newStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := NewRunStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewRunStore() error = %v", err)
	}
	return s
}

func makeRecord(id string, created time.Time) *history.Record {
	return &history.Record{
		ID:         id,
		ObjectType: "flashlight",
		CreatedAt:  created,
		Root: map[string]state.Value{
			"battery.level": state.Candidates([]string{"low", "medium", "high"}, "down"),
		},
		Nodes: []history.Node{{ID: "state0", Status: graph.StatusInitial}},
		Stats: graph.Stats{Nodes: 1, Leaves: 1},
	}
}

func TestSaveGetDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rec := makeRecord("run-1", time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
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
	// Candidate sets and trends must survive the YAML round trip.
	v, ok := got.Root["battery.level"]
	if !ok || len(v.Levels) != 3 || string(v.Trend) != "down" {
		t.Errorf("round-tripped root value = %+v", v)
	}

	if err := s.Delete(ctx, "run-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "run-1"); !errors.Is(err, history.ErrRunNotFound) {
		t.Errorf("Get() after delete = %v, want ErrRunNotFound", err)
	}
}

func TestInvalidIDs(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		t.Run(id, func(t *testing.T) {
			if err := s.Save(ctx, makeRecord(id, time.Now())); !errors.Is(err, history.ErrInvalidRunID) {
				t.Errorf("Save(%q) error = %v, want ErrInvalidRunID", id, err)
			}
			if _, err := s.Get(ctx, id); !errors.Is(err, history.ErrInvalidRunID) {
				t.Errorf("Get(%q) error = %v, want ErrInvalidRunID", id, err)
			}
		})
	}
}

func TestListOrderAndFilter(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		if err := s.Save(ctx, makeRecord(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}

	got, err := s.List(ctx, history.ListFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 || got[0].ID != "run-c" {
		t.Errorf("List() = %+v, want run-c first", got)
	}

	limited, err := s.List(ctx, history.ListFilter{Since: base.Add(30 * time.Minute), Limit: 1})
	if err != nil {
		t.Fatalf("List(filtered) error = %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "run-c" {
		t.Errorf("List(filtered) = %+v", limited)
	}
}
