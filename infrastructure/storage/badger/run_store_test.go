package badger

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
	s, err := NewRunStore(DefaultConfig(), WithInMemory(), WithGCInterval(0))
	if err != nil {
		t.Fatalf("NewRunStore() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func makeRecord(id, objectType string, created time.Time) *history.Record {
	return &history.Record{
		ID:         id,
		ObjectType: objectType,
		CreatedAt:  created,
		Root: map[string]state.Value{
			"bulb.state": state.Known("off"),
		},
		Nodes: []history.Node{{ID: "state0", Status: graph.StatusInitial}},
		Stats: graph.Stats{Nodes: 1, Leaves: 1},
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rec := makeRecord("run-1", "flashlight", time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, rec); !errors.Is(err, history.ErrRunExists) {
		t.Errorf("second Save() error = %v, want ErrRunExists", err)
	}
	if err := s.Save(ctx, &history.Record{}); !errors.Is(err, history.ErrInvalidRunID) {
		t.Errorf("Save(empty id) error = %v, want ErrInvalidRunID", err)
	}

	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ObjectType != "flashlight" || len(got.Nodes) != 1 {
		t.Errorf("Get() = %+v", got)
	}
	if v, ok := got.Root["bulb.state"]; !ok || !v.Equal(state.Known("off")) {
		t.Errorf("round-tripped root value = %+v", v)
	}

	if _, err := s.Get(ctx, "run-2"); !errors.Is(err, history.ErrRunNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrRunNotFound", err)
	}
}

func TestListFilters(t *testing.T) {
	s := newStore(t)
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
	s := newStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, makeRecord("run-1", "flashlight", time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Delete(ctx, "run-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "run-1"); !errors.Is(err, history.ErrRunNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrRunNotFound", err)
	}
}

func TestKeyPrefixIsolation(t *testing.T) {
	s, err := NewRunStore(DefaultConfig(), WithInMemory(), WithGCInterval(0), WithKeyPrefix("sim:"))
	if err != nil {
		t.Fatalf("NewRunStore() error = %v", err)
	}
	defer s.Close()
	other := NewRunStoreFromDB(s.DB(), "other:")

	ctx := context.Background()
	if err := s.Save(ctx, makeRecord("run-1", "flashlight", time.Now())); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := other.Get(ctx, "run-1"); !errors.Is(err, history.ErrRunNotFound) {
		t.Errorf("Get() across prefixes = %v, want ErrRunNotFound", err)
	}
	sums, err := other.List(ctx, history.ListFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sums) != 0 {
		t.Errorf("List() across prefixes = %+v, want empty", sums)
	}
}
