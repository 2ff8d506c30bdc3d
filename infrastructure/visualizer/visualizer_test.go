package visualizer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/NickG503/World-Simulator/domain/graph"
	"github.com/NickG503/World-Simulator/domain/history"
	"github.com/NickG503/World-Simulator/domain/state"
)

func makeRecord() *history.Record {
	return &history.Record{
		ID:         "run-1",
		ObjectType: "flashlight",
		CreatedAt:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Steps:      []history.Step{{Action: "discharge"}},
		Root: map[string]state.Value{
			"battery.level": state.Candidates([]string{"low", "high"}, "none"),
			"bulb.state":    state.Known("off"),
		},
		Nodes: []history.Node{
			{ID: "state0", Status: graph.StatusInitial},
			{
				ID:     "state1",
				Action: "discharge",
				Status: graph.StatusSuccess,
				Depth:  1,
				Edges: []graph.Edge{{
					Parent: "state0",
					Condition: graph.Simple(
						graph.SourcePostcondition, graph.RoleIf,
						"battery.level", []string{"high"},
					),
					Changes: []state.Change{{
						Attribute: "battery.level",
						Before:    state.Candidates([]string{"low", "high"}, "none"),
						After:     state.Known("low"),
						Kind:      state.ChangeValue,
					}},
				}},
			},
			{
				ID:     "state2",
				Action: "discharge",
				Status: graph.StatusFailed,
				Depth:  1,
				Edges: []graph.Edge{{
					Parent: "state0",
					Condition: graph.Simple(
						graph.SourcePostcondition, graph.RoleElse,
						"battery.level", []string{"low"},
					),
				}},
			},
		},
		Stats: graph.Stats{Nodes: 3, Edges: 2, Depth: 1, Leaves: 2},
	}
}

func TestRender(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, makeRecord()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"run-1",
		"flashlight",
		"panel-state0",
		"panel-state2",
		"battery.level = high",
		"class=\"node failed\"",
		"discharge",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered page is missing %q", want)
		}
	}

	// Every node gets a circle in the SVG.
	if got := strings.Count(out, "<circle"); got != 3 {
		t.Errorf("rendered %d node circles, want 3", got)
	}
}

func TestRenderFile(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "run.html")
	if err := r.RenderFile(path, makeRecord()); err != nil {
		t.Fatalf("RenderFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.HasPrefix(string(data), "<!DOCTYPE html>") {
		t.Errorf("output does not start with a doctype")
	}
}

func TestFormatStep(t *testing.T) {
	tests := []struct {
		step history.Step
		want string
	}{
		{history.Step{Action: "discharge"}, "discharge"},
		{history.Step{Action: "set_level", Params: map[string]string{"level": "high"}}, "set_level(level=high)"},
	}
	for _, tt := range tests {
		if got := formatStep(tt.step); got != tt.want {
			t.Errorf("formatStep(%+v) = %q, want %q", tt.step, got, tt.want)
		}
	}
}
