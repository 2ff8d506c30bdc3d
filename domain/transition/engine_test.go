package transition

import (
	"errors"
	"testing"

	"github.com/NickG503/World-Simulator/domain/action"
	"github.com/NickG503/World-Simulator/domain/constraint"
	"github.com/NickG503/World-Simulator/domain/graph"
	"github.com/NickG503/World-Simulator/domain/space"
	"github.com/NickG503/World-Simulator/domain/state"
)

func fullSnapshot(t *testing.T, level state.Value, bulb state.Value) state.Snapshot {
	t.Helper()
	return state.NewSnapshot("flashlight", map[string]state.Value{
		"battery.level": level,
		"bulb.state":    bulb,
		"bulb.color":    state.Known("white"),
	})
}

func setLevel(t *testing.T, level string) action.Effect {
	t.Helper()
	return action.SetAttribute{Attribute: mustPath(t, "battery.level"), Level: level}
}

// dischargeAction steps battery.level down one level through a flat
// conditional and rejects when the battery is empty.
func dischargeAction(t *testing.T) *action.Action {
	t.Helper()
	return &action.Action{
		Name:       "discharge_step",
		ObjectType: "flashlight",
		Preconditions: []action.Condition{
			levelCheck(t, space.OpNotEquals, "empty"),
		},
		Effects: []action.Effect{
			action.Conditional{
				Cases: []action.Case{
					{When: levelCheck(t, space.OpEquals, "high"), Then: []action.Effect{setLevel(t, "medium")}},
					{When: levelCheck(t, space.OpEquals, "medium"), Then: []action.Effect{setLevel(t, "low")}},
					{When: levelCheck(t, space.OpEquals, "low"), Then: []action.Effect{setLevel(t, "empty")}},
				},
			},
		},
	}
}

func newEngine(t *testing.T, deps ...constraint.Dependency) *Engine {
	t.Helper()
	return NewEngine(testSpaces(t), testType(), deps)
}

func countStatuses(branches []Branch) map[graph.Status]int {
	counts := make(map[graph.Status]int)
	for _, b := range branches {
		counts[b.Status]++
	}
	return counts
}

func TestTransitionDefinitePath(t *testing.T) {
	e := newEngine(t)
	snap := fullSnapshot(t, state.Known("high"), state.Known("off"))

	branches, err := e.Transition(snap, dischargeAction(t), nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if len(branches) != 1 {
		t.Fatalf("got %d branches, want 1", len(branches))
	}
	b := branches[0]
	if b.Status != graph.StatusSuccess {
		t.Errorf("status = %v, want success", b.Status)
	}
	if v, _ := b.Snapshot.Get("battery.level"); !v.Equal(state.Known("medium")) {
		t.Errorf("battery.level = %v, want medium", v)
	}
	if len(b.Changes) != 1 || b.Changes[0].Kind != state.ChangeValue {
		t.Errorf("changes = %+v", b.Changes)
	}
}

func TestTransitionDefiniteRejection(t *testing.T) {
	e := newEngine(t)
	snap := fullSnapshot(t, state.Known("empty"), state.Known("off"))

	branches, err := e.Transition(snap, dischargeAction(t), nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if len(branches) != 1 {
		t.Fatalf("got %d branches, want 1", len(branches))
	}
	if branches[0].Status != graph.StatusRejected {
		t.Errorf("status = %v, want rejected", branches[0].Status)
	}
	if branches[0].Condition.Role != graph.RoleFail {
		t.Errorf("condition role = %v, want fail", branches[0].Condition.Role)
	}
}

// An unknown battery produces one branch per satisfiable conditional
// case plus one rejection for the empty candidate.
func TestTransitionUnknownBattery(t *testing.T) {
	e := newEngine(t)
	snap := fullSnapshot(t,
		state.Candidates([]string{"empty", "low", "medium", "high"}, space.TrendNone),
		state.Known("off"))

	branches, err := e.Transition(snap, dischargeAction(t), nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	counts := countStatuses(branches)
	if counts[graph.StatusSuccess] != 3 || counts[graph.StatusRejected] != 1 {
		t.Fatalf("statuses = %v, want 3 success + 1 rejected", counts)
	}

	// Success branches land on medium, low, and empty respectively.
	var landed []string
	for _, b := range branches {
		if b.Status != graph.StatusSuccess {
			continue
		}
		v, _ := b.Snapshot.Get("battery.level")
		l, known := v.Single()
		if !known {
			t.Errorf("success branch left battery.level unknown: %v", v)
		}
		landed = append(landed, l)
	}
	want := map[string]bool{"medium": true, "low": true, "empty": true}
	for _, l := range landed {
		if !want[l] {
			t.Errorf("unexpected landing level %q", l)
		}
	}

	// The rejected branch assumes the battery was empty.
	for _, b := range branches {
		if b.Status != graph.StatusRejected {
			continue
		}
		v, _ := b.Snapshot.Get("battery.level")
		if !v.Equal(state.Known("empty")) {
			t.Errorf("rejected branch battery.level = %v, want empty", v)
		}
		if b.Condition.Source != graph.SourcePrecondition {
			t.Errorf("rejected branch source = %v", b.Condition.Source)
		}
	}
}

// Branch candidate sets partition the unknown candidates: every root
// candidate appears in exactly one branch assumption.
func TestTransitionPartition(t *testing.T) {
	e := newEngine(t)
	snap := fullSnapshot(t,
		state.Candidates([]string{"empty", "low", "medium", "high"}, space.TrendNone),
		state.Known("off"))

	branches, err := e.Transition(snap, dischargeAction(t), nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}

	// Reconstruct each branch's assumption from its last narrowing.
	seen := make(map[string]int)
	for _, b := range branches {
		var assumed []string
		for _, c := range b.Changes {
			if c.Attribute == "battery.level" && c.Kind == state.ChangeNarrowing {
				assumed = c.After.Levels
			}
		}
		if b.Status == graph.StatusRejected {
			assumed = []string{"empty"}
		}
		for _, l := range assumed {
			seen[l]++
		}
	}
	for _, l := range []string{"empty", "low", "medium", "high"} {
		if seen[l] != 1 {
			t.Errorf("candidate %q covered %d times, want exactly once", l, seen[l])
		}
	}
}

// A conjunction with two unknown conjuncts yields one success branch
// and one fail branch per conjunct.
func TestTransitionAndTwoUnknowns(t *testing.T) {
	e := newEngine(t)
	snap := fullSnapshot(t,
		state.Candidates([]string{"empty", "low", "medium", "high"}, space.TrendNone),
		state.Candidates([]string{"off", "on"}, space.TrendNone))

	act := &action.Action{
		Name:       "observe_glow",
		ObjectType: "flashlight",
		Preconditions: []action.Condition{
			levelCheck(t, space.OpNotEquals, "empty"),
			stateCheck(t, "on"),
		},
		Effects: []action.Effect{setLevel(t, "low")},
	}

	branches, err := e.Transition(snap, act, nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	counts := countStatuses(branches)
	if counts[graph.StatusSuccess] != 1 || counts[graph.StatusRejected] != 2 {
		t.Fatalf("statuses = %v, want 1 success + 2 rejected", counts)
	}

	for _, b := range branches {
		if b.Status != graph.StatusSuccess {
			continue
		}
		if v, _ := b.Snapshot.Get("bulb.state"); !v.Equal(state.Known("on")) {
			t.Errorf("success branch bulb.state = %v, want on", v)
		}
	}
}

// A disjunction with two unknown disjuncts yields one success branch
// per disjunct and a single conjunctive fail branch.
func TestTransitionOrTwoUnknowns(t *testing.T) {
	e := newEngine(t)
	snap := fullSnapshot(t,
		state.Candidates([]string{"empty", "low", "medium", "high"}, space.TrendNone),
		state.Candidates([]string{"off", "on"}, space.TrendNone))

	act := &action.Action{
		Name:       "usable_somehow",
		ObjectType: "flashlight",
		Preconditions: []action.Condition{
			action.Or{Any: []action.Condition{
				levelCheck(t, space.OpEquals, "high"),
				stateCheck(t, "on"),
			}},
		},
		Effects: []action.Effect{action.SetAttribute{Attribute: mustPath(t, "bulb.state"), Level: "off"}},
	}

	branches, err := e.Transition(snap, act, nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	counts := countStatuses(branches)
	if counts[graph.StatusSuccess] != 2 || counts[graph.StatusRejected] != 1 {
		t.Fatalf("statuses = %v, want 2 success + 1 rejected", counts)
	}

	for _, b := range branches {
		if b.Status != graph.StatusRejected {
			continue
		}
		if v, _ := b.Snapshot.Get("battery.level"); v.Contains("high") {
			t.Errorf("fail branch still allows high battery: %v", v)
		}
		if v, _ := b.Snapshot.Get("bulb.state"); !v.Equal(state.Known("off")) {
			t.Errorf("fail branch bulb.state = %v, want off", v)
		}
	}
}

func TestTransitionImmutableWrite(t *testing.T) {
	e := newEngine(t)
	snap := fullSnapshot(t, state.Known("high"), state.Known("off"))

	act := &action.Action{
		Name:       "paint_bulb",
		ObjectType: "flashlight",
		Effects:    []action.Effect{action.SetAttribute{Attribute: mustPath(t, "bulb.color"), Level: "red"}},
	}

	if _, err := e.Transition(snap, act, nil); !errors.Is(err, ErrImmutableWrite) {
		t.Errorf("Transition() error = %v, want ErrImmutableWrite", err)
	}
}

func TestTransitionLevelNotInSpace(t *testing.T) {
	e := newEngine(t)
	snap := fullSnapshot(t, state.Known("high"), state.Known("off"))

	act := &action.Action{
		Name:       "overcharge",
		ObjectType: "flashlight",
		Effects:    []action.Effect{setLevel(t, "overfull")},
	}

	if _, err := e.Transition(snap, act, nil); !errors.Is(err, ErrLevelNotInSpace) {
		t.Errorf("Transition() error = %v, want ErrLevelNotInSpace", err)
	}
}

func TestTransitionRequiredPostcondition(t *testing.T) {
	e := newEngine(t)
	snap := fullSnapshot(t, state.Known("low"), state.Known("off"))

	act := &action.Action{
		Name:       "boost",
		ObjectType: "flashlight",
		Effects: []action.Effect{
			action.Conditional{
				Cases: []action.Case{
					{When: levelCheck(t, space.OpEquals, "high"), Then: []action.Effect{setLevel(t, "medium")}},
				},
			},
		},
	}

	if _, err := e.Transition(snap, act, nil); !errors.Is(err, ErrRequiredPostcondition) {
		t.Errorf("Transition() error = %v, want ErrRequiredPostcondition", err)
	}
}

// A conditional without an else on an unknown path fails only the
// branch whose assumption makes every case false.
func TestTransitionRequiredPostconditionBranches(t *testing.T) {
	e := newEngine(t)
	snap := fullSnapshot(t,
		state.Candidates([]string{"low", "medium", "high"}, space.TrendNone),
		state.Known("off"))

	act := &action.Action{
		Name:       "drain_if_full",
		ObjectType: "flashlight",
		Effects: []action.Effect{
			action.Conditional{
				Cases: []action.Case{
					{When: levelCheck(t, space.OpEquals, "high"), Then: []action.Effect{setLevel(t, "medium")}},
				},
			},
		},
	}

	branches, err := e.Transition(snap, act, nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	counts := countStatuses(branches)
	if counts[graph.StatusSuccess] != 1 || counts[graph.StatusFailed] != 1 {
		t.Fatalf("statuses = %v, want 1 success + 1 failed", counts)
	}
}

func TestTransitionSetTrend(t *testing.T) {
	e := newEngine(t)
	snap := fullSnapshot(t, state.Known("medium"), state.Known("off"))

	act := &action.Action{
		Name:       "start_draining",
		ObjectType: "flashlight",
		Effects: []action.Effect{
			action.SetTrend{Attribute: mustPath(t, "battery.level"), Trend: space.TrendDown},
		},
	}

	branches, err := e.Transition(snap, act, nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if len(branches) != 1 {
		t.Fatalf("got %d branches, want 1", len(branches))
	}
	v, _ := branches[0].Snapshot.Get("battery.level")
	if v.Trend != space.TrendDown {
		t.Errorf("trend = %v, want down", v.Trend)
	}
	wantLevels := []string{"empty", "low", "medium"}
	if len(v.Levels) != len(wantLevels) {
		t.Fatalf("levels = %v, want %v", v.Levels, wantLevels)
	}
	for i := range wantLevels {
		if v.Levels[i] != wantLevels[i] {
			t.Errorf("levels = %v, want %v", v.Levels, wantLevels)
			break
		}
	}
	if len(branches[0].Changes) != 1 || branches[0].Changes[0].Kind != state.ChangeTrend {
		t.Errorf("changes = %+v", branches[0].Changes)
	}
}

func TestTransitionWrongObjectType(t *testing.T) {
	e := newEngine(t)
	snap := fullSnapshot(t, state.Known("high"), state.Known("off"))

	act := &action.Action{Name: "noop", ObjectType: "toaster"}
	if _, err := e.Transition(snap, act, nil); !errors.Is(err, ErrWrongObjectType) {
		t.Errorf("Transition() error = %v, want ErrWrongObjectType", err)
	}
}

func bulbNeedsBattery(t *testing.T) constraint.Dependency {
	t.Helper()
	return constraint.Dependency{
		Name:     "lit_bulb_needs_charge",
		When:     stateCheck(t, "on"),
		Requires: levelCheck(t, space.OpNotEquals, "empty"),
	}
}

func TestTransitionConstraintViolated(t *testing.T) {
	e := newEngine(t, bulbNeedsBattery(t))
	snap := fullSnapshot(t, state.Known("empty"), state.Known("off"))

	act := &action.Action{
		Name:       "switch_on",
		ObjectType: "flashlight",
		Effects:    []action.Effect{action.SetAttribute{Attribute: mustPath(t, "bulb.state"), Level: "on"}},
	}

	branches, err := e.Transition(snap, act, nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if len(branches) != 1 {
		t.Fatalf("got %d branches, want 1", len(branches))
	}
	if branches[0].Status != graph.StatusConstraintViolated {
		t.Errorf("status = %v, want constraint_violated", branches[0].Status)
	}
	if len(branches[0].Violations) != 1 {
		t.Errorf("violations = %+v", branches[0].Violations)
	}
}

func TestTransitionConstraintEnforced(t *testing.T) {
	e := newEngine(t, bulbNeedsBattery(t))
	snap := fullSnapshot(t,
		state.Candidates([]string{"empty", "low", "medium", "high"}, space.TrendNone),
		state.Known("off"))

	act := &action.Action{
		Name:       "switch_on",
		ObjectType: "flashlight",
		Effects:    []action.Effect{action.SetAttribute{Attribute: mustPath(t, "bulb.state"), Level: "on"}},
	}

	branches, err := e.Transition(snap, act, nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if len(branches) != 1 {
		t.Fatalf("got %d branches, want 1", len(branches))
	}
	b := branches[0]
	if b.Status != graph.StatusSuccess {
		t.Fatalf("status = %v, want success", b.Status)
	}
	v, _ := b.Snapshot.Get("battery.level")
	if v.Contains("empty") {
		t.Errorf("enforcement should drop empty candidate, got %v", v.Levels)
	}
	var sawConstraintChange bool
	for _, c := range b.Changes {
		if c.Kind == state.ChangeConstraint {
			sawConstraintChange = true
		}
	}
	if !sawConstraintChange {
		t.Errorf("no constraint change recorded: %+v", b.Changes)
	}
}

// A precondition rejection keeps the pre-state: even when the world
// already breaks a dependency, the rejected branch records no
// violations and its snapshot is not narrowed.
func TestTransitionRejectedSkipsConstraints(t *testing.T) {
	e := newEngine(t, bulbNeedsBattery(t))
	snap := fullSnapshot(t, state.Known("empty"), state.Known("on"))

	branches, err := e.Transition(snap, dischargeAction(t), nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if len(branches) != 1 {
		t.Fatalf("got %d branches, want 1", len(branches))
	}
	b := branches[0]
	if b.Status != graph.StatusRejected {
		t.Fatalf("status = %v, want rejected", b.Status)
	}
	if len(b.Violations) != 0 || len(b.Deferred) != 0 {
		t.Errorf("rejected branch carries constraint results: violations=%+v deferred=%+v",
			b.Violations, b.Deferred)
	}
	if v, _ := b.Snapshot.Get("battery.level"); !v.Equal(state.Known("empty")) {
		t.Errorf("battery.level = %v, want empty", v)
	}
	if v, _ := b.Snapshot.Get("bulb.state"); !v.Equal(state.Known("on")) {
		t.Errorf("bulb.state = %v, want on", v)
	}
	for _, c := range b.Changes {
		if c.Kind == state.ChangeConstraint {
			t.Errorf("rejected branch recorded a constraint change: %+v", c)
		}
	}
}

// An else clause groups every candidate that satisfies no case into a
// single branch carrying the residual set.
func TestTransitionGroupedElse(t *testing.T) {
	e := newEngine(t)
	snap := fullSnapshot(t,
		state.Candidates([]string{"empty", "low", "medium", "high"}, space.TrendNone),
		state.Known("off"))

	act := &action.Action{
		Name:       "dim_or_warn",
		ObjectType: "flashlight",
		Preconditions: []action.Condition{
			levelCheck(t, space.OpNotEquals, "empty"),
		},
		Effects: []action.Effect{
			action.Conditional{
				Cases: []action.Case{
					{When: levelCheck(t, space.OpEquals, "high"), Then: []action.Effect{setLevel(t, "medium")}},
				},
				Else:    []action.Effect{action.SetAttribute{Attribute: mustPath(t, "bulb.state"), Level: "on"}},
				HasElse: true,
			},
		},
	}

	branches, err := e.Transition(snap, act, nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	counts := countStatuses(branches)
	if counts[graph.StatusSuccess] != 2 || counts[graph.StatusRejected] != 1 {
		t.Fatalf("statuses = %v, want 2 success + 1 rejected", counts)
	}

	var sawIf, sawElse bool
	for _, b := range branches {
		if b.Status != graph.StatusSuccess {
			continue
		}
		v, _ := b.Snapshot.Get("battery.level")
		switch {
		case v.Equal(state.Known("medium")):
			sawIf = true
		default:
			// The grouped else child carries exactly the residual
			// candidates low and medium.
			sawElse = true
			if len(v.Levels) != 2 || !v.Contains("low") || !v.Contains("medium") {
				t.Errorf("else branch battery.level = %v, want {low, medium}", v.Levels)
			}
			if bv, _ := b.Snapshot.Get("bulb.state"); !bv.Equal(state.Known("on")) {
				t.Errorf("else branch bulb.state = %v, want on", bv)
			}
			if b.Condition.IsZero() {
				t.Error("else branch has no condition")
			}
		}
	}
	if !sawIf || !sawElse {
		t.Errorf("missing branches: if=%v else=%v", sawIf, sawElse)
	}
}

func TestApplicable(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name  string
		level state.Value
		want  bool
	}{
		{name: "known satisfiable", level: state.Known("high"), want: true},
		{name: "known unsatisfiable", level: state.Known("empty"), want: false},
		{name: "unknown counts as satisfiable", level: state.Candidates([]string{"empty", "low"}, space.TrendNone), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := fullSnapshot(t, tt.level, state.Known("off"))
			got, err := e.Applicable(snap, dischargeAction(t))
			if err != nil {
				t.Fatalf("Applicable() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Applicable() = %v, want %v", got, tt.want)
			}
		})
	}
}
