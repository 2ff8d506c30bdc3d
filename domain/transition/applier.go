package transition

import (
	"fmt"

	"github.com/NickG503/World-Simulator/domain/action"
	"github.com/NickG503/World-Simulator/domain/object"
	"github.com/NickG503/World-Simulator/domain/space"
	"github.com/NickG503/World-Simulator/domain/state"
)

// Applier applies non-branching effects to snapshots. Conditional
// effects are resolved by the engine, which narrows snapshots before
// delegating the chosen branch here.
type Applier struct {
	spaces map[string]*space.Space
	typ    *object.Type
}

// NewApplier creates an applier for one object type.
func NewApplier(spaces map[string]*space.Space, typ *object.Type) *Applier {
	return &Applier{spaces: spaces, typ: typ}
}

// Apply applies one simple effect, returning the new snapshot and the
// resulting change. Writes to immutable attributes and levels outside
// the attribute's space are fatal.
func (ap *Applier) Apply(snap state.Snapshot, e action.Effect, params map[string]string) (state.Snapshot, []state.Change, error) {
	switch e := e.(type) {
	case action.SetAttribute:
		return ap.setAttribute(snap, e, params)
	case action.SetTrend:
		return ap.setTrend(snap, e)
	default:
		return state.Snapshot{}, nil, fmt.Errorf("transition: unsupported effect %T", e)
	}
}

func (ap *Applier) resolve(p object.Path) (object.AttributeSpec, *space.Space, error) {
	spec, err := ap.typ.Attribute(p)
	if err != nil {
		return object.AttributeSpec{}, nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, p)
	}
	sp, ok := ap.spaces[spec.Space]
	if !ok {
		return object.AttributeSpec{}, nil, fmt.Errorf("%w: space %q for %s", ErrUnknownAttribute, spec.Space, p)
	}
	return spec, sp, nil
}

func (ap *Applier) setAttribute(snap state.Snapshot, e action.SetAttribute, params map[string]string) (state.Snapshot, []state.Change, error) {
	spec, sp, err := ap.resolve(e.Attribute)
	if err != nil {
		return state.Snapshot{}, nil, err
	}
	if !spec.Mutable {
		return state.Snapshot{}, nil, fmt.Errorf("%w: %s", ErrImmutableWrite, e.Attribute)
	}

	level := e.Level
	if e.FromParameter != "" {
		v, ok := params[e.FromParameter]
		if !ok {
			return state.Snapshot{}, nil, fmt.Errorf("%w: %s", ErrUnknownParameter, e.FromParameter)
		}
		level = v
	}
	if !sp.Has(level) {
		return state.Snapshot{}, nil, fmt.Errorf("%w: %q for %s", ErrLevelNotInSpace, level, e.Attribute)
	}

	path := e.Attribute.String()
	cur, ok := snap.Get(path)
	if !ok {
		return state.Snapshot{}, nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, path)
	}
	next := state.Known(level)
	if next.Equal(cur) {
		return snap, nil, nil
	}
	return snap.With(map[string]state.Value{path: next}), []state.Change{{
		Attribute: path,
		Before:    cur,
		After:     next,
		Kind:      state.ChangeValue,
	}}, nil
}

func (ap *Applier) setTrend(snap state.Snapshot, e action.SetTrend) (state.Snapshot, []state.Change, error) {
	spec, sp, err := ap.resolve(e.Attribute)
	if err != nil {
		return state.Snapshot{}, nil, err
	}
	if !spec.Mutable {
		return state.Snapshot{}, nil, fmt.Errorf("%w: %s", ErrImmutableWrite, e.Attribute)
	}
	if !e.Trend.IsValid() {
		return state.Snapshot{}, nil, fmt.Errorf("%w: trend %q", ErrLevelNotInSpace, e.Trend)
	}

	path := e.Attribute.String()
	cur, ok := snap.Get(path)
	if !ok {
		return state.Snapshot{}, nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, path)
	}

	levels, err := sp.TrendSet(cur.Levels, e.Trend)
	if err != nil {
		return state.Snapshot{}, nil, fmt.Errorf("%w: %v", ErrLevelNotInSpace, err)
	}
	next := state.Candidates(levels, e.Trend)
	if next.Equal(cur) {
		return snap, nil, nil
	}
	return snap.With(map[string]state.Value{path: next}), []state.Change{{
		Attribute: path,
		Before:    cur,
		After:     next,
		Kind:      state.ChangeTrend,
	}}, nil
}
