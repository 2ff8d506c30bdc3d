package application

import (
	"context"

	"github.com/NickG503/World-Simulator/domain/state"
	"github.com/NickG503/World-Simulator/domain/transition"
)

// Capability reports whether an action can fire in a given world. An
// action is applicable when its preconditions are not definitively
// false under some parameter binding.
type Capability struct {
	Action     string `yaml:"action" json:"action"`
	Applicable bool   `yaml:"applicable" json:"applicable"`
}

// Capabilities instantiates an object type and reports the
// applicability of every action declared for it, sorted by name.
func (s *Simulator) Capabilities(ctx context.Context, objectType string, overrides map[string]state.Value) ([]Capability, error) {
	root, err := s.kb.Root(objectType, overrides)
	if err != nil {
		return nil, err
	}
	return s.CapabilitiesAt(ctx, root)
}

// CapabilitiesAt reports action applicability for an existing world.
func (s *Simulator) CapabilitiesAt(ctx context.Context, snap state.Snapshot) ([]Capability, error) {
	typ, err := s.kb.Object(snap.Object())
	if err != nil {
		return nil, err
	}
	engine := transition.NewEngine(s.kb.Spaces, typ, s.kb.Constraints[snap.Object()])

	var out []Capability
	for _, act := range s.kb.ActionsFor(snap.Object()) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := engine.Applicable(snap, act)
		if err != nil {
			return nil, err
		}
		out = append(out, Capability{Action: act.Name, Applicable: ok})
	}
	return out, nil
}
