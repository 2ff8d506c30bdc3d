// Package object provides object type definitions and instantiation.
//
// An object type is a named collection of parts, each carrying
// qualitative attributes bound to a space. Instantiating a type yields
// the root snapshot of a simulation: every attribute set to its default
// level, or to the full candidate set of its space when the default is
// unknown.
package object

import (
	"errors"
	"fmt"
	"strings"

	"github.com/NickG503/World-Simulator/domain/space"
	"github.com/NickG503/World-Simulator/domain/state"
)

// Errors returned by object operations.
var (
	ErrInvalidPath      = errors.New("object: invalid attribute path")
	ErrUnknownAttribute = errors.New("object: unknown attribute")
	ErrUnknownSpace     = errors.New("object: unknown space")
	ErrBadDefault       = errors.New("object: default not in space")
)

// UnknownDefault is the sentinel default meaning "any level of the space".
const UnknownDefault = "unknown"

// Path addresses one attribute of one part, e.g. "battery.level".
type Path struct {
	Part      string
	Attribute string
}

// ParsePath parses a "part.attribute" string.
func ParsePath(s string) (Path, error) {
	part, attr, ok := strings.Cut(s, ".")
	if !ok || part == "" || attr == "" {
		return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}
	return Path{Part: part, Attribute: attr}, nil
}

// String renders the path in "part.attribute" form.
func (p Path) String() string {
	return p.Part + "." + p.Attribute
}

// IsZero returns true for the zero path.
func (p Path) IsZero() bool {
	return p.Part == "" && p.Attribute == ""
}

// AttributeSpec declares one qualitative attribute of a part.
type AttributeSpec struct {
	Name    string
	Space   string
	Default string
	Mutable bool
}

// Part groups attributes under a component name.
type Part struct {
	Name       string
	Attributes []AttributeSpec
}

// Type is an object type: a named set of parts.
type Type struct {
	Name  string
	Parts []Part
}

// Attribute resolves a path to its spec within the type.
func (t *Type) Attribute(p Path) (AttributeSpec, error) {
	for _, part := range t.Parts {
		if part.Name != p.Part {
			continue
		}
		for _, attr := range part.Attributes {
			if attr.Name == p.Attribute {
				return attr, nil
			}
		}
	}
	return AttributeSpec{}, fmt.Errorf("%w: %s on %s", ErrUnknownAttribute, p, t.Name)
}

// Paths returns every attribute path declared by the type.
func (t *Type) Paths() []Path {
	var out []Path
	for _, part := range t.Parts {
		for _, attr := range part.Attributes {
			out = append(out, Path{Part: part.Name, Attribute: attr.Name})
		}
	}
	return out
}

// Instantiate builds the root snapshot for the type. Overrides replace
// defaults per attribute path and must stay within the attribute's
// space. An unknown default expands to the full candidate set.
func (t *Type) Instantiate(spaces map[string]*space.Space, overrides map[string]state.Value) (state.Snapshot, error) {
	attrs := make(map[string]state.Value)
	for _, part := range t.Parts {
		for _, spec := range part.Attributes {
			sp, ok := spaces[spec.Space]
			if !ok {
				return state.Snapshot{}, fmt.Errorf("%w: %q for %s.%s", ErrUnknownSpace, spec.Space, part.Name, spec.Name)
			}
			path := Path{Part: part.Name, Attribute: spec.Name}.String()

			if v, ok := overrides[path]; ok {
				for _, l := range v.Levels {
					if !sp.Has(l) {
						return state.Snapshot{}, fmt.Errorf("%w: %q for %s", ErrBadDefault, l, path)
					}
				}
				attrs[path] = v
				continue
			}

			switch {
			case spec.Default == UnknownDefault || spec.Default == "":
				attrs[path] = state.Candidates(sp.FullSet(), space.TrendNone)
			case sp.Has(spec.Default):
				attrs[path] = state.Known(spec.Default)
			default:
				return state.Snapshot{}, fmt.Errorf("%w: %q for %s", ErrBadDefault, spec.Default, path)
			}
		}
	}
	return state.NewSnapshot(t.Name, attrs), nil
}
