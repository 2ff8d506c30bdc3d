// Package space provides ordered qualitative value spaces.
//
// A space is a named, totally ordered list of discrete levels such as
// "empty < low < medium < high". All attribute values in the simulator
// are drawn from a space, and all comparisons between levels are
// resolved through the ordering of the space that defines them.
package space

import (
	"errors"
	"fmt"
)

// Errors returned by space operations.
var (
	ErrEmptySpace      = errors.New("space: no levels defined")
	ErrDuplicateLevel  = errors.New("space: duplicate level")
	ErrUnknownLevel    = errors.New("space: level not in space")
	ErrUnknownOperator = errors.New("space: unknown operator")
	ErrUnknownTrend    = errors.New("space: unknown trend")
)

// Operator is a comparison against the ordering of a space.
type Operator string

// Supported comparison operators.
const (
	OpEquals       Operator = "equals"
	OpNotEquals    Operator = "not_equals"
	OpLessThan     Operator = "lt"
	OpLessEqual    Operator = "lte"
	OpGreaterThan  Operator = "gt"
	OpGreaterEqual Operator = "gte"
	OpIn           Operator = "in"
	OpNotIn        Operator = "not_in"
)

// IsValid returns true if the operator is recognized.
func (o Operator) IsValid() bool {
	switch o {
	case OpEquals, OpNotEquals, OpLessThan, OpLessEqual, OpGreaterThan, OpGreaterEqual, OpIn, OpNotIn:
		return true
	default:
		return false
	}
}

// String returns the string representation of the operator.
func (o Operator) String() string {
	return string(o)
}

// Trend is a direction of drift along the ordering of a space.
type Trend string

// Supported trends.
const (
	TrendNone Trend = "none"
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// IsValid returns true if the trend is recognized.
func (t Trend) IsValid() bool {
	switch t {
	case TrendNone, TrendUp, TrendDown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the trend.
func (t Trend) String() string {
	return string(t)
}

// Space is a named, ordered list of qualitative levels.
// Levels are ordered from lowest (index 0) to highest.
type Space struct {
	Name   string
	Levels []string
}

// New creates a space after validating that it has at least one level
// and no duplicates.
func New(name string, levels []string) (*Space, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySpace, name)
	}
	seen := make(map[string]struct{}, len(levels))
	for _, l := range levels {
		if _, dup := seen[l]; dup {
			return nil, fmt.Errorf("%w: %s in %s", ErrDuplicateLevel, l, name)
		}
		seen[l] = struct{}{}
	}
	return &Space{Name: name, Levels: append([]string(nil), levels...)}, nil
}

// IndexOf returns the position of a level in the ordering, or -1 if the
// level is not part of the space.
func (s *Space) IndexOf(level string) int {
	for i, l := range s.Levels {
		if l == level {
			return i
		}
	}
	return -1
}

// Has returns true if the level belongs to the space.
func (s *Space) Has(level string) bool {
	return s.IndexOf(level) >= 0
}

// FullSet returns all levels of the space in order.
func (s *Space) FullSet() []string {
	return append([]string(nil), s.Levels...)
}

// Expand returns the ordered subset of the space that satisfies the
// operator against the given pivot levels. Single-pivot operators use
// pivots[0]. The result preserves space ordering and may be empty.
func (s *Space) Expand(op Operator, pivots []string) ([]string, error) {
	for _, p := range pivots {
		if !s.Has(p) {
			return nil, fmt.Errorf("%w: %q in %s", ErrUnknownLevel, p, s.Name)
		}
	}

	switch op {
	case OpIn, OpNotIn:
		member := make(map[string]struct{}, len(pivots))
		for _, p := range pivots {
			member[p] = struct{}{}
		}
		var out []string
		for _, l := range s.Levels {
			_, in := member[l]
			if (op == OpIn) == in {
				out = append(out, l)
			}
		}
		return out, nil
	}

	if len(pivots) != 1 {
		return nil, fmt.Errorf("%w: %s requires a single level", ErrUnknownLevel, op)
	}
	idx := s.IndexOf(pivots[0])

	switch op {
	case OpEquals:
		return []string{s.Levels[idx]}, nil
	case OpNotEquals:
		out := make([]string, 0, len(s.Levels)-1)
		for i, l := range s.Levels {
			if i != idx {
				out = append(out, l)
			}
		}
		return out, nil
	case OpLessThan:
		return append([]string(nil), s.Levels[:idx]...), nil
	case OpLessEqual:
		return append([]string(nil), s.Levels[:idx+1]...), nil
	case OpGreaterThan:
		return append([]string(nil), s.Levels[idx+1:]...), nil
	case OpGreaterEqual:
		return append([]string(nil), s.Levels[idx:]...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
}

// Step moves a level one position along the ordering in the direction
// of the trend, clamping at the ends of the space.
func (s *Space) Step(level string, t Trend) (string, error) {
	idx := s.IndexOf(level)
	if idx < 0 {
		return "", fmt.Errorf("%w: %q in %s", ErrUnknownLevel, level, s.Name)
	}
	switch t {
	case TrendNone:
		return level, nil
	case TrendUp:
		if idx+1 < len(s.Levels) {
			return s.Levels[idx+1], nil
		}
		return level, nil
	case TrendDown:
		if idx > 0 {
			return s.Levels[idx-1], nil
		}
		return level, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTrend, t)
	}
}

// TrendSet widens a candidate set in the direction of the trend. A
// downward trend keeps every level at or below the highest candidate,
// an upward trend keeps every level at or above the lowest candidate,
// and no trend leaves the set unchanged.
func (s *Space) TrendSet(current []string, t Trend) ([]string, error) {
	if len(current) == 0 {
		return nil, fmt.Errorf("%w: empty candidate set in %s", ErrUnknownLevel, s.Name)
	}
	lo, hi := len(s.Levels), -1
	for _, l := range current {
		idx := s.IndexOf(l)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q in %s", ErrUnknownLevel, l, s.Name)
		}
		if idx < lo {
			lo = idx
		}
		if idx > hi {
			hi = idx
		}
	}
	switch t {
	case TrendNone:
		return append([]string(nil), current...), nil
	case TrendDown:
		return append([]string(nil), s.Levels[:hi+1]...), nil
	case TrendUp:
		return append([]string(nil), s.Levels[lo:]...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTrend, t)
	}
}

// Intersect returns the ordered intersection of two level sets,
// preserving space ordering.
func (s *Space) Intersect(a, b []string) []string {
	inA := make(map[string]struct{}, len(a))
	for _, l := range a {
		inA[l] = struct{}{}
	}
	inB := make(map[string]struct{}, len(b))
	for _, l := range b {
		inB[l] = struct{}{}
	}
	var out []string
	for _, l := range s.Levels {
		if _, ok := inA[l]; !ok {
			continue
		}
		if _, ok := inB[l]; !ok {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Subtract returns the ordered members of a that are not in b.
func (s *Space) Subtract(a, b []string) []string {
	inA := make(map[string]struct{}, len(a))
	for _, l := range a {
		inA[l] = struct{}{}
	}
	inB := make(map[string]struct{}, len(b))
	for _, l := range b {
		inB[l] = struct{}{}
	}
	var out []string
	for _, l := range s.Levels {
		if _, ok := inA[l]; !ok {
			continue
		}
		if _, ok := inB[l]; ok {
			continue
		}
		out = append(out, l)
	}
	return out
}
