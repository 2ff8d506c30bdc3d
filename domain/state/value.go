// Package state provides qualitative attribute values and world snapshots.
//
// A value is either a single known level or an ordered set of candidate
// levels when the exact level is not determined. Snapshots are immutable
// maps from attribute paths to values; every transition produces a new
// snapshot rather than mutating an existing one.
package state

import (
	"strings"

	"github.com/NickG503/World-Simulator/domain/space"
)

// Value is the qualitative value of one attribute: a non-empty ordered
// set of candidate levels plus a trend. A value with exactly one
// candidate is known; more candidates mean partial knowledge.
type Value struct {
	Levels []string    `yaml:"levels" json:"levels"`
	Trend  space.Trend `yaml:"trend" json:"trend"`
}

// Known returns a value fixed to a single level with no trend.
func Known(level string) Value {
	return Value{Levels: []string{level}, Trend: space.TrendNone}
}

// Candidates returns a value covering a set of possible levels.
// The caller is responsible for passing levels in space order.
func Candidates(levels []string, trend space.Trend) Value {
	return Value{Levels: append([]string(nil), levels...), Trend: trend}
}

// IsKnown returns true if exactly one candidate level remains.
func (v Value) IsKnown() bool {
	return len(v.Levels) == 1
}

// Single returns the level and true when the value is known.
func (v Value) Single() (string, bool) {
	if len(v.Levels) == 1 {
		return v.Levels[0], true
	}
	return "", false
}

// Contains returns true if the level is a candidate of this value.
func (v Value) Contains(level string) bool {
	for _, l := range v.Levels {
		if l == level {
			return true
		}
	}
	return false
}

// Equal compares candidate sets and trends.
func (v Value) Equal(o Value) bool {
	if v.Trend != o.Trend || len(v.Levels) != len(o.Levels) {
		return false
	}
	for i := range v.Levels {
		if v.Levels[i] != o.Levels[i] {
			return false
		}
	}
	return true
}

// String renders a value in canonical form, e.g. "low" or
// "low|medium(down)".
func (v Value) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(v.Levels, "|"))
	if v.Trend != space.TrendNone && v.Trend != "" {
		b.WriteString("(")
		b.WriteString(string(v.Trend))
		b.WriteString(")")
	}
	return b.String()
}
