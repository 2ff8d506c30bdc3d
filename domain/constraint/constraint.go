// Package constraint provides dependency rules between attributes of an
// object type. A dependency states that whenever its condition holds,
// its requirement must hold as well.
package constraint

import (
	"github.com/NickG503/World-Simulator/domain/action"
)

// Dependency is a conditional requirement checked after every
// transition. When the condition is definitively satisfied, the
// requirement must not be definitively violated.
type Dependency struct {
	Name     string
	When     action.Condition
	Requires action.Condition
}

// Violation records a definitively broken dependency.
type Violation struct {
	Dependency string `yaml:"dependency" json:"dependency"`
	Detail     string `yaml:"detail,omitempty" json:"detail,omitempty"`
}

// Deferred records a dependency whose outcome could not be decided on
// the current snapshot. Deferred checks are reported, never dropped.
type Deferred struct {
	Dependency string `yaml:"dependency" json:"dependency"`
	Reason     string `yaml:"reason,omitempty" json:"reason,omitempty"`
}
