// Package action provides action definitions: preconditions, effects,
// and parameters. Conditions and effects form closed sets of variants;
// the transition engine switches over them exhaustively.
package action

import (
	"github.com/NickG503/World-Simulator/domain/object"
	"github.com/NickG503/World-Simulator/domain/space"
)

// Condition is a ternary predicate over a snapshot and parameter
// bindings. Implementations form a closed set within this package.
type Condition interface {
	isCondition()
}

// AttributeCheck compares an attribute against pivot levels through a
// space operator. When FromParameter is set, the pivot is resolved from
// the named parameter binding instead of Levels.
type AttributeCheck struct {
	Attribute     object.Path
	Operator      space.Operator
	Levels        []string
	FromParameter string
}

// ParameterEquals requires a parameter binding to equal a choice.
type ParameterEquals struct {
	Parameter string
	Level     string
}

// ParameterIn requires a parameter binding to be one of the choices.
type ParameterIn struct {
	Parameter string
	Levels    []string
}

// And is satisfied when every sub-condition is satisfied.
type And struct {
	All []Condition
}

// Or is satisfied when at least one sub-condition is satisfied.
type Or struct {
	Any []Condition
}

// Not inverts a condition.
type Not struct {
	Inner Condition
}

// Implies is the material implication: satisfied unless If holds and
// Then does not.
type Implies struct {
	If   Condition
	Then Condition
}

func (AttributeCheck) isCondition()  {}
func (ParameterEquals) isCondition() {}
func (ParameterIn) isCondition()     {}
func (And) isCondition()             {}
func (Or) isCondition()              {}
func (Not) isCondition()             {}
func (Implies) isCondition()         {}
