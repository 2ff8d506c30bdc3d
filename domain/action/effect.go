package action

import (
	"github.com/NickG503/World-Simulator/domain/object"
	"github.com/NickG503/World-Simulator/domain/space"
)

// Effect is one postcondition step of an action. Implementations form a
// closed set within this package.
type Effect interface {
	isEffect()
}

// SetAttribute writes a level to an attribute. When FromParameter is
// set, the level is resolved from the named parameter binding.
type SetAttribute struct {
	Attribute     object.Path
	Level         string
	FromParameter string
}

// SetTrend assigns a drift direction to an attribute. The attribute's
// candidate set widens along the trend.
type SetTrend struct {
	Attribute object.Path
	Trend     space.Trend
}

// Case is one guarded branch of a conditional effect.
type Case struct {
	When Condition
	Then []Effect
}

// Conditional is a flat if/elif/else effect. Cases are evaluated in
// order; the first satisfied guard fires. A conditional without an
// else clause requires some case to be satisfiable.
type Conditional struct {
	Cases   []Case
	Else    []Effect
	HasElse bool
}

func (SetAttribute) isEffect() {}
func (SetTrend) isEffect()     {}
func (Conditional) isEffect()  {}
