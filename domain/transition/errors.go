package transition

import "errors"

// Errors returned by the transition engine. These are fatal action
// faults; expected outcomes such as rejection or constraint violation
// are branch statuses, not errors.
var (
	// ErrImmutableWrite is returned when an effect writes an attribute
	// declared immutable.
	ErrImmutableWrite = errors.New("transition: write to immutable attribute")

	// ErrLevelNotInSpace is returned when an effect or condition names
	// a level outside the attribute's space.
	ErrLevelNotInSpace = errors.New("transition: level not in attribute space")

	// ErrUnknownAttribute is returned when a condition or effect
	// addresses an attribute the object type does not declare.
	ErrUnknownAttribute = errors.New("transition: unknown attribute")

	// ErrUnknownParameter is returned when a condition or effect
	// references an unbound parameter.
	ErrUnknownParameter = errors.New("transition: unknown parameter")

	// ErrRequiredPostcondition is returned when a conditional effect
	// without an else clause has no satisfiable case on a definite path.
	ErrRequiredPostcondition = errors.New("transition: no satisfiable case in required conditional")

	// ErrWrongObjectType is returned when an action is applied to an
	// object of a different type.
	ErrWrongObjectType = errors.New("transition: action does not apply to object type")
)
