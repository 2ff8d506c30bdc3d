package action

import (
	"errors"
	"fmt"
)

// Errors returned by action validation.
var (
	ErrMissingName       = errors.New("action: missing name")
	ErrMissingObjectType = errors.New("action: missing object type")
	ErrNestedConditional = errors.New("action: conditional effects must not nest")
	ErrEmptyConditional  = errors.New("action: conditional effect has no cases")
	ErrDuplicateParam    = errors.New("action: duplicate parameter")
	ErrUnknownParam      = errors.New("action: unknown parameter")
	ErrBadParamChoice    = errors.New("action: binding not among parameter choices")
)

// Parameter declares a named action input with its allowed choices.
type Parameter struct {
	Name    string
	Choices []string
}

// Action is a named transition applicable to one object type.
type Action struct {
	Name          string
	ObjectType    string
	Parameters    []Parameter
	Preconditions []Condition
	Effects       []Effect
}

// Parameter returns the declared parameter with the given name.
func (a *Action) Parameter(name string) (Parameter, bool) {
	for _, p := range a.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Validate checks structural rules: a name and object type are present,
// parameters are unique, and conditional effects stay flat.
func (a *Action) Validate() error {
	if a.Name == "" {
		return ErrMissingName
	}
	if a.ObjectType == "" {
		return fmt.Errorf("%w: action %s", ErrMissingObjectType, a.Name)
	}

	seen := make(map[string]struct{}, len(a.Parameters))
	for _, p := range a.Parameters {
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: %s in action %s", ErrDuplicateParam, p.Name, a.Name)
		}
		seen[p.Name] = struct{}{}
	}

	for _, e := range a.Effects {
		if err := validateEffect(e, false); err != nil {
			return fmt.Errorf("action %s: %w", a.Name, err)
		}
	}
	return nil
}

// validateEffect enforces the flat-conditional contract: a conditional
// may appear at the top level of an effect list but never inside
// another conditional's branches.
func validateEffect(e Effect, insideConditional bool) error {
	c, ok := e.(Conditional)
	if !ok {
		return nil
	}
	if insideConditional {
		return ErrNestedConditional
	}
	if len(c.Cases) == 0 {
		return ErrEmptyConditional
	}
	for _, cs := range c.Cases {
		for _, sub := range cs.Then {
			if err := validateEffect(sub, true); err != nil {
				return err
			}
		}
	}
	for _, sub := range c.Else {
		if err := validateEffect(sub, true); err != nil {
			return err
		}
	}
	return nil
}

// BindParameters validates a set of bindings against the declared
// parameters and fills in nothing: every declared parameter must be
// bound and every binding must match a declared choice.
func (a *Action) BindParameters(bindings map[string]string) error {
	for _, p := range a.Parameters {
		v, ok := bindings[p.Name]
		if !ok {
			return fmt.Errorf("%w: %s not bound for action %s", ErrUnknownParam, p.Name, a.Name)
		}
		if len(p.Choices) == 0 {
			continue
		}
		valid := false
		for _, c := range p.Choices {
			if c == v {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("%w: %s=%q for action %s", ErrBadParamChoice, p.Name, v, a.Name)
		}
	}
	for name := range bindings {
		if _, ok := a.Parameter(name); !ok {
			return fmt.Errorf("%w: %s for action %s", ErrUnknownParam, name, a.Name)
		}
	}
	return nil
}
