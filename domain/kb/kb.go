// Package kb provides the knowledge base: the spaces, object types,
// actions, and dependency rules a simulation runs against.
package kb

import (
	"errors"
	"fmt"
	"sort"

	"github.com/NickG503/World-Simulator/domain/action"
	"github.com/NickG503/World-Simulator/domain/constraint"
	"github.com/NickG503/World-Simulator/domain/object"
	"github.com/NickG503/World-Simulator/domain/space"
	"github.com/NickG503/World-Simulator/domain/state"
)

// Errors returned by knowledge base lookups.
var (
	ErrUnknownSpace  = errors.New("kb: unknown space")
	ErrUnknownObject = errors.New("kb: unknown object type")
	ErrUnknownAction = errors.New("kb: unknown action")
)

// KnowledgeBase aggregates everything a simulation needs.
type KnowledgeBase struct {
	Spaces      map[string]*space.Space
	Objects     map[string]*object.Type
	Actions     map[string]*action.Action
	Constraints map[string][]constraint.Dependency
}

// New creates an empty knowledge base.
func New() *KnowledgeBase {
	return &KnowledgeBase{
		Spaces:      make(map[string]*space.Space),
		Objects:     make(map[string]*object.Type),
		Actions:     make(map[string]*action.Action),
		Constraints: make(map[string][]constraint.Dependency),
	}
}

// Space returns a space by name.
func (k *KnowledgeBase) Space(name string) (*space.Space, error) {
	sp, ok := k.Spaces[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSpace, name)
	}
	return sp, nil
}

// Object returns an object type by name.
func (k *KnowledgeBase) Object(name string) (*object.Type, error) {
	typ, ok := k.Objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, name)
	}
	return typ, nil
}

// Action returns an action by name.
func (k *KnowledgeBase) Action(name string) (*action.Action, error) {
	act, ok := k.Actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	return act, nil
}

// ActionsFor returns the actions declared for an object type, sorted by
// name.
func (k *KnowledgeBase) ActionsFor(objectType string) []*action.Action {
	var out []*action.Action
	for _, act := range k.Actions {
		if act.ObjectType == objectType {
			out = append(out, act)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Root instantiates the root snapshot of an object type with optional
// per-attribute overrides.
func (k *KnowledgeBase) Root(objectType string, overrides map[string]state.Value) (state.Snapshot, error) {
	typ, err := k.Object(objectType)
	if err != nil {
		return state.Snapshot{}, err
	}
	return typ.Instantiate(k.Spaces, overrides)
}

// Validate checks referential integrity across the knowledge base and
// returns every problem found.
func (k *KnowledgeBase) Validate() []error {
	var errs []error

	for name, typ := range k.Objects {
		if typ.Name != name {
			errs = append(errs, fmt.Errorf("object %s: registered under name %q", typ.Name, name))
		}
		for _, part := range typ.Parts {
			for _, attr := range part.Attributes {
				sp, ok := k.Spaces[attr.Space]
				if !ok {
					errs = append(errs, fmt.Errorf("object %s: %s.%s references %w: %s",
						typ.Name, part.Name, attr.Name, ErrUnknownSpace, attr.Space))
					continue
				}
				if attr.Default != "" && attr.Default != object.UnknownDefault && !sp.Has(attr.Default) {
					errs = append(errs, fmt.Errorf("object %s: %s.%s default %q not in space %s",
						typ.Name, part.Name, attr.Name, attr.Default, attr.Space))
				}
			}
		}
	}

	for name, act := range k.Actions {
		if act.Name != name {
			errs = append(errs, fmt.Errorf("action %s: registered under name %q", act.Name, name))
		}
		if err := act.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		typ, ok := k.Objects[act.ObjectType]
		if !ok {
			errs = append(errs, fmt.Errorf("action %s: %w: %s", act.Name, ErrUnknownObject, act.ObjectType))
			continue
		}
		for _, c := range act.Preconditions {
			errs = append(errs, k.validateCondition(act, typ, c)...)
		}
		for _, e := range act.Effects {
			errs = append(errs, k.validateEffect(act, typ, e)...)
		}
	}

	for objName, deps := range k.Constraints {
		typ, ok := k.Objects[objName]
		if !ok {
			errs = append(errs, fmt.Errorf("constraints for %w: %s", ErrUnknownObject, objName))
			continue
		}
		probe := &action.Action{Name: "constraint", ObjectType: objName}
		for _, dep := range deps {
			errs = append(errs, k.validateCondition(probe, typ, dep.When)...)
			errs = append(errs, k.validateCondition(probe, typ, dep.Requires)...)
		}
	}

	return errs
}

// validateAttr checks a path resolves and its levels are in the space.
func (k *KnowledgeBase) validateAttr(act *action.Action, typ *object.Type, p object.Path, levels []string) []error {
	spec, err := typ.Attribute(p)
	if err != nil {
		return []error{fmt.Errorf("action %s: %w", act.Name, err)}
	}
	sp, ok := k.Spaces[spec.Space]
	if !ok {
		return []error{fmt.Errorf("action %s: attribute %s references %w: %s", act.Name, p, ErrUnknownSpace, spec.Space)}
	}
	var errs []error
	for _, l := range levels {
		if !sp.Has(l) {
			errs = append(errs, fmt.Errorf("action %s: level %q not in space %s for %s", act.Name, l, spec.Space, p))
		}
	}
	return errs
}

func (k *KnowledgeBase) validateParam(act *action.Action, name string) []error {
	if name == "" {
		return nil
	}
	if _, ok := act.Parameter(name); !ok {
		return []error{fmt.Errorf("action %s: %w", act.Name, action.ErrUnknownParam)}
	}
	return nil
}

func (k *KnowledgeBase) validateCondition(act *action.Action, typ *object.Type, c action.Condition) []error {
	switch c := c.(type) {
	case action.AttributeCheck:
		var errs []error
		if c.FromParameter != "" {
			errs = append(errs, k.validateParam(act, c.FromParameter)...)
			errs = append(errs, k.validateAttr(act, typ, c.Attribute, nil)...)
		} else {
			errs = append(errs, k.validateAttr(act, typ, c.Attribute, c.Levels)...)
		}
		if !c.Operator.IsValid() {
			errs = append(errs, fmt.Errorf("action %s: %w: %q", act.Name, space.ErrUnknownOperator, c.Operator))
		}
		return errs
	case action.ParameterEquals:
		return k.validateParam(act, c.Parameter)
	case action.ParameterIn:
		return k.validateParam(act, c.Parameter)
	case action.And:
		var errs []error
		for _, sub := range c.All {
			errs = append(errs, k.validateCondition(act, typ, sub)...)
		}
		return errs
	case action.Or:
		var errs []error
		for _, sub := range c.Any {
			errs = append(errs, k.validateCondition(act, typ, sub)...)
		}
		return errs
	case action.Not:
		return k.validateCondition(act, typ, c.Inner)
	case action.Implies:
		var errs []error
		errs = append(errs, k.validateCondition(act, typ, c.If)...)
		errs = append(errs, k.validateCondition(act, typ, c.Then)...)
		return errs
	default:
		return []error{fmt.Errorf("action %s: unsupported condition %T", act.Name, c)}
	}
}

func (k *KnowledgeBase) validateEffect(act *action.Action, typ *object.Type, e action.Effect) []error {
	switch e := e.(type) {
	case action.SetAttribute:
		var errs []error
		if e.FromParameter != "" {
			errs = append(errs, k.validateParam(act, e.FromParameter)...)
			errs = append(errs, k.validateAttr(act, typ, e.Attribute, nil)...)
		} else {
			errs = append(errs, k.validateAttr(act, typ, e.Attribute, []string{e.Level})...)
		}
		return errs
	case action.SetTrend:
		errs := k.validateAttr(act, typ, e.Attribute, nil)
		if !e.Trend.IsValid() {
			errs = append(errs, fmt.Errorf("action %s: %w: %q", act.Name, space.ErrUnknownTrend, e.Trend))
		}
		return errs
	case action.Conditional:
		var errs []error
		for _, cs := range e.Cases {
			errs = append(errs, k.validateCondition(act, typ, cs.When)...)
			for _, sub := range cs.Then {
				errs = append(errs, k.validateEffect(act, typ, sub)...)
			}
		}
		for _, sub := range e.Else {
			errs = append(errs, k.validateEffect(act, typ, sub)...)
		}
		return errs
	default:
		return []error{fmt.Errorf("action %s: unsupported effect %T", act.Name, e)}
	}
}
