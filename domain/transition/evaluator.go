package transition

import (
	"errors"
	"fmt"

	"github.com/NickG503/World-Simulator/domain/action"
	"github.com/NickG503/World-Simulator/domain/graph"
	"github.com/NickG503/World-Simulator/domain/object"
	"github.com/NickG503/World-Simulator/domain/space"
	"github.com/NickG503/World-Simulator/domain/state"
)

// parameterPrefix marks pseudo-attributes in assignments that describe
// parameter checks. They never narrow a snapshot.
const parameterPrefix = "parameter:"

// Narrowing restricts one attribute to a subset of its candidates.
type Narrowing struct {
	Attribute string
	Levels    []string
}

// Assignment is a conjunction of narrowings describing the assumption a
// branch is built on. A nil assignment assumes nothing.
type Assignment []Narrowing

// Evaluator decides conditions over snapshots in three-valued logic and
// computes the branch assignments that resolve unknown outcomes.
type Evaluator struct {
	spaces map[string]*space.Space
	typ    *object.Type
}

// NewEvaluator creates an evaluator for one object type.
func NewEvaluator(spaces map[string]*space.Space, typ *object.Type) *Evaluator {
	return &Evaluator{spaces: spaces, typ: typ}
}

// spaceFor resolves the space of an attribute path.
func (ev *Evaluator) spaceFor(p object.Path) (*space.Space, error) {
	spec, err := ev.typ.Attribute(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, p)
	}
	sp, ok := ev.spaces[spec.Space]
	if !ok {
		return nil, fmt.Errorf("%w: space %q for %s", ErrUnknownAttribute, spec.Space, p)
	}
	return sp, nil
}

// Eval returns the truth of a condition over a snapshot.
func (ev *Evaluator) Eval(c action.Condition, snap state.Snapshot, params map[string]string) (Truth, error) {
	truth, _, _, err := ev.split(c, snap, params)
	return truth, err
}

// checkAttribute evaluates a leaf attribute check, returning the truth
// plus the pass and fail candidate subsets.
func (ev *Evaluator) checkAttribute(c action.AttributeCheck, snap state.Snapshot, params map[string]string) (Truth, Narrowing, Narrowing, error) {
	sp, err := ev.spaceFor(c.Attribute)
	if err != nil {
		return False, Narrowing{}, Narrowing{}, err
	}
	path := c.Attribute.String()
	cur, ok := snap.Get(path)
	if !ok {
		return False, Narrowing{}, Narrowing{}, fmt.Errorf("%w: %s", ErrUnknownAttribute, path)
	}

	pivots := c.Levels
	if c.FromParameter != "" {
		v, bound := params[c.FromParameter]
		if !bound {
			return False, Narrowing{}, Narrowing{}, fmt.Errorf("%w: %s", ErrUnknownParameter, c.FromParameter)
		}
		pivots = []string{v}
	}

	sat, err := sp.Expand(c.Operator, pivots)
	if err != nil {
		if errors.Is(err, space.ErrUnknownLevel) {
			return False, Narrowing{}, Narrowing{}, fmt.Errorf("%w: %v", ErrLevelNotInSpace, err)
		}
		return False, Narrowing{}, Narrowing{}, err
	}

	pass := sp.Intersect(cur.Levels, sat)
	fail := sp.Subtract(cur.Levels, sat)

	var truth Truth
	switch {
	case len(fail) == 0:
		truth = True
	case len(pass) == 0:
		truth = False
	default:
		truth = Unknown
	}
	return truth, Narrowing{Attribute: path, Levels: pass}, Narrowing{Attribute: path, Levels: fail}, nil
}

// split evaluates a condition and derives the branch assignments that
// make it definitively true (succ) or definitively false (fail).
//
// Branching follows De Morgan over partial knowledge: a conjunction
// with k unknown conjuncts yields one success assignment and k fail
// assignments, a disjunction yields one success assignment per unknown
// disjunct and a single conjunctive fail assignment.
func (ev *Evaluator) split(c action.Condition, snap state.Snapshot, params map[string]string) (Truth, []Assignment, []Assignment, error) {
	switch c := c.(type) {
	case action.AttributeCheck:
		truth, pass, fail, err := ev.checkAttribute(c, snap, params)
		if err != nil {
			return False, nil, nil, err
		}
		switch truth {
		case True:
			return True, []Assignment{nil}, nil, nil
		case False:
			return False, nil, []Assignment{{fail}}, nil
		default:
			return Unknown, []Assignment{{pass}}, []Assignment{{fail}}, nil
		}

	case action.ParameterEquals:
		v, ok := params[c.Parameter]
		if !ok {
			return False, nil, nil, fmt.Errorf("%w: %s", ErrUnknownParameter, c.Parameter)
		}
		mark := Narrowing{Attribute: parameterPrefix + c.Parameter, Levels: []string{c.Level}}
		if v == c.Level {
			return True, []Assignment{nil}, nil, nil
		}
		return False, nil, []Assignment{{mark}}, nil

	case action.ParameterIn:
		v, ok := params[c.Parameter]
		if !ok {
			return False, nil, nil, fmt.Errorf("%w: %s", ErrUnknownParameter, c.Parameter)
		}
		for _, l := range c.Levels {
			if l == v {
				return True, []Assignment{nil}, nil, nil
			}
		}
		mark := Narrowing{Attribute: parameterPrefix + c.Parameter, Levels: c.Levels}
		return False, nil, []Assignment{{mark}}, nil

	case action.And:
		truth := True
		var succParts [][]Assignment
		var fails []Assignment
		for _, sub := range c.All {
			st, ss, sf, err := ev.split(sub, snap, params)
			if err != nil {
				return False, nil, nil, err
			}
			if st == False {
				return False, nil, sf, nil
			}
			truth = truth.And(st)
			if st == Unknown {
				succParts = append(succParts, ss)
				fails = append(fails, sf...)
			}
		}
		if truth == True {
			return True, []Assignment{nil}, nil, nil
		}
		succ, err := ev.cross(succParts)
		if err != nil {
			return False, nil, nil, err
		}
		if len(succ) == 0 {
			// Conflicting narrowings on the same attribute leave no
			// satisfying candidates.
			return False, nil, fails, nil
		}
		return Unknown, succ, fails, nil

	case action.Or:
		truth := False
		var succ []Assignment
		var failParts [][]Assignment
		for _, sub := range c.Any {
			st, ss, sf, err := ev.split(sub, snap, params)
			if err != nil {
				return False, nil, nil, err
			}
			if st == True {
				return True, []Assignment{nil}, nil, nil
			}
			truth = truth.Or(st)
			if st == Unknown {
				succ = append(succ, ss...)
			}
			failParts = append(failParts, sf)
		}
		fail, err := ev.cross(failParts)
		if err != nil {
			return False, nil, nil, err
		}
		if truth == False {
			if len(fail) == 0 {
				fail = []Assignment{nil}
			}
			return False, nil, fail, nil
		}
		if len(fail) == 0 {
			return True, []Assignment{nil}, nil, nil
		}
		return Unknown, succ, fail, nil

	case action.Not:
		st, ss, sf, err := ev.split(c.Inner, snap, params)
		return st.Not(), sf, ss, err

	case action.Implies:
		return ev.split(action.Or{Any: []action.Condition{action.Not{Inner: c.If}, c.Then}}, snap, params)

	default:
		return False, nil, nil, fmt.Errorf("transition: unsupported condition %T", c)
	}
}

// cross merges one assignment from each part into combined assignments,
// intersecting narrowings on the same attribute. Combinations that
// leave an attribute without candidates are dropped.
func (ev *Evaluator) cross(parts [][]Assignment) ([]Assignment, error) {
	combined := []Assignment{nil}
	for _, options := range parts {
		if len(options) == 0 {
			continue
		}
		var next []Assignment
		for _, base := range combined {
			for _, opt := range options {
				merged, feasible, err := ev.merge(base, opt)
				if err != nil {
					return nil, err
				}
				if feasible {
					next = append(next, merged)
				}
			}
		}
		combined = next
		if len(combined) == 0 {
			return nil, nil
		}
	}
	if len(combined) == 1 && combined[0] == nil {
		return nil, nil
	}
	return combined, nil
}

// merge combines two assignments, intersecting same-attribute
// narrowings. It reports false when the intersection is empty.
func (ev *Evaluator) merge(a, b Assignment) (Assignment, bool, error) {
	out := append(Assignment(nil), a...)
	for _, n := range b {
		idx := -1
		for i, existing := range out {
			if existing.Attribute == n.Attribute {
				idx = i
				break
			}
		}
		if idx < 0 {
			out = append(out, n)
			continue
		}
		p, err := object.ParsePath(n.Attribute)
		if err != nil {
			// Parameter pseudo-attributes never intersect.
			out = append(out, n)
			continue
		}
		sp, err := ev.spaceFor(p)
		if err != nil {
			return nil, false, err
		}
		levels := sp.Intersect(out[idx].Levels, n.Levels)
		if len(levels) == 0 {
			return nil, false, nil
		}
		out[idx] = Narrowing{Attribute: n.Attribute, Levels: levels}
	}
	return out, true, nil
}

// Narrow applies an assignment to a snapshot, restricting candidate
// sets. It reports false when a narrowing leaves no candidates.
// Parameter pseudo-attributes are skipped.
func (ev *Evaluator) Narrow(snap state.Snapshot, a Assignment) (state.Snapshot, []state.Change, bool, error) {
	overrides := make(map[string]state.Value)
	var changes []state.Change
	for _, n := range a {
		cur, ok := snap.Get(n.Attribute)
		if !ok {
			continue
		}
		p, err := object.ParsePath(n.Attribute)
		if err != nil {
			continue
		}
		sp, err := ev.spaceFor(p)
		if err != nil {
			return state.Snapshot{}, nil, false, err
		}
		levels := sp.Intersect(cur.Levels, n.Levels)
		if len(levels) == 0 {
			return state.Snapshot{}, nil, false, nil
		}
		next := state.Candidates(levels, cur.Trend)
		if next.Equal(cur) {
			continue
		}
		overrides[n.Attribute] = next
		changes = append(changes, state.Change{
			Attribute: n.Attribute,
			Before:    cur,
			After:     next,
			Kind:      state.ChangeNarrowing,
		})
	}
	return snap.With(overrides), changes, true, nil
}

// conditionFor renders an assignment as a branch condition.
func conditionFor(a Assignment, source graph.Source, role graph.Role) graph.BranchCondition {
	if len(a) == 0 {
		return graph.BranchCondition{Type: graph.CompoundSimple, Source: source, Role: role}
	}
	parts := make([]graph.BranchCondition, 0, len(a))
	for _, n := range a {
		parts = append(parts, graph.Simple(source, role, n.Attribute, n.Levels))
	}
	return graph.Compound(graph.CompoundAnd, source, role, parts)
}
