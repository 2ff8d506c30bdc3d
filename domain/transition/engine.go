package transition

import (
	"fmt"

	"github.com/NickG503/World-Simulator/domain/action"
	"github.com/NickG503/World-Simulator/domain/constraint"
	"github.com/NickG503/World-Simulator/domain/graph"
	"github.com/NickG503/World-Simulator/domain/object"
	"github.com/NickG503/World-Simulator/domain/space"
	"github.com/NickG503/World-Simulator/domain/state"
)

// Branch is one outcome of applying an action to a snapshot. A
// transition yields exactly one branch when knowledge is complete and
// several when unknown values force a split.
type Branch struct {
	Snapshot   state.Snapshot
	Changes    []state.Change
	Status     graph.Status
	Condition  graph.BranchCondition
	Violations []constraint.Violation
	Deferred   []constraint.Deferred
}

// Engine computes the branches of a single action transition.
type Engine struct {
	ev *Evaluator
	ap *Applier
	ch *Checker
}

// NewEngine creates a transition engine for one object type and its
// dependency rules.
func NewEngine(spaces map[string]*space.Space, typ *object.Type, deps []constraint.Dependency) *Engine {
	ev := NewEvaluator(spaces, typ)
	return &Engine{
		ev: ev,
		ap: NewApplier(spaces, typ),
		ch: NewChecker(ev, deps),
	}
}

// work is an in-progress success path through an action's effects.
type work struct {
	snap     state.Snapshot
	changes  []state.Change
	conds    []graph.BranchCondition
	definite bool
}

func (w work) clone() work {
	return work{
		snap:     w.snap,
		changes:  append([]state.Change(nil), w.changes...),
		conds:    append([]graph.BranchCondition(nil), w.conds...),
		definite: w.definite,
	}
}

// combineConds folds the accumulated branch conditions of a path into
// one edge condition.
func combineConds(conds []graph.BranchCondition) graph.BranchCondition {
	switch len(conds) {
	case 0:
		return graph.BranchCondition{}
	case 1:
		return conds[0]
	default:
		last := conds[len(conds)-1]
		return graph.BranchCondition{Type: graph.CompoundAnd, Source: last.Source, Role: last.Role, Sub: conds}
	}
}

// Transition applies an action to a snapshot and returns the resulting
// branches: success branches first, then postcondition failures, then
// precondition rejections. Exactly one action outcome per reachable
// assumption; the branch set partitions the snapshot's candidate space.
func (e *Engine) Transition(snap state.Snapshot, act *action.Action, params map[string]string) ([]Branch, error) {
	if act.ObjectType != snap.Object() {
		return nil, fmt.Errorf("%w: %s on %s", ErrWrongObjectType, act.Name, snap.Object())
	}
	if err := act.Validate(); err != nil {
		return nil, err
	}
	if err := act.BindParameters(params); err != nil {
		return nil, err
	}

	pending, rejects, err := e.splitPrecondition(snap, act, params)
	if err != nil {
		return nil, err
	}

	var postFails []Branch
	for _, eff := range act.Effects {
		var next []work
		for _, w := range pending {
			switch eff := eff.(type) {
			case action.Conditional:
				fired, fails, err := e.applyConditional(w, eff, params)
				if err != nil {
					return nil, err
				}
				next = append(next, fired...)
				postFails = append(postFails, fails...)
			default:
				ns, cs, err := e.ap.Apply(w.snap, eff, params)
				if err != nil {
					return nil, err
				}
				w.snap = ns
				w.changes = append(w.changes, cs...)
				next = append(next, w)
			}
		}
		pending = next
	}

	var out []Branch
	for _, w := range pending {
		b, err := e.finalizeSuccess(w)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	out = append(out, postFails...)
	out = append(out, rejects...)
	return out, nil
}

// splitPrecondition evaluates the conjoined preconditions and produces
// the success paths to run effects on plus the rejected branches.
func (e *Engine) splitPrecondition(snap state.Snapshot, act *action.Action, params map[string]string) ([]work, []Branch, error) {
	pre := action.And{All: act.Preconditions}
	truth, succ, fail, err := e.ev.split(pre, snap, params)
	if err != nil {
		return nil, nil, err
	}

	switch truth {
	case True:
		return []work{{snap: snap, definite: true}}, nil, nil

	case False:
		var fa Assignment
		if len(fail) > 0 {
			fa = fail[0]
		}
		b := e.finalizeRejected(work{
			snap:  snap,
			conds: []graph.BranchCondition{conditionFor(fa, graph.SourcePrecondition, graph.RoleFail)},
		})
		return nil, []Branch{b}, nil

	default:
		var pending []work
		for _, sa := range succ {
			ns, cs, feasible, err := e.ev.Narrow(snap, sa)
			if err != nil {
				return nil, nil, err
			}
			if !feasible {
				continue
			}
			pending = append(pending, work{
				snap:    ns,
				changes: cs,
				conds:   []graph.BranchCondition{conditionFor(sa, graph.SourcePrecondition, graph.RoleSuccess)},
			})
		}

		var rejects []Branch
		for _, fa := range fail {
			ns, cs, feasible, err := e.ev.Narrow(snap, fa)
			if err != nil {
				return nil, nil, err
			}
			if !feasible {
				continue
			}
			rejects = append(rejects, e.finalizeRejected(work{
				snap:    ns,
				changes: cs,
				conds:   []graph.BranchCondition{conditionFor(fa, graph.SourcePrecondition, graph.RoleFail)},
			}))
		}
		return pending, rejects, nil
	}
}

// applyConditional resolves a flat conditional effect on one path.
// Cases are tried in order; unknown guards split the path into a fired
// branch per satisfiable case and a residual where the case is assumed
// false. Residuals reach the else clause, or fail when none exists.
func (e *Engine) applyConditional(w work, c action.Conditional, params map[string]string) ([]work, []Branch, error) {
	var fired []work
	var fails []Branch
	residual := []work{w}

	for i, cs := range c.Cases {
		role := graph.RoleIf
		if i > 0 {
			role = graph.RoleElif
		}
		var nextResidual []work
		for _, r := range residual {
			truth, succ, fail, err := e.ev.split(cs.When, r.snap, params)
			if err != nil {
				return nil, nil, err
			}
			switch truth {
			case True:
				applied, err := e.applyEffects(r, cs.Then, params)
				if err != nil {
					return nil, nil, err
				}
				fired = append(fired, applied)

			case False:
				nextResidual = append(nextResidual, r)

			default:
				for _, sa := range succ {
					ns, changes, feasible, err := e.ev.Narrow(r.snap, sa)
					if err != nil {
						return nil, nil, err
					}
					if !feasible {
						continue
					}
					branch := r.clone()
					branch.snap = ns
					branch.changes = append(branch.changes, changes...)
					branch.conds = append(branch.conds, conditionFor(sa, graph.SourcePostcondition, role))
					branch.definite = false
					applied, err := e.applyEffects(branch, cs.Then, params)
					if err != nil {
						return nil, nil, err
					}
					fired = append(fired, applied)
				}
				for _, fa := range fail {
					ns, changes, feasible, err := e.ev.Narrow(r.snap, fa)
					if err != nil {
						return nil, nil, err
					}
					if !feasible {
						continue
					}
					rest := r.clone()
					rest.snap = ns
					rest.changes = append(rest.changes, changes...)
					rest.conds = append(rest.conds, conditionFor(fa, graph.SourcePostcondition, graph.RoleFail))
					rest.definite = false
					nextResidual = append(nextResidual, rest)
				}
			}
		}
		residual = nextResidual
		if len(residual) == 0 {
			break
		}
	}

	for _, r := range residual {
		if c.HasElse {
			branch := r.clone()
			if !branch.definite {
				branch.conds = append(branch.conds, graph.BranchCondition{
					Type:   graph.CompoundSimple,
					Source: graph.SourcePostcondition,
					Role:   graph.RoleElse,
				})
			}
			applied, err := e.applyEffects(branch, c.Else, params)
			if err != nil {
				return nil, nil, err
			}
			fired = append(fired, applied)
			continue
		}
		if r.definite {
			return nil, nil, ErrRequiredPostcondition
		}
		b, err := e.finalizeFail(r)
		if err != nil {
			return nil, nil, err
		}
		fails = append(fails, b)
	}

	return fired, fails, nil
}

// applyEffects applies a list of simple effects to one path. The flat
// conditional contract guarantees no nested conditional appears here.
func (e *Engine) applyEffects(w work, effs []action.Effect, params map[string]string) (work, error) {
	for _, eff := range effs {
		ns, cs, err := e.ap.Apply(w.snap, eff, params)
		if err != nil {
			return work{}, err
		}
		w.snap = ns
		w.changes = append(w.changes, cs...)
	}
	return w, nil
}

// finalizeSuccess runs dependency enforcement on a completed success
// path. A definite violation downgrades the branch.
func (e *Engine) finalizeSuccess(w work) (Branch, error) {
	snap, cs, violations, deferred, err := e.ch.Enforce(w.snap)
	if err != nil {
		return Branch{}, err
	}
	status := graph.StatusSuccess
	if len(violations) > 0 {
		status = graph.StatusConstraintViolated
	}
	return Branch{
		Snapshot:   snap,
		Changes:    state.FilterChanges(append(w.changes, cs...)),
		Status:     status,
		Condition:  combineConds(w.conds),
		Violations: violations,
		Deferred:   deferred,
	}, nil
}

// finalizeFail runs dependency enforcement on a postcondition-failed
// path. Earlier effects in the list may already have fired, so the
// snapshot is checked like a success branch while the status stays
// failed.
func (e *Engine) finalizeFail(w work) (Branch, error) {
	snap, cs, violations, deferred, err := e.ch.Enforce(w.snap)
	if err != nil {
		return Branch{}, err
	}
	return Branch{
		Snapshot:   snap,
		Changes:    state.FilterChanges(append(w.changes, cs...)),
		Status:     graph.StatusFailed,
		Condition:  combineConds(w.conds),
		Violations: violations,
		Deferred:   deferred,
	}, nil
}

// finalizeRejected closes a precondition-rejected path. No effect has
// fired, so the pre-state is kept as-is and dependencies are not
// enforced against it.
func (e *Engine) finalizeRejected(w work) Branch {
	return Branch{
		Snapshot:  w.snap,
		Changes:   state.FilterChanges(w.changes),
		Status:    graph.StatusRejected,
		Condition: combineConds(w.conds),
	}
}

// Applicable reports whether an action's preconditions are satisfiable
// on a snapshot, i.e. not definitively false. Parameter-dependent
// preconditions are satisfiable when any declared choice satisfies
// them.
func (e *Engine) Applicable(snap state.Snapshot, act *action.Action) (bool, error) {
	bindings := defaultBindings(act)
	pre := action.And{All: act.Preconditions}
	if len(act.Parameters) == 0 {
		truth, err := e.ev.Eval(pre, snap, bindings)
		if err != nil {
			return false, err
		}
		return truth != False, nil
	}
	for _, combo := range parameterCombos(act.Parameters) {
		truth, err := e.ev.Eval(pre, snap, combo)
		if err != nil {
			return false, err
		}
		if truth != False {
			return true, nil
		}
	}
	return false, nil
}

func defaultBindings(act *action.Action) map[string]string {
	m := make(map[string]string, len(act.Parameters))
	for _, p := range act.Parameters {
		if len(p.Choices) > 0 {
			m[p.Name] = p.Choices[0]
		}
	}
	return m
}

// parameterCombos enumerates every combination of parameter choices.
func parameterCombos(params []action.Parameter) []map[string]string {
	combos := []map[string]string{{}}
	for _, p := range params {
		choices := p.Choices
		if len(choices) == 0 {
			continue
		}
		var next []map[string]string
		for _, base := range combos {
			for _, c := range choices {
				m := make(map[string]string, len(base)+1)
				for k, v := range base {
					m[k] = v
				}
				m[p.Name] = c
				next = append(next, m)
			}
		}
		combos = next
	}
	return combos
}

// Evaluator exposes the engine's condition evaluator.
func (e *Engine) Evaluator() *Evaluator {
	return e.ev
}
