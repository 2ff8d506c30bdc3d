package transition

import (
	"fmt"

	"github.com/NickG503/World-Simulator/domain/constraint"
	"github.com/NickG503/World-Simulator/domain/state"
)

// Checker enforces dependency rules on post-transition snapshots.
type Checker struct {
	ev   *Evaluator
	deps []constraint.Dependency
}

// NewChecker creates a checker over the given dependencies.
func NewChecker(ev *Evaluator, deps []constraint.Dependency) *Checker {
	return &Checker{ev: ev, deps: deps}
}

// Enforce checks every dependency against a snapshot.
//
// A definitively triggered dependency with a definitively violated
// requirement is reported as a violation. A triggered dependency whose
// requirement is merely undecided is enforced by narrowing the
// requirement's attributes to their satisfying candidates; when the
// narrowing is ambiguous the check is deferred instead. Dependencies
// whose trigger is undecided are always deferred, never dropped.
func (ch *Checker) Enforce(snap state.Snapshot) (state.Snapshot, []state.Change, []constraint.Violation, []constraint.Deferred, error) {
	var (
		changes    []state.Change
		violations []constraint.Violation
		deferred   []constraint.Deferred
	)

	for _, dep := range ch.deps {
		whenTruth, err := ch.ev.Eval(dep.When, snap, nil)
		if err != nil {
			return state.Snapshot{}, nil, nil, nil, fmt.Errorf("dependency %s: %w", dep.Name, err)
		}
		switch whenTruth {
		case False:
			continue
		case Unknown:
			deferred = append(deferred, constraint.Deferred{
				Dependency: dep.Name,
				Reason:     "condition undecided",
			})
			continue
		}

		reqTruth, succ, _, err := ch.ev.split(dep.Requires, snap, nil)
		if err != nil {
			return state.Snapshot{}, nil, nil, nil, fmt.Errorf("dependency %s: %w", dep.Name, err)
		}
		switch reqTruth {
		case True:
			continue
		case False:
			violations = append(violations, constraint.Violation{
				Dependency: dep.Name,
				Detail:     "requirement cannot hold",
			})
		case Unknown:
			if len(succ) != 1 {
				deferred = append(deferred, constraint.Deferred{
					Dependency: dep.Name,
					Reason:     "requirement narrowing ambiguous",
				})
				continue
			}
			narrowed, cs, feasible, err := ch.ev.Narrow(snap, succ[0])
			if err != nil {
				return state.Snapshot{}, nil, nil, nil, fmt.Errorf("dependency %s: %w", dep.Name, err)
			}
			if !feasible {
				violations = append(violations, constraint.Violation{
					Dependency: dep.Name,
					Detail:     "requirement cannot hold",
				})
				continue
			}
			for i := range cs {
				cs[i].Kind = state.ChangeConstraint
			}
			changes = append(changes, cs...)
			snap = narrowed
		}
	}

	return snap, changes, violations, deferred, nil
}
