package statemachine

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Lifecycle drives the run machine for a single simulation run.
type Lifecycle struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewLifecycle builds the run machine and starts it in the pending phase.
func NewLifecycle(runID string) (*Lifecycle, error) {
	machine, err := NewRunMachine()
	if err != nil {
		return nil, fmt.Errorf("statemachine: build run machine: %w", err)
	}

	ctx := &Context{RunID: runID, Phase: PhasePending}
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	interp.Start()

	return &Lifecycle{interp: interp, ctx: ctx}, nil
}

// Phase returns the current lifecycle phase.
func (l *Lifecycle) Phase() Phase {
	return Phase(l.interp.State().Value)
}

// IsTerminal reports whether the run reached a final phase.
func (l *Lifecycle) IsTerminal() bool {
	return l.interp.Done()
}

// Expand moves the run into the expanding phase.
func (l *Lifecycle) Expand() error {
	return l.advance(PhaseExpanding, "")
}

// Persist moves the run into the persisting phase.
func (l *Lifecycle) Persist() error {
	return l.advance(PhasePersisting, "")
}

// Complete moves the run into the completed phase.
func (l *Lifecycle) Complete() error {
	return l.advance(PhaseCompleted, "")
}

// Fail moves the run into the failed phase with a reason. Failing an
// already terminal run is a no-op.
func (l *Lifecycle) Fail(reason string) {
	if l.interp.Done() {
		return
	}
	_ = l.advance(PhaseFailed, reason)
}

// Stop halts the underlying interpreter.
func (l *Lifecycle) Stop() {
	l.interp.Stop()
}

func (l *Lifecycle) advance(to Phase, reason string) error {
	if l.interp.Done() {
		return fmt.Errorf("statemachine: run %s already terminal in phase %s", l.ctx.RunID, l.Phase())
	}

	l.interp.Send(statekit.Event{
		Type:    eventForPhase(to),
		Payload: transitionPayload{To: to, Reason: reason},
	})

	if got := l.Phase(); got != to {
		return fmt.Errorf("statemachine: run %s stuck in phase %s, wanted %s", l.ctx.RunID, got, to)
	}
	return nil
}
