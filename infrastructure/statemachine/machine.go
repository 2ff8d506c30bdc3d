// Package statemachine provides the statekit lifecycle for simulation runs.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/NickG503/World-Simulator/infrastructure/logging"
)

// Phase is a stage in a simulation run's lifecycle.
type Phase string

const (
	PhasePending    Phase = "pending"
	PhaseExpanding  Phase = "expanding"
	PhasePersisting Phase = "persisting"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

// Context carries run identity and lifecycle position through the machine.
type Context struct {
	RunID  string
	Phase  Phase
	Reason string
}

// State IDs as StateID type for statekit.
const (
	statePending    statekit.StateID = statekit.StateID(PhasePending)
	stateExpanding  statekit.StateID = statekit.StateID(PhaseExpanding)
	statePersisting statekit.StateID = statekit.StateID(PhasePersisting)
	stateCompleted  statekit.StateID = statekit.StateID(PhaseCompleted)
	stateFailed     statekit.StateID = statekit.StateID(PhaseFailed)
)

// transitionPayload carries the target phase and an optional reason.
type transitionPayload struct {
	To     Phase
	Reason string
}

// NewRunMachine creates the canonical run lifecycle statechart. A run is
// pending until expansion starts, persists its record once expansion
// finishes, and ends completed or failed.
func NewRunMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("run").
		WithInitial(statePending).
		WithContext(&Context{}).
		WithAction("recordPhase", recordPhase).
		WithGuard("hasRunID", guardHasRunID).
		State(statePending).
			On("EXPAND").Target(stateExpanding).Guard("hasRunID").Do("recordPhase").
			On("FAIL").Target(stateFailed).Do("recordPhase").
			Done().
		State(stateExpanding).
			On("PERSIST").Target(statePersisting).Do("recordPhase").
			On("COMPLETE").Target(stateCompleted).Do("recordPhase").
			On("FAIL").Target(stateFailed).Do("recordPhase").
			Done().
		State(statePersisting).
			On("COMPLETE").Target(stateCompleted).Do("recordPhase").
			On("FAIL").Target(stateFailed).Do("recordPhase").
			Done().
		State(stateCompleted).
			Final().
			Done().
		State(stateFailed).
			Final().
			Done().
		Build()
}

// recordPhase updates the context and logs the phase change.
func recordPhase(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	c := *ctx

	payload, ok := event.Payload.(transitionPayload)
	if !ok {
		payload.To = phaseFromEventType(event.Type)
	}
	if payload.To == "" {
		return
	}
	c.Phase = payload.To
	c.Reason = payload.Reason

	evt := logging.Debug().
		Add(logging.Component("lifecycle")).
		Add(logging.RunID(c.RunID)).
		Add(logging.Phase(string(c.Phase)))
	if payload.Reason != "" {
		evt = evt.Add(logging.Reason(payload.Reason))
	}
	evt.Msg("run phase changed")
}

// guardHasRunID refuses to start expanding an anonymous run.
func guardHasRunID(ctx *Context, _ statekit.Event) bool {
	return ctx != nil && ctx.RunID != ""
}

// eventForPhase returns the event type that targets a phase.
func eventForPhase(to Phase) statekit.EventType {
	switch to {
	case PhaseExpanding:
		return "EXPAND"
	case PhasePersisting:
		return "PERSIST"
	case PhaseCompleted:
		return "COMPLETE"
	case PhaseFailed:
		return "FAIL"
	default:
		return statekit.EventType(to)
	}
}

// phaseFromEventType derives the target phase from an event type.
func phaseFromEventType(eventType statekit.EventType) Phase {
	switch eventType {
	case "EXPAND":
		return PhaseExpanding
	case "PERSIST":
		return PhasePersisting
	case "COMPLETE":
		return PhaseCompleted
	case "FAIL":
		return PhaseFailed
	default:
		return Phase(eventType)
	}
}
