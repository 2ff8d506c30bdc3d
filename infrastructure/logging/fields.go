package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/NickG503/World-Simulator/domain/graph"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for simulator logging.

// RunID adds a run id field.
func RunID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("run_id", id)
	}
}

// ObjectType adds an object type field.
func ObjectType(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("object_type", name)
	}
}

// Action adds an action name field.
func Action(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("action", name)
	}
}

// NodeID adds a node id field.
func NodeID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("node_id", id)
	}
}

// NodeStatus adds a node status field.
func NodeStatus(s graph.Status) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("status", string(s))
	}
}

// Layer adds a one-based layer index field.
func Layer(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("layer", n)
	}
}

// Nodes adds a node count field.
func Nodes(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("nodes", n)
	}
}

// Branches adds a branch count field.
func Branches(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("branches", n)
	}
}

// Frontier adds a frontier size field.
func Frontier(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("frontier", n)
	}
}

// Backend adds a storage backend field.
func Backend(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("backend", name)
	}
}

// Path adds a filesystem path field.
func Path(p string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("path", p)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Reason adds a reason field.
func Reason(reason string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reason", reason)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Phase adds a lifecycle phase field.
func Phase(phase string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("phase", phase)
	}
}

// Str adds a string field with a custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
