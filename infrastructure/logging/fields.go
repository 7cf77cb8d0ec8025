package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/protocol"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for orchestration logging.

// RunID adds a run ID field.
func RunID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("run_id", id)
	}
}

// Iteration adds the outer-loop iteration number.
func Iteration(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("iteration", n)
	}
}

// Team adds the team a sub-chat belongs to.
func Team(t agent.Team) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("team", string(t))
	}
}

// Role adds the speaking role's name.
func Role(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("role", name)
	}
}

// Turn adds the turn index within a sub-chat.
func Turn(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("turn", n)
	}
}

// ToolName adds a tool name field.
func ToolName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("tool", name)
	}
}

// VerdictField adds the critic's verdict.
func VerdictField(v protocol.Verdict) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("verdict", string(v))
	}
}

// Revision adds the revision counter within an engineer-critic cycle.
func Revision(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("revision", n)
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

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

// Int adds an int field with custom key.
func Int(key string, value int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, value)
	}
}
