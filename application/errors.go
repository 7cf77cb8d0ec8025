package application

import "errors"

var (
	// ErrGeneratorRequired indicates a service built without a generator.
	ErrGeneratorRequired = errors.New("generator is required")

	// ErrStoreRequired indicates an orchestrator built without a notebook
	// store.
	ErrStoreRequired = errors.New("notebook store is required")

	// ErrNoParticipants indicates a sub-chat with an empty speaking order.
	ErrNoParticipants = errors.New("sub-chat has no participants")

	// ErrCloserNotParticipant indicates a closer role missing from the
	// speaking order.
	ErrCloserNotParticipant = errors.New("closer is not a participant")

	// ErrTurnBudgetExhausted indicates a sub-chat hit its turn cap without
	// the closer signalling a stop. This is a fatal outcome for the phase,
	// distinct from a normal stop.
	ErrTurnBudgetExhausted = errors.New("turn budget exhausted")

	// ErrNoToolInvoker indicates a turn requested tool calls but the
	// sub-chat has no gateway wired.
	ErrNoToolInvoker = errors.New("no tool invoker configured")

	// ErrStoreFailure wraps a notebook append failure. Notebook integrity is
	// load-bearing for planning, so this aborts the run.
	ErrStoreFailure = errors.New("notebook store failure")
)
