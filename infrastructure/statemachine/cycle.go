package statemachine

import (
	"errors"

	"github.com/felixgeelhaar/statekit"
)

// ErrRevisionBudgetExhausted is returned when the critic requests a revision
// past the configured budget.
var ErrRevisionBudgetExhausted = errors.New("revision budget exhausted")

// DefaultMaxRevisions bounds how many times the critic may send the engineer
// back before the cycle is force-finished with the latest output.
const DefaultMaxRevisions = 3

// Cycle wraps the statekit interpreter with revision-cycle semantics.
type Cycle struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewCycle creates and starts an interpreter for one engineer-critic cycle.
func NewCycle(runID string, maxRevisions int) (*Cycle, error) {
	if maxRevisions <= 0 {
		maxRevisions = DefaultMaxRevisions
	}

	machine, err := NewRevisionMachine()
	if err != nil {
		return nil, err
	}

	ctx := &Context{RunID: runID, MaxRevisions: maxRevisions}
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	interp.Start()

	return &Cycle{interp: interp, ctx: ctx}, nil
}

// State returns the current cycle state.
func (c *Cycle) State() State {
	return State(c.interp.State().Value)
}

// Revision returns how many revision rounds have completed.
func (c *Cycle) Revision() int {
	return c.ctx.Revision
}

// LastRationale returns the critic's most recent feedback.
func (c *Cycle) LastRationale() string {
	return c.ctx.LastRationale
}

// AbortReason returns why the cycle ended, when it ended in ABORTED.
func (c *Cycle) AbortReason() string {
	return c.ctx.AbortReason
}

// Done reports whether the cycle reached a terminal state.
func (c *Cycle) Done() bool {
	return c.interp.Done()
}

// Submit moves the engineer's output to review.
func (c *Cycle) Submit() error {
	return c.send(statekit.Event{Type: "SUBMIT"}, StateAwaitingReview)
}

// Approve ends the cycle successfully with the critic's rationale.
func (c *Cycle) Approve(rationale string) error {
	return c.send(statekit.Event{Type: "APPROVE", Payload: ReviewPayload{Rationale: rationale}}, StateApproved)
}

// RequestRevision sends the engineer back with feedback. Past the revision
// budget it returns ErrRevisionBudgetExhausted and the cycle state is
// unchanged; the caller decides whether to force-finish.
func (c *Cycle) RequestRevision(rationale string) error {
	err := c.send(statekit.Event{Type: "REVISE", Payload: ReviewPayload{Rationale: rationale}}, StateRevisionRequested)
	if err != nil && c.ctx.Revision >= c.ctx.MaxRevisions {
		return ErrRevisionBudgetExhausted
	}
	return err
}

// Resume returns the engineer to work after a revision request.
func (c *Cycle) Resume() error {
	return c.send(statekit.Event{Type: "RESUME"}, StateImplementing)
}

// Abort ends the cycle without approval.
func (c *Cycle) Abort(reason string) error {
	return c.send(statekit.Event{Type: "ABORT", Payload: AbortPayload{Reason: reason}}, StateAborted)
}

// send dispatches the event and verifies the machine actually moved; statekit
// silently ignores events that no transition or guard accepts.
func (c *Cycle) send(event statekit.Event, want State) error {
	c.interp.Send(event)
	if got := c.State(); got != want {
		return &TransitionError{From: got, Event: string(event.Type)}
	}
	return nil
}

// TransitionError reports an event the current state did not accept.
type TransitionError struct {
	From  State
	Event string
}

func (e *TransitionError) Error() string {
	return "event " + e.Event + " not accepted in state " + string(e.From)
}
