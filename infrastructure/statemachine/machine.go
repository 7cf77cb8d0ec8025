// Package statemachine provides the statekit statechart backing the
// engineer-critic revision cycle.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"
)

// State names for the revision cycle.
type State string

const (
	StateImplementing      State = "IMPLEMENTING"
	StateAwaitingReview    State = "AWAITING_REVIEW"
	StateApproved          State = "APPROVED"
	StateRevisionRequested State = "REVISION_REQUESTED"
	StateAborted           State = "ABORTED"
)

// Terminal reports whether the state ends the cycle.
func (s State) Terminal() bool {
	return s == StateApproved || s == StateAborted
}

// Context carries cycle state through the machine.
type Context struct {
	RunID string

	// Revision counts completed revision rounds. MaxRevisions bounds how
	// many the critic may request before the cycle is force-finished.
	Revision     int
	MaxRevisions int

	// LastRationale is the critic's most recent feedback.
	LastRationale string

	// AbortReason is set when the cycle ends in ABORTED.
	AbortReason string
}

// State IDs as StateID type for statekit.
const (
	stateImplementing      statekit.StateID = statekit.StateID(StateImplementing)
	stateAwaitingReview    statekit.StateID = statekit.StateID(StateAwaitingReview)
	stateApproved          statekit.StateID = statekit.StateID(StateApproved)
	stateRevisionRequested statekit.StateID = statekit.StateID(StateRevisionRequested)
	stateAborted           statekit.StateID = statekit.StateID(StateAborted)
)

// ReviewPayload carries the critic's feedback with a verdict event.
type ReviewPayload struct {
	Rationale string
}

// AbortPayload carries the reason a cycle was cut short.
type AbortPayload struct {
	Reason string
}

// NewRevisionMachine creates the canonical revision-cycle statechart:
//
//	IMPLEMENTING -> AWAITING_REVIEW -> APPROVED
//	                      |
//	                      v
//	            REVISION_REQUESTED -> IMPLEMENTING
//
// The REVISE transition is guarded by the revision budget; ABORT is reachable
// from every non-terminal state.
func NewRevisionMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("revision").
		WithInitial(stateImplementing).
		WithContext(&Context{}).
		WithAction("countRevision", countRevision).
		WithAction("recordRationale", recordRationale).
		WithAction("recordAbort", recordAbort).
		WithGuard("revisionsRemaining", guardRevisionsRemaining).
		State(stateImplementing).
			On("SUBMIT").Target(stateAwaitingReview).
			On("ABORT").Target(stateAborted).Do("recordAbort").
			Done().
		State(stateAwaitingReview).
			On("APPROVE").Target(stateApproved).Do("recordRationale").
			On("REVISE").Target(stateRevisionRequested).Guard("revisionsRemaining").Do("countRevision").Do("recordRationale").
			On("ABORT").Target(stateAborted).Do("recordAbort").
			Done().
		State(stateRevisionRequested).
			On("RESUME").Target(stateImplementing).
			On("ABORT").Target(stateAborted).Do("recordAbort").
			Done().
		State(stateApproved).
			Final().
			Done().
		State(stateAborted).
			Final().
			Done().
		Build()
}
