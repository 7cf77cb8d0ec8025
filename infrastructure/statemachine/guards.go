package statemachine

import (
	"github.com/felixgeelhaar/statekit"
)

// guardRevisionsRemaining blocks the REVISE transition once the revision
// budget is spent. The interpreter wrapper surfaces the refusal as an error
// so the caller can force-finish the cycle.
func guardRevisionsRemaining(ctx *Context, _ statekit.Event) bool {
	if ctx == nil {
		return false
	}
	return ctx.Revision < ctx.MaxRevisions
}
