package statemachine

import (
	"github.com/felixgeelhaar/statekit"
)

// Actions receive a pointer to the machine context. The context type is
// *Context, so actions receive **Context.

// countRevision advances the revision counter when the critic requests one.
func countRevision(ctx **Context, _ statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).Revision++
}

// recordRationale stores the critic's feedback from the event payload.
func recordRationale(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	if payload, ok := event.Payload.(ReviewPayload); ok {
		(*ctx).LastRationale = payload.Rationale
	}
}

// recordAbort stores why the cycle was cut short.
func recordAbort(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	if payload, ok := event.Payload.(AbortPayload); ok {
		(*ctx).AbortReason = payload.Reason
	}
}
