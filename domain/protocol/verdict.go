// Package protocol isolates the detection of free-text control tokens. All
// termination and approval decisions in the engine flow through the two
// extraction functions here; no other component matches token strings.
package protocol

import (
	"strings"

	"github.com/helixforge/labrun/domain/agent"
)

// Verdict is the critic's structural judgment of an implementation.
type Verdict string

const (
	VerdictPending  Verdict = "pending"
	VerdictApproved Verdict = "approved"
	VerdictRevise   Verdict = "revise"
)

// SyntheticRationale is recorded when a critic turn carries no recognized
// verdict token and the safety default applies.
const SyntheticRationale = "no explicit verdict"

// Review is an extracted verdict plus the rationale text that carried it.
type Review struct {
	Verdict   Verdict
	Rationale string
}

// ExtractVerdict classifies a critic turn's content against the role's
// recognized tokens. The grammar is an ordered rule list, first match wins:
//
//  1. revise token present        -> REVISE
//  2. approve token present       -> APPROVED
//  3. no recognized token present -> REVISE with a synthetic rationale
//
// Checking revise before approve means a turn containing both tokens is
// classified REVISE, and a turn containing neither is never treated as a
// silent approval.
func ExtractVerdict(content string, tokens agent.TokenSet) Review {
	rationale := stripTokens(content, tokens)

	switch {
	case tokens.Revise != "" && strings.Contains(content, tokens.Revise):
		return Review{Verdict: VerdictRevise, Rationale: rationale}
	case tokens.Approve != "" && strings.Contains(content, tokens.Approve):
		return Review{Verdict: VerdictApproved, Rationale: rationale}
	default:
		r := rationale
		if r == "" {
			r = SyntheticRationale
		} else {
			r = SyntheticRationale + ": " + r
		}
		return Review{Verdict: VerdictRevise, Rationale: r}
	}
}

// Signal is a termination marker extracted from a closer's turn.
type Signal string

const (
	// SignalNone means the turn carries no recognized termination token.
	SignalNone Signal = "none"

	// SignalHandoff means the closer ended the discussion normally; control
	// passes to the next phase.
	SignalHandoff Signal = "handoff"

	// SignalFinal means the closer declared the entire run complete.
	SignalFinal Signal = "final"
)

// ExtractSignal classifies a closer turn's content. The final-completion
// token takes precedence over the plain stop token when both appear in the
// same turn.
func ExtractSignal(content string, tokens agent.TokenSet) Signal {
	switch {
	case tokens.FinalCompletion != "" && strings.Contains(content, tokens.FinalCompletion):
		return SignalFinal
	case tokens.Stop != "" && strings.Contains(content, tokens.Stop):
		return SignalHandoff
	default:
		return SignalNone
	}
}

func stripTokens(content string, tokens agent.TokenSet) string {
	for _, tok := range tokens.All() {
		content = strings.ReplaceAll(content, tok, "")
	}
	return strings.TrimSpace(content)
}
