package agent

// TokenSet holds the protocol tokens a role is recognized to emit. The
// engine detects these by substring match; it never interprets any other
// part of a turn's natural-language content.
type TokenSet struct {
	// Stop ends a sub-chat when emitted by its designated closer.
	Stop string `json:"stop,omitempty" yaml:"stop,omitempty"`

	// FinalCompletion ends the entire run successfully when emitted by the
	// planning lead. Takes precedence over Stop when both appear in the
	// same turn.
	FinalCompletion string `json:"final_completion,omitempty" yaml:"final_completion,omitempty"`

	// Approve and Revise are the critic's verdict tokens.
	Approve string `json:"approve,omitempty" yaml:"approve,omitempty"`
	Revise  string `json:"revise,omitempty" yaml:"revise,omitempty"`
}

// Default protocol tokens. Runs may override any of these per role via
// configuration; the engine only ever sees them through a RoleConfig.
const (
	DefaultPlanningStopToken    = "PLANNING_COMPLETE"
	DefaultFinalCompletionToken = "ENTIRE_TASK_DONE"
	DefaultEngineerDoneToken    = "ENGINEER_DONE"
	DefaultCriticStopToken      = "TERMINATE_CRITIC"
	DefaultApproveToken         = "APPROVE_ENGINEER"
	DefaultReviseToken          = "REVISE_ENGINEER"
)

// All returns the non-empty tokens in the set, in a stable order.
func (ts TokenSet) All() []string {
	var tokens []string
	for _, tok := range []string{ts.Stop, ts.FinalCompletion, ts.Approve, ts.Revise} {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
