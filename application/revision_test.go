package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/helixforge/labrun/application"
	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/protocol"
	"github.com/helixforge/labrun/infrastructure/generator"
	"github.com/helixforge/labrun/infrastructure/statemachine"
)

func implementationRoles() (engineer, critic agent.RoleConfig) {
	engineer = agent.RoleConfig{
		Name:   "engineer",
		Team:   agent.TeamImplementation,
		Tokens: agent.TokenSet{Stop: agent.DefaultEngineerDoneToken},
	}
	critic = agent.RoleConfig{
		Name: "critic",
		Team: agent.TeamImplementation,
		Tokens: agent.TokenSet{
			Stop:    agent.DefaultCriticStopToken,
			Approve: agent.DefaultApproveToken,
			Revise:  agent.DefaultReviseToken,
		},
	}
	return engineer, critic
}

func newCycle(t *testing.T, gen agent.Generator, maxRevisions, maxTurns int) *application.RevisionCycle {
	t.Helper()
	engineer, critic := implementationRoles()
	rc, err := application.NewRevisionCycle(application.RevisionConfig{
		RunID:        "test-run",
		Engineer:     engineer,
		Critic:       critic,
		MaxRevisions: maxRevisions,
		MaxTurns:     maxTurns,
		Generator:    gen,
	})
	if err != nil {
		t.Fatalf("NewRevisionCycle() error = %v", err)
	}
	return rc
}

func TestRevisionCycle_ApprovedFirstTry(t *testing.T) {
	t.Parallel()

	gen := generator.NewScripted().
		Say("engineer",
			"Loading the dataset and fitting the baseline.",
			"Baseline trained, MAE 3.1 years. ENGINEER_DONE").
		Say("critic", "Methodology is sound and results are reported. APPROVE_ENGINEER")

	rc := newCycle(t, gen, 3, 20)
	outcome, err := rc.Run(context.Background(), "train a baseline model")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if outcome.State != statemachine.StateApproved {
		t.Errorf("State = %s, want APPROVED", outcome.State)
	}
	if outcome.Revisions != 0 {
		t.Errorf("Revisions = %d, want 0", outcome.Revisions)
	}
	if outcome.Verdict != protocol.VerdictApproved {
		t.Errorf("Verdict = %s, want approved", outcome.Verdict)
	}
	if strings.Contains(outcome.Output, "ENGINEER_DONE") {
		t.Errorf("completion token not stripped from output %q", outcome.Output)
	}
	if got := outcome.Transcript.Len(); got != 3 {
		t.Errorf("transcript length = %d, want 3", got)
	}
	if len(outcome.Summaries) != 1 {
		t.Errorf("summaries = %d, want 1", len(outcome.Summaries))
	}
}

func TestRevisionCycle_ReviseThenApprove(t *testing.T) {
	t.Parallel()

	gen := generator.NewScripted().
		Say("engineer",
			"First attempt. ENGINEER_DONE",
			"Added cross-validation. ENGINEER_DONE",
			"Fixed the leakage. ENGINEER_DONE").
		Say("critic",
			"No validation split. REVISE_ENGINEER",
			"Target leaks into features. REVISE_ENGINEER",
			"All concerns addressed. APPROVE_ENGINEER")

	rc := newCycle(t, gen, 3, 30)
	outcome, err := rc.Run(context.Background(), "task")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if outcome.State != statemachine.StateApproved {
		t.Errorf("State = %s, want APPROVED", outcome.State)
	}
	if outcome.Revisions != 2 {
		t.Errorf("Revisions = %d, want 2", outcome.Revisions)
	}
	if len(outcome.Summaries) != 3 {
		t.Errorf("summaries = %d, want 3", len(outcome.Summaries))
	}
	if outcome.Summaries[0].Verdict != protocol.VerdictRevise {
		t.Errorf("first summary verdict = %s", outcome.Summaries[0].Verdict)
	}
	if !strings.Contains(outcome.Output, "Fixed the leakage.") {
		t.Errorf("Output = %q, want the final submission", outcome.Output)
	}
}

func TestRevisionCycle_RevisionBudgetAborts(t *testing.T) {
	t.Parallel()

	gen := generator.NewScripted().
		Say("engineer",
			"Attempt one. ENGINEER_DONE",
			"Attempt two. ENGINEER_DONE").
		Say("critic",
			"Not good enough. REVISE_ENGINEER",
			"Still not good enough. REVISE_ENGINEER")

	rc := newCycle(t, gen, 1, 30)
	outcome, err := rc.Run(context.Background(), "task")
	if err != nil {
		t.Fatalf("Run() error = %v (budget exhaustion is an outcome, not an error)", err)
	}

	if outcome.State != statemachine.StateAborted {
		t.Errorf("State = %s, want ABORTED", outcome.State)
	}
	if outcome.Revisions != 1 {
		t.Errorf("Revisions = %d, want 1", outcome.Revisions)
	}
	// The engineer's latest output survives the forced finish.
	if !strings.Contains(outcome.Output, "Attempt two.") {
		t.Errorf("Output = %q, want latest submission preserved", outcome.Output)
	}
	last := outcome.Summaries[len(outcome.Summaries)-1]
	if last.State != statemachine.StateAborted {
		t.Errorf("last summary state = %s, want ABORTED", last.State)
	}
}

func TestRevisionCycle_MissingVerdictTreatedAsRevise(t *testing.T) {
	t.Parallel()

	gen := generator.NewScripted().
		Say("engineer",
			"Implemented. ENGINEER_DONE",
			"Clarified the report. ENGINEER_DONE").
		Say("critic",
			"Looks fine.",
			"Explicitly approved now. APPROVE_ENGINEER")

	rc := newCycle(t, gen, 3, 30)
	outcome, err := rc.Run(context.Background(), "task")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if outcome.State != statemachine.StateApproved {
		t.Errorf("State = %s, want APPROVED", outcome.State)
	}
	if outcome.Revisions != 1 {
		t.Errorf("Revisions = %d, want 1 (missing verdict must demand revision)", outcome.Revisions)
	}
	if !strings.Contains(outcome.Summaries[0].Rationale, protocol.SyntheticRationale) {
		t.Errorf("first rationale = %q, want synthetic marker", outcome.Summaries[0].Rationale)
	}
}

func TestRevisionCycle_TurnBudgetFatal(t *testing.T) {
	t.Parallel()

	gen := generator.NewScripted().
		Say("engineer", "still working", "still working", "still working", "still working")

	rc := newCycle(t, gen, 3, 3)
	outcome, err := rc.Run(context.Background(), "task")
	if !errors.Is(err, application.ErrTurnBudgetExhausted) {
		t.Fatalf("Run() error = %v, want ErrTurnBudgetExhausted", err)
	}
	if outcome.State != statemachine.StateAborted {
		t.Errorf("State = %s, want ABORTED", outcome.State)
	}
}
