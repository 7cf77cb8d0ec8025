package application

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/chat"
	"github.com/helixforge/labrun/domain/protocol"
	"github.com/helixforge/labrun/infrastructure/logging"
	"github.com/helixforge/labrun/infrastructure/statemachine"
)

// RevisionConfig describes one engineer-critic cycle.
type RevisionConfig struct {
	// RunID ties cycle logs and state to the owning run.
	RunID string

	// Engineer implements; its Stop token marks a submission. Critic reviews;
	// its Approve and Revise tokens carry the verdict.
	Engineer agent.RoleConfig
	Critic   agent.RoleConfig

	// MaxRevisions bounds how many times the critic may send the engineer
	// back. Zero means statemachine.DefaultMaxRevisions.
	MaxRevisions int

	// MaxTurns caps total turns (engineer and critic) across the cycle.
	MaxTurns int

	// Generator produces turns; Tools executes their tool calls.
	Generator agent.Generator
	Tools     ToolInvoker

	// Tracer records spans around cycle phases. Optional.
	Tracer trace.Tracer
}

// RevisionCycle drives an implement, review, revise loop to a terminal
// verdict. The statechart in infrastructure/statemachine owns the legal
// transitions; this service owns turn generation and verdict extraction.
type RevisionCycle struct {
	runID        string
	engineer     agent.RoleConfig
	critic       agent.RoleConfig
	maxRevisions int
	maxTurns     int
	generator    agent.Generator
	tools        ToolInvoker
	tracer       trace.Tracer
}

// TransitionSummary is a notebook-eligible record of one verdict transition.
// The orchestrator decides whether to persist it.
type TransitionSummary struct {
	State     statemachine.State
	Verdict   protocol.Verdict
	Rationale string
}

// RevisionOutcome is the terminal result of a cycle.
type RevisionOutcome struct {
	// State is APPROVED, or ABORTED when a budget ran out.
	State statemachine.State

	// Revisions counts completed revision rounds.
	Revisions int

	// Verdict and Rationale come from the critic's last review.
	Verdict   protocol.Verdict
	Rationale string

	// Output is the engineer's final submission with tokens stripped.
	Output string

	// Transcript holds every turn of the cycle in order.
	Transcript chat.Transcript

	// Summaries records each verdict transition for notebook persistence.
	Summaries []TransitionSummary
}

// NewRevisionCycle validates the configuration and builds the service.
func NewRevisionCycle(config RevisionConfig) (*RevisionCycle, error) {
	if config.Generator == nil {
		return nil, ErrGeneratorRequired
	}
	if config.Engineer.Name == "" || config.Critic.Name == "" {
		return nil, ErrNoParticipants
	}

	maxRevisions := config.MaxRevisions
	if maxRevisions <= 0 {
		maxRevisions = statemachine.DefaultMaxRevisions
	}
	maxTurns := config.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 75
	}

	tracer := config.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("labrun")
	}

	return &RevisionCycle{
		runID:        config.RunID,
		engineer:     config.Engineer,
		critic:       config.Critic,
		maxRevisions: maxRevisions,
		maxTurns:     maxTurns,
		generator:    config.Generator,
		tools:        config.Tools,
		tracer:       tracer,
	}, nil
}

// Run executes the cycle for the given task. A revision budget exhaustion
// ends the cycle in ABORTED with the engineer's latest output preserved; that
// is a reported outcome, not an error. Turn budget exhaustion is fatal and
// returns ErrTurnBudgetExhausted alongside the partial outcome.
func (rc *RevisionCycle) Run(ctx context.Context, task string) (RevisionOutcome, error) {
	ctx, span := rc.tracer.Start(ctx, "revision.run", trace.WithAttributes(
		attribute.String("engineer", rc.engineer.Name),
		attribute.String("critic", rc.critic.Name),
	))
	defer span.End()

	cycle, err := statemachine.NewCycle(rc.runID, rc.maxRevisions)
	if err != nil {
		return RevisionOutcome{}, err
	}

	outcome := RevisionOutcome{Transcript: chat.NewTranscript()}
	turns := 0

	for !cycle.Done() {
		// Engineer works until it emits its completion token.
		submission, fatal := rc.implementPhase(ctx, cycle, task, &outcome, &turns)
		if fatal != nil {
			return rc.finish(cycle, outcome), fatal
		}
		if cycle.Done() {
			break
		}
		outcome.Output = submission

		if err := cycle.Submit(); err != nil {
			return rc.finish(cycle, outcome), err
		}

		// Critic renders exactly one verdict per review.
		if fatal := rc.reviewPhase(ctx, cycle, task, &outcome, &turns); fatal != nil {
			return rc.finish(cycle, outcome), fatal
		}
	}

	out := rc.finish(cycle, outcome)
	span.SetAttributes(
		attribute.String("state", string(out.State)),
		attribute.Int("revisions", out.Revisions),
	)
	return out, nil
}

// implementPhase runs the engineer's micro-loop of turns until the completion
// token appears. Returns the stripped submission text.
func (rc *RevisionCycle) implementPhase(ctx context.Context, cycle *statemachine.Cycle, task string, outcome *RevisionOutcome, turns *int) (string, error) {
	for {
		if *turns >= rc.maxTurns {
			rc.abort(cycle, outcome, "turn budget exhausted during implementation")
			return "", fmt.Errorf("%w: %d turns", ErrTurnBudgetExhausted, rc.maxTurns)
		}

		turn, err := executeTurn(ctx, rc.tracer, rc.generator, rc.tools, rc.engineer, task, outcome.Transcript)
		if err != nil {
			rc.abort(cycle, outcome, err.Error())
			return "", err
		}
		outcome.Transcript = outcome.Transcript.Append(turn)
		*turns++

		if turn.Contains(rc.engineer.Tokens.Stop) {
			return turn.StripTokens(rc.engineer.Tokens.All()...), nil
		}
	}
}

// reviewPhase takes one critic turn, extracts the verdict, and drives the
// statechart accordingly.
func (rc *RevisionCycle) reviewPhase(ctx context.Context, cycle *statemachine.Cycle, task string, outcome *RevisionOutcome, turns *int) error {
	if *turns >= rc.maxTurns {
		rc.abort(cycle, outcome, "turn budget exhausted awaiting review")
		return fmt.Errorf("%w: %d turns", ErrTurnBudgetExhausted, rc.maxTurns)
	}

	turn, err := executeTurn(ctx, rc.tracer, rc.generator, rc.tools, rc.critic, task, outcome.Transcript)
	if err != nil {
		rc.abort(cycle, outcome, err.Error())
		return err
	}
	outcome.Transcript = outcome.Transcript.Append(turn)
	*turns++

	review := protocol.ExtractVerdict(turn.Content, rc.critic.Tokens)
	outcome.Verdict = review.Verdict
	outcome.Rationale = review.Rationale

	logging.Info().
		Add(logging.RunID(rc.runID)).
		Add(logging.Role(rc.critic.Name)).
		Add(logging.VerdictField(review.Verdict)).
		Add(logging.Revision(cycle.Revision())).
		Msg("verdict extracted")

	switch review.Verdict {
	case protocol.VerdictApproved:
		if err := cycle.Approve(review.Rationale); err != nil {
			return err
		}
		outcome.Summaries = append(outcome.Summaries, TransitionSummary{
			State:     statemachine.StateApproved,
			Verdict:   review.Verdict,
			Rationale: review.Rationale,
		})
		return nil

	default:
		err := cycle.RequestRevision(review.Rationale)
		if errors.Is(err, statemachine.ErrRevisionBudgetExhausted) {
			// Force-finish with the engineer's latest output.
			rc.abort(cycle, outcome, "revision budget exhausted")
			return nil
		}
		if err != nil {
			return err
		}
		outcome.Summaries = append(outcome.Summaries, TransitionSummary{
			State:     statemachine.StateRevisionRequested,
			Verdict:   review.Verdict,
			Rationale: review.Rationale,
		})
		return cycle.Resume()
	}
}

func (rc *RevisionCycle) abort(cycle *statemachine.Cycle, outcome *RevisionOutcome, reason string) {
	if cycle.Done() {
		return
	}
	if err := cycle.Abort(reason); err != nil {
		logging.Error().
			Add(logging.RunID(rc.runID)).
			Add(logging.ErrorField(err)).
			Msg("cycle abort rejected")
		return
	}
	outcome.Summaries = append(outcome.Summaries, TransitionSummary{
		State:     statemachine.StateAborted,
		Verdict:   outcome.Verdict,
		Rationale: reason,
	})
}

func (rc *RevisionCycle) finish(cycle *statemachine.Cycle, outcome RevisionOutcome) RevisionOutcome {
	outcome.State = cycle.State()
	outcome.Revisions = cycle.Revision()
	return outcome
}
