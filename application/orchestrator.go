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
	domainconfig "github.com/helixforge/labrun/domain/config"
	"github.com/helixforge/labrun/domain/notebook"
	"github.com/helixforge/labrun/domain/protocol"
	"github.com/helixforge/labrun/domain/run"
	"github.com/helixforge/labrun/infrastructure/logging"
)

// Orchestrator alternates planning and implementation across bounded outer
// iterations, persisting each phase's output to the notebook. The notebook is
// the only state that survives across iterations; planning context is rebuilt
// from it every round.
type Orchestrator struct {
	cfg       *domainconfig.Config
	generator agent.Generator
	tools     ToolInvoker
	store     notebook.Store
	tracer    trace.Tracer
}

// New builds an orchestrator from configuration and options. A generator and
// a notebook store are required.
func New(cfg *domainconfig.Config, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		cfg = domainconfig.Default()
	}
	cfg.ApplyDefaults()

	o := &Orchestrator{cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}

	if o.generator == nil {
		return nil, ErrGeneratorRequired
	}
	if o.store == nil {
		return nil, ErrStoreRequired
	}
	if o.tracer == nil {
		o.tracer = noop.NewTracerProvider().Tracer("labrun")
	}
	return o, nil
}

// Run executes the task until the planning lead declares final completion,
// the iteration budget runs out (status incomplete, not an error), or a fatal
// condition aborts the run.
func (o *Orchestrator) Run(ctx context.Context, task string) (*run.Run, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.run")
	defer span.End()

	r, err := run.New(task, o.cfg.Run.MaxIterations)
	if err != nil {
		return nil, err
	}
	if err := r.Start(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("run_id", r.ID.String()))

	lead, err := o.planningCloser()
	if err != nil {
		return r, o.fail(r, err)
	}

	for {
		if err := r.BeginIteration(); err != nil {
			if errors.Is(err, run.ErrIterationsExhausted) {
				return o.exhaust(ctx, r)
			}
			return r, o.fail(r, err)
		}

		logging.Info().
			Add(logging.RunID(r.ID.String())).
			Add(logging.Iteration(r.Iteration)).
			Msg("iteration started")

		result, err := o.planningPhase(ctx, r)
		if err != nil {
			return r, o.fail(r, err)
		}

		r.RecordPlan(result.Output)
		if err := o.persist(ctx, lead.Name, agent.TeamPlanning, notebook.TypePlan, planBody(result)); err != nil {
			return r, o.fail(r, err)
		}

		if result.Signal == protocol.SignalFinal {
			if err := o.persist(ctx, lead.Name, agent.TeamPlanning, notebook.TypeCompletion,
				"Run declared complete by "+lead.Name+" on iteration "+fmt.Sprint(r.Iteration)+"."); err != nil {
				return r, o.fail(r, err)
			}
			if err := r.Complete(); err != nil {
				return r, err
			}
			return r, nil
		}

		report, err := o.implementationPhase(ctx, r)
		if err != nil {
			return r, o.fail(r, err)
		}
		r.RecordReport(report)
	}
}

// planningPhase runs the planning team's round-robin chat with condensed
// notebook history and the latest implementation report as context.
func (o *Orchestrator) planningPhase(ctx context.Context, r *run.Run) (SubChatResult, error) {
	participants := toRoleConfigs(o.cfg.TeamRoles(agent.TeamPlanning))

	subchat, err := NewSubChat(SubChatConfig{
		Participants: participants,
		Closer:       o.cfg.Teams.Planning.Closer,
		MaxTurns:     o.cfg.Teams.Planning.MaxTurns,
		Generator:    o.generator,
		Tools:        o.tools,
		Tracer:       o.tracer,
	})
	if err != nil {
		return SubChatResult{}, err
	}

	return subchat.Run(ctx, o.planningContext(ctx, r))
}

// planningContext assembles the planning task: the original task, the
// notebook tail, and the most recent implementation report. Raw transcripts
// are never replayed across iterations.
func (o *Orchestrator) planningContext(ctx context.Context, r *run.Run) string {
	task := r.Task

	entries, err := o.store.Read(ctx)
	if err != nil {
		// Surfaced as missing context; the next append will abort the run
		// if the store is actually broken.
		logging.Warn().
			Add(logging.RunID(r.ID.String())).
			Add(logging.ErrorField(err)).
			Msg("notebook read failed, planning without history")
	} else if len(entries) > 0 {
		task += "\n\n## Lab Notebook (most recent entries)\n\n" +
			notebook.RenderTail(entries, o.cfg.Run.NotebookReadLimit)
	}

	if r.LastReport != "" {
		task += "\n\n## Latest Implementation Report\n\n" + r.LastReport
	}
	return task
}

// implementationPhase runs the engineer-critic cycle on the current plan and
// returns the condensed report.
func (o *Orchestrator) implementationPhase(ctx context.Context, r *run.Run) (string, error) {
	engineer, critic, err := o.implementationRoles()
	if err != nil {
		return "", err
	}

	cycle, err := NewRevisionCycle(RevisionConfig{
		RunID:        r.ID.String(),
		Engineer:     engineer,
		Critic:       critic,
		MaxRevisions: o.cfg.Teams.Implementation.MaxRevisions,
		MaxTurns:     o.cfg.Teams.Implementation.MaxTurns,
		Generator:    o.generator,
		Tools:        o.tools,
		Tracer:       o.tracer,
	})
	if err != nil {
		return "", err
	}

	outcome, err := cycle.Run(ctx, o.implementationContext(r))
	if err != nil {
		return "", err
	}

	for _, summary := range outcome.Summaries {
		body := fmt.Sprintf("Revision cycle %s (verdict %s): %s",
			summary.State, summary.Verdict, summary.Rationale)
		if err := o.persist(ctx, critic.Name, agent.TeamImplementation, notebook.TypeNote, body); err != nil {
			return "", err
		}
	}

	report := chat.RenderTurns("Implementation Report",
		outcome.Transcript.Tail(o.cfg.Run.ReportTurns))
	if err := o.persist(ctx, engineer.Name, agent.TeamImplementation, notebook.TypeOutput, report); err != nil {
		return "", err
	}
	return report, nil
}

// implementationContext wraps the plan with workspace instructions for the
// implementation team.
func (o *Orchestrator) implementationContext(r *run.Run) string {
	return r.LastPlan +
		"\n\nWrite all produced files under the " + o.cfg.Run.OutputDir + " directory." +
		"\nRecord important results in the lab notebook as you go."
}

// exhaust finishes a run whose iteration budget ran out. This is a reported
// outcome, not an error.
func (o *Orchestrator) exhaust(ctx context.Context, r *run.Run) (*run.Run, error) {
	body := fmt.Sprintf("Iteration budget of %d exhausted without a final completion signal.", r.MaxIterations)
	if err := o.persist(ctx, "orchestrator", agent.TeamPlanning, notebook.TypeCompletion, body); err != nil {
		return r, o.fail(r, err)
	}
	if err := r.Exhaust(); err != nil {
		return r, err
	}
	logging.Info().
		Add(logging.RunID(r.ID.String())).
		Add(logging.Iteration(r.Iteration)).
		Msg("run incomplete, budget exhausted")
	return r, nil
}

// planBody is what gets persisted for a planning round. A lead replying with
// nothing but its termination token is valid protocol, so the empty text is
// replaced with a record of the signal instead of being rejected downstream.
func planBody(result SubChatResult) string {
	if result.Output != "" {
		return result.Output
	}
	return "Planning round ended with a bare " + string(result.Signal) + " signal and no plan text."
}

// persist appends a notebook entry. Append failures are fatal to the run
// because planning correctness depends on notebook integrity; a malformed
// entry is the orchestrator's own fault and is reported as such.
func (o *Orchestrator) persist(ctx context.Context, source string, team agent.Team, entryType notebook.EntryType, body string) error {
	entry := notebook.NewEntry(source, team, entryType, body)
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("notebook entry from %s: %w", source, err)
	}
	if err := o.store.Append(ctx, entry); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return nil
}

func (o *Orchestrator) fail(r *run.Run, cause error) error {
	logging.Error().
		Add(logging.RunID(r.ID.String())).
		Add(logging.ErrorField(cause)).
		Msg("run failed")
	if err := r.Fail(cause.Error()); err != nil {
		logging.Error().Add(logging.ErrorField(err)).Msg("failing run rejected")
	}
	return cause
}

// planningCloser resolves the planning lead's role config.
func (o *Orchestrator) planningCloser() (agent.RoleConfig, error) {
	spec, ok := o.cfg.Role(o.cfg.Teams.Planning.Closer)
	if !ok {
		return agent.RoleConfig{}, fmt.Errorf("%w: %s", ErrCloserNotParticipant, o.cfg.Teams.Planning.Closer)
	}
	return toRoleConfig(spec), nil
}

// implementationRoles resolves the engineer and critic from configuration.
// The critic is named explicitly; the engineer is the first implementation
// role that is not the critic.
func (o *Orchestrator) implementationRoles() (engineer, critic agent.RoleConfig, err error) {
	criticName := o.cfg.Teams.Implementation.Critic
	var haveEngineer, haveCritic bool

	for _, spec := range o.cfg.TeamRoles(agent.TeamImplementation) {
		switch {
		case spec.Name == criticName:
			critic = toRoleConfig(spec)
			haveCritic = true
		case !haveEngineer:
			engineer = toRoleConfig(spec)
			haveEngineer = true
		}
	}
	if !haveEngineer || !haveCritic {
		return agent.RoleConfig{}, agent.RoleConfig{}, ErrNoParticipants
	}
	return engineer, critic, nil
}

func toRoleConfig(spec domainconfig.RoleSpec) agent.RoleConfig {
	return agent.RoleConfig{
		Name:         spec.Name,
		Team:         spec.Team,
		Prompt:       spec.Prompt,
		Capabilities: spec.Capabilities,
		Tokens:       spec.Tokens,
	}
}

func toRoleConfigs(specs []domainconfig.RoleSpec) []agent.RoleConfig {
	roles := make([]agent.RoleConfig, len(specs))
	for i, spec := range specs {
		roles[i] = toRoleConfig(spec)
	}
	return roles
}
