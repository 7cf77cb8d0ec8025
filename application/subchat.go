// Package application provides the orchestration services: the round-robin
// sub-chat engine, the engineer-critic revision cycle, and the top-level
// run orchestrator.
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/chat"
	"github.com/helixforge/labrun/domain/protocol"
	"github.com/helixforge/labrun/domain/tool"
	"github.com/helixforge/labrun/infrastructure/logging"
)

// ToolInvoker executes a tool call on behalf of a role. The gateway in
// infrastructure/gateway is the production implementation.
type ToolInvoker interface {
	Invoke(ctx context.Context, role agent.RoleConfig, name string, input json.RawMessage) (tool.Result, error)
}

// SubChatConfig describes one round-robin sub-chat.
type SubChatConfig struct {
	// Participants is the fixed speaking order.
	Participants []agent.RoleConfig

	// Closer names the only participant whose stop tokens end the chat.
	Closer string

	// MaxTurns caps the chat length. Reaching it without a closer signal is
	// reported as ErrTurnBudgetExhausted.
	MaxTurns int

	// Generator produces turns for every participant.
	Generator agent.Generator

	// Tools executes tool calls issued during turns. Optional; turns that
	// request tools without one get the failure surfaced in-turn.
	Tools ToolInvoker

	// Tracer records spans around the chat and its turns. Optional.
	Tracer trace.Tracer
}

// SubChat runs a fixed-order rotation among participants until the closer
// signals a stop or the turn budget runs out. Exactly one turn is in flight
// at a time; the next participant is never invoked until the previous turn,
// including its tool calls, has fully completed.
type SubChat struct {
	participants []agent.RoleConfig
	closer       agent.RoleConfig
	maxTurns     int
	generator    agent.Generator
	tools        ToolInvoker
	tracer       trace.Tracer
}

// SubChatResult is the outcome of a completed sub-chat.
type SubChatResult struct {
	// Transcript holds every turn in order.
	Transcript chat.Transcript

	// Signal is how the chat ended: handoff, final, or none for a budget
	// exhaustion.
	Signal protocol.Signal

	// Output is the closer's final content with recognized tokens stripped.
	Output string
}

// NewSubChat validates the configuration and builds the engine.
func NewSubChat(config SubChatConfig) (*SubChat, error) {
	if len(config.Participants) == 0 {
		return nil, ErrNoParticipants
	}
	if config.Generator == nil {
		return nil, ErrGeneratorRequired
	}

	var closer agent.RoleConfig
	found := false
	for _, p := range config.Participants {
		if p.Name == config.Closer {
			closer = p
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrCloserNotParticipant, config.Closer)
	}

	maxTurns := config.MaxTurns
	if maxTurns <= 0 {
		maxTurns = len(config.Participants) * 5
	}

	tracer := config.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("labrun")
	}

	return &SubChat{
		participants: config.Participants,
		closer:       closer,
		maxTurns:     maxTurns,
		generator:    config.Generator,
		tools:        config.Tools,
		tracer:       tracer,
	}, nil
}

// Run executes the rotation for the given task and returns the final
// transcript. On turn budget exhaustion it returns the transcript gathered so
// far together with ErrTurnBudgetExhausted.
func (s *SubChat) Run(ctx context.Context, task string) (SubChatResult, error) {
	ctx, span := s.tracer.Start(ctx, "subchat.run", trace.WithAttributes(
		attribute.String("closer", s.closer.Name),
		attribute.Int("participants", len(s.participants)),
	))
	defer span.End()

	transcript := chat.NewTranscript()

	for i := 0; i < s.maxTurns; i++ {
		role := s.participants[i%len(s.participants)]

		turn, err := s.takeTurn(ctx, role, task, transcript)
		if err != nil {
			return SubChatResult{Transcript: transcript}, err
		}
		transcript = transcript.Append(turn)

		logging.Debug().
			Add(logging.Role(role.Name)).
			Add(logging.Team(role.Team)).
			Add(logging.Turn(transcript.Len())).
			Msg("turn recorded")

		if role.Name != s.closer.Name {
			// Stop tokens from non-closers are recorded but never end the
			// discussion.
			if sig := protocol.ExtractSignal(turn.Content, role.Tokens); sig != protocol.SignalNone {
				logging.Debug().
					Add(logging.Role(role.Name)).
					Add(logging.Str("signal", string(sig))).
					Msg("non-closer stop token ignored")
			}
			continue
		}

		if sig := protocol.ExtractSignal(turn.Content, role.Tokens); sig != protocol.SignalNone {
			span.SetAttributes(attribute.String("signal", string(sig)))
			return SubChatResult{
				Transcript: transcript,
				Signal:     sig,
				Output:     turn.StripTokens(role.Tokens.All()...),
			}, nil
		}
	}

	span.SetAttributes(attribute.String("signal", "exhausted"))
	return SubChatResult{Transcript: transcript, Signal: protocol.SignalNone},
		fmt.Errorf("%w: %d turns", ErrTurnBudgetExhausted, s.maxTurns)
}

func (s *SubChat) takeTurn(ctx context.Context, role agent.RoleConfig, task string, transcript chat.Transcript) (chat.Turn, error) {
	return executeTurn(ctx, s.tracer, s.generator, s.tools, role, task, transcript)
}

// executeTurn generates one turn and runs any tool calls it issued. Tool
// failures are absorbed into the turn content so the next participant sees
// them; they never abort the chat.
func executeTurn(ctx context.Context, tracer trace.Tracer, generator agent.Generator, tools ToolInvoker, role agent.RoleConfig, task string, transcript chat.Transcript) (chat.Turn, error) {
	ctx, span := tracer.Start(ctx, "chat.turn", trace.WithAttributes(
		attribute.String("role", role.Name),
	))
	defer span.End()

	turn, err := generator.Generate(ctx, role, task, transcript)
	if err != nil {
		return chat.Turn{}, fmt.Errorf("generate turn for %s: %w", role.Name, err)
	}
	turn.Author = role.Name

	if len(turn.ToolCalls) == 0 {
		return turn, nil
	}

	var outcomes strings.Builder
	for i := range turn.ToolCalls {
		inv := &turn.ToolCalls[i]
		if inv.Result != nil || inv.Error != "" {
			continue
		}

		if tools == nil {
			inv.Error = ErrNoToolInvoker.Error()
		} else {
			res, invokeErr := tools.Invoke(ctx, role, inv.Tool, inv.Args)
			inv.Duration = res.Duration
			switch {
			case invokeErr != nil:
				inv.Error = invokeErr.Error()
			case res.IsError():
				inv.Error = res.Error.Error()
			default:
				inv.Result = res.Output
			}
		}

		if inv.Failed() {
			fmt.Fprintf(&outcomes, "\n\n[tool %s] error: %s", inv.Tool, inv.Error)
			logging.Warn().
				Add(logging.Role(role.Name)).
				Add(logging.ToolName(inv.Tool)).
				Add(logging.Reason(inv.Error)).
				Msg("tool call failed")
		} else {
			fmt.Fprintf(&outcomes, "\n\n[tool %s] result: %s", inv.Tool, rawToText(inv.Result))
		}
	}

	turn.Content += outcomes.String()
	return turn, nil
}

// rawToText renders a tool result for transcript embedding, unquoting plain
// JSON strings.
func rawToText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
