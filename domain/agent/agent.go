// Package agent provides the role model for the labrun engine. An agent is a
// role-bound turn generator with a fixed capability set and a set of
// recognized protocol tokens; it holds no private state between turns.
package agent

import (
	"context"

	"github.com/helixforge/labrun/domain/chat"
)

// Team identifies which side of the workflow a role belongs to.
type Team string

const (
	TeamPlanning       Team = "planning"
	TeamImplementation Team = "implementation"
)

// RoleConfig is the configuration bundle for one participant: identity,
// the tools it may invoke, and the protocol tokens it is recognized to emit.
type RoleConfig struct {
	// Name is the stable role identifier (e.g. "principal_scientist").
	Name string `json:"name" yaml:"name"`

	// Team the role belongs to.
	Team Team `json:"team" yaml:"team"`

	// Prompt is the externally supplied persona text. The engine passes it
	// through to the generator and never interprets it.
	Prompt string `json:"prompt,omitempty" yaml:"prompt,omitempty"`

	// Capabilities lists tool names this role may invoke. Empty means none.
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`

	// Tokens are the protocol tokens recognized in this role's turns.
	Tokens TokenSet `json:"tokens" yaml:"tokens"`
}

// CanInvoke reports whether the role may invoke the named tool.
func (r RoleConfig) CanInvoke(tool string) bool {
	for _, name := range r.Capabilities {
		if name == tool {
			return true
		}
	}
	return false
}

// Generator produces one turn for a role given the task context and the
// transcript so far. Implementations live in infrastructure; the engine only
// depends on this contract. Generation is a blocking call bounded by the
// caller's context.
type Generator interface {
	Generate(ctx context.Context, role RoleConfig, task string, transcript chat.Transcript) (chat.Turn, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, role RoleConfig, task string, transcript chat.Transcript) (chat.Turn, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, role RoleConfig, task string, transcript chat.Transcript) (chat.Turn, error) {
	return f(ctx, role, task, transcript)
}
