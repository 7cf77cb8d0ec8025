// Package config defines the declarative run configuration: teams, roles,
// budgets, storage and model settings. Validation lives here; loading and
// environment expansion are infrastructure concerns.
package config

import (
	"time"

	"github.com/helixforge/labrun/domain/agent"
)

// Config is the root configuration for an orchestration run.
type Config struct {
	Run     RunConfig     `json:"run" yaml:"run"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
	LLM     LLMConfig     `json:"llm" yaml:"llm"`
	Gateway GatewayConfig `json:"gateway" yaml:"gateway"`
	Teams   TeamsConfig   `json:"teams" yaml:"teams"`
	Roles   []RoleSpec    `json:"roles" yaml:"roles"`
}

// RunConfig bounds the outer orchestration loop.
type RunConfig struct {
	// MaxIterations caps plan/implement cycles before the run is declared
	// incomplete.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// ReportTurns is how many trailing implementation turns are condensed
	// into the report handed back to the planning team.
	ReportTurns int `json:"report_turns" yaml:"report_turns"`

	// NotebookReadLimit caps the characters of notebook content injected
	// into agent context.
	NotebookReadLimit int `json:"notebook_read_limit" yaml:"notebook_read_limit"`

	// OutputDir is where implementation agents are told to write artifacts.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// StorageConfig selects the notebook store backend.
type StorageConfig struct {
	// Backend is one of: memory, filesystem, sqlite, badger, postgres.
	Backend string `json:"backend" yaml:"backend"`

	// Path is the file or directory for file-backed stores.
	Path string `json:"path" yaml:"path"`

	// DSN is the connection string for the postgres backend.
	DSN string `json:"dsn" yaml:"dsn"`
}

// LLMConfig configures the chat-completions generator.
type LLMConfig struct {
	BaseURL     string  `json:"base_url" yaml:"base_url"`
	APIKey      string  `json:"api_key" yaml:"api_key"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// Timeout bounds a single completion request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// GatewayConfig tunes the tool gateway.
type GatewayConfig struct {
	DefaultTimeout time.Duration `json:"default_timeout" yaml:"default_timeout"`
	MaxConcurrent  int           `json:"max_concurrent" yaml:"max_concurrent"`
}

// TeamsConfig holds per-team budgets and wiring.
type TeamsConfig struct {
	Planning       TeamConfig `json:"planning" yaml:"planning"`
	Implementation TeamConfig `json:"implementation" yaml:"implementation"`
}

// TeamConfig describes one team's sub-chat.
type TeamConfig struct {
	// MaxTurns caps the sub-chat's length. Exhausting it is a fatal
	// outcome for the phase.
	MaxTurns int `json:"max_turns" yaml:"max_turns"`

	// Closer names the only role whose stop token ends the sub-chat.
	Closer string `json:"closer" yaml:"closer"`

	// MaxRevisions bounds the critic's revision requests. Only meaningful
	// for the implementation team.
	MaxRevisions int `json:"max_revisions,omitempty" yaml:"max_revisions,omitempty"`

	// Critic names the reviewing role for the implementation team.
	Critic string `json:"critic,omitempty" yaml:"critic,omitempty"`
}

// RoleSpec declares one participant.
type RoleSpec struct {
	Name         string         `json:"name" yaml:"name"`
	Team         agent.Team     `json:"team" yaml:"team"`
	Prompt       string         `json:"prompt" yaml:"prompt"`
	Capabilities []string       `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Tokens       agent.TokenSet `json:"tokens,omitempty" yaml:"tokens,omitempty"`
}

// Default returns a configuration with every budget and backend set to its
// default. Roles are intentionally empty; they come from the run file.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			MaxIterations:     25,
			ReportTurns:       25,
			NotebookReadLimit: 100_000,
			OutputDir:         "output",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Storage: StorageConfig{
			Backend: "filesystem",
			Path:    "lab_notebook.md",
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o",
			Temperature: 0.1,
			Timeout:     2 * time.Minute,
		},
		Gateway: GatewayConfig{
			DefaultTimeout: 60 * time.Second,
			MaxConcurrent:  8,
		},
		Teams: TeamsConfig{
			Planning:       TeamConfig{MaxTurns: 15},
			Implementation: TeamConfig{MaxTurns: 75, MaxRevisions: 3},
		},
	}
}

// ApplyDefaults fills zero-valued budgets from Default. Explicit settings
// are never overwritten.
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Run.MaxIterations <= 0 {
		c.Run.MaxIterations = d.Run.MaxIterations
	}
	if c.Run.ReportTurns <= 0 {
		c.Run.ReportTurns = d.Run.ReportTurns
	}
	if c.Run.NotebookReadLimit <= 0 {
		c.Run.NotebookReadLimit = d.Run.NotebookReadLimit
	}
	if c.Run.OutputDir == "" {
		c.Run.OutputDir = d.Run.OutputDir
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Storage.Backend == "filesystem" && c.Storage.Path == "" {
		c.Storage.Path = d.Storage.Path
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = d.LLM.BaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = d.LLM.Model
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = d.LLM.Timeout
	}
	if c.Gateway.DefaultTimeout <= 0 {
		c.Gateway.DefaultTimeout = d.Gateway.DefaultTimeout
	}
	if c.Gateway.MaxConcurrent <= 0 {
		c.Gateway.MaxConcurrent = d.Gateway.MaxConcurrent
	}
	if c.Teams.Planning.MaxTurns <= 0 {
		c.Teams.Planning.MaxTurns = d.Teams.Planning.MaxTurns
	}
	if c.Teams.Implementation.MaxTurns <= 0 {
		c.Teams.Implementation.MaxTurns = d.Teams.Implementation.MaxTurns
	}
	if c.Teams.Implementation.MaxRevisions <= 0 {
		c.Teams.Implementation.MaxRevisions = d.Teams.Implementation.MaxRevisions
	}
}

// TeamRoles returns the role specs belonging to the given team, in the order
// declared. Declaration order is the speaking order.
func (c *Config) TeamRoles(team agent.Team) []RoleSpec {
	var roles []RoleSpec
	for _, r := range c.Roles {
		if r.Team == team {
			roles = append(roles, r)
		}
	}
	return roles
}

// Role returns the spec for the named role.
func (c *Config) Role(name string) (RoleSpec, bool) {
	for _, r := range c.Roles {
		if r.Name == name {
			return r, true
		}
	}
	return RoleSpec{}, false
}
