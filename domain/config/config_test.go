package config_test

import (
	"testing"

	"github.com/helixforge/labrun/domain/agent"
	"github.com/helixforge/labrun/domain/config"
)

func validConfig() *config.Config {
	c := &config.Config{
		Teams: config.TeamsConfig{
			Planning:       config.TeamConfig{Closer: "principal_scientist"},
			Implementation: config.TeamConfig{Closer: "engineer", Critic: "critic"},
		},
		Roles: []config.RoleSpec{
			{
				Name:   "principal_scientist",
				Team:   agent.TeamPlanning,
				Prompt: "You lead the planning discussion.",
				Tokens: agent.TokenSet{
					Stop:            agent.DefaultPlanningStopToken,
					FinalCompletion: agent.DefaultFinalCompletionToken,
				},
			},
			{
				Name:   "ml_expert",
				Team:   agent.TeamPlanning,
				Prompt: "You advise on modeling.",
			},
			{
				Name:   "engineer",
				Team:   agent.TeamImplementation,
				Prompt: "You implement the plan.",
				Tokens: agent.TokenSet{Stop: agent.DefaultEngineerDoneToken},
			},
			{
				Name:   "critic",
				Team:   agent.TeamImplementation,
				Prompt: "You review the implementation.",
				Tokens: agent.TokenSet{
					Stop:    agent.DefaultCriticStopToken,
					Approve: agent.DefaultApproveToken,
					Revise:  agent.DefaultReviseToken,
				},
			},
		},
	}
	c.ApplyDefaults()
	return c
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	c := &config.Config{}
	c.ApplyDefaults()

	if c.Run.MaxIterations != 25 {
		t.Errorf("MaxIterations = %d, want 25", c.Run.MaxIterations)
	}
	if c.Teams.Planning.MaxTurns != 15 {
		t.Errorf("planning MaxTurns = %d, want 15", c.Teams.Planning.MaxTurns)
	}
	if c.Teams.Implementation.MaxTurns != 75 {
		t.Errorf("implementation MaxTurns = %d, want 75", c.Teams.Implementation.MaxTurns)
	}
	if c.Teams.Implementation.MaxRevisions != 3 {
		t.Errorf("MaxRevisions = %d, want 3", c.Teams.Implementation.MaxRevisions)
	}
	if c.Storage.Backend != "filesystem" {
		t.Errorf("Backend = %s, want filesystem", c.Storage.Backend)
	}

	t.Run("explicit values survive", func(t *testing.T) {
		t.Parallel()

		c := &config.Config{Run: config.RunConfig{MaxIterations: 3}}
		c.ApplyDefaults()
		if c.Run.MaxIterations != 3 {
			t.Errorf("MaxIterations = %d, want 3", c.Run.MaxIterations)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()

		if errs := validConfig().Validate(); errs.HasErrors() {
			t.Errorf("Validate() = %v, want no errors", errs)
		}
	})

	t.Run("missing closer", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.Teams.Planning.Closer = "nonexistent"
		if errs := c.Validate(); !errs.HasErrors() {
			t.Error("Validate() passed with unknown closer")
		}
	})

	t.Run("closer without stop token", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.Roles[0].Tokens = agent.TokenSet{}
		if errs := c.Validate(); !errs.HasErrors() {
			t.Error("Validate() passed with tokenless closer")
		}
	})

	t.Run("duplicate role names", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.Roles = append(c.Roles, c.Roles[1])
		if errs := c.Validate(); !errs.HasErrors() {
			t.Error("Validate() passed with duplicate role")
		}
	})

	t.Run("postgres backend requires dsn", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.Storage = config.StorageConfig{Backend: "postgres"}
		if errs := c.Validate(); !errs.HasErrors() {
			t.Error("Validate() passed postgres without DSN")
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.Storage.Backend = "cassandra"
		if errs := c.Validate(); !errs.HasErrors() {
			t.Error("Validate() passed unknown backend")
		}
	})

	t.Run("critic without verdict tokens", func(t *testing.T) {
		t.Parallel()

		c := validConfig()
		c.Roles[3].Tokens.Approve = ""
		if errs := c.Validate(); !errs.HasErrors() {
			t.Error("Validate() passed critic without approve token")
		}
	})
}

func TestConfig_TeamRoles(t *testing.T) {
	t.Parallel()

	c := validConfig()
	planning := c.TeamRoles(agent.TeamPlanning)
	if len(planning) != 2 {
		t.Fatalf("TeamRoles(planning) len = %d, want 2", len(planning))
	}
	if planning[0].Name != "principal_scientist" {
		t.Errorf("declaration order not preserved, got %s first", planning[0].Name)
	}
}
