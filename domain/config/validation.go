package config

import (
	"fmt"
	"strings"

	"github.com/helixforge/labrun/domain/agent"
)

// ValidationErrors collects every problem found in one pass.
type ValidationErrors struct {
	Problems []string
}

// Add records a problem.
func (v *ValidationErrors) Add(format string, args ...any) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

// HasErrors reports whether any problem was recorded.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Problems) > 0
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	return strings.Join(v.Problems, "; ")
}

var knownBackends = map[string]bool{
	"memory":     true,
	"filesystem": true,
	"sqlite":     true,
	"badger":     true,
	"postgres":   true,
}

// Validate checks the configuration is complete enough to run. Call after
// ApplyDefaults.
func (c *Config) Validate() *ValidationErrors {
	errs := &ValidationErrors{}

	if !knownBackends[c.Storage.Backend] {
		errs.Add("storage.backend %q is not one of memory, filesystem, sqlite, badger, postgres", c.Storage.Backend)
	}
	switch c.Storage.Backend {
	case "postgres":
		if c.Storage.DSN == "" {
			errs.Add("storage.dsn is required for the postgres backend")
		}
	case "filesystem", "sqlite", "badger":
		if c.Storage.Path == "" {
			errs.Add("storage.path is required for the %s backend", c.Storage.Backend)
		}
	}

	seen := map[string]bool{}
	for i, r := range c.Roles {
		if r.Name == "" {
			errs.Add("roles[%d] has no name", i)
			continue
		}
		if seen[r.Name] {
			errs.Add("role %q declared more than once", r.Name)
		}
		seen[r.Name] = true
		if r.Team != agent.TeamPlanning && r.Team != agent.TeamImplementation {
			errs.Add("role %q has unknown team %q", r.Name, r.Team)
		}
		if r.Prompt == "" {
			errs.Add("role %q has no prompt", r.Name)
		}
	}

	c.validateTeam(errs, agent.TeamPlanning, c.Teams.Planning)
	c.validateTeam(errs, agent.TeamImplementation, c.Teams.Implementation)

	if closer, ok := c.Role(c.Teams.Planning.Closer); ok {
		if closer.Tokens.Stop == "" {
			errs.Add("planning closer %q has no stop token", closer.Name)
		}
	}

	if critic := c.Teams.Implementation.Critic; critic != "" {
		spec, ok := c.Role(critic)
		if !ok {
			errs.Add("implementation critic %q is not a declared role", critic)
		} else {
			if spec.Tokens.Approve == "" || spec.Tokens.Revise == "" {
				errs.Add("critic %q must declare approve and revise tokens", critic)
			}
		}
	}

	return errs
}

func (c *Config) validateTeam(errs *ValidationErrors, team agent.Team, tc TeamConfig) {
	roles := c.TeamRoles(team)
	if len(roles) == 0 {
		errs.Add("team %s has no roles", team)
		return
	}
	if tc.MaxTurns <= 0 {
		errs.Add("team %s has no turn budget", team)
	}
	if tc.Closer == "" {
		errs.Add("team %s has no closer", team)
		return
	}
	found := false
	for _, r := range roles {
		if r.Name == tc.Closer {
			found = true
			break
		}
	}
	if !found {
		errs.Add("team %s closer %q is not one of its roles", team, tc.Closer)
	}
}
