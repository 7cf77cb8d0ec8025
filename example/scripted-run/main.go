// Package main demonstrates a full orchestrated run with a scripted
// generator, so it needs no model endpoint.
//
// This example shows:
// - Declarative team and role configuration
// - The planning round-robin sub-chat with a closing lead
// - The engineer-critic revision cycle
// - Notebook persistence across iterations
//
// Run with: go run ./example/scripted-run
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/helixforge/labrun/application"
	"github.com/helixforge/labrun/domain/agent"
	domainconfig "github.com/helixforge/labrun/domain/config"
	"github.com/helixforge/labrun/domain/notebook"
	"github.com/helixforge/labrun/infrastructure/generator"
	"github.com/helixforge/labrun/infrastructure/logging"
	"github.com/helixforge/labrun/infrastructure/storage/memory"
)

func main() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: os.Stderr,
	})

	fmt.Printf("=== Scripted Run Example ===\n\n")

	if err := runExample(); err != nil {
		fmt.Printf("Example failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n=== Example completed successfully! ===\n")
}

func runExample() error {
	cfg := domainconfig.Default()
	cfg.Run.MaxIterations = 5
	cfg.Teams.Planning = domainconfig.TeamConfig{MaxTurns: 15, Closer: "lead"}
	cfg.Teams.Implementation = domainconfig.TeamConfig{MaxTurns: 30, Critic: "critic", MaxRevisions: 3}
	cfg.Roles = []domainconfig.RoleSpec{
		{
			Name: "lead", Team: agent.TeamPlanning,
			Prompt: "You lead the planning discussion.",
			Tokens: agent.TokenSet{
				Stop:            agent.DefaultPlanningStopToken,
				FinalCompletion: agent.DefaultFinalCompletionToken,
			},
		},
		{
			Name: "expert_a", Team: agent.TeamPlanning,
			Prompt: "You advise on methodology.",
		},
		{
			Name: "engineer", Team: agent.TeamImplementation,
			Prompt: "You implement the plan.",
			Tokens: agent.TokenSet{Stop: agent.DefaultEngineerDoneToken},
		},
		{
			Name: "critic", Team: agent.TeamImplementation,
			Prompt: "You review the implementation.",
			Tokens: agent.TokenSet{
				Stop:    agent.DefaultCriticStopToken,
				Approve: agent.DefaultApproveToken,
				Revise:  agent.DefaultReviseToken,
			},
		},
	}

	// Two iterations: plan and implement a baseline, then declare the task
	// done once the report is in the notebook.
	gen := generator.NewScripted().
		Say("lead",
			"We need a predictive baseline. Which model family should we start with?",
			"Plan: fit a ridge regression baseline and report held-out MAE. PLANNING_COMPLETE",
			"The baseline report meets the goal. ENTIRE_TASK_DONE").
		Say("expert_a",
			"Ridge regression is the right starting point for this feature count.").
		Say("engineer",
			"Fitting the ridge baseline with 5-fold cross validation.",
			"Held-out MAE is 3.2 years. Artifacts written to the output directory. ENGINEER_DONE").
		Say("critic",
			"APPROVE_ENGINEER Methodology is sound and the metric is recorded.")

	store := memory.NewNotebookStore()
	defer store.Close()

	orch, err := application.New(cfg,
		application.WithGenerator(gen),
		application.WithStore(store),
	)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	ctx := context.Background()
	r, err := orch.Run(ctx, "Build an age prediction baseline from the methylation matrix")
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Printf("--- Run Results ---\n")
	fmt.Printf("Run ID: %s\n", r.ID)
	fmt.Printf("Status: %s\n", r.Status)
	fmt.Printf("Iterations: %d/%d\n", r.Iteration, r.MaxIterations)
	fmt.Printf("Duration: %v\n", r.Duration())

	entries, err := store.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read notebook: %w", err)
	}

	fmt.Printf("\n--- Lab Notebook (%d entries) ---\n", len(entries))
	fmt.Print(notebook.RenderTail(entries, 0))
	return nil
}
