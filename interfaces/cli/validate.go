package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	infraconfig "github.com/helixforge/labrun/infrastructure/config"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath string
	strict     bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a run configuration file",
		Long: `Validate a labrun configuration file for correctness.

This command checks:
  - File format (YAML or JSON)
  - Storage backend and its required settings
  - Role declarations (names, teams, prompts, uniqueness)
  - Team wiring (closer and critic roles, turn budgets)
  - Protocol tokens required by closers and critics
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  labrun validate -c run.yaml

  # Strict validation (fail on missing env vars)
  labrun validate -c run.yaml --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateConfig(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on missing environment variables")

	return cmd
}

func (a *App) validateConfig(opts *validateOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	loader := infraconfig.NewLoaderWithOptions(
		infraconfig.WithValidation(true),
		infraconfig.WithStrictEnv(opts.strict),
	)
	cfg, err := loader.LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "Configuration is valid\n")
	fmt.Fprintf(a.stdout, "  Roles:          %d\n", len(cfg.Roles))
	fmt.Fprintf(a.stdout, "  Storage:        %s\n", cfg.Storage.Backend)
	fmt.Fprintf(a.stdout, "  Max iterations: %d\n", cfg.Run.MaxIterations)
	return nil
}
