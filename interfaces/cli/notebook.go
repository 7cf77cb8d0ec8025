package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixforge/labrun/domain/notebook"
	infraconfig "github.com/helixforge/labrun/infrastructure/config"
	"github.com/helixforge/labrun/infrastructure/storage"
)

// notebookOptions holds options for the notebook command.
type notebookOptions struct {
	configPath string
	limit      int
	since      time.Duration
}

// newNotebookCmd creates the notebook command.
func (a *App) newNotebookCmd() *cobra.Command {
	opts := &notebookOptions{}

	cmd := &cobra.Command{
		Use:   "notebook",
		Short: "Show the lab notebook",
		Long: `Render the lab notebook configured for this run.

Examples:
  # Print the whole notebook
  labrun notebook -c run.yaml

  # Print at most 10000 characters, newest entries first retained
  labrun notebook -c run.yaml --limit 10000

  # Print entries from the last two hours
  labrun notebook -c run.yaml --since 2h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showNotebook(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Character budget (0 = unlimited)")
	cmd.Flags().DurationVar(&opts.since, "since", 0, "Only entries newer than this age")

	return cmd
}

func (a *App) showNotebook(cmd *cobra.Command, opts *notebookOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	cfg, err := infraconfig.NewLoader().LoadFile(opts.configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open notebook store: %w", err)
	}
	defer store.Close()

	var entries []notebook.Entry
	if opts.since > 0 {
		entries, err = store.ReadSince(ctx, time.Now().Add(-opts.since))
	} else {
		entries, err = store.Read(ctx)
	}
	if err != nil {
		return fmt.Errorf("read notebook: %w", err)
	}

	fmt.Fprint(a.stdout, notebook.RenderTail(entries, opts.limit))
	fmt.Fprintf(a.stdout, "\n%d entries\n", len(entries))
	return nil
}
