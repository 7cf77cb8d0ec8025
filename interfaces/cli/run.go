package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/helixforge/labrun/application"
	domainconfig "github.com/helixforge/labrun/domain/config"
	"github.com/helixforge/labrun/domain/notebook"
	"github.com/helixforge/labrun/domain/pack"
	"github.com/helixforge/labrun/domain/run"
	infraconfig "github.com/helixforge/labrun/infrastructure/config"
	"github.com/helixforge/labrun/infrastructure/gateway"
	"github.com/helixforge/labrun/infrastructure/generator"
	"github.com/helixforge/labrun/infrastructure/logging"
	"github.com/helixforge/labrun/infrastructure/observability"
	"github.com/helixforge/labrun/infrastructure/storage"
	execpack "github.com/helixforge/labrun/pack/exec"
	"github.com/helixforge/labrun/pack/fileops"
	"github.com/helixforge/labrun/pack/notebookpack"
	"github.com/helixforge/labrun/pack/plot"
	"github.com/helixforge/labrun/pack/research"
)

// runOptions holds options for the run command.
type runOptions struct {
	configPath string
	task       string
	trace      bool
	logLevel   string
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a research task to completion",
		Long: `Run alternates the planning and implementation teams on the given task
until the planning lead declares completion or the iteration budget runs out.
Plans, reports, and revision verdicts are persisted to the lab notebook, so an
interrupted run can be resumed against the same notebook.

Examples:
  labrun run -c run.yaml -t "Build an epigenetic clock from the methylation data"

  # Export trace spans to stdout
  labrun run -c run.yaml -t "..." --trace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTask(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVarP(&opts.task, "task", "t", "", "Task description")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Export trace spans to stdout")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")

	return cmd
}

func (a *App) runTask(ctx context.Context, opts *runOptions) error {
	if opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}
	if opts.task == "" {
		return fmt.Errorf("task description is required (-t flag)")
	}

	cfg, err := infraconfig.NewLoader().LoadFile(opts.configPath)
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logging.Init(logging.Config{Level: level, Format: cfg.Logging.Format, Output: os.Stderr})

	provider, err := observability.New(observability.Config{
		ServiceName:    "labrun",
		ServiceVersion: Version,
		Enabled:        opts.trace,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logging.Warn().Add(logging.ErrorField(err)).Msg("tracer shutdown failed")
		}
	}()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open notebook store: %w", err)
	}
	defer store.Close()

	registry := gateway.NewRegistry()
	if err := installPacks(registry, cfg, store); err != nil {
		return fmt.Errorf("install tool packs: %w", err)
	}

	gw := gateway.New(registry, gateway.Config{
		DefaultTimeout: cfg.Gateway.DefaultTimeout,
		MaxConcurrent:  cfg.Gateway.MaxConcurrent,
	})

	orch, err := application.New(cfg,
		application.WithGenerator(generator.NewOpenAIGenerator(cfg.LLM, registry)),
		application.WithToolInvoker(gw),
		application.WithStore(store),
		application.WithTracer(provider.Tracer()),
	)
	if err != nil {
		return err
	}

	r, err := orch.Run(ctx, opts.task)
	if err != nil {
		if r != nil {
			a.printRun(r)
		}
		return err
	}

	a.printRun(r)
	if r.Status == run.StatusFailed {
		return fmt.Errorf("run failed: %s", r.FailureReason)
	}
	return nil
}

// installPacks registers every built-in tool pack. Which roles may invoke
// which tools is decided by their configured capabilities, not here.
func installPacks(registry *gateway.Registry, cfg *domainconfig.Config, store notebook.Store) error {
	packs := []*pack.Pack{
		fileops.New(cfg.Run.OutputDir),
		execpack.New(execpack.Config{
			WorkDir: cfg.Run.OutputDir,
			Timeout: cfg.Gateway.DefaultTimeout,
		}),
		research.New(research.Config{
			APIKey: os.Getenv("PERPLEXITY_API_KEY"),
		}),
		plot.New(plot.Config{
			Root:    cfg.Run.OutputDir,
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
		}),
		notebookpack.New(notebookpack.Config{
			Store:     store,
			ReadLimit: cfg.Run.NotebookReadLimit,
		}),
	}

	for _, p := range packs {
		if err := p.Install(registry); err != nil {
			return fmt.Errorf("install pack %s: %w", p.Name(), err)
		}
	}
	return nil
}

func (a *App) printRun(r *run.Run) {
	fmt.Fprintf(a.stdout, "Run %s\n", r.ID)
	fmt.Fprintf(a.stdout, "  Status:     %s\n", r.Status)
	fmt.Fprintf(a.stdout, "  Iterations: %d/%d\n", r.Iteration, r.MaxIterations)
	if d := r.Duration(); d > 0 {
		fmt.Fprintf(a.stdout, "  Duration:   %s\n", d.Round(1e6))
	}
	if r.FailureReason != "" {
		fmt.Fprintf(a.stdout, "  Failure:    %s\n", r.FailureReason)
	}
}
