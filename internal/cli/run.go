package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/villawad/agora-results/internal/engine"
	"github.com/villawad/agora-results/internal/pipelineconf"
	"github.com/villawad/agora-results/internal/pipes"
	"github.com/villawad/agora-results/internal/render"
	"github.com/villawad/agora-results/internal/store"
	"github.com/villawad/agora-results/internal/workspace"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config       string
	OutputFormat string
	NoOutput     bool
	WorkDir      string
	Ledger       string

	// Registry overrides the built-in units (for testing).
	// If nil, defaults to pipes.NewRegistry().
	Registry *engine.Registry

	// IDs overrides the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs engine.RunIDGenerator
}

// RunSummary is the data of a JSON run response.
type RunSummary struct {
	RunID         string `json:"run_id"`
	ConfigHash    string `json:"config_hash,omitempty"`
	ResultsHash   string `json:"results_hash,omitempty"`
	Entries       int    `json:"entries"`
	DirsCreated   int    `json:"dirs_created"`
	DirsRemaining int    `json:"dirs_remaining"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <archive>...",
		Short: "Run a results pipeline over tally archives",
		Long: `Run a results pipeline over one or more decrypted tally archives.

Each archive is extracted into a temporary directory, the pipeline steps
are applied in order to the shared dataset, and the first entry's results
are printed. Without --config the default pipeline is used: do_tallies
followed by sort_non_iterative.

Diagnostics and --format json responses go to stderr; stdout only carries
the rendered results.

Example:
  agora-results run tally.tar.gz
  agora-results run -c pipeline.yaml -o csv part1.tar.gz part2.tar.gz
  agora-results run --ledger runs.db --no-output tally.tar.gz`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "pipeline configuration (.json, .yaml, .yml or .cue)")
	cmd.Flags().StringVarP(&opts.OutputFormat, "output-format", "o", string(render.FormatPretty), "results format (json|csv|tsv|pretty)")
	cmd.Flags().BoolVar(&opts.NoOutput, "no-output", false, "do not print the results")
	cmd.Flags().StringVar(&opts.WorkDir, "workdir", "", "parent directory of the temporary directories (default system temp)")
	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "record the run in this SQLite ledger")

	return cmd
}

func runPipeline(opts *RunOptions, archives []string, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions, cmd.ErrOrStderr())
	formatter := newFormatter(opts.RootOptions, cmd)
	formatter.Writer = cmd.ErrOrStderr()

	format, err := render.ParseFormat(opts.OutputFormat)
	if err != nil {
		_ = formatter.Error(ErrCodeFormat, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid output format", err)
	}

	cfg := engine.DefaultConfig()
	if opts.Config != "" {
		slog.Info("loading configuration", "path", opts.Config)
		if cfg, err = pipelineconf.Load(opts.Config); err != nil {
			_ = formatter.Error(configErrorCode(err), err.Error(), map[string]string{"config": opts.Config})
			return WrapExitError(ExitCommandError, "failed to load configuration", err)
		}
	}

	reg := opts.Registry
	if reg == nil {
		reg = pipes.NewRegistry()
	}

	var observer engine.Observer
	if opts.Ledger != "" {
		st, err := store.Open(opts.Ledger)
		if err != nil {
			_ = formatter.Error(ErrCodeLedger, err.Error(), map[string]string{"ledger": opts.Ledger})
			return WrapExitError(ExitCommandError, "failed to open ledger", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing ledger", "error", closeErr)
			}
		}()
		observer = store.NewRecorder(st)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping run", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	res, runErr := engine.Run(ctx, engine.RunOptions{
		Archives: archives,
		Config:   cfg,
		Registry: reg,
		Observer: observer,
		IDs:      opts.IDs,
		BaseDir:  opts.WorkDir,
	})
	summary := RunSummary{
		RunID:         res.RunID,
		Entries:       res.Data.Len(),
		DirsCreated:   res.DirsCreated,
		DirsRemaining: res.DirsRemaining,
	}
	summary.ConfigHash, _ = cfg.Hash()
	if runErr != nil {
		return reportRunError(formatter, summary, runErr)
	}
	summary.ResultsHash, _ = engine.ResultsHash(res.Data)

	if !opts.NoOutput {
		if err := render.Write(cmd.OutOrStdout(), format, res.Data); err != nil {
			_ = formatter.Error(ErrCodeRender, err.Error(), summary)
			return WrapExitError(ExitFailure, "failed to render results", err)
		}
	}

	formatter.VerboseLog("Run %s finished: %d entries, %d temporary directories removed", summary.RunID, summary.Entries, summary.DirsCreated-summary.DirsRemaining)
	if formatter.JSON() {
		return formatter.Success(summary)
	}
	return nil
}

// reportRunError prints the failing step or archive plus the cleanup
// outcome and maps err to an exit code.
func reportRunError(formatter *OutputFormatter, summary RunSummary, err error) error {
	cleanup := fmt.Sprintf("removed %d of %d temporary directories", summary.DirsCreated-summary.DirsRemaining, summary.DirsCreated)

	var (
		resErr  *engine.ResolutionError
		extErr  *workspace.ExtractionError
		stepErr *engine.StepExecutionError
	)
	switch {
	case engine.IsInterrupted(err):
		_ = formatter.Error(ErrCodeInterrupted, fmt.Sprintf("interrupted; %s", cleanup), summary)
		return WrapExitError(ExitInterrupted, "interrupted", err)
	case errors.As(err, &resErr):
		_ = formatter.Error(ErrCodeResolution, resErr.Error(), summary)
		return WrapExitError(ExitCommandError, "invalid pipeline", err)
	case errors.As(err, &extErr):
		_ = formatter.Error(ErrCodeExtraction, fmt.Sprintf("%v; %s", extErr, cleanup), summary)
		return WrapExitError(ExitFailure, fmt.Sprintf("archive %s could not be used", extErr.Archive), err)
	case errors.As(err, &stepErr):
		_ = formatter.Error(ErrCodeStep, fmt.Sprintf("%v; %s", stepErr, cleanup), summary)
		return WrapExitError(ExitFailure, fmt.Sprintf("step %d (%s) failed", stepErr.Index, stepErr.Ref), err)
	default:
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("%v; %s", err, cleanup), summary)
		return WrapExitError(ExitFailure, "run failed", err)
	}
}

func configErrorCode(err error) string {
	var le *pipelineconf.LoadError
	if errors.As(err, &le) && le.Code == pipelineconf.ErrCodeNotFound {
		return ErrCodeNotFound
	}
	return ErrCodeConfig
}
