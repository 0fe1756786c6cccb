package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/villawad/agora-results/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Ledger string
	Limit  int
}

// RunDetail is the data of a JSON response for a single run.
type RunDetail struct {
	Run   store.Run       `json:"run"`
	Steps []store.StepRun `json:"steps"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List runs recorded in a ledger",
		Long: `List runs recorded in a ledger, newest first.

With a run ID, show that run and the status of each of its steps.

Example:
  agora-results runs --ledger runs.db
  agora-results runs --ledger runs.db 0190a4b2-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "path to SQLite ledger (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")
	_ = cmd.MarkFlagRequired("ledger")

	return cmd
}

func runRuns(opts *RunsOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(opts.Ledger); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("ledger not found: %s", opts.Ledger), nil)
		return WrapExitError(ExitCommandError, "ledger not found", err)
	}
	st, err := store.Open(opts.Ledger)
	if err != nil {
		_ = formatter.Error(ErrCodeLedger, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if len(args) == 1 {
		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		steps, err := st.ListSteps(ctx, run.ID)
		if err != nil {
			_ = formatter.Error(ErrCodeLedger, err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to read steps", err)
		}
		return outputRunDetail(formatter, RunDetail{Run: run, Steps: steps})
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		_ = formatter.Error(ErrCodeLedger, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to list runs", err)
	}
	if formatter.JSON() {
		return formatter.Success(runs)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tSTATUS\tENTRIES\tCONFIG\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n", r.Seq, r.ID, r.Status, r.Entries, shortHash(r.ConfigHash), r.StartedAt)
	}
	return tw.Flush()
}

func outputRunDetail(formatter *OutputFormatter, detail RunDetail) error {
	if formatter.JSON() {
		return formatter.Success(detail)
	}

	w := formatter.Writer
	r := detail.Run
	fmt.Fprintf(w, "Run:      %s\n", r.ID)
	fmt.Fprintf(w, "Status:   %s\n", r.Status)
	fmt.Fprintf(w, "Started:  %s\n", r.StartedAt)
	fmt.Fprintf(w, "Config:   %s\n", r.ConfigHash)
	if r.ResultsHash != "" {
		fmt.Fprintf(w, "Results:  %s\n", r.ResultsHash)
	}
	for i, a := range r.Archives {
		fmt.Fprintf(w, "Archive %d: %s\n", i, a)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", r.Error)
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tREF\tSTATUS\tPARAMS")
	for _, s := range detail.Steps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Index, s.Ref, s.Status, s.Params)
	}
	return tw.Flush()
}

// shortHash abbreviates a content hash for tables.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
