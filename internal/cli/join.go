package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/villawad/agora-results/internal/join"
	"github.com/villawad/agora-results/internal/record"
)

// NewJoinByNameCommand creates the join-by-name command.
func NewJoinByNameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "join-by-name <results.json>...",
		Short: "Match answers of several result files by text",
		Long: `Match the answers of several result files by text.

For every answer of the last file, list the answers of the previous files
with the same text as {tally_id, question_id, answer_id, answer_value},
keyed by the answer id, one object per question. Result files are the
output of "run -o json".`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			results := make([][]record.Object, 0, len(args))
			for _, path := range args {
				qs, err := join.Load(path)
				if err != nil {
					_ = formatter.Error(ErrCodeNotFound, err.Error(), map[string]string{"file": path})
					return WrapExitError(ExitCommandError, "failed to load result file", err)
				}
				results = append(results, qs)
			}

			corrections, err := join.ByName(results)
			if err != nil {
				_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
				return WrapExitError(ExitFailure, "failed to join results", err)
			}
			if formatter.JSON() {
				return formatter.Success(corrections)
			}

			enc := json.NewEncoder(formatter.Writer)
			enc.SetIndent("", "    ")
			return enc.Encode(corrections)
		},
	}
}
