package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/villawad/agora-results/internal/pipes"
)

// UnitsResult is the data of a JSON units response.
type UnitsResult struct {
	Units []string `json:"units"`
}

// NewUnitsCommand creates the units command.
func NewUnitsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "units",
		Short:         "List the registered transformation units",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			refs := pipes.NewRegistry().Refs()
			if formatter.JSON() {
				return formatter.Success(UnitsResult{Units: refs})
			}
			for _, ref := range refs {
				fmt.Fprintln(formatter.Writer, ref)
			}
			return nil
		},
	}
}
