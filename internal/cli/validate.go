package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/villawad/agora-results/internal/engine"
	"github.com/villawad/agora-results/internal/pipelineconf"
	"github.com/villawad/agora-results/internal/pipes"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Steps      []string `json:"steps"`
	ConfigHash string   `json:"config_hash"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return newValidateCommand(rootOpts, nil)
}

func newValidateCommand(rootOpts *RootOptions, reg *engine.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a pipeline configuration without running it",
		Long: `Validate a pipeline configuration without running it.

The document is checked against the pipeline schema and every step
reference is resolved against the registered units. No archive is read.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			if reg == nil {
				reg = pipes.NewRegistry()
			}
			return runValidate(rootOpts, reg, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, reg *engine.Registry, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := pipelineconf.Load(path)
	if err != nil {
		var le *pipelineconf.LoadError
		if errors.As(err, &le) {
			return outputValidateError(formatter, configErrorCode(err), le.Error(), map[string]string{"config": path})
		}
		return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %d step(s) from %s", len(cfg), path)

	exec, err := engine.NewExecutor(reg, cfg)
	if err != nil {
		var resErr *engine.ResolutionError
		if errors.As(err, &resErr) {
			return outputValidateError(formatter, ErrCodeResolution, resErr.Error(), map[string]any{
				"step": resErr.Index,
				"ref":  resErr.Ref,
			})
		}
		return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	hash, err := cfg.Hash()
	if err != nil {
		return outputValidateError(formatter, ErrCodeConfig, err.Error(), nil)
	}

	result := ValidationResult{Valid: true, Steps: []string{}, ConfigHash: hash}
	for _, step := range exec.Steps() {
		result.Steps = append(result.Steps, step.Ref)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Pipeline valid (%d step(s))\n", len(result.Steps))
	for i, ref := range result.Steps {
		formatter.VerboseLog("  %d. %s", i, ref)
	}
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Validation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
