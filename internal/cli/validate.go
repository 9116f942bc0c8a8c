package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nbartley/sequent/internal/compiler"
)

// ValidationResult holds validation results for a plan directory.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	Components int                        `json:"components"`
	Edges      int                        `json:"edges"`
	Errors     []compiler.ValidationError `json:"errors,omitempty"`
	Cycles     []compiler.CycleWarning    `json:"cycles,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <plan-dir>",
		Short: "Validate a plan definition",
		Long: `Validate a CUE plan definition without loading it into an engine.

Compiles the plan, runs schema and cross-reference validation, and
performs static cycle analysis over the declared dependencies. All
problems are reported in one run.

Exit codes:
  0 - Plan is valid
  1 - Validation errors or dependency cycles found
  2 - Command error (directory not found, CUE load failed, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, planDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	result, err := LoadPlan(planDir)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			// Compile errors are validation failures; everything else is
			// a command error.
			if loadErr.Code == ErrCodeCompileFailed {
				return NewExitError(ExitFailure, loadErr.Error())
			}
			return NewExitError(ExitCommandError, loadErr.Error())
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, planDir)
	formatter.VerboseLog("Compiled plan %q: %d component(s), %d dependenc(ies)",
		result.Plan.Project, len(result.Plan.Components), len(result.Plan.Dependencies))

	validationErrors := compiler.ValidatePlan(result.Plan)
	cycles := compiler.AnalyzeCycles(result.Plan)

	vr := ValidationResult{
		Valid:      len(validationErrors) == 0 && len(cycles) == 0,
		Components: len(result.Plan.Components),
		Edges:      len(result.Plan.Dependencies),
		Errors:     validationErrors,
		Cycles:     cycles,
	}

	if vr.Valid {
		return outputValidateSuccess(formatter, vr)
	}
	return outputValidateFailure(formatter, vr)
}

func outputValidateSuccess(formatter *OutputFormatter, vr ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(vr)
	}

	fmt.Fprintf(formatter.Writer, "✓ Plan valid: %d component(s), %d dependenc(ies)\n", vr.Components, vr.Edges)
	return nil
}

func outputValidateFailure(formatter *OutputFormatter, vr ValidationResult) error {
	total := len(vr.Errors) + len(vr.Cycles)

	if formatter.Format == "json" {
		resp := CLIResponse{
			Status: "error",
			Data:   vr,
			Error: &CLIError{
				Code:    ErrCodeGeneric,
				Message: fmt.Sprintf("validation failed with %d problem(s)", total),
			},
		}
		if len(vr.Errors) > 0 {
			resp.Error.Code = vr.Errors[0].Code
			resp.Error.Message = vr.Errors[0].Message
		}
		if err := formatter.JSON(resp); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", total))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range vr.Errors {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", err.Code, err.Message)
	}
	for _, cycle := range vr.Cycles {
		fmt.Fprintf(formatter.Writer, "  CYCLE: %s\n", cycle.Message)
	}
	fmt.Fprintln(formatter.Writer)

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", total))
}
