package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/chemflow/internal/sheet"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                    `json:"valid"`
	Sheet     string                  `json:"sheet,omitempty"`
	SheetHash string                  `json:"sheet_hash,omitempty"`
	Streams   int                     `json:"streams"`
	Devices   int                     `json:"devices"`
	Errors    []sheet.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <sheet-path>",
		Short: "Validate a flowsheet without running it",
		Long: `Validate a CUE flowsheet without evaluating it.

The path is a directory of .cue files or a single .cue file. Checks
device kinds, stream references, slot capacities, producers and cycles,
and reports every problem with its error code.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	s, err := sheet.Load(path)
	if err != nil {
		var loadErr *sheet.LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidateError(formatter, sheet.ErrCodeGeneric, err.Error(), nil)
	}

	formatter.VerboseLog("Loaded sheet %s: %d stream(s), %d device(s)", s.Name, len(s.Streams), len(s.Devices))

	if errs := sheet.Validate(s); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	hash, err := sheet.Hash(s)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash sheet", err)
	}
	return outputValidateSuccess(formatter, ValidationResult{
		Valid:     true,
		Sheet:     s.Name,
		SheetHash: hash,
		Streams:   len(s.Streams),
		Devices:   len(s.Devices),
	})
}

func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Sheet %s valid (%d streams, %d devices)\n", result.Sheet, result.Streams, result.Devices)
	return nil
}

// outputValidateError reports a sheet that could not be loaded at all.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

func outputValidationErrors(formatter *OutputFormatter, errs []sheet.ValidationError) error {
	failed := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return failed
}
