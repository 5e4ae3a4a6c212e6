package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/aqlgen/internal/compiler"
	"github.com/roach88/aqlgen/internal/parser"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Queries int                        `json:"queries"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Check query definitions without translating them",
		Long: `Check CUE or YAML query definitions without translating them.

Reports every problem found: missing names, duplicate queries, unknown
operations, malformed arguments, lambdas that do not parse and
placeholders with no parameter.`,
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
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadQueries(path, LoadModeCollectAll)
	if loadResult == nil {
		errs := toCLIErrors(loadErrors)
		return formatter.fail(ExitCommandError, errs[0].Code, errs[0].Message)
	}
	formatter.VerboseLog("Found %d query file(s) in %s", loadResult.FileCount, path)

	validationErrors := ValidateQueries(loadResult.Queries)
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    loadErr.Line(),
			})
		}
	}

	result := ValidationResult{
		Valid:   len(validationErrors) == 0,
		Queries: len(loadResult.Queries),
		Errors:  validationErrors,
	}
	if result.Valid {
		if formatter.JSON() {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "\u2713 All %d quer%s valid\n", result.Queries, plural(result.Queries, "y", "ies"))
		return nil
	}
	return outputValidationErrors(formatter, result)
}

// ValidateQueries checks specs against the default operation registry.
func ValidateQueries(specs []*compiler.QuerySpec) []compiler.ValidationError {
	return compiler.Validate(specs, parser.DefaultRegistry())
}

func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.JSON() {
		cliErrs := make([]CLIError, len(errs))
		for i, e := range errs {
			cliErrs[i] = CLIError{Code: e.Code, Message: e.Message}
		}
		if err := formatter.Errors(cliErrs, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "\u2717 Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", e.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
