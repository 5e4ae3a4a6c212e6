package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/aqlgen/internal/compiler"
	"github.com/roach88/aqlgen/internal/ir"
	"github.com/roach88/aqlgen/internal/model"
	"github.com/roach88/aqlgen/linq"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledQuery is one translated query.
type CompiledQuery struct {
	Name     string         `json:"name"`
	Query    string         `json:"query"`
	BindVars map[string]any `json:"bindVars"`
	Shape    string         `json:"shape"`
}

// CompilationResult holds every translated query, in definition order.
type CompilationResult struct {
	Queries []CompiledQuery `json:"queries"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <path>",
		Short: "Translate query definitions to AQL",
		Long: `Translate CUE or YAML query definitions to AQL.

<path> is a query file or a directory of them. Each query is built into
a method chain and translated; the output lists the AQL text and bind
variables of every query.

Examples:
  aqlgen compile ./queries
  aqlgen compile ./queries/people.cue --format json
  aqlgen compile ./queries --naming naming.yaml -o compiled.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write canonical JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loadResult, loadErrors := LoadQueries(path, LoadModeCollectAll)
	if loadResult == nil {
		return outputCompileErrors(formatter, toCLIErrors(loadErrors))
	}
	formatter.VerboseLog("Found %d query file(s) in %s", loadResult.FileCount, path)
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, toCLIErrors(loadErrors))
	}

	resolver, err := opts.resolver()
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNamingConfig, err.Error())
	}
	p := linq.NewProvider(nil,
		linq.WithResolver(resolver),
		linq.WithLogger(opts.logger(cmd.ErrOrStderr())),
	)

	result := &CompilationResult{Queries: make([]CompiledQuery, 0, len(loadResult.Queries))}
	var errs []CLIError
	for _, spec := range loadResult.Queries {
		formatter.VerboseLog("Compiling query: %s", spec.Name)
		q, cliErr := translateSpec(p, spec)
		if cliErr != nil {
			errs = append(errs, *cliErr)
			continue
		}
		result.Queries = append(result.Queries, *q)
	}
	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	if opts.Output != "" {
		if err := writeCompiled(result, opts.Output); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}
	return outputCompileSuccess(formatter, result, opts.Output)
}

// translateSpec builds and translates one query.
func translateSpec(p *linq.Provider, spec *compiler.QuerySpec) (*CompiledQuery, *CLIError) {
	chain, err := compiler.Build(spec)
	if err != nil {
		return nil, &CLIError{Code: ErrCodeCompileFailed, Message: err.Error()}
	}
	data, err := p.Translate(chain)
	if err != nil {
		e := &CLIError{Code: ErrCodeTranslateFailed, Message: fmt.Sprintf("query.%s: %v", spec.Name, err)}
		if code := model.CodeOf(err); code != "" {
			e.Details = map[string]string{"translation_code": string(code)}
		}
		return nil, e
	}
	return &CompiledQuery{
		Name:     spec.Name,
		Query:    data.Query,
		BindVars: data.BindVars(),
		Shape:    data.Shape(),
	}, nil
}

func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "\u2713 Compiled %d quer%s\n", len(result.Queries), plural(len(result.Queries), "y", "ies"))
	for _, q := range result.Queries {
		fmt.Fprintf(w, "\n%s:\n  %s\n", q.Name, q.Query)
		if len(q.BindVars) > 0 {
			vars, err := ir.MarshalCanonical(q.BindVars)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  bind vars: %s\n", vars)
		}
	}
	if outputFile != "" {
		fmt.Fprintf(w, "\nWrote canonical JSON to %s\n", outputFile)
	}
	return nil
}

func outputCompileErrors(formatter *OutputFormatter, errs []CLIError) error {
	if !formatter.JSON() {
		fmt.Fprintln(formatter.Writer, "\u2717 Compilation failed")
		fmt.Fprintln(formatter.Writer)
	}
	if err := formatter.Errors(errs, nil); err != nil {
		return err
	}
	exitCode := ExitFailure
	if len(errs) > 0 && isCommandError(errs[0].Code) {
		exitCode = ExitCommandError
	}
	return NewExitError(exitCode, fmt.Sprintf("%s: compilation failed with %d error(s)", errs[0].Code, len(errs)))
}

// isCommandError reports whether code means the input could not be read
// at all, as opposed to a query being wrong.
func isCommandError(code string) bool {
	switch code {
	case ErrCodeScanError, ErrCodeNoFiles, ErrCodeNotFound, ErrCodeLoadFailed, ErrCodeBuildFailed:
		return true
	}
	return false
}

// writeCompiled writes the result as canonical JSON, so identical query
// sets produce identical files.
func writeCompiled(result *CompilationResult, filename string) error {
	data, err := ir.MarshalCanonical(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
