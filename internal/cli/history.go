package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/aqlgen/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Shape    string
	Stats    bool
	Prune    int
}

// HistoryResult is the JSON output of the history command. Only one of
// the fields is set, depending on the flags.
type HistoryResult struct {
	Entries []journal.Entry     `json:"entries,omitempty"`
	Shapes  []journal.ShapeStat `json:"shapes,omitempty"`
	Pruned  *int64              `json:"pruned,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the query journal",
		Long: `Inspect a query journal written by a provider with a journal recorder.

By default the most recent executions are listed, newest first.

Examples:
  aqlgen history --db ./queries.db
  aqlgen history --db ./queries.db --limit 50 --format json
  aqlgen history --db ./queries.db --stats
  aqlgen history --db ./queries.db --shape 3f2a...
  aqlgen history --db ./queries.db --prune 1000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of recent executions to list")
	cmd.Flags().StringVar(&opts.Shape, "shape", "", "list every execution of one query shape")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "aggregate executions per query shape")
	cmd.Flags().IntVar(&opts.Prune, "prune", 0, "delete all but the newest N executions")
	_ = cmd.MarkFlagRequired("db")
	cmd.MarkFlagsMutuallyExclusive("shape", "stats", "prune")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()

	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("journal not found: %s", opts.Database))
	}
	j, err := journal.Open(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeJournal, err.Error())
	}
	defer j.Close()

	var result HistoryResult
	switch {
	case opts.Prune > 0:
		n, err := j.Prune(ctx, opts.Prune)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeJournal, err.Error())
		}
		result.Pruned = &n
	case opts.Stats:
		if result.Shapes, err = j.ShapeStats(ctx); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeJournal, err.Error())
		}
	case opts.Shape != "":
		if result.Entries, err = j.ReadShape(ctx, opts.Shape); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeJournal, err.Error())
		}
	default:
		if result.Entries, err = j.ReadRecent(ctx, opts.Limit); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeJournal, err.Error())
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	printHistory(formatter, opts, result)
	return nil
}

func printHistory(formatter *OutputFormatter, opts *HistoryOptions, result HistoryResult) {
	w := formatter.Writer
	switch {
	case result.Pruned != nil:
		fmt.Fprintf(w, "Pruned %d execution(s), kept the newest %d\n", *result.Pruned, opts.Prune)
	case opts.Stats:
		if len(result.Shapes) == 0 {
			fmt.Fprintln(w, "No executions recorded.")
			return
		}
		for _, s := range result.Shapes {
			fmt.Fprintf(w, "%s  %d run(s), %d failed, mean %s\n  %s\n",
				short(s.Shape), s.Count, s.Failures, s.Mean().Round(time.Microsecond), s.Query)
		}
	default:
		if len(result.Entries) == 0 {
			fmt.Fprintln(w, "No executions recorded.")
			return
		}
		for _, e := range result.Entries {
			status := "ok"
			if e.Failed() {
				status = "error: " + e.Error
			}
			fmt.Fprintf(w, "#%d %s %s (%s)\n  %s\n",
				e.Seq, short(e.Shape), status, e.Elapsed.Round(time.Microsecond), e.Query)
			if formatter.Verbose {
				fmt.Fprintf(w, "  id: %s\n", e.ID)
			}
		}
	}
}

// short abbreviates a shape hash for text output.
func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
