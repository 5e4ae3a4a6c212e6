package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/aqlgen/internal/compiler"
	"github.com/roach88/aqlgen/internal/journal"
	"github.com/roach88/aqlgen/internal/model"
	"github.com/roach88/aqlgen/internal/naming"
	"github.com/roach88/aqlgen/internal/testutil"
	"github.com/roach88/aqlgen/linq"
)

// Run executes a scenario and evaluates its assertions.
//
// Each query is built from its definition and translated. Queries with canned
// results are then executed through the provider, so they reach the
// journal exactly as an application query would. A scenario whose
// queries fail to compile or translate still returns a Result; only
// infrastructure failures return an error.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("scenario is nil")
	}

	j, err := journal.Open(":memory:",
		journal.WithSequencer(testutil.NewDeterministicClock()),
		journal.WithIDGenerator(testutil.NewFixedIDGenerator()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	var resolver naming.Resolver = naming.NewResolver()
	if scenario.Naming != nil {
		resolver = scenario.Naming.Resolver()
	}

	exec := testutil.NewExecutor()
	p := linq.NewProvider(exec,
		linq.WithResolver(resolver),
		linq.WithRecorder(j),
		linq.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	result := NewResult()
	for _, spec := range scenario.Queries {
		result.Translations = append(result.Translations, runQuery(ctx, p, exec, spec, scenario.Results))
	}

	entries, err := j.ReadRecent(ctx, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	slices.Reverse(entries)
	for _, e := range entries {
		result.Journal = append(result.Journal, Execution{Seq: e.Seq, ID: e.ID, Query: e.Query, Error: e.Error})
	}

	EvaluateAssertions(scenario, result)
	return result, nil
}

func runQuery(ctx context.Context, p *linq.Provider, exec *testutil.Executor, spec *compiler.QuerySpec, results map[string][]any) Translation {
	t := Translation{Name: spec.Name}

	expr, err := compiler.Build(spec)
	if err != nil {
		t.Code = CodeCompileError
		t.Error = err.Error()
		return t
	}

	data, err := p.Translate(expr)
	if err != nil {
		t.Code = string(model.CodeOf(err))
		if t.Code == "" {
			t.Code = CodeTranslationError
		}
		t.Error = err.Error()
		return t
	}
	t.Query = data.Query
	t.BindVars = data.BindVars()
	t.shape = data.Shape()

	rows, ok := results[spec.Name]
	if !ok {
		return t
	}
	exec.On(data.Query, rows...)
	got, err := linq.CreateQuery[any](p, expr).ToList(ctx)
	t.Executed = true
	if err != nil {
		t.Error = err.Error()
		return t
	}
	t.Rows = got
	return t
}
