package harness

import (
	"fmt"

	"github.com/roach88/aqlgen/internal/ir"
)

// AssertionError describes one assertion that did not hold.
type AssertionError struct {
	Index    int
	Type     string
	Query    string
	Expected any
	Actual   any
	Message  string
}

// Error implements the error interface.
func (e AssertionError) Error() string {
	where := fmt.Sprintf("assertions[%d] %s", e.Index, e.Type)
	if e.Query != "" {
		where += " " + e.Query
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", where, e.Message)
	}
	return fmt.Sprintf("%s: expected %v, got %v", where, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion of scenario against result,
// recording failures on result.
func EvaluateAssertions(scenario *Scenario, result *Result) {
	for i, a := range scenario.Assertions {
		if err := evaluate(i, a, result); err != nil {
			result.AddError(*err)
		}
	}
}

func evaluate(index int, a Assertion, result *Result) *AssertionError {
	fail := func(expected, actual any) *AssertionError {
		return &AssertionError{Index: index, Type: a.Type, Query: a.Query, Expected: expected, Actual: actual}
	}
	failMsg := func(format string, args ...any) *AssertionError {
		return &AssertionError{Index: index, Type: a.Type, Query: a.Query, Message: fmt.Sprintf(format, args...)}
	}

	var t *Translation
	switch a.Type {
	case AssertAQL, AssertBindVars, AssertError, AssertRows:
		var ok bool
		if t, ok = result.Translation(a.Query); !ok {
			return failMsg("query did not run")
		}
	}

	switch a.Type {
	case AssertAQL:
		if t.Failed() {
			return failMsg("translation failed: %s", t.Error)
		}
		if t.Query != a.AQL {
			return fail(a.AQL, t.Query)
		}

	case AssertBindVars:
		if t.Failed() {
			return failMsg("translation failed: %s", t.Error)
		}
		want, err := ir.MarshalCanonical(a.BindVars)
		if err != nil {
			return failMsg("encode expected bind vars: %v", err)
		}
		got, err := ir.MarshalCanonical(t.BindVars)
		if err != nil {
			return failMsg("encode bind vars: %v", err)
		}
		if string(want) != string(got) {
			return fail(string(want), string(got))
		}

	case AssertError:
		if t.Code != a.Code {
			if t.Code == "" {
				return failMsg("expected error %s, query translated to %q", a.Code, t.Query)
			}
			return fail(a.Code, t.Code)
		}

	case AssertRows:
		if !t.Executed {
			return failMsg("query has no results to execute against")
		}
		if t.Error != "" {
			return failMsg("execution failed: %s", t.Error)
		}
		if len(t.Rows) != a.Count {
			return fail(a.Count, len(t.Rows))
		}

	case AssertSameShape:
		var first *Translation
		for _, name := range a.Queries {
			other, ok := result.Translation(name)
			if !ok {
				return failMsg("query %s did not run", name)
			}
			if other.Failed() {
				return failMsg("query %s failed: %s", name, other.Error)
			}
			if first == nil {
				first = other
				continue
			}
			if other.shape != first.shape {
				return failMsg("%s and %s differ: %q vs %q", first.Name, name, first.Query, other.Query)
			}
		}

	case AssertJournalCount:
		if len(result.Journal) != a.Count {
			return fail(a.Count, len(result.Journal))
		}

	default:
		return failMsg("unknown assertion type")
	}
	return nil
}
