package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/aqlgen/internal/ir"
)

// TranslationSnapshot is the stable part of a Translation. Error messages
// are left out; the code identifies the failure.
type TranslationSnapshot struct {
	Name     string         `json:"name"`
	Query    string         `json:"query,omitempty"`
	BindVars map[string]any `json:"bind_vars,omitempty"`
	Code     string         `json:"code,omitempty"`
	Executed bool           `json:"executed"`
	Rows     []any          `json:"rows,omitempty"`
}

// Snapshot captures everything a run produced that should not change
// between runs.
type Snapshot struct {
	ScenarioName string                `json:"scenario_name"`
	Translations []TranslationSnapshot `json:"translations"`
	Journal      []Execution           `json:"journal"`
}

// NewSnapshot builds the snapshot of a run.
func NewSnapshot(scenarioName string, result *Result) Snapshot {
	s := Snapshot{
		ScenarioName: scenarioName,
		Translations: make([]TranslationSnapshot, 0, len(result.Translations)),
		Journal:      make([]Execution, 0, len(result.Journal)),
	}
	for _, t := range result.Translations {
		s.Translations = append(s.Translations, TranslationSnapshot{
			Name:     t.Name,
			Query:    t.Query,
			BindVars: t.BindVars,
			Code:     t.Code,
			Executed: t.Executed,
			Rows:     t.Rows,
		})
	}
	s.Journal = append(s.Journal, result.Journal...)
	return s
}

// Marshal encodes the snapshot as canonical JSON.
func (s Snapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s)
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden. Regenerate with
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
