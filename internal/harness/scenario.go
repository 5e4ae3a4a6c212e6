package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/aqlgen/internal/compiler"
	"github.com/roach88/aqlgen/internal/naming"
)

// Scenario is one translation test.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Naming configures the resolver. Identity naming when absent.
	Naming *naming.Config `yaml:"naming,omitempty"`

	// Queries are translated, and executed when they have Results, in
	// order.
	Queries []*compiler.QuerySpec `yaml:"queries"`

	// Results holds the rows returned for each query, keyed by query name.
	Results map[string][]any `yaml:"results,omitempty"`

	// Assertions are checked after every query has run.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one property of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Query names the query checked by aql, bind_vars, error and rows.
	Query string `yaml:"query,omitempty"`

	// Queries lists the queries compared by same_shape.
	Queries []string `yaml:"queries,omitempty"`

	// AQL is the expected query text (aql).
	AQL string `yaml:"aql,omitempty"`

	// BindVars are the expected bind variables (bind_vars). Values are
	// compared as canonical JSON, so 30 and 30.0 match.
	BindVars map[string]any `yaml:"bind_vars,omitempty"`

	// Code is the expected error code (error).
	Code string `yaml:"code,omitempty"`

	// Count is the expected number of rows (rows) or journal entries
	// (journal_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertAQL          = "aql"
	AssertBindVars     = "bind_vars"
	AssertError        = "error"
	AssertSameShape    = "same_shape"
	AssertRows         = "rows"
	AssertJournalCount = "journal_count"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := compiler.Normalize(s.Queries); err != nil {
		return nil, fmt.Errorf("invalid queries: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Queries))
	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if names[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate query name %q", i, q.Name)
		}
		names[q.Name] = true
	}
	for name := range s.Results {
		if !names[name] {
			return fmt.Errorf("results: unknown query %q", name)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, names); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion, names map[string]bool) error {
	needQuery := func() error {
		if a.Query == "" {
			return fmt.Errorf("assertions[%d]: query is required for %s", index, a.Type)
		}
		if !names[a.Query] {
			return fmt.Errorf("assertions[%d]: unknown query %q", index, a.Query)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertAQL:
		if a.AQL == "" {
			return fmt.Errorf("assertions[%d]: aql is required for aql", index)
		}
		return needQuery()
	case AssertBindVars:
		if a.BindVars == nil {
			return fmt.Errorf("assertions[%d]: bind_vars is required for bind_vars", index)
		}
		return needQuery()
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
		return needQuery()
	case AssertRows:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for rows", index)
		}
		return needQuery()
	case AssertSameShape:
		if len(a.Queries) < 2 {
			return fmt.Errorf("assertions[%d]: same_shape needs at least two queries", index)
		}
		for _, q := range a.Queries {
			if !names[q] {
				return fmt.Errorf("assertions[%d]: unknown query %q", index, q)
			}
		}
	case AssertJournalCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for journal_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
