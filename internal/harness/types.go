package harness

import (
	"fmt"
	"strings"
)

// Codes for failures that carry no translator error code.
const (
	// CodeCompileError marks a query that failed to build from its definition.
	CodeCompileError = "COMPILE_ERROR"

	// CodeTranslationError marks any other translation failure.
	CodeTranslationError = "TRANSLATION_ERROR"
)

// Translation is the outcome of one scenario query.
type Translation struct {
	Name     string         `json:"name"`
	Query    string         `json:"query,omitempty"`
	BindVars map[string]any `json:"bind_vars,omitempty"`
	Code     string         `json:"code,omitempty"`
	Error    string         `json:"error,omitempty"`
	Rows     []any          `json:"rows,omitempty"`

	// Executed reports whether the query was run against canned results.
	Executed bool `json:"executed"`

	shape string
}

// Failed reports whether the query produced no AQL.
func (t *Translation) Failed() bool { return t.Code != "" }

// Execution is one journal entry written during a run. Timings and hashes
// are left out so snapshots stay stable.
type Execution struct {
	Seq   int64  `json:"seq"`
	ID    string `json:"id"`
	Query string `json:"query"`
	Error string `json:"error,omitempty"`
}

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool

	// Translations holds one entry per query, in scenario order.
	Translations []Translation

	// Journal holds the executions recorded during the run, oldest first.
	Journal []Execution

	// Errors collects failed assertions.
	Errors []AssertionError
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records a failed assertion and marks the result failed.
func (r *Result) AddError(err AssertionError) {
	r.Pass = false
	r.Errors = append(r.Errors, err)
}

// Translation returns the outcome of the named query.
func (r *Result) Translation(name string) (*Translation, bool) {
	for i := range r.Translations {
		if r.Translations[i].Name == name {
			return &r.Translations[i], true
		}
	}
	return nil, false
}

// Summary renders the failed assertions one per line.
func (r *Result) Summary() string {
	if r.Pass {
		return "PASS"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "FAIL (%d assertion(s))", len(r.Errors))
	for _, e := range r.Errors {
		b.WriteString("\n  ")
		b.WriteString(e.Error())
	}
	return b.String()
}
