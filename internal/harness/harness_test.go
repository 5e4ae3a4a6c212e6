package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestScenariosMatchGolden(t *testing.T) {
	for _, name := range []string{"people", "graph", "naming"} {
		t.Run(name, func(t *testing.T) {
			scenario := loadTestScenario(t, name)
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Summary())
		})
	}
}

func TestRunRecordsOnlyExecutedQueries(t *testing.T) {
	result, err := Run(t.Context(), loadTestScenario(t, "people"))
	require.NoError(t, err)

	require.Len(t, result.Journal, 1)
	assert.Equal(t, int64(1), result.Journal[0].Seq)
	assert.Equal(t, "test-id-1", result.Journal[0].ID)

	adults, ok := result.Translation("adults")
	require.True(t, ok)
	assert.True(t, adults.Executed)
	assert.Len(t, adults.Rows, 2)

	older, ok := result.Translation("older")
	require.True(t, ok)
	assert.False(t, older.Executed)
	assert.Nil(t, older.Rows)
}

func TestRunIsDeterministic(t *testing.T) {
	scenario := loadTestScenario(t, "people")

	first, err := Run(t.Context(), scenario)
	require.NoError(t, err)
	second, err := Run(t.Context(), scenario)
	require.NoError(t, err)

	a, err := NewSnapshot(scenario.Name, first).Marshal()
	require.NoError(t, err)
	b, err := NewSnapshot(scenario.Name, second).Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRunNilScenario(t *testing.T) {
	_, err := Run(t.Context(), nil)
	require.Error(t, err)
}

func TestFailingAssertions(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: failing
description: every assertion is wrong
queries:
  - name: adults
    collection: People
    params: [30]
    steps:
      - op: Where
        args: [{lambda: "p => p.age > $0"}]
  - name: names
    collection: People
    steps:
      - op: Select
        args: [{lambda: "p => p.name"}]
assertions:
  - type: aql
    query: adults
    aql: FOR p IN @@C0 RETURN p
  - type: bind_vars
    query: adults
    bind_vars: {P0: 31}
  - type: error
    query: adults
    code: UNSUPPORTED_OPERATION
  - type: rows
    query: adults
    count: 1
  - type: same_shape
    queries: [adults, names]
  - type: journal_count
    count: 3
`))
	require.NoError(t, err)

	result, err := Run(t.Context(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)

	for i, e := range result.Errors {
		assert.Equal(t, i, e.Index)
	}
	assert.Equal(t, "FOR p IN @@C0 FILTER p.age > @P0 RETURN p", result.Errors[0].Actual)
	assert.Contains(t, result.Errors[2].Error(), "expected error UNSUPPORTED_OPERATION")
	assert.Contains(t, result.Errors[3].Error(), "no results")
	assert.Contains(t, result.Errors[4].Error(), "adults and names differ")
	assert.Equal(t, 0, result.Errors[5].Actual)
	assert.Contains(t, result.Summary(), "FAIL (6 assertion(s))")
}

func TestBindVarsCompareCanonically(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: canonical
description: 30 and 30.0 are the same bind value
queries:
  - name: adults
    collection: People
    params: [30]
    steps:
      - op: Where
        args: [{lambda: "p => p.age > $0"}]
assertions:
  - type: bind_vars
    query: adults
    bind_vars: {P0: 30.0, "@C0": People}
`))
	require.NoError(t, err)

	result, err := Run(t.Context(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Summary())
}

func TestParseScenarioErrors(t *testing.T) {
	const query = `
queries:
  - name: q
    collection: People
    steps: [{op: Count}]
`
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown field",
			doc:  "name: x\ndescription: d\nflow_token: t\n" + query,
			want: "field flow_token not found",
		},
		{
			name: "missing name",
			doc:  "description: d\n" + query + "assertions: [{type: journal_count}]",
			want: "name is required",
		},
		{
			name: "missing description",
			doc:  "name: x\n" + query + "assertions: [{type: journal_count}]",
			want: "description is required",
		},
		{
			name: "no queries",
			doc:  "name: x\ndescription: d\nassertions: [{type: journal_count}]",
			want: "queries list is required",
		},
		{
			name: "no assertions",
			doc:  "name: x\ndescription: d\n" + query,
			want: "assertions list is required",
		},
		{
			name: "unknown assertion type",
			doc:  "name: x\ndescription: d\n" + query + "assertions: [{type: trace_order}]",
			want: `unknown assertion type "trace_order"`,
		},
		{
			name: "unknown query",
			doc:  "name: x\ndescription: d\n" + query + "assertions: [{type: aql, query: nope, aql: x}]",
			want: `unknown query "nope"`,
		},
		{
			name: "results for unknown query",
			doc:  "name: x\ndescription: d\n" + query + "results: {nope: []}\nassertions: [{type: journal_count}]",
			want: `results: unknown query "nope"`,
		},
		{
			name: "same shape needs two",
			doc:  "name: x\ndescription: d\n" + query + "assertions: [{type: same_shape, queries: [q]}]",
			want: "at least two queries",
		},
		{
			name: "aql text required",
			doc:  "name: x\ndescription: d\n" + query + "assertions: [{type: aql, query: q}]",
			want: "aql is required",
		},
		{
			name: "empty query entry",
			doc:  "name: x\ndescription: d\nqueries: [~]\nassertions: [{type: journal_count}]",
			want: "query is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
