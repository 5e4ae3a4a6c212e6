package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adultsScenario = `
name: adults
description: people over 30
queries:
  - name: adults
    collection: People
    params: [30]
    steps:
      - op: Where
        args: [{lambda: "p => p.age > $0"}]
      - op: OrderBy
        args: [{lambda: "p => p.name"}]
results:
  adults: [{name: Ada, age: 36}]
assertions:
  - type: aql
    query: adults
    aql: FOR p IN @@C0 FILTER p.age > @P0 SORT p.name ASC RETURN p
  - type: journal_count
    count: 1
`

const brokenScenario = `
name: broken
description: expects the wrong text
queries:
  - name: all
    collection: People
    steps: [{op: Count}]
assertions:
  - type: aql
    query: all
    aql: FOR p IN @@C0 RETURN p
`

func TestRunScenariosWithoutGolden(t *testing.T) {
	dir := writeFiles(t, map[string]string{"adults.yaml": adultsScenario})

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "\u2713 adults")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestUpdateThenCompareGolden(t *testing.T) {
	dir := writeFiles(t, map[string]string{"adults.yaml": adultsScenario})
	goldenPath := filepath.Join(dir, "golden", "adults.golden")

	_, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"adults"`)
	assert.Contains(t, string(golden), `"id":"test-id-1"`)

	_, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"scenario_name":"adults"}`), 0644))
	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "does not match golden file")
}

func TestRunScenariosJSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"adults.yaml": adultsScenario,
		"broken.yaml": brokenScenario,
	})

	out, err := execute(NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	for _, s := range resp.Data.Scenarios {
		if s.Name == "broken" {
			assert.False(t, s.Pass)
			require.Len(t, s.Errors, 1)
			assert.Contains(t, s.Errors[0], "RETURN LENGTH")
		}
	}
}

func TestRunScenariosFilter(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"adults.yaml": adultsScenario,
		"broken.yaml": brokenScenario,
	})

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--filter", "adu*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "broken")
}

func TestRunScenariosLoadError(t *testing.T) {
	dir := writeFiles(t, map[string]string{"bad.yaml": "name: bad\n"})

	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "failed to load scenario")
}

func TestRunScenariosEmptyAndMissing(t *testing.T) {
	out, err := execute(NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")

	_, err = execute(NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
