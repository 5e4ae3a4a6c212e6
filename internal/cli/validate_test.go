package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aqlgen/internal/compiler"
)

func TestValidateValid(t *testing.T) {
	dir := writeFiles(t, map[string]string{"people.cue": peopleCUE, "names.yaml": peopleYAML})

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "All 2 queries valid")
}

func TestValidateReportsEveryError(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.yaml": `
queries:
  - name: q
    collection: People
    steps:
      - op: Shuffle
      - op: Where
        args: [{lambda: "p => p.age > $3"}]
  - name: q
    collection: People
    steps: [{op: Count}]
`})

	out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)

	codes := make([]string, 0, len(resp.Data.Errors))
	for _, e := range resp.Data.Errors {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, compiler.ErrUnknownOperation)
	assert.Contains(t, codes, compiler.ErrInvalidPlaceholder)
	assert.Contains(t, codes, compiler.ErrDuplicateQuery)
}

func TestValidateText(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.yaml": "queries:\n  - name: q\n    collection: People\n    steps: []\n"})

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "Validation failed")
	assert.Contains(t, out, compiler.ErrNoSteps)
}

func TestValidateMissingPath(t *testing.T) {
	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/queries")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}
