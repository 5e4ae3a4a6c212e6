package cli

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aqlgen/internal/aql"
	"github.com/roach88/aqlgen/internal/journal"
)

// seedJournal writes three executions of two shapes, the last one failed.
func seedJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	adults := func(age int) *aql.QueryData {
		return &aql.QueryData{
			Query:  adultsAQL,
			Params: []aql.BindParam{{Name: "@C0", Value: "People"}, {Name: "P0", Value: age}},
		}
	}
	count := &aql.QueryData{Query: "RETURN LENGTH(@@C0)", Params: []aql.BindParam{{Name: "@C0", Value: "People"}}}

	require.NoError(t, j.Record(ctx, adults(30), time.Millisecond, nil))
	require.NoError(t, j.Record(ctx, adults(40), 3*time.Millisecond, nil))
	require.NoError(t, j.Record(ctx, count, time.Millisecond, errors.New("collection not found")))
	return path
}

func TestHistoryRecent(t *testing.T) {
	db := seedJournal(t)

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db, "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "#3")
	assert.Contains(t, out, "error: collection not found")
	assert.Contains(t, out, "#2")
	assert.NotContains(t, out, "#1 ")
}

func TestHistoryJSON(t *testing.T) {
	db := seedJournal(t)

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "json"}), "--db", db)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Entries, 3)
	assert.Equal(t, int64(3), resp.Data.Entries[0].Seq)
	assert.True(t, resp.Data.Entries[0].Failed())
}

func TestHistoryStats(t *testing.T) {
	db := seedJournal(t)

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "json"}), "--db", db, "--stats")
	require.NoError(t, err)

	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Shapes, 2)
	assert.Equal(t, 2, resp.Data.Shapes[0].Count)
	assert.Equal(t, adultsAQL, resp.Data.Shapes[0].Query)
	assert.Equal(t, 1, resp.Data.Shapes[1].Failures)

	shape := resp.Data.Shapes[0].Shape
	out, err = execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db, "--shape", shape)
	require.NoError(t, err)
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "#2")
	assert.NotContains(t, out, "#3")
}

func TestHistoryPrune(t *testing.T) {
	db := seedJournal(t)

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db, "--prune", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 2 execution(s)")

	out, err = execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "#3")
	assert.NotContains(t, out, "#2")
}

func TestHistoryErrors(t *testing.T) {
	_, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"db" not set`)

	out, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "journal not found")

	db := seedJournal(t)
	_, err = execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db, "--stats", "--prune", "1")
	require.Error(t, err)
}
