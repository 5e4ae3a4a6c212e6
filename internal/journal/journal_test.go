package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/aqlgen/internal/aql"
	"github.com/roach88/aqlgen/internal/ir"
	"github.com/roach88/aqlgen/internal/testutil"
	"github.com/roach88/aqlgen/linq"
)

const adultsQuery = "FOR p IN @@C0 FILTER p.age > @P0 RETURN p"

func adults(age int) *aql.QueryData {
	return &aql.QueryData{
		Query:  adultsQuery,
		Params: []aql.BindParam{{Name: "@C0", Value: "People"}, {Name: "P0", Value: age}},
	}
}

func openTest(t *testing.T, opts ...Option) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func deterministic(t *testing.T, ids ...string) *Journal {
	return openTest(t, WithSequencer(testutil.NewDeterministicClock()), WithIDGenerator(testutil.NewFixedIDGenerator(ids...)))
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for range 3 {
		j, err := Open(path)
		require.NoError(t, err)
		version, err := j.schemaVersion()
		require.NoError(t, err)
		assert.Equal(t, currentSchemaVersion, version)
		require.NoError(t, j.Close())
	}
}

func TestRecordAndReadRecent(t *testing.T) {
	ctx := context.Background()
	j := deterministic(t, "e1", "e2", "e3")

	require.NoError(t, j.Record(ctx, adults(30), 3*time.Millisecond, nil))
	require.NoError(t, j.Record(ctx, adults(25), time.Millisecond, nil))
	require.NoError(t, j.Record(ctx, adults(40), 0, errors.New("collection not found")))

	entries, err := j.ReadRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "e3", entries[0].ID)
	assert.Equal(t, int64(3), entries[0].Seq)
	assert.True(t, entries[0].Failed())
	assert.Equal(t, "collection not found", entries[0].Error)

	assert.Equal(t, "e2", entries[1].ID)
	assert.False(t, entries[1].Failed())
	assert.Equal(t, time.Millisecond, entries[1].Elapsed)
	assert.Equal(t, ir.IRObject{"@C0": ir.IRString("People"), "P0": ir.IRInt(25)}, entries[1].BindVars)
	assert.Equal(t, entries[0].Shape, entries[1].Shape)
	assert.NotEqual(t, entries[0].Fingerprint, entries[1].Fingerprint)
}

func TestReadRecentEmpty(t *testing.T) {
	entries, err := openTest(t).ReadRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestDuplicateIDsAreIgnored(t *testing.T) {
	ctx := context.Background()
	j := deterministic(t, "same", "same")

	require.NoError(t, j.Record(ctx, adults(30), 0, nil))
	require.NoError(t, j.Record(ctx, adults(31), 0, nil))

	entries, err := j.ReadRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ir.IRInt(30), entries[0].BindVars["P0"])
}

func TestShapeStats(t *testing.T) {
	ctx := context.Background()
	j := deterministic(t)
	count := &aql.QueryData{
		Query:  "RETURN LENGTH((FOR x IN @@C0 RETURN x))",
		Params: []aql.BindParam{{Name: "@C0", Value: "People"}},
	}

	require.NoError(t, j.Record(ctx, adults(30), 4*time.Millisecond, nil))
	require.NoError(t, j.Record(ctx, count, time.Millisecond, nil))
	require.NoError(t, j.Record(ctx, adults(25), 2*time.Millisecond, errors.New("timeout")))

	stats, err := j.ShapeStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, adults(0).Shape(), stats[0].Shape)
	assert.Equal(t, adultsQuery, stats[0].Query)
	assert.Equal(t, 2, stats[0].Count)
	assert.Equal(t, 1, stats[0].Failures)
	assert.Equal(t, 6*time.Millisecond, stats[0].Total)
	assert.Equal(t, 3*time.Millisecond, stats[0].Mean())
	assert.Equal(t, int64(3), stats[0].LastSeq)

	assert.Equal(t, count.Shape(), stats[1].Shape)
	assert.Equal(t, 1, stats[1].Count)

	byShape, err := j.ReadShape(ctx, stats[0].Shape)
	require.NoError(t, err)
	require.Len(t, byShape, 2)
	assert.Less(t, byShape[0].Seq, byShape[1].Seq)
}

func TestReopenResumesSequence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, adults(30), 0, nil))
	require.NoError(t, j.Record(ctx, adults(31), 0, nil))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	e, err := j.Append(ctx, adults(32), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), e.Seq)
	assert.Len(t, e.ID, 36)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	j := deterministic(t)
	for age := range 5 {
		require.NoError(t, j.Record(ctx, adults(age), 0, nil))
	}

	removed, err := j.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	entries, err := j.ReadRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(5), entries[0].Seq)

	_, err = j.Prune(ctx, -1)
	assert.Error(t, err)
}

func TestRecordsProviderExecutions(t *testing.T) {
	type person struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	ctx := context.Background()
	j := deterministic(t)
	exec := testutil.NewExecutor().
		On(adultsQuery, person{Name: "Ada", Age: 36}).
		On("RETURN LENGTH((FOR p IN @@C0 FILTER p.age > @P0 RETURN p))", 1)
	p := linq.NewProvider(exec, linq.WithRecorder(j))

	q := linq.Collection[person](p).Where(linq.L("p => p.Age > $0", 30))
	_, err := q.ToList(ctx)
	require.NoError(t, err)
	_, err = q.Count(ctx)
	require.NoError(t, err)

	entries, err := j.ReadRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "RETURN LENGTH((FOR p IN @@C0 FILTER p.age > @P0 RETURN p))", entries[0].Query)
	assert.Equal(t, "FOR p IN @@C0 FILTER p.age > @P0 RETURN p", entries[1].Query)
	assert.Equal(t, ir.IRObject{"@C0": ir.IRString("person"), "P0": ir.IRInt(30)}, entries[1].BindVars)
}

func TestClock(t *testing.T) {
	c := NewClockAt(41)
	assert.Equal(t, int64(41), c.Current())
	assert.Equal(t, int64(42), c.Next())
	assert.Equal(t, int64(42), c.Current())
}
