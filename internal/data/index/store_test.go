package index

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"codequery/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRejectsBadPaths(t *testing.T) {
	_, err := Open("  ")
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	_, err = Open(t.TempDir())
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	id, err := s.SaveRun(ctx, Snapshot{
		ProjectKey: "shapes",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Files:      3,
		Types:      4,
		Edges: []Edge{
			{Parent: "shapes.Shape", Child: "shapes.Square"},
			{Parent: "shapes.Shape", Child: "shapes.Circle"},
			{Parent: "shapes.Shape", Child: "shapes.Circle"},
		},
		Overrides: []string{"shapes.Square#area()", "shapes.Circle#area()"},
		Calls: []CallBinding{
			{File: "app/Report.java", Line: 9, Name: "area", Target: "shapes.Shape#area()"},
			{File: "app/Report.java", Line: 4, Name: "area", Target: "shapes.Shape#area()"},
			{File: "app/Report.java", Line: 12, Name: "println"},
		},
		Failures: []Failure{{Code: "UNRESOLVED_NAME", Component: "names", File: "app/Report.java", Subject: "Missing"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id, "a run id is generated")

	run, err := s.LatestRun(ctx, "shapes")
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, 3, run.Files)
	assert.Equal(t, 4, run.Types)
	assert.Equal(t, 3, run.Calls)
	assert.Equal(t, 2, run.ResolvedCalls)
	assert.True(t, run.StartedAt.Equal(started))

	edges, err := s.LoadEdges(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []Edge{
		{Parent: "shapes.Shape", Child: "shapes.Circle"},
		{Parent: "shapes.Shape", Child: "shapes.Square"},
	}, edges)

	overrides, err := s.LoadOverrides(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"shapes.Circle#area()", "shapes.Square#area()"}, overrides)

	callers, err := s.Callers(ctx, id, "shapes.Shape#area()")
	require.NoError(t, err)
	require.Len(t, callers, 2)
	assert.Equal(t, 4, callers[0].Line)
}

func TestLatestRunOrderingAndPrune(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var ids []string
	for i, offset := range []time.Duration{100 * time.Millisecond, 120 * time.Millisecond, time.Second} {
		id, err := s.SaveRun(ctx, Snapshot{RunID: string(rune('a' + i)), FinishedAt: base.Add(offset)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	run, err := s.LatestRun(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, ids[2], run.ID)

	runs, err := s.ListRuns(ctx, "default", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.True(t, runs[1].FinishedAt.Equal(base.Add(120*time.Millisecond)))

	runs, err = s.ListRuns(ctx, "default", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	removed, err := s.PruneRuns(ctx, "default", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, err = s.LatestRun(ctx, "other")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestPruneCascades(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	old, err := s.SaveRun(ctx, Snapshot{FinishedAt: base, Overrides: []string{"a.B#c()"}})
	require.NoError(t, err)
	_, err = s.SaveRun(ctx, Snapshot{FinishedAt: base.Add(time.Minute)})
	require.NoError(t, err)

	_, err = s.PruneRuns(ctx, "", 1)
	require.NoError(t, err)

	overrides, err := s.LoadOverrides(ctx, old)
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.SaveRun(context.Background(), Snapshot{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.LatestRun(context.Background(), "default")
	assert.NoError(t, err)
}
