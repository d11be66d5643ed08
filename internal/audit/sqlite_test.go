package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atacama-group/seia-cli/internal/model"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestSQLite(t)

	rec, err := NewRecord(testFacts(), testResult())
	require.NoError(t, err)
	require.NoError(t, st.SaveRun(ctx, rec))

	got, err := st.GetRun(ctx, rec.RunID)
	require.NoError(t, err)
	assert.Equal(t, rec.RunID, got.RunID)
	assert.Equal(t, rec.InputHash, got.InputHash)
	assert.Equal(t, model.PathwayEIA, got.Result.Pathway)
	assert.Equal(t, rec.Facts.ProjectID, got.Facts.ProjectID)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
}

func TestSQLiteStoreInsertOnly(t *testing.T) {
	ctx := context.Background()
	st := openTestSQLite(t)

	rec, err := NewRecord(testFacts(), testResult())
	require.NoError(t, err)
	require.NoError(t, st.SaveRun(ctx, rec))

	// A duplicate run ID is rejected, never silently updated.
	err = st.SaveRun(ctx, rec)
	require.Error(t, err)
}

func TestSQLiteStoreListRuns(t *testing.T) {
	ctx := context.Background()
	st := openTestSQLite(t)

	base := testResult()
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		res := *base
		res.RunID = id
		res.EvaluatedAt = base.EvaluatedAt.Add(time.Duration(i) * time.Hour)
		rec, err := NewRecord(testFacts(), &res)
		require.NoError(t, err)
		require.NoError(t, st.SaveRun(ctx, rec))
	}

	recs, err := st.ListRuns(ctx, "MINA-CU-0042", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	// Newest first.
	assert.Equal(t, "run-c", recs[0].RunID)
	assert.Equal(t, "run-b", recs[1].RunID)

	recs, err = st.ListRuns(ctx, "OTHER", 10)
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = st.GetRun(ctx, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
