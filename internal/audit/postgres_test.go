package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atacama-group/seia-cli/internal/model"
)

func TestPostgresStore_SaveRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)
	rec, err := NewRecord(testFacts(), testResult())
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO seia.audit_runs`).
		WithArgs(rec.RunID, rec.ProjectID, rec.InputHash, rec.RulesHash,
			"EIA", 0.95, "VERY_HIGH", 90.0,
			pgxmock.AnyArg(), pgxmock.AnyArg(), rec.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = store.SaveRun(context.Background(), rec)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)

	factsJSON, err := json.Marshal(testFacts())
	require.NoError(t, err)
	resultJSON, err := json.Marshal(testResult())
	require.NoError(t, err)
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT run_id, project_id, input_hash, rules_hash, facts, result, created_at`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.
			NewRows([]string{"run_id", "project_id", "input_hash", "rules_hash", "facts", "result", "created_at"}).
			AddRow("run-1", "MINA-CU-0042", "in-hash", "rules-hash", factsJSON, resultJSON, created))

	rec, err := store.GetRun(context.Background(), "run-1")

	require.NoError(t, err)
	assert.Equal(t, "run-1", rec.RunID)
	assert.Equal(t, model.PathwayEIA, rec.Result.Pathway)
	assert.Equal(t, "MINA-CU-0042", rec.Facts.ProjectID)
	assert.Equal(t, created, rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRunNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)

	mock.ExpectQuery(`SELECT run_id`).
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{"run_id", "project_id", "input_hash", "rules_hash", "facts", "result", "created_at"}))

	_, err = store.GetRun(context.Background(), "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)

	factsJSON, err := json.Marshal(testFacts())
	require.NoError(t, err)
	resultJSON, err := json.Marshal(testResult())
	require.NoError(t, err)
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT run_id, project_id, input_hash, rules_hash, facts, result, created_at`).
		WithArgs("MINA-CU-0042", 50).
		WillReturnRows(pgxmock.
			NewRows([]string{"run_id", "project_id", "input_hash", "rules_hash", "facts", "result", "created_at"}).
			AddRow("run-2", "MINA-CU-0042", "h2", "rh", factsJSON, resultJSON, created).
			AddRow("run-1", "MINA-CU-0042", "h1", "rh", factsJSON, resultJSON, created.Add(-time.Hour)))

	// Zero limit falls back to the default of 50.
	recs, err := store.ListRuns(context.Background(), "MINA-CU-0042", 0)

	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "run-2", recs[0].RunID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
