package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_runs (
	run_id       TEXT PRIMARY KEY,
	project_id   TEXT NOT NULL,
	input_hash   TEXT NOT NULL,
	rules_hash   TEXT NOT NULL,
	pathway      TEXT NOT NULL,
	confidence   REAL NOT NULL,
	tier         TEXT NOT NULL,
	matrix_score REAL NOT NULL,
	facts        TEXT NOT NULL,
	result       TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_runs_project
	ON audit_runs (project_id, created_at DESC);
`

// SQLiteStore persists audit records in a local SQLite file for analyses run
// without a Postgres instance.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and initializes) the SQLite audit store at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "audit: open sqlite %s", path)
	}
	if _, err := d.ExecContext(ctx, sqliteSchema); err != nil {
		d.Close()
		return nil, eris.Wrap(err, "audit: init sqlite schema")
	}
	return &SQLiteStore{db: d}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts one record.
func (s *SQLiteStore) SaveRun(ctx context.Context, rec *Record) error {
	factsJSON, err := json.Marshal(rec.Facts)
	if err != nil {
		return eris.Wrapf(err, "audit: marshal facts for run %s", rec.RunID)
	}
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return eris.Wrapf(err, "audit: marshal result for run %s", rec.RunID)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_runs
			(run_id, project_id, input_hash, rules_hash, pathway, confidence, tier, matrix_score, facts, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, rec.ProjectID, rec.InputHash, rec.RulesHash,
		string(rec.Result.Pathway), rec.Result.Confidence, string(rec.Result.Tier),
		rec.Result.MatrixScore, string(factsJSON), string(resultJSON),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return eris.Wrapf(err, "audit: insert run %s", rec.RunID)
	}
	return nil
}

// GetRun loads one record by run ID.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, project_id, input_hash, rules_hash, facts, result, created_at
		FROM audit_runs WHERE run_id = ?
	`, runID)

	rec, err := scanSQLiteRecord(row.Scan)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Errorf("audit: run %s not found", runID)
		}
		return nil, eris.Wrapf(err, "audit: get run %s", runID)
	}
	return rec, nil
}

// ListRuns returns the most recent records for a project, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, projectID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, project_id, input_hash, rules_hash, facts, result, created_at
		FROM audit_runs
		WHERE project_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, projectID, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "audit: list runs for %s", projectID)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "audit: scan run row")
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "audit: iterate run rows")
	}
	return recs, nil
}

// scanSQLiteRecord scans one row via the given Scan function, decoding the
// JSON snapshots and the RFC 3339 timestamp.
func scanSQLiteRecord(scan func(dest ...any) error) (*Record, error) {
	var rec Record
	var factsJSON, resultJSON, createdAt string
	err := scan(
		&rec.RunID, &rec.ProjectID, &rec.InputHash, &rec.RulesHash,
		&factsJSON, &resultJSON, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(factsJSON), &rec.Facts); err != nil {
		return nil, eris.Wrapf(err, "audit: unmarshal facts for run %s", rec.RunID)
	}
	if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
		return nil, eris.Wrapf(err, "audit: unmarshal result for run %s", rec.RunID)
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, eris.Wrapf(err, "audit: parse created_at for run %s", rec.RunID)
	}
	rec.CreatedAt = ts
	return &rec, nil
}

var _ Store = (*SQLiteStore)(nil)
