package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/atacama-group/seia-cli/internal/db"
)

// PostgresStore persists audit records in seia.audit_runs.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a store backed by the given pool.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// SaveRun inserts one record. Records are insert-only; a duplicate run ID is
// an error rather than an update.
func (s *PostgresStore) SaveRun(ctx context.Context, rec *Record) error {
	factsJSON, err := json.Marshal(rec.Facts)
	if err != nil {
		return eris.Wrapf(err, "audit: marshal facts for run %s", rec.RunID)
	}
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return eris.Wrapf(err, "audit: marshal result for run %s", rec.RunID)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO seia.audit_runs
			(run_id, project_id, input_hash, rules_hash, pathway, confidence, tier, matrix_score, facts, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, rec.RunID, rec.ProjectID, rec.InputHash, rec.RulesHash,
		string(rec.Result.Pathway), rec.Result.Confidence, string(rec.Result.Tier),
		rec.Result.MatrixScore, factsJSON, resultJSON, rec.CreatedAt)
	if err != nil {
		return eris.Wrapf(err, "audit: insert run %s", rec.RunID)
	}

	zap.L().Info("audit: run saved",
		zap.String("run_id", rec.RunID),
		zap.String("project_id", rec.ProjectID),
		zap.String("input_hash", rec.InputHash),
	)
	return nil
}

// GetRun loads one record by run ID.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT run_id, project_id, input_hash, rules_hash, facts, result, created_at
		FROM seia.audit_runs
		WHERE run_id = $1
	`, runID)

	rec, err := scanRecord(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("audit: run %s not found", runID)
		}
		return nil, eris.Wrapf(err, "audit: get run %s", runID)
	}
	return rec, nil
}

// ListRuns returns the most recent records for a project, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, projectID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, project_id, input_hash, rules_hash, facts, result, created_at
		FROM seia.audit_runs
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, projectID, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "audit: list runs for %s", projectID)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
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

// scanRecord scans one audit_runs row, decoding the JSON snapshots.
func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var factsJSON, resultJSON []byte
	err := row.Scan(
		&rec.RunID, &rec.ProjectID, &rec.InputHash, &rec.RulesHash,
		&factsJSON, &resultJSON, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(factsJSON, &rec.Facts); err != nil {
		return nil, eris.Wrapf(err, "audit: unmarshal facts for run %s", rec.RunID)
	}
	if err := json.Unmarshal(resultJSON, &rec.Result); err != nil {
		return nil, eris.Wrapf(err, "audit: unmarshal result for run %s", rec.RunID)
	}
	return &rec, nil
}

var _ Store = (*PostgresStore)(nil)
