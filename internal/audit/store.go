package audit

import "context"

// Store persists and retrieves run records. Implementations: Postgres for
// deployments, SQLite for local analysis.
type Store interface {
	SaveRun(ctx context.Context, rec *Record) error
	GetRun(ctx context.Context, runID string) (*Record, error)
	ListRuns(ctx context.Context, projectID string, limit int) ([]Record, error)
}
