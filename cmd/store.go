package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/atacama-group/seia-cli/internal/audit"
	"github.com/atacama-group/seia-cli/internal/db"
	"github.com/atacama-group/seia-cli/internal/rules"
)

// openPool connects to Postgres using the configured database URL. Callers
// own the returned pool.
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, eris.New("no database_url configured (set store.database_url or SEIA_STORE_DATABASE_URL)")
	}
	return db.Connect(ctx, cfg.Store.DatabaseURL)
}

// initStore opens the configured audit store. The returned cleanup function
// releases the underlying connection.
func initStore(ctx context.Context) (audit.Store, func(), error) {
	switch cfg.Store.Driver {
	case "sqlite":
		st, err := audit.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	case "postgres":
		pool, err := openPool(ctx)
		if err != nil {
			return nil, nil, err
		}
		if err := audit.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return audit.NewPostgresStore(pool), pool.Close, nil
	default:
		return nil, nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// loadSnapshot loads the rule snapshot named by --rules, falling back to the
// configured path and then the embedded defaults.
func loadSnapshot(cmd *cobra.Command) (*rules.Snapshot, error) {
	path, _ := cmd.Flags().GetString("rules")
	if path == "" {
		path = cfg.Rules.Path
	}
	if path == "" {
		return rules.LoadDefault()
	}
	return rules.Load(path)
}
