package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Healthcheck returns a check that fails unless the pool answers a ping and
// at least one migration from cfg.MigrationsTable has been applied.
func Healthcheck(pool *pgxpool.Pool, cfg Config) func(context.Context) error {
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE is_applied)",
		pgx.Identifier{cfg.MigrationsTable}.Sanitize())

	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}

		var migrated bool
		if err := pool.QueryRow(ctx, query).Scan(&migrated); err != nil {
			return errors.Join(ErrHealthcheckFailed, ErrNotMigrated, err)
		}
		if !migrated {
			return errors.Join(ErrHealthcheckFailed, ErrNotMigrated)
		}
		return nil
	}
}
