// Package pg bootstraps the PostgreSQL item store: it opens a pgx connection
// pool with start-up retries, applies embedded goose migrations and exposes a
// health check that also confirms the schema is migrated.
//
//	var cfg pg.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, itemsync.Migrations, cfg, slog.Default()); err != nil {
//		return err
//	}
//
// Migrate takes any fs.FS whose root holds goose SQL files, so each package
// can embed and own its schema.
package pg
