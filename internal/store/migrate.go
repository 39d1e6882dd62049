package store

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/Clark-Hu/book-reviews/db"
)

func init() {
	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		panic(err)
	}
}

// MigrateUp applies all pending migrations.
func MigrateUp(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	if err := goose.UpContext(ctx, sqlDB, db.MigrationsDir); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	if err := goose.DownContext(ctx, sqlDB, db.MigrationsDir); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// MigrationStatus prints the state of every migration through goose's logger.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	if err := goose.StatusContext(ctx, sqlDB, db.MigrationsDir); err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	return nil
}

// SetMigrationLogger routes goose output through logger, or silences it when logger is nil.
func SetMigrationLogger(logger *log.Logger) {
	if logger == nil {
		goose.SetLogger(goose.NopLogger())
		return
	}
	goose.SetLogger(logger)
}

// Migrate applies pending migrations against the store's pool.
func (s *Store) Migrate(ctx context.Context) error {
	s.logger.Println("store: applying migrations")
	return MigrateUp(ctx, s.pool)
}
