package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"

	"github.com/pressly/goose/v3"

	"rec-admin-backend/internal/shared/telemetry"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies every pending embedded migration. A nil database is
// a no-op so in-memory runs can share the call site.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	return migrate(ctx, database, "up", func(ctx context.Context, db *sql.DB) error {
		return goose.UpContext(ctx, db, migrationsDir)
	})
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return errors.New("rollback requires a database")
	}
	return migrate(ctx, database, "down", func(ctx context.Context, db *sql.DB) error {
		return goose.DownContext(ctx, db, migrationsDir)
	})
}

func migrate(ctx context.Context, database *sql.DB, direction string, run func(context.Context, *sql.DB) error) error {
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := run(ctx, database); err != nil {
		return err
	}
	version, err := goose.GetDBVersionContext(ctx, database)
	if err != nil {
		return err
	}
	telemetry.Info("db.migrated", map[string]any{"direction": direction, "version": version})
	return nil
}
