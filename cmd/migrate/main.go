package main

// Run database migrations:
//   go run ./cmd/migrate
// Roll back the most recent one:
//   go run ./cmd/migrate -down

import (
	"context"
	"flag"
	"os"

	"rec-admin-backend/internal/shared/config"
	"rec-admin-backend/internal/shared/storage/db"
	"rec-admin-backend/internal/shared/telemetry"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	run, name := db.RunMigrations, "up"
	if *down {
		run, name = db.Rollback, "down"
	}
	if err := run(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"direction": name, "error": err})
		sqlDB.Close()
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"direction": name})
}
