package main

// Run database migrations:
//   go run ./cmd/migrate         apply pending migrations
//   go run ./cmd/migrate down    roll back the latest migration

import (
	"context"
	"log"
	"os"

	"venturesight-backend/internal/shared/config"
	"venturesight-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	run := db.RunMigrations
	if len(os.Args) > 1 && os.Args[1] == "down" {
		run = db.RollbackMigration
	}
	if err := run(ctx, sqlDB); err != nil {
		log.Printf("migration failed: %v", err)
		os.Exit(1)
	}
}
