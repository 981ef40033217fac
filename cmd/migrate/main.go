// Package main applies the database schema migrations.
//
// Usage:
//
//	migrate        apply all pending migrations
//	migrate down   roll back the most recent migration
package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"marginiq/internal/config"
	"marginiq/internal/migrations"
	"marginiq/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Development: cfg.Logger.Development,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		log.Fatalw("failed to open database", "error", err)
	}
	defer db.Close()

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	switch direction {
	case "up":
		if err := migrations.Up(db); err != nil {
			log.Fatalw("migration failed", "error", err)
		}
		log.Info("migrations applied")
	case "down":
		if err := migrations.Down(db); err != nil {
			log.Fatalw("rollback failed", "error", err)
		}
		log.Info("migration rolled back")
	default:
		log.Fatalw("unknown direction", "direction", direction)
	}
}
