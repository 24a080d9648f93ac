package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/akeren/go-waitlist/config"
	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/pkg/migrations"
	"github.com/akeren/go-waitlist/pkg/utils"
)

type migrationFunc func(ctx context.Context, db *sql.DB, cfg migrations.Config) error

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		if err := runMigrations(logger, migrations.Up); err != nil {
			os.Exit(1)
		}
		logger.Info("Database migrations completed")

	case "rollback":
		if err := runMigrations(logger, migrations.Down); err != nil {
			os.Exit(1)
		}
		logger.Info("Database rollback completed")

	case "status":
		if err := runMigrations(logger, printStatus); err != nil {
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func runMigrations(logger *log.Logger, apply migrationFunc) error {
	db, err := config.NewDatabase(logger, config.NewDBConfigFromEnv())
	if err != nil {
		logger.Error("Failed to connect to database for migration", "error", err.Error())
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance for migration", "error", err.Error())
		return err
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Failed to close SQL DB after migration", "error", err.Error())
		}
	}()

	migrationsDir := utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", migrations.DefaultDir)

	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultMigrationsTimeout)
	defer cancel()

	if err := apply(ctx, sqlDB, migrations.Config{Dir: migrationsDir, Logger: logger}); err != nil {
		logger.Error("Database migration failed", "error", err.Error())
		return err
	}

	return nil
}

func printStatus(ctx context.Context, db *sql.DB, cfg migrations.Config) error {
	state, err := migrations.Status(ctx, db, cfg)
	if err != nil {
		return err
	}
	if !state.Applied {
		fmt.Println("schema version: none")
		return nil
	}
	fmt.Printf("schema version: %d (dirty: %t)\n", state.Version, state.Dirty)
	return nil
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate          Apply pending database migrations and exit")
	fmt.Println("  rollback         Revert the most recent database migration and exit")
	fmt.Println("  status           Print the current schema version")
}
