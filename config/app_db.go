package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/go-waitlist/internal/log"
	"github.com/akeren/go-waitlist/pkg/migrations"
	"github.com/akeren/go-waitlist/pkg/retry"
	"github.com/akeren/go-waitlist/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	SSLMode         string // Default: "require" for prod safety
	// ConnectAttempts bounds the startup ping; only transient errors are retried.
	ConnectAttempts int
}

func NewDBConfigFromEnv() *DBConfig {
	return &DBConfig{
		MaxIdleConns:    utils.GetEnvIntOrDefault("DB_MAX_IDLE_CONNS", 10),
		MaxOpenConns:    utils.GetEnvIntOrDefault("DB_MAX_OPEN_CONNS", 25),
		ConnMaxLifetime: utils.GetEnvDurationOrDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		SSLMode:         "require",
		ConnectAttempts: utils.GetEnvIntOrDefault("DB_CONNECT_ATTEMPTS", 5),
	}
}

func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		cfg = NewDBConfigFromEnv()
	}

	dsn, err := resolveDSN(logger, cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("Failed to get database instance", "error", err)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := PingWithRetry(logger, sqlDB.PingContext, cfg.ConnectAttempts); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info("Database connection established successfully",
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)
	return gdb, nil
}

// PingWithRetry retries transient failures (connection refused, timeouts)
// with exponential backoff, so the service tolerates a database that starts
// a little later than it does.
func PingWithRetry(logger *log.Logger, ping func(ctx context.Context) error, attempts int) error {
	if attempts <= 0 {
		attempts = 1
	}

	policy := retry.NewExponentialBackoff(&retry.Config{
		MaxAttempts: attempts,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
	})

	attempt := 0
	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := ping(pingCtx); err != nil {
			logger.Warn("Database ping failed", "attempt", attempt, "max_attempts", attempts, "error", err)
			return err
		}
		return nil
	})
	if err != nil {
		logger.Error("Database ping failed", "error", err)
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// resolveDSN prefers DATABASE_URL, then APP_DATABASE_URL, then the POSTGRES_* parts.
func resolveDSN(logger *log.Logger, cfg *DBConfig) (string, error) {
	for _, key := range []string{"DATABASE_URL", "APP_DATABASE_URL"} {
		if url := sanitizeEnv(GetValueFromEnvironmentVariable(key, "")); url != "" {
			logger.Info("Using connection URL for database", "source", key)
			return url, nil
		}
	}

	host, portStr, user, pass, dbName, ssl := getDatabaseEnvParams()
	if ssl == "" {
		ssl = cfg.SSLMode
	}

	missing := []string{}

	if host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}

	if portStr == "" {
		missing = append(missing, "POSTGRES_PORT")
	}

	if user == "" {
		missing = append(missing, "POSTGRES_USER")
	}

	if dbName == "" {
		missing = append(missing, "POSTGRES_DB_NAME")
	}

	if len(missing) > 0 {
		logger.Error("Missing required database environment variables", "missing_vars", strings.Join(missing, ", "))
		return "", fmt.Errorf("missing DATABASE_URL or required database env vars: %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		logger.Error("Invalid POSTGRES_PORT", "error", err)
		return "", fmt.Errorf("invalid POSTGRES_PORT %q: %w", portStr, err)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, pass, dbName, ssl,
	)

	logger.Info("Connecting to database",
		"host", host,
		"port", port,
		"user", user,
		"dbname", dbName,
		"sslmode", ssl,
	)
	return dsn, nil
}

func getDatabaseEnvParams() (host, port, user, pass, dbName, ssl string) {
	host = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_HOST", ""))
	port = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_PORT", ""))
	user = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_USER", ""))
	pass = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_PASSWORD", ""))
	dbName = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_DB_NAME", ""))
	ssl = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_SSLMODE", ""))

	return host, port, user, pass, dbName, ssl
}

func sanitizeEnv(v string) string {
	s := strings.TrimSpace(v)

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}

	return s
}

// DefaultMigrationsTimeout bounds a startup migration run.
const DefaultMigrationsTimeout = 5 * time.Minute

// ApplyMigrations runs the versioned SQL migrations in MIGRATIONS_DIR against db.
func ApplyMigrations(ctx context.Context, logger *log.Logger, db *gorm.DB) error {
	if db == nil {
		logger.Error("Cannot migrate: db is empty")
		return fmt.Errorf("cannot migrate: db is empty")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	cfg := migrations.Config{
		Dir:    utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", migrations.DefaultDir),
		Logger: logger,
	}
	if err := migrations.Up(ctx, sqlDB, cfg); err != nil {
		logger.Error("Database migration failed", "error", err)
		return err
	}

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	} else {
		logger.Info("Database closed successfully")
	}
}
