package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/akeren/go-waitlist/internal/log"
	"github.com/joho/godotenv"
)

const (
	AppEnvKey     = "APP_ENV"
	EnvFileKey    = "ENV_FILE"
	SkipDotenvKey = "SKIP_DOTENV"
)

// InitializeEnvFile loads .env (or the file named by ENV_FILE) without
// overriding variables already set in the process environment.
func InitializeEnvFile(logger *log.Logger) {
	if os.Getenv(SkipDotenvKey) == "true" {
		logger.Info("Skipping env file load", "reason", SkipDotenvKey+"=true")
		return
	}

	path := strings.TrimSpace(os.Getenv(EnvFileKey))
	if path == "" {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		logger.Warn("No env file loaded", "path", path, "error", err.Error())
		return
	}

	logger.Info("Environment variables loaded", "path", path)
}

func GetValueFromEnvironmentVariable(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func GetAppEnv() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(AppEnvKey)))
}

// ValidateAutoMigrateAllowed keeps --auto-migrate out of anything that is not
// a development-like environment.
func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))

	switch env {
	case "", "dev", "development", "local", "test", "testing":
		return nil
	default:
		return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: \"\", dev, development, local, test, testing)", AppEnvKey, env)
	}
}
