package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/utils"
	"github.com/joho/godotenv"
)

const AppEnvKey = "APP_ENV"

var devLikeEnvs = []string{"", "dev", "development", "local", "test", "testing"}

// InitializeEnvFile loads DOTENV_PATH (default .env) without overriding variables that are
// already set. SKIP_DOTENV=true disables it for containers that inject everything.
func InitializeEnvFile(logger *log.Logger) {
	if utils.GetEnvBool("SKIP_DOTENV", false) {
		logger.Info("Skipping .env file load (SKIP_DOTENV=true)")
		return
	}

	path := utils.GetEnvTrimmedOrDefault("DOTENV_PATH", ".env")
	if err := godotenv.Load(path); err != nil {
		logger.Warn("No .env file loaded", "path", path, "error", err.Error())
		return
	}

	logger.Info("Environment variables loaded from .env file", "path", path)
}

// envString returns the unquoted value of key, or fallback when key is unset or blank.
func envString(key, fallback string) string {
	if value := utils.Unquote(os.Getenv(key)); value != "" {
		return value
	}
	return utils.Unquote(fallback)
}

func GetAppEnv() string {
	return strings.ToLower(utils.GetEnvTrimmed(AppEnvKey))
}

// ValidateAutoMigrateAllowed keeps --auto-migrate away from shared environments, where schema
// changes go through the migrate CLI instead.
func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))
	if slices.Contains(devLikeEnvs, env) {
		return nil
	}

	return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: %s)", AppEnvKey, env, strings.Join(devLikeEnvs[1:], ", "))
}
