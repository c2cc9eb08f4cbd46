package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// RedisURL is the address of the Redis instance holding team progress.
	RedisURL string

	// DataDir holds authored room JSON under rooms/.
	DataDir string

	// AssetProxyURL, when set, is prepended to asset URLs on load retry.
	AssetProxyURL string

	// StrictValidation makes the engine fail closed on authoring errors:
	// rooms that fail author validation are dropped at load, and actions
	// that consume an item the team does not hold are rejected.
	StrictValidation bool
}

func Load() *Config {
	// Local development convenience; a missing .env file is not an error.
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:         getEnv("REDIS_URL", "localhost:6379"),
		DataDir:          getEnv("DATA_DIR", "./data"),
		AssetProxyURL:    getEnv("ASSET_PROXY_URL", ""),
		StrictValidation: parseBool(getEnv("STRICT_VALIDATION", "false")),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
