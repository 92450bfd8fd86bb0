// Package config loads application configuration from the environment.
//
// A .env file in the working directory is loaded first (if present), then
// each setting falls back to a development default when the variable is
// unset. Production deployments must set JWT_SECRET explicitly — Load
// refuses to start with an empty secret outside development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	Environment  string
	LogLevel     slog.Level
	DBPath       string
	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool
}

// Load reads the .env file (when present) and assembles the Config.
func Load() (*Config, error) {
	// Missing .env is fine — everything can come from the real environment.
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("HTTP_PORT", 8080),
		Environment:  getEnv("ENVIRONMENT", "development"),
		LogLevel:     parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DBPath:       getEnv("DB_PATH", "data/taskpulse.db"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		TokenTTL:     getEnvAsDuration("JWT_ACCESS_TOKEN_DURATION", 30*time.Minute),
		CookieSecure: getEnvAsBool("COOKIE_SECURE", false),
	}

	if cfg.JWTSecret == "" {
		if cfg.Environment != "development" {
			return nil, fmt.Errorf("config: JWT_SECRET must be set when ENVIRONMENT=%q", cfg.Environment)
		}
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
