package config

import (
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string // "sqlite", "postgres" or "mysql"
	DatabasePath   string // sqlite file path
	DatabaseURL    string // postgres/mysql connection string
	MigrationsPath string

	// SessionSecret signs both the identity-provider bearer tokens we
	// accept and the guardian tokens we mint.
	SessionSecret string

	// StreakResetHour anchors the streak day boundary (local hour)
	StreakResetHour int

	// AttemptMinWords is the submission floor for think-first attempts
	AttemptMinWords int

	// SES email settings; empty SESFromEmail disables sending
	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./thinkfirst.db"),
		DatabaseURL:     getEnv("DB_URL", ""),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		SessionSecret:   getEnv("SESSION_SECRET", "dev-only-secret"),
		StreakResetHour: getEnvInt("STREAK_RESET_HOUR", 3),
		AttemptMinWords: getEnvInt("ATTEMPT_MIN_WORDS", 5),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:    getEnv("SES_FROM_EMAIL", ""),
		SESFromName:     getEnv("SES_FROM_NAME", "ThinkFirst"),
		AppBaseURL:      getEnv("APP_BASE_URL", "http://localhost:8080"),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
