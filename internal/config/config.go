package config

import (
	"os"
	"strconv"
)

// SQLConfig configures the embedded-file store.
type SQLConfig struct {
	Filename string
}

// PostgresConfig configures the relational-server store.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Schema is an optional namespace prefix for multi-tenant isolation.
	Schema string
}

// WebhookConfig is the initial outbound webhook configuration. It can be
// replaced at runtime through the webhook config endpoint.
type WebhookConfig struct {
	URL       string
	Method    string
	Secret    string
	TimeoutMs int
}

// Config is the full process configuration, assembled from environment
// variables. A .env file is loaded by cmd/server before FromEnv runs.
type Config struct {
	AppEnv          string
	Port            string
	StorageProvider string // "sqlite" or "postgres"
	SQL             SQLConfig
	Postgres        PostgresConfig
	Webhook         WebhookConfig
}

// FromEnv builds a Config from the environment. Missing values fall back to
// defaults; FromEnv never fails.
func FromEnv() Config {
	return Config{
		AppEnv:          envOr("APP_ENV", "development"),
		Port:            envOr("PORT", "8080"),
		StorageProvider: envOr("STORAGE_PROVIDER", "sqlite"),
		SQL: SQLConfig{
			Filename: envOr("SQL_FILENAME", "data/showlog.db"),
		},
		Postgres: PostgresConfig{
			Host:     envOr("PG_HOST", "localhost"),
			Port:     envOr("PG_PORT", "5432"),
			User:     envOr("PG_USER", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			DBName:   envOr("PG_DB", "showlog"),
			SSLMode:  envOr("PG_SSLMODE", "disable"),
			Schema:   os.Getenv("PG_SCHEMA"),
		},
		Webhook: WebhookConfig{
			URL:       os.Getenv("WEBHOOK_URL"),
			Method:    envOr("WEBHOOK_METHOD", "POST"),
			Secret:    os.Getenv("WEBHOOK_SECRET"),
			TimeoutMs: envIntOr("WEBHOOK_TIMEOUT_MS", 10000),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
