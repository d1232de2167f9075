package config

import (
	"os"
	"time"

	"gosplit/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server ServerConfig
	Store  StoreConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// StoreConfig selects and configures the snapshot store adapter
type StoreConfig struct {
	// Driver is one of "memory", "file", "postgres"
	Driver      string
	FilePath    string
	DatabaseURL string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", "8080"),
			ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Driver:      getEnvOrDefault("STORE_DRIVER", "file"),
			FilePath:    getEnvOrDefault("STORE_PATH", "data/experiments.json"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
	}

	switch cfg.Store.Driver {
	case "memory", "file":
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, errors.ConfigInvalid("DATABASE_URL is required for the postgres store")
		}
	default:
		return nil, errors.ConfigInvalid("STORE_DRIVER must be one of memory, file, postgres")
	}

	return cfg, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
