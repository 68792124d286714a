// Package config loads service configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting the service reads at startup.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	// Storage settings. StorageDriver selects the EventStore implementation:
	// "postgres" for real deployments, "memory" for local runs without a
	// database.
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DBHost        string `env:"DB_HOST" envDefault:"localhost"`
	DBPort        string `env:"DB_PORT" envDefault:"5432"`
	DBUser        string `env:"DB_USER" envDefault:"postgres"`
	DBPassword    string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName        string `env:"DB_NAME" envDefault:"events"`
	DBSSLMode     string `env:"DB_SSLMODE" envDefault:"disable"`

	// Auth settings. AuthMode "mock" bypasses token verification and
	// resolves a fixed organizer principal, for local testing only.
	AuthMode       string `env:"AUTH_MODE" envDefault:"jwt"`
	JWTSecret      string `env:"AUTH_JWT_SECRET"`
	ClaimsHeader   string `env:"AUTH_CLAIMS_HEADER" envDefault:"X-Authorizer-Claims"`
	OrganizerGroup string `env:"ORGANIZER_GROUP" envDefault:"Organizers"`
}

// Load parses configuration from the environment and validates the parts
// that have no safe default.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.StorageDriver != "postgres" && cfg.StorageDriver != "memory" {
		return Config{}, fmt.Errorf("STORAGE_DRIVER must be postgres or memory, got %q", cfg.StorageDriver)
	}
	switch cfg.AuthMode {
	case "jwt":
		if cfg.JWTSecret == "" {
			return Config{}, fmt.Errorf("AUTH_JWT_SECRET is required when AUTH_MODE=jwt")
		}
	case "mock":
	default:
		return Config{}, fmt.Errorf("AUTH_MODE must be jwt or mock, got %q", cfg.AuthMode)
	}
	return cfg, nil
}

// DSN builds a libpq-compatible connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}
