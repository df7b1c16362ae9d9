package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseSettings
	Logger     LoggerConfig
	Validation ValidationConfig
	Seed       SeedConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
	File   string // optional rotating log file
}

// ValidationConfig holds the field length policy for product payloads.
type ValidationConfig struct {
	NameMaxLength        int
	DescriptionMaxLength int
}

// SeedConfig points at an optional file of products loaded into an empty store.
type SeedConfig struct {
	Source string // local path or s3://bucket/key
	Region string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables
// take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseSettingsFromEnv(),
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Validation: ValidationConfig{
			NameMaxLength:        getEnvAsInt("PRODUCT_NAME_MAX_LENGTH", DefaultNameMaxLength),
			DescriptionMaxLength: getEnvAsInt("PRODUCT_DESCRIPTION_MAX_LENGTH", DefaultDescriptionMaxLength),
		},
		Seed: SeedConfig{
			Source: getEnv("SEED_SOURCE", ""),
			Region: getEnv("S3_REGION", "us-east-1"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Default field length policy.
const (
	DefaultNameMaxLength        = 120
	DefaultDescriptionMaxLength = 255
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.Validation.NameMaxLength < 1 {
		return fmt.Errorf("product name max length must be at least 1")
	}

	// The name column is VARCHAR(255) on every engine.
	if c.Validation.NameMaxLength > 255 {
		return fmt.Errorf("product name max length cannot exceed 255")
	}

	if c.Validation.DescriptionMaxLength < 0 {
		return fmt.Errorf("product description max length cannot be negative")
	}

	return nil
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsOptionalInt retrieves an environment variable as an integer,
// reporting whether it was set to a parseable value.
func getEnvAsOptionalInt(key string) (int, bool) {
	value := os.Getenv(key)
	if value == "" {
		return 0, false
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return intValue, true
}
