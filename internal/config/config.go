// Package config provides engine configuration loaded from environment variables and .env files.
//
// The engine is embedded in a host application, so configuration never touches
// the process flag set. Precedence: environment variables > .env file > defaults.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the engine configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Library   LibraryConfig
	Catalog   CatalogConfig
	Generator GeneratorConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// LibraryConfig holds saved-library storage configuration.
type LibraryConfig struct {
	// DataPath is the directory for the Badger database (default: ~/Bookmarked/data).
	DataPath string
}

// CatalogConfig holds book catalog lookup configuration.
type CatalogConfig struct {
	// APIKey for the Google Books volumes API. Optional; unauthenticated
	// requests work with lower quotas.
	APIKey string
	// BaseURL overrides the volumes endpoint (tests point this at a local server).
	BaseURL string
	// Timeout bounds each catalog request (default: 5s).
	Timeout time.Duration
	// RPS limits outbound catalog requests per second (default: 5).
	RPS float64
}

// GeneratorConfig holds recommendation generator configuration.
type GeneratorConfig struct {
	// APIKey for the OpenAI API. Empty means the generator is not configured
	// and every recommendation call short-circuits to empty results.
	APIKey string
	// Model is the chat model used for recommendations (default: gpt-4o-mini).
	Model string
}

// Load loads configuration with precedence:
// 1. Environment variables.
// 2. .env file (path from BOOKMARKED_ENV_FILE, default ".env").
// 3. Default values.
func Load() (*Config, error) {
	envFile := os.Getenv("BOOKMARKED_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getEnv("ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Library: LibraryConfig{
			DataPath: getEnv("DATA_PATH", ""),
		},
		Catalog: CatalogConfig{
			APIKey:  getEnv("GOOGLE_BOOKS_API_KEY", ""),
			BaseURL: getEnv("GOOGLE_BOOKS_BASE_URL", ""),
			RPS:     getFloatEnv("CATALOG_RPS", 5),
		},
		Generator: GeneratorConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
	}

	timeoutStr := getEnv("CATALOG_TIMEOUT", "5s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog timeout %q: %w", timeoutStr, err)
	}
	cfg.Catalog.Timeout = timeout

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Library.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Catalog.Timeout <= 0 {
		return errors.New("catalog timeout must be positive")
	}
	if c.Catalog.RPS <= 0 {
		return errors.New("catalog RPS must be positive")
	}

	// Generator API key may be empty: the recommendation client treats that
	// as not-configured and returns empty results without a network attempt.

	return nil
}

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/Bookmarked/data when unset.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Bookmarked", "data")

	path := c.Library.DataPath
	if path == "" {
		c.Library.DataPath = defaultPath
		return nil
	}

	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(homeDir, path[2:])
	}
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = abs
	}
	c.Library.DataPath = filepath.Clean(path)
	return nil
}

// getEnv returns the environment value or the default when unset.
func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// getFloatEnv returns a float from the environment or the default.
func getFloatEnv(key string, defaultValue float64) float64 {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
