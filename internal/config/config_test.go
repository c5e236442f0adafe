package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every key the loader reads so tests see a clean slate.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "DATA_PATH",
		"GOOGLE_BOOKS_API_KEY", "GOOGLE_BOOKS_BASE_URL",
		"OPENAI_API_KEY", "OPENAI_MODEL",
		"CATALOG_TIMEOUT", "CATALOG_RPS",
		"BOOKMARKED_ENV_FILE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOOKMARKED_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "gpt-4o-mini", cfg.Generator.Model)
	assert.Equal(t, 5*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, 5.0, cfg.Catalog.RPS)
	assert.NotEmpty(t, cfg.Library.DataPath)
	assert.True(t, filepath.IsAbs(cfg.Library.DataPath))
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOOKMARKED_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CATALOG_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Environment)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "sk-test", cfg.Generator.APIKey)
	assert.Equal(t, 2*time.Second, cfg.Catalog.Timeout)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "# engine config\nLOG_LEVEL=warn\nOPENAI_MODEL=\"gpt-4o\"\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	t.Setenv("BOOKMARKED_ENV_FILE", envFile)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, "gpt-4o", cfg.Generator.Model)
}

func TestLoad_EnvBeatsEnvFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LOG_LEVEL=error\n"), 0o600))

	t.Setenv("BOOKMARKED_ENV_FILE", envFile)
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad environment", "ENV", "sandbox"},
		{"bad log level", "LOG_LEVEL", "loud"},
		{"bad timeout", "CATALOG_TIMEOUT", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("BOOKMARKED_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DataPathExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOOKMARKED_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("DATA_PATH", "~/custom/data")

	cfg, err := Load()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "custom", "data"), cfg.Library.DataPath)
}
