package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("PINE_CACHE_PATH", "")
	t.Setenv("LOG_LEVEL", "")

	cfg := LoadFromEnv()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Contains(t, cfg.CachePath, ".pine")
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PINE_CACHE_PATH", "/tmp/cache.sqlite")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadFromEnv()
	assert.Equal(t, "/tmp/cache.sqlite", cfg.CachePath)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		assert.Equal(t, tt.want, cfg.SlogLevel(), "level %q", tt.level)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"# comment\n"+
			"PINE_TEST_A=plain\n"+
			"PINE_TEST_B=\"quoted\"\n"+
			"PINE_TEST_C='single'\n"+
			"not a pair\n"), 0o600))

	t.Setenv("PINE_TEST_A", "")
	t.Setenv("PINE_TEST_B", "")
	t.Setenv("PINE_TEST_C", "")
	t.Setenv("PINE_TEST_D", "already")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "plain", os.Getenv("PINE_TEST_A"))
	assert.Equal(t, "quoted", os.Getenv("PINE_TEST_B"))
	assert.Equal(t, "single", os.Getenv("PINE_TEST_C"))
	// Existing environment wins.
	assert.Equal(t, "already", os.Getenv("PINE_TEST_D"))
}

func TestLoadDotEnv_MissingFileIsFine(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
