package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, "rating", cfg.ScoringPolicy)
	assert.Equal(t, 10*time.Second, cfg.GracePeriod)
	assert.Equal(t, 5*time.Second, cfg.FinishedTTL)
	assert.Equal(t, 3, cfg.CountdownSeconds)
	assert.Equal(t, 30*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 30*time.Minute, cfg.RoomMaxAge)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("RPS_PORT", "9090")
	t.Setenv("STORAGE_TYPE", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SCORING_POLICY", "flat")
	t.Setenv("GRACE_PERIOD", "15s")
	t.Setenv("ROOM_MAX_AGE", "1h")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "redis", cfg.StorageType)
	assert.Equal(t, "flat", cfg.ScoringPolicy)
	assert.Equal(t, 15*time.Second, cfg.GracePeriod)
	assert.Equal(t, time.Hour, cfg.RoomMaxAge)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"redis without url": {"STORAGE_TYPE": "redis"},
		"unknown storage":   {"STORAGE_TYPE": "postgres"},
		"bad port":          {"RPS_PORT": "0"},
		"zero grace":        {"GRACE_PERIOD": "0s"},
		"unparseable":       {"SWEEP_INTERVAL": "soon"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RPS_PORT=7070\nSCORING_POLICY=flat\n"), 0o600))
	chdir(t, dir)
	// Already-set variables win over the file
	t.Setenv("SCORING_POLICY", "rating")
	// Registers cleanup for the variable the file sets
	t.Setenv("RPS_PORT", "")
	require.NoError(t, os.Unsetenv("RPS_PORT"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "rating", cfg.ScoringPolicy)
}

func TestLoadWithoutDotEnv(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load()
	assert.NoError(t, err)
}

// chdir mirrors testing.T.Chdir (Go 1.24+): it changes the working
// directory for the duration of the test and restores it on cleanup
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
