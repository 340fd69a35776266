package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Second, cfg.Game.MoveTimeout)
	assert.Equal(t, 100, cfg.Scores.Retention)
	assert.Equal(t, 50, cfg.Scores.RecentLimit)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
http_addr: ":9090"
redis_addr: "redis:6379"
game:
  move_timeout: 5s
  bot_think_time: 0s
  reconnection_wait: 30s
scores:
  retention: 10
  recent_limit: 5
log:
  format: json
`)
	t.Setenv("REDIS_CONNSTRING", "override:6379")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "override:6379", cfg.RedisAddr)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Game.MoveTimeout)
	assert.Equal(t, time.Duration(0), cfg.Game.BotThinkTime)
	assert.Equal(t, 10, cfg.Scores.Retention)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Run("unknown field", func(t *testing.T) {
		_, err := Load(writeConfig(t, "no_such_field: 1\n"))
		assert.Error(t, err)
	})

	t.Run("failed validation", func(t *testing.T) {
		_, err := Load(writeConfig(t, "scores:\n  retention: 0\n  recent_limit: 5\n"))
		assert.Error(t, err)
	})

	t.Run("unknown log format", func(t *testing.T) {
		_, err := Load(writeConfig(t, "log:\n  format: xml\n"))
		assert.Error(t, err)
	})

	t.Run("bad env", func(t *testing.T) {
		t.Setenv("OTEL_ENABLED", "maybe")
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
