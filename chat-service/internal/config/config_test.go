package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, 20*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, 256, cfg.WebSocket.SendBuffer)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Session.ReapInterval)
	assert.Equal(t, 100, cfg.Room.HistoryCapacity)
	assert.Equal(t, "crisis-intervention", cfg.Room.CrisisRoom)
	assert.Equal(t, "general-support", cfg.Room.FallbackRoom)
	assert.Equal(t, 3*time.Second, cfg.Classifier.Timeout)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "none", cfg.Events.Driver)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "./data/escalations.db", cfg.Database.FilePath)
	assert.Equal(t, "support-chat", cfg.Log.ServiceName)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "8123")
	t.Setenv("SESSION_IDLE_TIMEOUT", "90s")
	t.Setenv("CLASSIFIER_TIMEOUT", "250ms")
	t.Setenv("EVENTS_DRIVER", "kafka")
	t.Setenv("ADMIN_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Session.IdleTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Classifier.Timeout)
	assert.Equal(t, "kafka", cfg.Events.Driver)
	assert.Equal(t, "s3cret", cfg.Admin.JWTSecret)
}

func TestLoadRejectsNonPositiveClassifierTimeout(t *testing.T) {
	for _, raw := range []string{"0s", "-2s", "soon"} {
		t.Run(raw, func(t *testing.T) {
			t.Setenv("CLASSIFIER_TIMEOUT", raw)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, 3*time.Second, cfg.Classifier.Timeout)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	body := `
room:
  history_capacity: 25
session:
  idle_timeout: 10m
redis:
  enabled: true
  registry_prefix: test:registry
`
	require.NoError(t, os.WriteFile(file, []byte(body), 0o600))
	t.Setenv("CONFIG_FILE", file)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Room.HistoryCapacity)
	assert.Equal(t, 10*time.Minute, cfg.Session.IdleTimeout)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "test:registry", cfg.Redis.RegistryPrefix)
}
