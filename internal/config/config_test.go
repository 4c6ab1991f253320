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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\ndatabase:\n  driver: sqlite\n  path: \":memory:\"\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 50, cfg.RateLimit.Requests)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.Equal(t, 10*time.Second, cfg.Weather.Timeout)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, "lawn-engine", cfg.Tracing.ServiceName)
	assert.Equal(t, "", cfg.Redis.Addr())
}

func TestLoadConfig_Durations(t *testing.T) {
	path := writeConfig(t, "weather:\n  timeout: 3s\nworker:\n  poll_interval: 250ms\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Weather.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Worker.PollInterval)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("LAWN_JWT_SECRET", "from-env")
	t.Setenv("LAWN_REDIS_ADDR", "cache.internal:6380")
	t.Setenv("LAWN_API_KEYS", "k1,k2")
	path := writeConfig(t, "auth:\n  jwt_secret: from-file\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "cache.internal:6380", cfg.Redis.Addr())
	assert.Equal(t, []string{"k1", "k2"}, cfg.Auth.APIKeys)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
