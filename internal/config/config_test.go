package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/worldforge/internal/core/observability/log"
	"github.com/zeusync/worldforge/internal/core/storage"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worldd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
  encoding: console
storage:
  backend: sqlite
  path: /tmp/worlds.db
sync:
  interval: 5
world:
  tick_interval: 100ms
  random_worlds: 2
  seed: 42
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, log.LevelDebug, cfg.LogLevel())
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.Equal(t, storage.Options{Backend: storage.BackendSQLite, Dir: "saves", Path: "/tmp/worlds.db"}, cfg.StorageOptions())
	assert.Equal(t, 5, cfg.Sync.Interval)
	assert.Equal(t, "127.0.0.1:8080", cfg.Sync.ListenAddr)
	assert.Equal(t, 100*time.Millisecond, cfg.World.TickInterval)
	assert.Equal(t, 2, cfg.World.RandomWorlds)
	assert.Equal(t, int64(42), cfg.World.Seed)
	assert.True(t, cfg.World.BuiltinTemplates)

	sc := cfg.ServerConfig()
	assert.Equal(t, 5, sc.SyncInterval)
	assert.Equal(t, "127.0.0.1:8080", sc.ListenAddr)
	assert.NoError(t, sc.Validate())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "sync:\n  interval: 5\n")
	t.Setenv("WORLDD_SYNC_INTERVAL", "9")
	t.Setenv("WORLDD_LOG_LEVEL", "warn")
	t.Setenv("WORLDD_WORLD_TICK_INTERVAL", "1s")
	t.Setenv("WORLDD_SYNC_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Sync.Interval)
	assert.Equal(t, log.LevelWarn, cfg.LogLevel())
	assert.Equal(t, time.Second, cfg.World.TickInterval)
	assert.False(t, cfg.Sync.Enabled)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeFile(t, "world:\n  colour: red\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "s3"
	cfg.Sync.Interval = 0
	cfg.World.TickInterval = 0

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), `storage backend "s3"`)
	assert.Contains(t, err.Error(), "sync interval 0")
	assert.Contains(t, err.Error(), "tick interval 0s")

	cfg = Default()
	cfg.Sync.Enabled = false
	cfg.Sync.Interval = 0
	assert.NoError(t, cfg.Validate())
}
