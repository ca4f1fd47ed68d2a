package injector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/worldforge/internal/config"
	"github.com/zeusync/worldforge/internal/core/storage"
)

func TestInitializeApp(t *testing.T) {
	cfg := config.Default()
	cfg.Sync.Enabled = false
	cfg.Storage.Backend = string(storage.BackendSQLite)
	cfg.Storage.Path = filepath.Join(t.TempDir(), "worlds.db")
	cfg.World.RandomWorlds = 2
	cfg.World.Seed = 99

	a, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, a.Bootstrap(context.Background()))
	assert.Equal(t, 3, a.Manager().Len())
}

func TestInitializeAppBadStorage(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "s3"

	_, _, err := InitializeApp(cfg)
	assert.ErrorIs(t, err, storage.ErrUnknownBackend)
}

func TestInitializeAppBadServerConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Dir = t.TempDir()
	cfg.Sync.Interval = 0

	_, _, err := InitializeApp(cfg)
	assert.Error(t, err)
}
