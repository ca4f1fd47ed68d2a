package app

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/worldforge/internal/catalog"
	"github.com/zeusync/worldforge/internal/config"
	"github.com/zeusync/worldforge/internal/core/codec"
	"github.com/zeusync/worldforge/internal/core/generator"
	"github.com/zeusync/worldforge/internal/core/manager"
	"github.com/zeusync/worldforge/internal/core/observability/log"
	"github.com/zeusync/worldforge/internal/core/storage"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Sync.Enabled = false
	cfg.World.RandomWorlds = 3
	cfg.World.TickInterval = time.Millisecond
	cfg.World.AutosaveTicks = 5
	return cfg
}

func newApp(t *testing.T, cfg config.Config, store storage.Storage) *App {
	t.Helper()
	reg, err := catalog.NewRegistry()
	require.NoError(t, err)
	mgr := manager.New(generator.New(reg, log.NewNop()), store, log.NewNop(),
		manager.WithRand(rand.New(rand.NewSource(1))))
	return New(cfg, log.NewNop(), mgr, nil)
}

func TestBootstrapFreshStore(t *testing.T) {
	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	a := newApp(t, testConfig(), store)

	require.NoError(t, a.Bootstrap(context.Background()))
	assert.Equal(t, 4, a.Manager().Len())

	abydos, ok := a.Manager().Get("P8X-873")
	require.True(t, ok)
	assert.Equal(t, "Abydos", abydos.Name())

	keys, err := store.Keys(context.Background(), codec.StorageKey(""))
	require.NoError(t, err)
	assert.Len(t, keys, 4)
}

func TestBootstrapRestoresSavedWorlds(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFileStorage(dir)
	require.NoError(t, err)
	first := newApp(t, testConfig(), store)
	require.NoError(t, first.Bootstrap(context.Background()))
	want := first.Manager().Designations()

	second := newApp(t, testConfig(), store)
	require.NoError(t, second.Bootstrap(context.Background()))
	assert.Equal(t, want, second.Manager().Designations())
}

func TestBootstrapTemplatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worlds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
worlds:
  - designation: P3X-888
    name: Heliopolis
    address: Croecom-Erpvabrei-At-Aaxel-Abrin-Acjesis-Aldeni-Alura
    seed: 7
    features:
      - identifier: sun_binary_dim
`), 0o600))

	cfg := testConfig()
	cfg.World.RandomWorlds = 0
	cfg.World.Templates = path
	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	a := newApp(t, cfg, store)

	require.NoError(t, a.Bootstrap(context.Background()))
	assert.Equal(t, []string{"P3X-888", "P8X-873"}, a.Manager().Designations())

	c, ok := a.Manager().Get("P3X-888")
	require.True(t, ok)
	assert.True(t, c.HasFeatureIdentifier(catalog.SunBinaryDim))
	assert.False(t, c.Dirty())
}

func TestBootstrapBadTemplatesFile(t *testing.T) {
	cfg := testConfig()
	cfg.World.Templates = filepath.Join(t.TempDir(), "missing.yaml")
	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, newApp(t, cfg, store).Bootstrap(context.Background()))
}

func TestTickAutosaves(t *testing.T) {
	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	a := newApp(t, testConfig(), store)
	require.NoError(t, a.Bootstrap(context.Background()))

	abydos, _ := a.Manager().Get("P8X-873")
	start := abydos.WorldTime()

	for range 4 {
		a.Tick(context.Background())
	}
	assert.Equal(t, start+4, abydos.WorldTime())
	assert.True(t, abydos.Dirty())

	a.Tick(context.Background())
	assert.False(t, abydos.Dirty())
}

func TestRunSavesOnShutdown(t *testing.T) {
	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)
	cfg := testConfig()
	cfg.World.AutosaveTicks = 1_000_000
	a := newApp(t, cfg, store)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Run(ctx))

	abydos, ok := a.Manager().Get("P8X-873")
	require.True(t, ok)
	assert.False(t, abydos.Dirty())

	reloaded := newApp(t, cfg, store)
	c, err := reloaded.Manager().Load(context.Background(), "P8X-873")
	require.NoError(t, err)
	assert.Equal(t, abydos.WorldTime(), c.WorldTime())
}
