package injector

import (
	"math/rand"

	"github.com/google/wire"

	"github.com/zeusync/worldforge/internal/app"
	"github.com/zeusync/worldforge/internal/catalog"
	"github.com/zeusync/worldforge/internal/config"
	"github.com/zeusync/worldforge/internal/core/events/bus"
	"github.com/zeusync/worldforge/internal/core/feature"
	"github.com/zeusync/worldforge/internal/core/generator"
	"github.com/zeusync/worldforge/internal/core/manager"
	"github.com/zeusync/worldforge/internal/core/observability/log"
	"github.com/zeusync/worldforge/internal/core/storage"
	"github.com/zeusync/worldforge/internal/server"
)

// ProviderSet builds an *app.App from a config.Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	ProvideRegistry,
	bus.New,
	generator.New,
	ProvideStorage,
	ProvideManager,
	ProvideServer,
	app.New,
)

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.New(cfg.LogLevel(), cfg.Log.Encoding)
}

func ProvideRegistry() (*feature.Registry, error) {
	return catalog.NewRegistry()
}

// ProvideStorage opens the configured backend. The cleanup closes it.
func ProvideStorage(cfg config.Config, logger log.Log) (storage.Storage, func(), error) {
	store, err := storage.Open(cfg.StorageOptions())
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close storage", log.Error(err))
		}
	}
	return store, cleanup, nil
}

func ProvideManager(cfg config.Config, gen *generator.Generator, store storage.Storage, events bus.Bus, logger log.Log) *manager.Manager {
	opts := []manager.Option{
		manager.WithEvents(events),
		manager.WithConcurrency(cfg.Storage.Concurrency),
		manager.WithDesignationAttempts(cfg.World.DesignationAttempts),
	}
	if cfg.World.Seed != 0 {
		opts = append(opts, manager.WithRand(rand.New(rand.NewSource(cfg.World.Seed))))
	}
	return manager.New(gen, store, logger, opts...)
}

// ProvideServer returns nil when syncing is disabled.
func ProvideServer(cfg config.Config, mgr *manager.Manager, events bus.Bus, logger log.Log) (*server.Server, error) {
	if !cfg.Sync.Enabled {
		return nil, nil
	}
	sc := cfg.ServerConfig()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return server.NewServer(sc, mgr, logger,
		server.WithAuthenticator(server.TokenAuth{Token: cfg.Sync.Token}),
		server.WithEvents(events)), nil
}
