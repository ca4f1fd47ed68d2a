// Package app runs the world daemon: it restores the live worlds, drives the
// tick loop and keeps the store up to date.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/zeusync/worldforge/internal/catalog"
	"github.com/zeusync/worldforge/internal/config"
	"github.com/zeusync/worldforge/internal/core/manager"
	"github.com/zeusync/worldforge/internal/core/observability/log"
	"github.com/zeusync/worldforge/internal/core/world"
	"github.com/zeusync/worldforge/internal/server"
)

// ShutdownTimeout bounds the sync server shutdown.
const ShutdownTimeout = 5 * time.Second

// App owns every composition: Bootstrap, Tick and Run must be called from a
// single goroutine.
type App struct {
	cfg     config.Config
	logger  log.Log
	manager *manager.Manager
	// server is nil when syncing is disabled.
	server *server.Server

	ticks int
}

func New(cfg config.Config, logger log.Log, mgr *manager.Manager, srv *server.Server) *App {
	return &App{
		cfg:     cfg,
		logger:  logger.With(log.String("component", "app")),
		manager: mgr,
		server:  srv,
	}
}

func (a *App) Manager() *manager.Manager { return a.manager }

// Bootstrap restores saved worlds, adds template worlds that were never saved and,
// on a fresh store, generates random worlds. New worlds are saved right away.
func (a *App) Bootstrap(ctx context.Context) error {
	loaded, err := a.manager.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load worlds: %w", err)
	}

	templates, err := a.templates()
	if err != nil {
		return err
	}
	built, err := a.manager.FromTemplates(templates)
	if err != nil {
		return fmt.Errorf("build template worlds: %w", err)
	}

	var generated []*world.Composition
	if loaded == 0 && a.cfg.World.RandomWorlds > 0 {
		generated, err = a.manager.GenerateRandomWorlds(a.cfg.World.RandomWorlds)
		if err != nil {
			return fmt.Errorf("generate worlds: %w", err)
		}
	}

	saved, err := a.manager.SaveDirty(ctx)
	if err != nil {
		return fmt.Errorf("save new worlds: %w", err)
	}

	a.logger.Info("Worlds ready",
		log.Int("loaded", loaded),
		log.Int("templates", len(built)),
		log.Int("generated", len(generated)),
		log.Int("saved", saved),
		log.String("worlds", a.manager.Summary()))
	return nil
}

func (a *App) templates() ([]world.Template, error) {
	var out []world.Template
	if a.cfg.World.BuiltinTemplates {
		builtin, err := catalog.Templates()
		if err != nil {
			return nil, fmt.Errorf("builtin templates: %w", err)
		}
		out = append(out, builtin...)
	}
	if path := a.cfg.World.Templates; path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open templates: %w", err)
		}
		defer func() { _ = f.Close() }()

		extra, err := world.LoadTemplates(f)
		if err != nil {
			return nil, fmt.Errorf("templates %s: %w", path, err)
		}
		out = append(out, extra...)
	}
	return out, nil
}

// Tick advances every world by one tick, pushes changes to observers and saves
// dirty worlds every AutosaveTicks ticks.
func (a *App) Tick(ctx context.Context) {
	a.manager.Tick()
	if a.server != nil {
		a.server.Tick()
	}

	a.ticks++
	if a.ticks%a.cfg.World.AutosaveTicks != 0 {
		return
	}
	saved, err := a.manager.SaveDirty(ctx)
	if err != nil {
		a.logger.Error("Autosave failed", log.Error(err))
		return
	}
	if saved > 0 {
		a.logger.Debug("Autosaved worlds", log.Int("count", saved))
	}
}

// Run bootstraps, starts the sync server and ticks until ctx is done. Dirty worlds
// are saved before it returns.
func (a *App) Run(ctx context.Context) error {
	if err := a.Bootstrap(ctx); err != nil {
		return err
	}

	if a.server != nil {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("start sync server: %w", err)
		}
	}

	ticker := time.NewTicker(a.cfg.World.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return a.shutdown()
		case <-ticker.C:
			a.Tick(ctx)
		}
	}
}

func (a *App) shutdown() error {
	a.logger.Info("Shutting down", log.Int("ticks", a.ticks))

	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		if err := a.server.Stop(ctx); err != nil {
			a.logger.Warn("Failed to stop sync server", log.Error(err))
		}
		cancel()
	}

	saved, err := a.manager.SaveDirty(context.Background())
	if err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	a.logger.Info("Worlds saved", log.Int("count", saved))
	return nil
}
