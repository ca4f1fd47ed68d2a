// Package config loads the worldd configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/worldforge/internal/core/observability/log"
	"github.com/zeusync/worldforge/internal/core/storage"
	"github.com/zeusync/worldforge/internal/server"
)

// EnvPrefix prefixes every environment variable, e.g. WORLDD_LOG_LEVEL.
const EnvPrefix = "WORLDD_"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Log     LogConfig     `yaml:"log" envPrefix:"LOG_"`
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
	Sync    SyncConfig    `yaml:"sync" envPrefix:"SYNC_"`
	World   WorldConfig   `yaml:"world" envPrefix:"WORLD_"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	// Encoding is "json" or "console".
	Encoding string `yaml:"encoding" env:"ENCODING"`
}

type StorageConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `yaml:"backend" env:"BACKEND"`
	Dir     string `yaml:"dir" env:"DIR"`
	Path    string `yaml:"path" env:"PATH"`
	// Concurrency bounds parallel loads and saves.
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
}

type SyncConfig struct {
	Enabled    bool   `yaml:"enabled" env:"ENABLED"`
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR"`
	// Interval is the number of ticks between world data pushes.
	Interval     int    `yaml:"interval" env:"INTERVAL"`
	MaxObservers int    `yaml:"max_observers" env:"MAX_OBSERVERS"`
	Token        string `yaml:"token" env:"TOKEN"`
}

type WorldConfig struct {
	TickInterval time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL"`
	// AutosaveTicks is the number of ticks between saves of dirty worlds.
	AutosaveTicks int `yaml:"autosave_ticks" env:"AUTOSAVE_TICKS"`
	// RandomWorlds is how many random worlds to generate when nothing is saved yet.
	RandomWorlds        int    `yaml:"random_worlds" env:"RANDOM_WORLDS"`
	Templates           string `yaml:"templates" env:"TEMPLATES"`
	BuiltinTemplates    bool   `yaml:"builtin_templates" env:"BUILTIN_TEMPLATES"`
	DesignationAttempts int    `yaml:"designation_attempts" env:"DESIGNATION_ATTEMPTS"`
	// Seed drives designations, addresses and world seeds. Zero means random.
	Seed int64 `yaml:"seed" env:"SEED"`
}

func Default() Config {
	return Config{
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
		Storage: StorageConfig{
			Backend:     string(storage.BackendFile),
			Dir:         "saves",
			Path:        "worlds.db",
			Concurrency: 8,
		},
		Sync: SyncConfig{
			Enabled:      true,
			ListenAddr:   "127.0.0.1:8080",
			Interval:     20,
			MaxObservers: 1000,
		},
		World: WorldConfig{
			TickInterval:        50 * time.Millisecond,
			AutosaveTicks:       6000,
			RandomWorlds:        5,
			BuiltinTemplates:    true,
			DesignationAttempts: 10_000,
		},
	}
}

// Load starts from Default, applies the YAML file at path (if any), then the
// environment, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer func() { _ = f.Close() }()
		if err = decode(f, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Log.Encoding != "json" && c.Log.Encoding != "console" {
		add("log encoding %q", c.Log.Encoding)
	}
	switch storage.Backend(c.Storage.Backend) {
	case storage.BackendFile:
		if c.Storage.Dir == "" {
			add("file storage needs a directory")
		}
	case storage.BackendSQLite:
		if c.Storage.Path == "" {
			add("sqlite storage needs a path")
		}
	default:
		add("storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Concurrency <= 0 {
		add("storage concurrency %d", c.Storage.Concurrency)
	}
	if c.Sync.Enabled {
		if c.Sync.ListenAddr == "" {
			add("sync listen address is empty")
		}
		if c.Sync.Interval <= 0 {
			add("sync interval %d", c.Sync.Interval)
		}
		if c.Sync.MaxObservers <= 0 {
			add("sync max observers %d", c.Sync.MaxObservers)
		}
	}
	if c.World.TickInterval <= 0 {
		add("tick interval %s", c.World.TickInterval)
	}
	if c.World.AutosaveTicks <= 0 {
		add("autosave ticks %d", c.World.AutosaveTicks)
	}
	if c.World.RandomWorlds < 0 {
		add("random worlds %d", c.World.RandomWorlds)
	}
	return errors.Join(errs...)
}

// LogLevel maps the configured level name onto the logger's levels.
func (c Config) LogLevel() log.Level {
	return log.ParseLevel(c.Log.Level)
}

func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend: storage.Backend(c.Storage.Backend),
		Dir:     c.Storage.Dir,
		Path:    c.Storage.Path,
	}
}

// ServerConfig overlays the sync settings on the server defaults.
func (c Config) ServerConfig() server.Config {
	sc := server.DefaultServerConfig()
	sc.ListenAddr = c.Sync.ListenAddr
	sc.SyncInterval = c.Sync.Interval
	sc.MaxObservers = c.Sync.MaxObservers
	return sc
}
