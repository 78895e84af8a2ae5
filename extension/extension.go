// Package extension provides the Forge extension adapter for Parking.
//
// It implements the forge.Extension interface to integrate Parking
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.parking" or "parking" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	parking "github.com/xraph/parking"
	"github.com/xraph/parking/store"
	"github.com/xraph/parking/store/memory"
	"github.com/xraph/parking/store/mongo"
	"github.com/xraph/parking/store/postgres"
	"github.com/xraph/parking/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "parking"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Parking session lifecycle and billing core"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Parking as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *parking.Engine
	store      store.Store
	groveDB    *grove.DB
	engineOpts []parking.Option
}

// New creates a new Parking Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Engine instance.
// This is nil until Register is called.
func (e *Extension) Engine() *parking.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the parking engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := e.buildStore()
		if err != nil {
			return err
		}
		e.store = s
	}

	// Build engine options from resolved config.
	opts := e.buildEngineOpts()

	eng := parking.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*parking.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("parking: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("parking: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildStore constructs a store backend. A grove database provided via
// WithGroveDB selects its backend through the configured dialect;
// without one the memory store is used.
func (e *Extension) buildStore() (store.Store, error) {
	if e.groveDB == nil {
		return memory.New(), nil
	}

	switch e.config.Dialect {
	case "sqlite":
		return sqlite.New(e.groveDB), nil
	case "postgres", "pg":
		return postgres.New(e.groveDB), nil
	case "mongo", "mongodb":
		return mongo.New(e.groveDB), nil
	default:
		return nil, fmt.Errorf("parking: unsupported store dialect %q", e.config.Dialect)
	}
}

// buildEngineOpts constructs parking.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []parking.Option {
	opts := make([]parking.Option, 0, len(e.engineOpts)+2)

	// Apply config-derived options.
	if e.config.StatsBatchSize > 0 || e.config.StatsFlushInterval > 0 {
		batchSize := e.config.StatsBatchSize
		flushInterval := e.config.StatsFlushInterval
		defaults := DefaultConfig()
		if batchSize == 0 {
			batchSize = defaults.StatsBatchSize
		}
		if flushInterval == 0 {
			flushInterval = defaults.StatsFlushInterval
		}
		opts = append(opts, parking.WithStatsConfig(batchSize, flushInterval))
	}

	if e.config.DefaultTariff != "" {
		opts = append(opts, parking.WithDefaultTariff(e.config.DefaultTariff))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("parking: configuration is required but not found in config files; " +
				"ensure 'extensions.parking' or 'parking' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("parking: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("default_tariff", e.config.DefaultTariff),
		forge.F("stats_batch_size", e.config.StatsBatchSize),
		forge.F("stats_flush_interval", e.config.StatsFlushInterval),
		forge.F("dialect", e.config.Dialect),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.parking" first (namespaced pattern).
	if cm.IsSet("extensions.parking") {
		if err := cm.Bind("extensions.parking", &cfg); err == nil {
			e.Logger().Debug("parking: loaded config from file",
				forge.F("key", "extensions.parking"),
			)
			return cfg, true
		}
		e.Logger().Warn("parking: failed to bind extensions.parking config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "parking" key.
	if cm.IsSet("parking") {
		if err := cm.Bind("parking", &cfg); err == nil {
			e.Logger().Debug("parking: loaded config from file",
				forge.F("key", "parking"),
			)
			return cfg, true
		}
		e.Logger().Warn("parking: failed to bind parking config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.StatsBatchSize == 0 {
		cfg.StatsBatchSize = defaults.StatsBatchSize
	}
	if cfg.StatsFlushInterval == 0 {
		cfg.StatsFlushInterval = defaults.StatsFlushInterval
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.DefaultTariff == "" && programmaticConfig.DefaultTariff != "" {
		yamlConfig.DefaultTariff = programmaticConfig.DefaultTariff
	}
	if yamlConfig.Dialect == "" && programmaticConfig.Dialect != "" {
		yamlConfig.Dialect = programmaticConfig.Dialect
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.StatsBatchSize == 0 && programmaticConfig.StatsBatchSize != 0 {
		yamlConfig.StatsBatchSize = programmaticConfig.StatsBatchSize
	}
	if yamlConfig.StatsFlushInterval == 0 && programmaticConfig.StatsFlushInterval != 0 {
		yamlConfig.StatsFlushInterval = programmaticConfig.StatsFlushInterval
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
