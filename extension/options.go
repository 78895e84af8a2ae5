package extension

import (
	"time"

	"github.com/xraph/grove"

	parking "github.com/xraph/parking"
	"github.com/xraph/parking/plugin"
	"github.com/xraph/parking/store"
)

// Option configures the Parking Forge extension.
type Option func(*Extension)

// WithStore sets the store for the parking engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB sets the grove database the extension builds its store
// from. The backend is selected by the configured Dialect
// ("sqlite", "postgres" or "mongo").
func WithGroveDB(db *grove.DB, dialect string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.Dialect = dialect
	}
}

// WithEngineOption passes a parking.Option through to the underlying engine.
func WithEngineOption(opt parking.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a parking plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, parking.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithDefaultTariff sets the tariff used when a gate does not specify one.
func WithDefaultTariff(name string) Option {
	return func(e *Extension) { e.config.DefaultTariff = name }
}

// WithStatsBatchSize sets the number of gate records to buffer before flushing.
func WithStatsBatchSize(size int) Option {
	return func(e *Extension) { e.config.StatsBatchSize = size }
}

// WithStatsFlushInterval sets how frequently the stats buffer is flushed.
func WithStatsFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.StatsFlushInterval = d }
}
