package extension

import "time"

// Config holds the Parking extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.parking" or "parking" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DefaultTariff is the tariff name used when a gate does not specify one.
	DefaultTariff string `json:"default_tariff" mapstructure:"default_tariff" yaml:"default_tariff"`

	// StatsBatchSize is the number of gate records to buffer before flushing
	// to the store (default: 100).
	StatsBatchSize int `json:"stats_batch_size" mapstructure:"stats_batch_size" yaml:"stats_batch_size"`

	// StatsFlushInterval is how frequently the stats buffer is flushed
	// even if the batch size has not been reached (default: 5s).
	StatsFlushInterval time.Duration `json:"stats_flush_interval" mapstructure:"stats_flush_interval" yaml:"stats_flush_interval"`

	// Dialect selects the store backend constructed from a grove database
	// provided via WithGroveDB: "sqlite", "postgres" or "mongo".
	Dialect string `json:"dialect" mapstructure:"dialect" yaml:"dialect"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		StatsBatchSize:     100,
		StatsFlushInterval: 5 * time.Second,
	}
}
