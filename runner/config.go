package runner

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hivemesh/swarmd/coordinator"
	"github.com/hivemesh/swarmd/lifecycle"
	"github.com/hivemesh/swarmd/match"
)

// Common errors.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrPaused        = errors.New("runner paused")
)

// Config is the daemon configuration. Durations are expressed in
// seconds so the file stays plain TOML.
type Config struct {
	// Identity is the coordinator's own marketplace identity.
	Identity string `toml:"identity" json:"identity"`

	// DataDir holds runner state, performance profiles, and reputation
	// snapshots. Default: ./swarmd-data
	DataDir string `toml:"data_dir" json:"data_dir"`

	// Cycle intervals.
	CoordinationIntervalSecs int `toml:"coordination_interval_secs" json:"coordination_interval_secs"` // 300
	ReputationIntervalSecs   int `toml:"reputation_interval_secs" json:"reputation_interval_secs"`     // 600
	HealthIntervalSecs       int `toml:"health_interval_secs" json:"health_interval_secs"`             // 1800

	// MaxConsecutiveFailures before coordination auto-pauses.
	// Default: 3
	MaxConsecutiveFailures int `toml:"max_consecutive_failures" json:"max_consecutive_failures"`

	// StaleAfterSecs is the heartbeat staleness cutoff. Default: 600
	StaleAfterSecs int `toml:"stale_after_secs" json:"stale_after_secs"`

	// Coordination tunables passed through to the coordinator.
	BrowseLimit    int      `toml:"browse_limit" json:"browse_limit"`
	MaxAssignments int      `toml:"max_assignments" json:"max_assignments"`
	SystemWorkers  []string `toml:"system_workers" json:"system_workers"`
	LegacyMatch    bool     `toml:"legacy_match" json:"legacy_match"`

	// Marketplace endpoint.
	Marketplace MarketplaceConfig `toml:"marketplace" json:"marketplace"`

	// Workers seeds the lifecycle roster. With a roster, health reports
	// carry per-worker assessment and daemon mode tracks heartbeats.
	Workers []lifecycle.WorkerSpec `toml:"workers" json:"workers,omitempty"`

	// NATS connection; empty URL selects the in-memory backends.
	NATS NATSConfig `toml:"nats" json:"nats"`

	// Telemetry export; empty protocol discards events.
	Telemetry TelemetryConfig `toml:"telemetry" json:"telemetry"`
}

// MarketplaceConfig configures the candidate feed.
type MarketplaceConfig struct {
	BaseURL string `toml:"base_url" json:"base_url"`
	APIKey  string `toml:"api_key" json:"-"`

	// BrowsePerMinute caps browse requests against the marketplace.
	// Zero disables the limiter.
	BrowsePerMinute int `toml:"browse_per_minute" json:"browse_per_minute"`
}

// NATSConfig configures the shared-state backend.
type NATSConfig struct {
	URL    string `toml:"url" json:"url"`
	Bucket string `toml:"bucket" json:"bucket"`
}

// TelemetryConfig configures the cycle event exporter. Protocol is
// noop, file, or http.
type TelemetryConfig struct {
	Protocol string `toml:"protocol" json:"protocol"`
	Endpoint string `toml:"endpoint" json:"endpoint"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:                  "swarmd-data",
		CoordinationIntervalSecs: 300,
		ReputationIntervalSecs:   600,
		HealthIntervalSecs:       1800,
		MaxConsecutiveFailures:   3,
		StaleAfterSecs:           600,
		BrowseLimit:              20,
		MaxAssignments:           5,
		Marketplace: MarketplaceConfig{
			BrowsePerMinute: 30,
		},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.CoordinationIntervalSecs <= 0 || c.ReputationIntervalSecs <= 0 || c.HealthIntervalSecs <= 0 {
		return fmt.Errorf("%w: intervals must be positive", ErrInvalidConfig)
	}
	if c.MaxConsecutiveFailures <= 0 {
		return fmt.Errorf("%w: max consecutive failures must be positive", ErrInvalidConfig)
	}
	if c.StaleAfterSecs <= 0 {
		return fmt.Errorf("%w: stale cutoff must be positive", ErrInvalidConfig)
	}
	return nil
}

// CoordinationInterval as a duration.
func (c Config) CoordinationInterval() time.Duration {
	return time.Duration(c.CoordinationIntervalSecs) * time.Second
}

// ReputationInterval as a duration.
func (c Config) ReputationInterval() time.Duration {
	return time.Duration(c.ReputationIntervalSecs) * time.Second
}

// HealthInterval as a duration.
func (c Config) HealthInterval() time.Duration {
	return time.Duration(c.HealthIntervalSecs) * time.Second
}

// StaleAfter as a duration.
func (c Config) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterSecs) * time.Second
}

// CoordinatorConfig derives the coordinator configuration.
func (c Config) CoordinatorConfig(dryRun bool) coordinator.Config {
	cc := coordinator.DefaultConfig()
	cc.Identity = c.Identity
	cc.StaleAfter = c.StaleAfter()
	cc.SystemWorkers = c.SystemWorkers
	cc.DryRun = dryRun
	if c.BrowseLimit > 0 {
		cc.BrowseLimit = c.BrowseLimit
	}
	if c.MaxAssignments > 0 {
		cc.MaxAssignments = c.MaxAssignments
	}
	if c.LegacyMatch {
		mc := match.DefaultConfig()
		mc.Legacy = true
		cc.Match = mc
	}
	return cc
}

// LoadConfig reads a TOML config file, applying defaults for absent
// keys and environment overrides on top.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides deployment-specific settings from the
// environment. Secrets in particular belong outside the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("SWARMD_IDENTITY"); v != "" {
		c.Identity = v
	}
	if v := os.Getenv("SWARMD_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("SWARMD_NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("SWARMD_MARKETPLACE_URL"); v != "" {
		c.Marketplace.BaseURL = v
	}
	if v := os.Getenv("SWARMD_MARKETPLACE_API_KEY"); v != "" {
		c.Marketplace.APIKey = v
	}
}
