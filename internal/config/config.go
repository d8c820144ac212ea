// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %v", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	// Substitute environment variables before parsing
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %v", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an io.Reader
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %v", err)
	}

	return LoadFromBytes(data)
}

// Source returns the configured source with the given ID.
func (c *Config) Source(id string) (*SourceConfig, bool) {
	for i := range c.Sources {
		if c.Sources[i].ID == id {
			return &c.Sources[i], true
		}
	}
	return nil, false
}

// EnabledSources returns the sources that participate in runs.
func (c *Config) EnabledSources() []SourceConfig {
	out := make([]SourceConfig, 0, len(c.Sources))
	for _, src := range c.Sources {
		if src.IsEnabled() {
			out = append(out, src)
		}
	}
	return out
}

// applyDefaults fills zero values with operational defaults.
func applyDefaults(cfg *Config) {
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 4
	}

	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}

	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 1 * time.Second
	}

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 15 * time.Minute
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = "json"
	}

	if cfg.Output.Database != nil {
		if cfg.Output.Database.Table == "" {
			cfg.Output.Database.Table = "grants"
		}
		if cfg.Output.Database.BatchSize == 0 {
			cfg.Output.Database.BatchSize = 100
		}
	}

	if cfg.Output.MongoDB != nil && cfg.Output.MongoDB.Collection == "" {
		cfg.Output.MongoDB.Collection = "grants"
	}

	if cfg.Monitoring != nil && cfg.Monitoring.Listen == "" {
		cfg.Monitoring.Listen = ":9090"
	}

	for i := range cfg.Sources {
		src := &cfg.Sources[i]

		if src.Tier == "" {
			src.Tier = TierPrimary
		}

		if src.Priority == 0 {
			if src.Tier == TierAggregator {
				src.Priority = 10
			} else {
				src.Priority = 1
			}
		}

		if src.RequestsPerSecond == 0 {
			src.RequestsPerSecond = 1.0
		}

		if src.Burst == 0 {
			src.Burst = 2
		}

		if src.Navigator.Type == NavigatorSingleLevel || src.Navigator.Type == NavigatorHybrid {
			if src.Navigator.MaxPages == 0 {
				src.Navigator.MaxPages = 1
			}
		}
	}
}
