package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/INLOpen/nexusfetch/core"
)

// StoreConfig holds the connection parameters for the time-series store.
// The transport itself lives outside this module; these values are handed to
// whatever store client the embedder constructs, and the query layer only
// reads Timeout.
type StoreConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Timeout  string `yaml:"timeout"` // per-query store timeout, e.g. "60s"
}

// QueryConfig holds defaults applied to fetch requests.
type QueryConfig struct {
	RowLimit      int    `yaml:"row_limit"`      // per-query LIMIT
	DefaultWindow string `yaml:"default_window"` // window when no start time is given
	BatchGrace    string `yaml:"batch_grace"`    // added to the store timeout per concurrent query
}

// CacheConfig holds sizing for the metadata lookup cache.
type CacheConfig struct {
	Capacity int `yaml:"capacity"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // e.g., "debug", "info", "warn", "error"
	Output string `yaml:"output"` // e.g., "stdout", "stderr", "none"
}

// Config is the top-level configuration struct.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Query   QueryConfig   `yaml:"query"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Host:     "localhost",
			Port:     8086,
			Database: "measurements",
			Timeout:  "60s",
		},
		Query: QueryConfig{
			RowLimit:      1000,
			DefaultWindow: "14d",
			BatchGrace:    "5s",
		},
		Cache: CacheConfig{
			Capacity: 256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
		},
	}
}

// Load reads configuration from an io.Reader on top of the defaults.
// This is the core logic, separated for testability.
func Load(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config data: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a YAML file. A missing file yields
// the defaults.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()
	cfg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Store.Port <= 0 || c.Store.Port > 65535 {
		return fmt.Errorf("invalid store port: %d", c.Store.Port)
	}
	if c.Query.RowLimit < 0 {
		return fmt.Errorf("invalid query row_limit: %d", c.Query.RowLimit)
	}
	return nil
}

// StoreTimeout returns the parsed store timeout, falling back to def.
func (c *Config) StoreTimeout(def time.Duration, logger *slog.Logger) time.Duration {
	return ParseDuration(c.Store.Timeout, def, logger)
}

// BatchGrace returns the parsed per-query grace margin, falling back to def.
func (c *Config) BatchGrace(def time.Duration, logger *slog.Logger) time.Duration {
	return ParseDuration(c.Query.BatchGrace, def, logger)
}

// ParseDuration parses a duration string. Returns the default duration if
// the string is empty or invalid. Logs a warning if the string is invalid
// but not empty. Supports the extended d/w/y units.
func ParseDuration(durationStr string, defaultDuration time.Duration, logger *slog.Logger) time.Duration {
	if durationStr == "" || durationStr == "0" {
		return defaultDuration
	}
	d, err := core.ParseExtendedDuration(durationStr)
	if err != nil {
		if logger != nil {
			logger.Warn("Invalid duration format, using default", "input", durationStr, "default", defaultDuration.String(), "error", err)
		}
		return defaultDuration
	}
	return d
}
