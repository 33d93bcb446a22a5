// Package cli holds the shared plumbing of the concord command line:
// configuration loading, engine construction, signal handling and the
// interactive session runner.
package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when no
// --config flag is given.
const DefaultConfigFile = "concord.yaml"

// Config is the file-backed configuration of the concord commands.
type Config struct {
	// Store selects the session store backend: "memory" or "redis".
	Store string `yaml:"store"`

	Redis   RedisConfig  `yaml:"redis"`
	Budgets BudgetConfig `yaml:"budgets"`
	HTTP    HTTPConfig   `yaml:"http"`
}

// RedisConfig configures the redis-backed session store and the
// distributed session locks that come with it.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// TTL is the session expiration as a Go duration string, e.g. "24h".
	// Empty means sessions never expire.
	TTL string `yaml:"ttl"`
}

// BudgetConfig overrides the per-loop iteration budgets. Zero keeps the
// engine default.
type BudgetConfig struct {
	Goal   int `yaml:"goal"`
	Schema int `yaml:"schema"`
	Review int `yaml:"review"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Address string `yaml:"address"`
}

// DefaultConfig returns the configuration used when no file is present:
// an in-memory store and the engine's built-in budgets.
func DefaultConfig() *Config {
	return &Config{
		Store: "memory",
		Redis: RedisConfig{Address: "localhost:6379"},
		HTTP:  HTTPConfig{Address: ":8080"},
	}
}

// LoadConfig reads the YAML configuration at path. An empty path falls
// back to DefaultConfigFile if it exists, or to DefaultConfig otherwise.
// A path given explicitly must exist.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the parts of the configuration that would otherwise
// fail deep inside the engine.
func (c *Config) Validate() error {
	switch c.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown store %q (want memory or redis)", c.Store)
	}
	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	for name, n := range map[string]int{
		"goal":   c.Budgets.Goal,
		"schema": c.Budgets.Schema,
		"review": c.Budgets.Review,
	} {
		if n < 0 {
			return fmt.Errorf("budget %s must not be negative", name)
		}
	}
	return nil
}

// SessionTTL parses the redis session expiration. Zero means no expiry.
func (c *Config) SessionTTL() (time.Duration, error) {
	if c.Redis.TTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(c.Redis.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid redis ttl %q: %w", c.Redis.TTL, err)
	}
	return ttl, nil
}
