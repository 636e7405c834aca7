package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/xshape/schema"
)

// Config holds xshape runtime configuration.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Naming  NamingConfig  `yaml:"naming"`
	IDs     IDsConfig     `yaml:"ids"`
	Logging LoggingConfig `yaml:"logging"`
}

// CacheConfig sizes the bounded caches. The structural type and
// constructor caches are unbounded.
type CacheConfig struct {
	ProjectionSize int `yaml:"projection_size"`
}

// NamingConfig controls the struct tags written on synthesized fields.
type NamingConfig struct {
	Tag      string `yaml:"tag"`      // tag key, empty for none
	Strategy string `yaml:"strategy"` // snake, camel, pascal, none
}

// IDsConfig selects the generator for descriptor and invoker IDs.
type IDsConfig struct {
	Generator string `yaml:"generator"` // ulid, uuid
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// ValidGenerators lists the supported ID generators.
var ValidGenerators = []string{"ulid", "uuid"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			ProjectionSize: 256,
		},
		Naming: NamingConfig{
			Tag:      "json",
			Strategy: "snake",
		},
		IDs: IDsConfig{
			Generator: "ulid",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults. A
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets XSHAPE_LOG_LEVEL and XSHAPE_ID_GENERATOR win over
// the file.
func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("XSHAPE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if gen := os.Getenv("XSHAPE_ID_GENERATOR"); gen != "" {
		c.IDs.Generator = gen
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Cache.ProjectionSize <= 0 {
		return fmt.Errorf("cache.projection_size must be positive, got %d", c.Cache.ProjectionSize)
	}

	if _, err := schema.ParseNamingType(c.Naming.Strategy); err != nil {
		return fmt.Errorf("naming.strategy: %w", err)
	}

	validGenerator := false
	for _, g := range ValidGenerators {
		if strings.EqualFold(c.IDs.Generator, g) {
			validGenerator = true
			break
		}
	}
	if !validGenerator {
		return fmt.Errorf("invalid ids.generator: %s (valid: %v)", c.IDs.Generator, ValidGenerators)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// NamingStrategy returns the configured naming strategy.
func (c *Config) NamingStrategy() (schema.NamingStrategy, error) {
	nt, err := schema.ParseNamingType(c.Naming.Strategy)
	if err != nil {
		return nil, err
	}
	return schema.NewNamingStrategy(nt), nil
}
