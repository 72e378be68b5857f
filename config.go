package stardex

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/stardex-app/stardex/archive"
)

// Config is the YAML configuration consumed by the CLI. All fields are
// optional; zero values fall back to defaults.
type Config struct {
	DataDir           string  `yaml:"data_dir"`
	BaseURL           string  `yaml:"base_url"`
	Workers           int64   `yaml:"workers"`
	SpriteWorkers     int64   `yaml:"sprite_workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	MaxSkipFraction   float64 `yaml:"max_skip_fraction"`

	// TypeFilterMode selects the default type filter semantics for
	// queries: "inclusive" (any selected type) or "exclusive" (all
	// selected types).
	TypeFilterMode string `yaml:"type_filter_mode"`

	// PerPage is the default page size for listing output.
	PerPage int `yaml:"per_page"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		TypeFilterMode: "inclusive",
		PerPage:        50,
	}
}

// LoadConfig reads a YAML config file. A missing file yields the default
// configuration, not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.SpriteWorkers < 0 {
		return fmt.Errorf("sprite_workers must be >= 0, got %d", c.SpriteWorkers)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must be >= 0, got %g", c.RequestsPerSecond)
	}
	if c.MaxSkipFraction < 0 || c.MaxSkipFraction > 1 {
		return fmt.Errorf("max_skip_fraction must be in [0, 1], got %g", c.MaxSkipFraction)
	}
	switch c.TypeFilterMode {
	case "", "inclusive", "exclusive":
	default:
		return fmt.Errorf("type_filter_mode must be inclusive or exclusive, got %q", c.TypeFilterMode)
	}
	if c.PerPage < 0 {
		return fmt.Errorf("per_page must be >= 0, got %d", c.PerPage)
	}
	return nil
}

// TypeMode maps the configured filter mode onto query semantics.
func (c Config) TypeMode() archive.TypeMode {
	if c.TypeFilterMode == "exclusive" {
		return archive.TypeModeExclusive
	}
	return archive.TypeModeInclusive
}

// Apply converts the configuration into Dex options.
func (c Config) Apply(o *Options) {
	if c.BaseURL != "" {
		o.BaseURL = c.BaseURL
	}
	if c.Workers > 0 {
		o.Workers = c.Workers
	}
	if c.SpriteWorkers > 0 {
		o.SpriteWorkers = c.SpriteWorkers
	}
	if c.RequestsPerSecond > 0 {
		o.RequestsPerSecond = c.RequestsPerSecond
	}
	if c.MaxSkipFraction > 0 {
		o.MaxSkipFraction = c.MaxSkipFraction
	}
}

// DefaultDataDir returns the per-user cache location for the archive and
// sprite cache.
func DefaultDataDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "stardex"), nil
}
