// Package config loads and validates simfleet configuration.
// Configuration lives in YAML at ~/.simfleet/config.yaml (or a path given
// via --config) with environment variable overrides for the API settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all simfleet configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Backend API configuration
	API APIConfig `yaml:"api"`

	// Enrichment worker settings
	Enrichment EnrichmentConfig `yaml:"enrichment"`

	// UI behavior
	UI UIConfig `yaml:"ui"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the fleet-management backend client.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	Timeout string `yaml:"timeout"`
}

// EnrichmentConfig configures per-card risk-assessment fetching.
type EnrichmentConfig struct {
	// MaxConcurrent caps parallel risk fetches. 0 means unbounded.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// UIConfig configures TUI behavior.
type UIConfig struct {
	// FilterDebounce is the delay applied to search/filter input before
	// the fleet view recomputes. Data changes bypass it.
	FilterDebounce string `yaml:"filter_debounce"`
	DarkMode       bool   `yaml:"dark_mode"`
}

// LoggingConfig configures debug logging (see internal/logging).
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "simfleet",
		Version: "1.0.0",
		API: APIConfig{
			BaseURL: "https://fleet.example.com/api/v1",
			Timeout: "30s",
		},
		Enrichment: EnrichmentConfig{
			MaxConcurrent: 0,
		},
		UI: UIConfig{
			FilterDebounce: "300ms",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// DefaultConfigPath returns ~/.simfleet/config.yaml, or a relative path
// when the home directory cannot be resolved.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".simfleet", "config.yaml")
	}
	return filepath.Join(home, ".simfleet", "config.yaml")
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file is absent. Environment variables override file values.
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

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
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

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("SIMFLEET_API_URL"); url != "" {
		c.API.BaseURL = url
	}
	if token := os.Getenv("SIMFLEET_API_TOKEN"); token != "" {
		c.API.Token = token
	}
	if timeout := os.Getenv("SIMFLEET_API_TIMEOUT"); timeout != "" {
		c.API.Timeout = timeout
	}
	if os.Getenv("SIMFLEET_DARK_MODE") == "1" {
		c.UI.DarkMode = true
	}
	if os.Getenv("SIMFLEET_DEBUG") == "1" {
		c.Logging.DebugMode = true
	}
}

// GetAPITimeout parses the API timeout, defaulting to 30s.
func (c *Config) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetFilterDebounce parses the filter debounce delay, defaulting to 300ms.
func (c *Config) GetFilterDebounce() time.Duration {
	d, err := time.ParseDuration(c.UI.FilterDebounce)
	if err != nil || d < 0 {
		return 300 * time.Millisecond
	}
	return d
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Enrichment.MaxConcurrent < 0 {
		return fmt.Errorf("enrichment.max_concurrent must be >= 0 (0 = unbounded)")
	}
	if c.API.Timeout != "" {
		if _, err := time.ParseDuration(c.API.Timeout); err != nil {
			return fmt.Errorf("api.timeout is not a valid duration: %w", err)
		}
	}
	if c.UI.FilterDebounce != "" {
		if _, err := time.ParseDuration(c.UI.FilterDebounce); err != nil {
			return fmt.Errorf("ui.filter_debounce is not a valid duration: %w", err)
		}
	}
	return nil
}
