// Package config holds all appforge configuration: LLM providers,
// orchestration limits, storage paths, and logging. Config is loaded from
// a YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all appforge configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM provider configuration (primary + optional fallback)
	LLM LLMConfig `yaml:"llm"`

	// Orchestration limits
	Limits LimitsConfig `yaml:"limits"`

	// Storage paths
	Storage StorageConfig `yaml:"storage"`

	// External tool collaborators (image generation, web search)
	Services ServicesConfig `yaml:"services"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig configures the persistence backend.
type StorageConfig struct {
	// DatabasePath is the SQLite file holding app files and version snapshots.
	DatabasePath string `yaml:"database_path"`
}

// ServicesConfig configures external collaborators used by tool handlers.
type ServicesConfig struct {
	ImageURL  string `yaml:"image_url"`  // image generation endpoint
	SearchURL string `yaml:"search_url"` // web search endpoint
	Timeout   string `yaml:"timeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level" json:"level"` // debug, info, warn, error
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode"`
	JSONFormat bool            `yaml:"json_format" json:"json_format"`
	Categories map[string]bool `yaml:"categories" json:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "appforge",
		Version: "0.3.0",

		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-5",
			BaseURL:  "https://api.openai.com/v1",
			Timeout:  "120s",
			Fallback: ProviderConfig{
				Provider: "gemini",
				Model:    "gemini-2.5-pro",
			},
		},

		Limits: LimitsConfig{
			MaxTurns:         30,
			MaxToolsPerTurn:  25,
			EventBufferSize:  256,
			SearchMaxResults: 200,
		},

		Storage: StorageConfig{
			DatabasePath: "data/appforge.db",
		},

		Services: ServicesConfig{
			Timeout: "180s",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
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
	// LLM API key from environment (check in priority order)
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "openai"
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		if c.LLM.Fallback.Provider == "gemini" {
			c.LLM.Fallback.APIKey = key
		}
		if c.LLM.Provider == "gemini" {
			c.LLM.APIKey = key
		}
	}
	if key := os.Getenv("FORGE_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("FORGE_FALLBACK_API_KEY"); key != "" {
		c.LLM.Fallback.APIKey = key
	}

	if url := os.Getenv("FORGE_LLM_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if model := os.Getenv("FORGE_LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}

	// Service endpoints
	if url := os.Getenv("FORGE_IMAGE_URL"); url != "" {
		c.Services.ImageURL = url
	}
	if url := os.Getenv("FORGE_SEARCH_URL"); url != "" {
		c.Services.SearchURL = url
	}

	// Database path from environment
	if path := os.Getenv("FORGE_DB"); path != "" {
		c.Storage.DatabasePath = path
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetServiceTimeout returns the external service timeout as a duration.
func (c *Config) GetServiceTimeout() time.Duration {
	d, err := time.ParseDuration(c.Services.Timeout)
	if err != nil {
		return 180 * time.Second
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"openai", "gemini"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set OPENAI_API_KEY, GEMINI_API_KEY, or FORGE_API_KEY)")
	}

	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	if c.Limits.MaxTurns <= 0 {
		return fmt.Errorf("limits.max_turns must be positive, got %d", c.Limits.MaxTurns)
	}

	return nil
}
