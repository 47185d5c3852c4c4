package config

// LLMConfig configures the primary LLM provider and its fallback.
//
// The orchestration loop retries exactly once against the fallback provider
// when the primary call fails; if both fail the run transitions to Failed.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`

	// Fallback is the secondary provider tried once after a primary failure.
	// Cross-vendor fallback is the intended configuration so a provider
	// outage does not take the whole loop down.
	Fallback ProviderConfig `yaml:"fallback"`
}

// ProviderConfig identifies a single provider endpoint.
type ProviderConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

// HasFallback reports whether a usable fallback provider is configured.
func (c *LLMConfig) HasFallback() bool {
	return c.Fallback.Provider != "" && c.Fallback.APIKey != ""
}
