package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "appforge", cfg.Name)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gemini", cfg.LLM.Fallback.Provider)
	assert.Equal(t, 30, cfg.Limits.MaxTurns)
	assert.Equal(t, 25, cfg.Limits.MaxToolsPerTurn)
	assert.Equal(t, 256, cfg.Limits.EventBufferSize)
	assert.Equal(t, "data/appforge.db", cfg.Storage.DatabasePath)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("FORGE_API_KEY", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().LLM.Model, cfg.LLM.Model)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
llm:
  provider: gemini
  model: gemini-2.5-pro
  api_key: file-key
limits:
  max_turns: 5
storage:
  database_path: /tmp/test.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("FORGE_API_KEY", "")
	t.Setenv("FORGE_DB", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)
	assert.Equal(t, 5, cfg.Limits.MaxTurns)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.DatabasePath)
	// Unset fields keep defaults
	assert.Equal(t, 25, cfg.Limits.MaxToolsPerTurn)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("OPENAI_API_KEY sets key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "oa-key")
		t.Setenv("FORGE_API_KEY", "")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "oa-key", cfg.LLM.APIKey)
		assert.Equal(t, "openai", cfg.LLM.Provider)
	})

	t.Run("GEMINI_API_KEY feeds the fallback", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gm-key")
		t.Setenv("OPENAI_API_KEY", "")
		t.Setenv("FORGE_API_KEY", "")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "gm-key", cfg.LLM.Fallback.APIKey)
		assert.True(t, cfg.LLM.HasFallback())
	})

	t.Run("FORGE_API_KEY wins over provider keys", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "oa-key")
		t.Setenv("FORGE_API_KEY", "forge-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "forge-key", cfg.LLM.APIKey)
	})

	t.Run("endpoint and database overrides", func(t *testing.T) {
		t.Setenv("FORGE_LLM_BASE_URL", "http://localhost:8080/v1")
		t.Setenv("FORGE_IMAGE_URL", "http://img.local")
		t.Setenv("FORGE_DB", "/var/lib/forge.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "http://localhost:8080/v1", cfg.LLM.BaseURL)
		assert.Equal(t, "http://img.local", cfg.Services.ImageURL)
		assert.Equal(t, "/var/lib/forge.db", cfg.Storage.DatabasePath)
	})
}

func TestValidate(t *testing.T) {
	t.Run("missing API key", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("invalid provider", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = "k"
		cfg.LLM.Provider = "cohere"
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive max turns", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = "k"
		cfg.Limits.MaxTurns = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("valid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LLM.APIKey = "k"
		assert.NoError(t, cfg.Validate())
	})
}

func TestTimeouts(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 120*time.Second, cfg.GetLLMTimeout())

	cfg.LLM.Timeout = "bogus"
	assert.Equal(t, 120*time.Second, cfg.GetLLMTimeout())

	cfg.Services.Timeout = "30s"
	assert.Equal(t, 30*time.Second, cfg.GetServiceTimeout())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.Model = "gpt-5-mini"
	require.NoError(t, cfg.Save(path))

	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("FORGE_API_KEY", "")
	t.Setenv("FORGE_LLM_MODEL", "")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5-mini", loaded.LLM.Model)
}
