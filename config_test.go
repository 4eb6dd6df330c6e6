package clamba

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "ollama", cfg.AI.Provider)
	assert.Equal(t, 3, cfg.Analysis.MinProcesses)
	assert.Equal(t, 6, cfg.Analysis.MaxProcesses)
	assert.True(t, cfg.Analysis.CycleDetection)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clamba.yaml")
	body := `
ai:
  provider: openai
  openai:
    model: gpt-4
    api_key: sk-test
analysis:
  min_processes: 2
  max_processes: 8
output:
  output_format: yaml
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "sk-test", cfg.AI.OpenAI.APIKey)
	assert.Equal(t, 2, cfg.Analysis.MinProcesses)
	assert.Equal(t, 8, cfg.Analysis.MaxProcesses)
	assert.Equal(t, "yaml", cfg.Output.Format)
	// Untouched fields keep their defaults.
	assert.Equal(t, 7, cfg.Analysis.MaxStepsPerProcess)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.AI.Provider = "bard" }},
		{"max below min", func(c *Config) {
			c.Analysis.MinProcesses = 5
			c.Analysis.MaxProcesses = 2
		}},
		{"missing model", func(c *Config) { c.AI.Ollama.Model = "" }},
		{"missing api key", func(c *Config) {
			c.AI.Provider = "anthropic"
			c.AI.Anthropic.APIKey = ""
		}},
		{"bad output format", func(c *Config) { c.Output.Format = "toml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestActiveProvider(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.AI.Ollama, cfg.ActiveProvider())

	cfg.AI.Provider = "anthropic"
	assert.Equal(t, cfg.AI.Anthropic, cfg.ActiveProvider())
}
