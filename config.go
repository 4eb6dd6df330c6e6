package clamba

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the CLAMBA analyzer.
type Config struct {
	AI       AIConfig       `json:"ai" yaml:"ai"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	Output   OutputConfig   `json:"output" yaml:"output"`

	// Debug enables debug-level logging.
	Debug bool `json:"debug" yaml:"debug"`
}

// AIConfig selects and configures the AI provider.
type AIConfig struct {
	// Provider is one of "ollama", "openai", "anthropic".
	Provider string `json:"provider" yaml:"provider" validate:"required,oneof=ollama openai anthropic"`

	Ollama    ProviderConfig `json:"ollama" yaml:"ollama"`
	OpenAI    ProviderConfig `json:"openai" yaml:"openai"`
	Anthropic ProviderConfig `json:"anthropic" yaml:"anthropic"`
}

// ProviderConfig configures a single AI provider endpoint.
type ProviderConfig struct {
	BaseURL     string  `json:"base_url" yaml:"base_url"`
	Model       string  `json:"model" yaml:"model"`
	APIKey      string  `json:"api_key" yaml:"api_key"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" validate:"min=0"`
	Temperature float64 `json:"temperature" yaml:"temperature" validate:"min=0,max=2"`
	// TimeoutSeconds bounds a single HTTP request to the provider.
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds" validate:"min=0"`
}

// AnalysisConfig tunes process detection and dependency analysis.
type AnalysisConfig struct {
	// MinProcesses and MaxProcesses bound the process count requested from
	// the model; their midpoint is the expected count used in confidence
	// scoring.
	MinProcesses int `json:"min_processes" yaml:"min_processes" validate:"min=1"`
	MaxProcesses int `json:"max_processes" yaml:"max_processes" validate:"min=1"`

	// MaxStepsPerProcess caps the step list requested per process.
	MaxStepsPerProcess int `json:"max_steps_per_process" yaml:"max_steps_per_process" validate:"min=1"`

	// CycleDetection enables greedy cycle removal on the dependency graph.
	// When disabled, cycles in the model's answer are passed through as-is.
	CycleDetection bool `json:"cycle_detection" yaml:"cycle_detection"`

	// MaxRetries is the retry budget for AI provider requests.
	MaxRetries int `json:"max_retries" yaml:"max_retries" validate:"min=0"`
}

// OutputConfig controls result serialization.
type OutputConfig struct {
	// Format is "json" or "yaml".
	Format string `json:"output_format" yaml:"output_format" validate:"oneof=json yaml"`

	PrettyPrint     bool `json:"pretty_print" yaml:"pretty_print"`
	IncludeMetadata bool `json:"include_metadata" yaml:"include_metadata"`

	// SanitizeIDs normalizes generated identifiers (accents and special
	// characters removed).
	SanitizeIDs bool `json:"sanitize_ids" yaml:"sanitize_ids"`
}

// DefaultConfig returns a Config with sensible defaults for local inference.
func DefaultConfig() Config {
	return Config{
		AI: AIConfig{
			Provider: "ollama",
			Ollama: ProviderConfig{
				BaseURL:        "http://localhost:11434",
				Model:          "nous-hermes2",
				MaxTokens:      4000,
				Temperature:    0.05,
				TimeoutSeconds: 120,
			},
			OpenAI: ProviderConfig{
				Model:          "gpt-4",
				MaxTokens:      4000,
				Temperature:    0.05,
				TimeoutSeconds: 120,
			},
			Anthropic: ProviderConfig{
				Model:          "claude-3-sonnet-20240229",
				MaxTokens:      4000,
				Temperature:    0.05,
				TimeoutSeconds: 120,
			},
		},
		Analysis: AnalysisConfig{
			MinProcesses:       3,
			MaxProcesses:       6,
			MaxStepsPerProcess: 7,
			CycleDetection:     true,
			MaxRetries:         3,
		},
		Output: OutputConfig{
			Format:          "json",
			PrettyPrint:     true,
			IncludeMetadata: true,
			SanitizeIDs:     true,
		},
	}
}

// LoadConfig reads a YAML configuration file. Fields absent from the file
// keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.Analysis.MaxProcesses < c.Analysis.MinProcesses {
		return fmt.Errorf("%w: max_processes (%d) must be >= min_processes (%d)",
			ErrInvalidConfig, c.Analysis.MaxProcesses, c.Analysis.MinProcesses)
	}

	// The active provider must be minimally configured.
	p := c.ActiveProvider()
	if p.Model == "" {
		return fmt.Errorf("%w: no model configured for provider %q", ErrInvalidConfig, c.AI.Provider)
	}
	if c.AI.Provider != "ollama" && p.APIKey == "" {
		return fmt.Errorf("%w: api_key required for provider %q", ErrInvalidConfig, c.AI.Provider)
	}
	return nil
}

// ActiveProvider returns the configuration block for the selected provider.
func (c *Config) ActiveProvider() ProviderConfig {
	switch c.AI.Provider {
	case "openai":
		return c.AI.OpenAI
	case "anthropic":
		return c.AI.Anthropic
	default:
		return c.AI.Ollama
	}
}
