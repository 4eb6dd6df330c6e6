// Package llm abstracts the AI backends used for contract analysis. The
// rest of the module treats a provider as an opaque text-to-text oracle:
// prompt in, free-form answer out. Payload recovery from that answer is the
// extract package's job, not the provider's.
package llm

import (
	"context"
	"fmt"
)

// Provider is the interface for AI text generation.
type Provider interface {
	// Query sends a prompt and returns the model's raw text answer.
	Query(ctx context.Context, prompt string) (*Response, error)

	// Name identifies the provider for logging and result metadata.
	Name() string

	// TestConnection verifies the backend is reachable and the configured
	// model is available.
	TestConnection(ctx context.Context) error
}

// Response is the result of a single query.
type Response struct {
	Text             string `json:"text"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Config configures an AI provider.
type Config struct {
	Provider       string  `json:"provider"` // ollama, openai, anthropic
	BaseURL        string  `json:"base_url"`
	Model          string  `json:"model"`
	APIKey         string  `json:"api_key"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float64 `json:"temperature"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	MaxRetries     int     `json:"max_retries"`
}

// NewProvider creates an AI provider from configuration.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllama(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	case "anthropic":
		return NewAnthropic(cfg), nil
	case "":
		return nil, fmt.Errorf("llm provider not specified")
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
