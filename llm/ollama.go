package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ollamaProvider implements Provider for Ollama's native API. The native
// /api/generate endpoint is used rather than the OpenAI-compatible one
// because it exposes num_predict directly.
type ollamaProvider struct {
	base httpClient
}

// NewOllama creates a provider for a local Ollama instance.
func NewOllama(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &ollamaProvider{base: newHTTPClient(cfg)}
}

func (p *ollamaProvider) Name() string { return "ollama" }

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type ollamaGenerateResponse struct {
	Response        string `json:"response"`
	Model           string `json:"model"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

func (p *ollamaProvider) Query(ctx context.Context, prompt string) (*Response, error) {
	body := ollamaGenerateRequest{
		Model:  p.base.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			NumPredict:  p.base.cfg.MaxTokens,
			Temperature: p.base.cfg.Temperature,
		},
	}

	respBody, err := p.base.doPost(ctx, p.base.cfg.BaseURL+"/api/generate", nil, body)
	if err != nil {
		return nil, err
	}

	var resp ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding ollama response: %w", err)
	}
	if strings.TrimSpace(resp.Response) == "" {
		return nil, fmt.Errorf("empty response from ollama")
	}

	return &Response{
		Text:             resp.Response,
		Model:            resp.Model,
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
	}, nil
}

// TestConnection lists the local models and checks the configured one is
// pulled.
func (p *ollamaProvider) TestConnection(ctx context.Context) error {
	respBody, err := p.base.doGet(ctx, p.base.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("cannot reach ollama at %s (is `ollama serve` running?): %w",
			p.base.cfg.BaseURL, err)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.Unmarshal(respBody, &tags); err != nil {
		return fmt.Errorf("decoding ollama tags: %w", err)
	}

	for _, m := range tags.Models {
		if m.Name == p.base.cfg.Model || strings.HasPrefix(m.Name, p.base.cfg.Model+":") {
			return nil
		}
	}
	return fmt.Errorf("model %q not found on ollama (try: ollama pull %s)",
		p.base.cfg.Model, p.base.cfg.Model)
}
