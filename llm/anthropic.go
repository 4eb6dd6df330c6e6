package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// anthropicProvider implements Provider for the Anthropic messages API.
type anthropicProvider struct {
	base httpClient
}

// NewAnthropic creates a provider for Anthropic.
func NewAnthropic(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &anthropicProvider{base: newHTTPClient(cfg)}
}

func (p *anthropicProvider) Name() string { return "anthropic" }

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model string `json:"model"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (p *anthropicProvider) Query(ctx context.Context, prompt string) (*Response, error) {
	maxTokens := p.base.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4000 // required field on this API
	}

	body := anthropicRequest{
		Model:       p.base.cfg.Model,
		MaxTokens:   maxTokens,
		Temperature: p.base.cfg.Temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	}

	respBody, err := p.base.doPost(ctx, p.base.cfg.BaseURL+"/v1/messages",
		p.authHeaders(), body)
	if err != nil {
		return nil, err
	}

	var resp anthropicResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding anthropic response: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("no text content in anthropic response")
	}

	return &Response{
		Text:             text.String(),
		Model:            resp.Model,
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
	}, nil
}

// TestConnection sends a minimal request; the messages API has no cheap
// list endpoint usable for a health check.
func (p *anthropicProvider) TestConnection(ctx context.Context) error {
	body := anthropicRequest{
		Model:     p.base.cfg.Model,
		MaxTokens: 1,
		Messages:  []chatMessage{{Role: "user", Content: "ping"}},
	}
	if _, err := p.base.doPost(ctx, p.base.cfg.BaseURL+"/v1/messages", p.authHeaders(), body); err != nil {
		return fmt.Errorf("cannot reach anthropic: %w", err)
	}
	return nil
}

func (p *anthropicProvider) authHeaders() map[string]string {
	return map[string]string{
		"x-api-key":         p.base.cfg.APIKey,
		"anthropic-version": "2023-06-01",
	}
}
