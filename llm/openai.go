package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// openAIProvider implements Provider for the OpenAI chat completions API.
type openAIProvider struct {
	base httpClient
}

// NewOpenAI creates a provider for OpenAI.
func NewOpenAI(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &openAIProvider{base: newHTTPClient(cfg)}
}

func (p *openAIProvider) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *openAIProvider) Query(ctx context.Context, prompt string) (*Response, error) {
	body := chatCompletionRequest{
		Model:       p.base.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: p.base.cfg.Temperature,
		MaxTokens:   p.base.cfg.MaxTokens,
	}

	respBody, err := p.base.doPost(ctx, p.base.cfg.BaseURL+"/v1/chat/completions",
		p.authHeaders(), body)
	if err != nil {
		return nil, err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding openai response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in openai response")
	}

	return &Response{
		Text:             resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (p *openAIProvider) TestConnection(ctx context.Context) error {
	_, err := p.base.doGet(ctx, p.base.cfg.BaseURL+"/v1/models", p.authHeaders())
	if err != nil {
		return fmt.Errorf("cannot reach openai: %w", err)
	}
	return nil
}

func (p *openAIProvider) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.base.cfg.APIKey}
}
