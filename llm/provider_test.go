package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{"ollama", false},
		{"openai", false},
		{"anthropic", false},
		{"", true},
		{"bard", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: tt.provider, Model: "m"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewProvider(%q) error = %v, wantErr %v", tt.provider, err, tt.wantErr)
			}
			if err == nil && p.Name() != tt.provider {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.provider)
			}
		})
	}
}

func TestOllamaQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"response": "[{\"id\":\"01\"}]", "model": "nous-hermes2", "prompt_eval_count": 12, "eval_count": 7}`))
	}))
	defer srv.Close()

	p := NewOllama(Config{Provider: "ollama", BaseURL: srv.URL, Model: "nous-hermes2"})
	resp, err := p.Query(context.Background(), "detect processes")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if !strings.Contains(resp.Text, "01") {
		t.Errorf("Text = %q, want the model answer", resp.Text)
	}
	if resp.PromptTokens != 12 || resp.CompletionTokens != 7 {
		t.Errorf("token counts = %d/%d, want 12/7", resp.PromptTokens, resp.CompletionTokens)
	}
}

func TestOllamaQueryEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": "  "}`))
	}))
	defer srv.Close()

	p := NewOllama(Config{Provider: "ollama", BaseURL: srv.URL, Model: "m"})
	if _, err := p.Query(context.Background(), "x"); err == nil {
		t.Fatal("Query() succeeded on an empty model answer")
	}
}

func TestOllamaTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"models": [{"name": "nous-hermes2:latest"}]}`))
	}))
	defer srv.Close()

	p := NewOllama(Config{Provider: "ollama", BaseURL: srv.URL, Model: "nous-hermes2"})
	if err := p.TestConnection(context.Background()); err != nil {
		t.Fatalf("TestConnection() error: %v", err)
	}

	missing := NewOllama(Config{Provider: "ollama", BaseURL: srv.URL, Model: "mistral"})
	if err := missing.TestConnection(context.Background()); err == nil {
		t.Fatal("TestConnection() passed for a model that is not pulled")
	}
}

func TestOpenAIQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "hello"}}], "model": "gpt-4", "usage": {"prompt_tokens": 3, "completion_tokens": 1}}`))
	}))
	defer srv.Close()

	p := NewOpenAI(Config{Provider: "openai", BaseURL: srv.URL, Model: "gpt-4", APIKey: "sk-test"})
	resp, err := p.Query(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if resp.Text != "hello" {
		t.Errorf("Text = %q, want %q", resp.Text, "hello")
	}
}

func TestAnthropicQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "sk-ant" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("anthropic-version header missing")
		}
		w.Write([]byte(`{"content": [{"type": "text", "text": "hello"}], "model": "claude-3-sonnet-20240229", "usage": {"input_tokens": 3, "output_tokens": 1}}`))
	}))
	defer srv.Close()

	p := NewAnthropic(Config{Provider: "anthropic", BaseURL: srv.URL, Model: "claude-3-sonnet-20240229", APIKey: "sk-ant"})
	resp, err := p.Query(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if resp.Text != "hello" {
		t.Errorf("Text = %q, want %q", resp.Text, "hello")
	}
}

func TestRetryOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`"ok"`))
	}))
	defer srv.Close()

	c := newHTTPClient(Config{MaxRetries: 5})
	c.retryDelay = time.Millisecond

	body, err := c.doPost(context.Background(), srv.URL, nil, map[string]string{})
	if err != nil {
		t.Fatalf("doPost() error after retries: %v", err)
	}
	if string(body) != `"ok"` || attempts != 3 {
		t.Errorf("body = %q after %d attempts, want ok after 3", body, attempts)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newHTTPClient(Config{MaxRetries: 5})
	c.retryDelay = time.Millisecond

	if _, err := c.doPost(context.Background(), srv.URL, nil, map[string]string{}); err == nil {
		t.Fatal("doPost() succeeded on a 404")
	}
	if attempts != 1 {
		t.Errorf("made %d attempts on a non-retryable status, want 1", attempts)
	}
}
