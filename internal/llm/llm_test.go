package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Fmazzesi/zefixtools/internal/config"
)

// ════════════════════════════════════════════════════════════════════
// provider.go: types and helpers
// ════════════════════════════════════════════════════════════════════

func TestMessageConstructors(t *testing.T) {
	sys := SystemMessage("You translate.")
	if sys.Role != RoleSystem || sys.Content != "You translate." {
		t.Fatalf("SystemMessage: got %+v", sys)
	}
	user := UserMessage("Handel mit Waren")
	if user.Role != RoleUser || user.Content != "Handel mit Waren" {
		t.Fatalf("UserMessage: got %+v", user)
	}
}

func TestMapFinishReason(t *testing.T) {
	cases := map[string]FinishReason{
		"stop":   FinishStop,
		"length": FinishLength,
		"other":  FinishReason("other"),
	}
	for in, want := range cases {
		if got := mapFinishReason(in); got != want {
			t.Errorf("mapFinishReason(%q) = %q, want %q", in, got, want)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// openai.go
// ════════════════════════════════════════════════════════════════════

func TestOpenAIProviderNew(t *testing.T) {
	_, err := NewOpenAIProvider("")
	if err != ErrNoAPIKey {
		t.Fatalf("expected ErrNoAPIKey, got: %v", err)
	}

	p, err := NewOpenAIProvider("sk-test", WithOpenAIModel("gpt-4o"), WithOpenAIBaseURL("http://custom/"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "openai" || p.model != "gpt-4o" || p.baseURL != "http://custom" {
		t.Fatalf("unexpected config: %+v", p)
	}
	if len(p.Models()) == 0 {
		t.Fatal("Models() should not be empty")
	}
}

func TestOpenAIChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("missing auth header")
		}

		var req openAIChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o-mini" {
			t.Errorf("unexpected model: %s", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if req.Temperature != nil {
			t.Errorf("temperature should be omitted, got %v", *req.Temperature)
		}

		json.NewEncoder(w).Encode(openAIChatResponse{
			ID: "chatcmpl-123",
			Choices: []openAIChoice{{
				Message:      openAIMessage{Role: "assistant", Content: "Trade in goods of all kinds"},
				FinishReason: "stop",
			}},
			Usage: openAIUsage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30},
			Model: "gpt-4o-mini",
		})
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL))
	resp, err := p.Chat(context.Background(),
		[]Message{SystemMessage("Translate to English."), UserMessage("Handel mit Waren aller Art")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "Trade in goods of all kinds" {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if resp.Provider != "openai" || resp.Usage.TotalTokens != 30 || resp.FinishReason != FinishStop {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestOpenAIChatNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openAIChatResponse{ID: "chatcmpl-empty", Model: "gpt-4o-mini"})
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL))
	_, err := p.Chat(context.Background(), []Message{UserMessage("Handel")}, nil)
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestOpenAIChatWithOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openAIChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o" {
			t.Errorf("opts.Model should override, got %s", req.Model)
		}
		if req.Temperature == nil || *req.Temperature != 0.2 {
			t.Errorf("temperature not forwarded: %v", req.Temperature)
		}
		if req.MaxTokens == nil || *req.MaxTokens != 256 {
			t.Errorf("max_tokens not forwarded: %v", req.MaxTokens)
		}
		json.NewEncoder(w).Encode(openAIChatResponse{Choices: []openAIChoice{{Message: openAIMessage{Content: "ok"}}}})
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL))
	_, err := p.Chat(context.Background(), []Message{UserMessage("x")},
		&ChatOptions{Model: "gpt-4o", Temperature: 0.2, MaxTokens: 256})
	if err != nil {
		t.Fatal(err)
	}
}

func TestOpenAIErrorHandling(t *testing.T) {
	cases := []struct {
		status int
		code   string
		want   error
	}{
		{http.StatusUnauthorized, "invalid_api_key", ErrNoAPIKey},
		{http.StatusTooManyRequests, "rate_limit", ErrRateLimit},
		{http.StatusBadRequest, "context_length_exceeded", ErrContextLength},
		{http.StatusBadRequest, "model_not_found", ErrInvalidModel},
	}
	for _, tc := range cases {
		tc := tc
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			fmt.Fprintf(w, `{"error":{"message":"boom","type":"x","code":%q}}`, tc.code)
		}))
		p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL))
		_, err := p.Chat(context.Background(), []Message{UserMessage("x")}, nil)
		server.Close()
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d/%s: got %v, want %v", tc.status, tc.code, err, tc.want)
		}
	}
}

func TestOpenAIPlainHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL))
	_, err := p.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	if err == nil || !strings.Contains(err.Error(), "HTTP 502") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenAIPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	p, _ := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(server.URL))
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

// ════════════════════════════════════════════════════════════════════
// ollama.go
// ════════════════════════════════════════════════════════════════════

func TestOllamaProviderNew(t *testing.T) {
	p, err := NewOllamaProvider("", WithOllamaModel("llama3.1:8b"))
	if err != nil {
		t.Fatal(err)
	}
	if p.baseURL != "http://localhost:11434" || p.model != "llama3.1:8b" || p.Name() != "ollama" {
		t.Fatalf("unexpected config: %+v", p)
	}
}

func TestOllamaChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("stream must be false")
		}
		if req.Options != nil {
			t.Errorf("options should be omitted without ChatOptions, got %+v", req.Options)
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:           "qwen2.5:7b",
			Message:         ollamaMessage{Role: "assistant", Content: "In liquidation"},
			Done:            true,
			PromptEvalCount: 12,
			EvalCount:       3,
		})
	}))
	defer server.Close()

	p, _ := NewOllamaProvider(server.URL)
	resp, err := p.Chat(context.Background(), []Message{UserMessage("IN_LIQUIDATION")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "In liquidation" || resp.Usage.TotalTokens != 15 || resp.Provider != "ollama" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestOllamaHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	p, _ := NewOllamaProvider(server.URL)
	_, err := p.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	if !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("expected ErrInvalidModel, got %v", err)
	}
}

func TestOllamaPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	p, _ := NewOllamaProvider(server.URL)
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

// ════════════════════════════════════════════════════════════════════
// router.go
// ════════════════════════════════════════════════════════════════════

// mockProvider implements LLMProvider for testing the router.
type mockProvider struct {
	name     string
	chatFunc func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)
	pingErr  error
}

func (m *mockProvider) Name() string                   { return m.name }
func (m *mockProvider) Models() []string               { return []string{m.name + "-model"} }
func (m *mockProvider) Ping(ctx context.Context) error { return m.pingErr }
func (m *mockProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	if m.chatFunc != nil {
		return m.chatFunc(ctx, messages, opts)
	}
	return &Response{Content: "mock response", Provider: m.name}, nil
}

func TestRouterChat(t *testing.T) {
	r := NewRouter("main")
	r.RegisterProvider(&mockProvider{name: "main"})

	resp, err := r.Chat(context.Background(), []Message{UserMessage("test")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Provider != "main" {
		t.Fatalf("unexpected provider: %s", resp.Provider)
	}
}

func TestRouterFallback(t *testing.T) {
	callCount := 0
	r := NewRouter("primary", WithFallbacks("backup"), WithMaxRetries(0))
	r.RegisterProvider(&mockProvider{
		name: "primary",
		chatFunc: func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
			callCount++
			return nil, fmt.Errorf("%w: primary down", ErrProviderDown)
		},
	})
	r.RegisterProvider(&mockProvider{
		name: "backup",
		chatFunc: func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
			callCount++
			return &Response{Content: "from backup", Provider: "backup"}, nil
		},
	})

	resp, err := r.Chat(context.Background(), []Message{UserMessage("test")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Provider != "backup" {
		t.Fatalf("expected fallback response, got: %+v", resp)
	}
	if callCount != 2 {
		t.Fatalf("expected 2 calls (primary + backup), got %d", callCount)
	}
}

func TestRouterRetriesTransientErrors(t *testing.T) {
	calls := 0
	r := NewRouter("flaky", WithMaxRetries(2), WithRetryDelay(time.Millisecond))
	r.RegisterProvider(&mockProvider{
		name: "flaky",
		chatFunc: func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
			calls++
			if calls < 3 {
				return nil, ErrRateLimit
			}
			return &Response{Content: "ok"}, nil
		},
	})

	if _, err := r.Chat(context.Background(), []Message{UserMessage("x")}, nil); err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRouterAllFail(t *testing.T) {
	r := NewRouter("a", WithFallbacks("b"), WithMaxRetries(0))
	for _, name := range []string{"a", "b"} {
		r.RegisterProvider(&mockProvider{
			name: name,
			chatFunc: func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
				return nil, ErrProviderDown
			},
		})
	}

	_, err := r.Chat(context.Background(), []Message{UserMessage("test")}, nil)
	if !errors.Is(err, ErrProviderDown) || !strings.Contains(err.Error(), "all providers failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRouterNoProviders(t *testing.T) {
	r := NewRouter("nonexistent")
	_, err := r.Chat(context.Background(), []Message{UserMessage("test")}, nil)
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}

func TestRouterNonRetryableError(t *testing.T) {
	calls := 0
	r := NewRouter("main", WithFallbacks("backup"), WithMaxRetries(3))
	r.RegisterProvider(&mockProvider{
		name: "main",
		chatFunc: func(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
			calls++
			return nil, fmt.Errorf("%w: bad key", ErrNoAPIKey)
		},
	})
	r.RegisterProvider(&mockProvider{name: "backup"})

	_, err := r.Chat(context.Background(), []Message{UserMessage("x")}, nil)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("non-retryable error retried %d times", calls)
	}
}

func TestRouterModelsAndPing(t *testing.T) {
	r := NewRouter("a", WithFallbacks("b"))
	r.RegisterProvider(&mockProvider{name: "a"})
	r.RegisterProvider(&mockProvider{name: "b", pingErr: ErrProviderDown})

	models := r.Models()
	if len(models) != 2 || models[0] != "a-model" || models[1] != "b-model" {
		t.Fatalf("Models: %v", models)
	}
	if r.Name() != "router/a" {
		t.Fatalf("Name: %s", r.Name())
	}
	if err := r.Ping(context.Background()); err != nil {
		t.Fatalf("Ping should only check primary: %v", err)
	}

	if err := NewRouter("missing").Ping(context.Background()); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("Ping without primary: %v", err)
	}
}

func TestNewRouterFromConfig(t *testing.T) {
	if _, err := NewRouterFromConfig(config.TranslationConfig{Provider: "none"}, nil); !errors.Is(err, ErrNoProviders) {
		t.Fatalf("provider none: %v", err)
	}

	// openai without a key cannot serve as primary
	_, err := NewRouterFromConfig(config.TranslationConfig{Provider: "openai", OllamaURL: "http://localhost:11434"}, nil)
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("openai without key: %v", err)
	}

	r, err := NewRouterFromConfig(config.TranslationConfig{
		Provider:  "openai",
		Model:     "gpt-4o-mini",
		APIKey:    "sk-test",
		OllamaURL: "http://localhost:11434",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.GetProvider(ProviderOpenAI); !ok {
		t.Fatal("openai not registered")
	}
	if len(r.fallbacks) != 1 || r.fallbacks[0] != ProviderOllama {
		t.Fatalf("fallbacks: %v", r.fallbacks)
	}

	r, err = NewRouterFromConfig(config.TranslationConfig{Provider: "ollama", Model: "mistral:7b", OllamaURL: "http://h:1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := r.GetProvider(ProviderOllama)
	if p.(*OllamaProvider).model != "mistral:7b" {
		t.Fatalf("ollama model: %s", p.(*OllamaProvider).model)
	}
}
