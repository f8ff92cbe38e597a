package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mark1-ai/internal/domain"
	"mark1-ai/internal/infra/config"
)

func TestOpenAIProviderChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth: %s", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content-type: %s", r.Header.Get("Content-Type"))
		}

		var req openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q, want gpt-4o-mini", req.Model)
		}
		if len(req.Messages) != 2 {
			t.Errorf("len(messages) = %d, want 2", len(req.Messages))
		}

		resp := openaiResponse{
			ID:    "chatcmpl-123",
			Model: "gpt-4o-mini",
			Choices: []openaiChoice{
				{
					Index: 0,
					Message: openaiMessage{
						Role:    "assistant",
						Content: "Hello! How can I help?",
					},
					FinishReason: "stop",
				},
			},
			Usage: openaiUsage{
				PromptTokens:     10,
				CompletionTokens: 8,
				TotalTokens:      18,
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewOpenAIProvider(config.ProviderConfig{
		Name:    "openai",
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, testLogger())

	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "be helpful"},
			{Role: domain.RoleUser, Content: "hi"},
		},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.Message.Content != "Hello! How can I help?" {
		t.Errorf("Content = %q", resp.Message.Content)
	}
	if resp.Message.Role != domain.RoleAssistant {
		t.Errorf("Role = %q, want assistant", resp.Message.Role)
	}
	if resp.Usage.TotalTokens != 18 {
		t.Errorf("TotalTokens = %d, want 18", resp.Usage.TotalTokens)
	}
}

func TestOpenAIProviderChatDefaultsModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "configured-model" {
			t.Errorf("model = %q, want configured-model", req.Model)
		}
		json.NewEncoder(w).Encode(openaiResponse{
			Model: req.Model,
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: "ok"}},
			},
		})
	}))
	defer server.Close()

	p := NewOpenAIProvider(config.ProviderConfig{
		Name:    "openai",
		Model:   "configured-model",
		APIKey:  "k",
		BaseURL: server.URL,
	}, testLogger())

	if _, err := p.Chat(context.Background(), domain.ChatRequest{}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
}

func TestOpenAIProviderChatHTTPErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimit},
		{"unauthorized", http.StatusUnauthorized, domain.ErrAuthInvalid},
		{"forbidden", http.StatusForbidden, domain.ErrAuthInvalid},
		{"server error", http.StatusInternalServerError, domain.ErrProviderError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			p := NewOpenAIProvider(config.ProviderConfig{
				Name:    "openai",
				APIKey:  "k",
				BaseURL: server.URL,
			}, testLogger())

			_, err := p.Chat(context.Background(), domain.ChatRequest{Model: "m"})
			if err == nil {
				t.Fatal("want error")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error = %v, want %v", err, tt.sentinel)
			}
		})
	}
}

func TestOpenRouterProviderHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("HTTP-Referer") == "" {
			t.Error("missing HTTP-Referer header")
		}
		if r.Header.Get("X-Title") == "" {
			t.Error("missing X-Title header")
		}
		json.NewEncoder(w).Encode(openaiResponse{
			Model: "m",
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: "ok"}},
			},
		})
	}))
	defer server.Close()

	p := NewOpenRouterProvider(config.ProviderConfig{
		Name:    "openrouter",
		APIKey:  "k",
		BaseURL: server.URL,
	}, testLogger())

	resp, err := p.Chat(context.Background(), domain.ChatRequest{Model: "m"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "ok" {
		t.Errorf("Content = %q, want ok", resp.Message.Content)
	}
}
