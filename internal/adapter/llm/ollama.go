package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"mark1-ai/internal/domain"
	"mark1-ai/internal/infra/config"
)

var _ domain.LLMProvider = (*OllamaProvider)(nil)

// Default Ollama timeouts: short connect (local), long response (model loading).
const (
	ollamaDefaultConnTimeout = 5 * time.Second
	ollamaDefaultRespTimeout = 300 * time.Second
)

// OllamaProvider wraps OpenAIProvider to work with the Ollama API.
// Ollama exposes an OpenAI-compatible endpoint at /v1, so chat is
// delegated to the inner OpenAI provider.
type OllamaProvider struct {
	inner *OpenAIProvider
}

// NewOllamaProvider creates an Ollama provider that delegates chat to
// OpenAIProvider via Ollama's OpenAI-compatible /v1 endpoint.
func NewOllamaProvider(cfg config.ProviderConfig, logger *slog.Logger) *OllamaProvider {
	// Apply Ollama-specific timeout defaults.
	ollamaCfg := cfg
	if ollamaCfg.ConnTimeout == 0 {
		ollamaCfg.ConnTimeout = ollamaDefaultConnTimeout
	}
	if ollamaCfg.RespTimeout == 0 {
		ollamaCfg.RespTimeout = ollamaDefaultRespTimeout
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &OllamaProvider{
		inner: &OpenAIProvider{
			name:    cfg.Name,
			model:   cfg.Model,
			apiKey:  "", // Ollama doesn't need an API key
			baseURL: baseURL + "/v1",
			client:  NewHTTPClient(ollamaCfg),
			logger:  logger,
		},
	}
}

// Chat implements domain.LLMProvider.
func (p *OllamaProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	return p.inner.Chat(ctx, req)
}

// Name implements domain.LLMProvider.
func (p *OllamaProvider) Name() string { return p.inner.Name() }
