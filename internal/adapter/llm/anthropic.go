package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"mark1-ai/internal/domain"
	"mark1-ai/internal/infra/config"
	"mark1-ai/internal/infra/tracer"
)

const defaultAnthropicVersion = "2023-06-01"

// defaultAnthropicMaxTokens applies when the request does not set one;
// the Messages API requires max_tokens.
const defaultAnthropicMaxTokens = 4096

// Compile-time interface assertion.
var _ domain.LLMProvider = (*AnthropicProvider)(nil)

// AnthropicProvider implements domain.LLMProvider for the Anthropic Messages API.
type AnthropicProvider struct {
	name    string
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	version string
}

// NewAnthropicProvider creates a provider for the Anthropic Messages API.
func NewAnthropicProvider(cfg config.ProviderConfig, logger *slog.Logger) *AnthropicProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	return &AnthropicProvider{
		name:    cfg.Name,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  NewHTTPClient(cfg),
		logger:  logger,
		version: defaultAnthropicVersion,
	}
}

// Chat implements domain.LLMProvider.
func (p *AnthropicProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := tracer.StartSpan(ctx, "llm.chat",
		trace.WithAttributes(
			tracer.StringAttr("llm.provider", p.name),
			tracer.StringAttr("llm.model", req.Model),
		),
	)
	defer span.End()

	if req.Model == "" {
		req.Model = p.model
	}

	body, err := json.Marshal(toAnthropicRequest(req))
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": p.version,
	}

	respBody, err := doJSONRequest(ctx, p.client, p.baseURL+"/v1/messages", body, headers)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	var antResp anthropicResponse
	if err := json.Unmarshal(respBody, &antResp); err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	result := fromAnthropicResponse(antResp)
	setUsageAttrs(span, result.Usage)
	tracer.SetOK(span)
	logChatCompleted(p.logger, p.name, result)

	return result, nil
}

// Name implements domain.LLMProvider.
func (p *AnthropicProvider) Name() string { return p.name }

// --- Anthropic API wire types ---

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	System    string             `json:"system,omitempty"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// toAnthropicRequest converts a domain request. The Messages API carries
// the system prompt as a top-level field, not as a message.
func toAnthropicRequest(req domain.ChatRequest) anthropicRequest {
	antReq := anthropicRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
	}
	if antReq.MaxTokens <= 0 {
		antReq.MaxTokens = defaultAnthropicMaxTokens
	}

	for _, m := range req.Messages {
		if m.Role == domain.RoleSystem {
			if antReq.System == "" {
				antReq.System = m.Content
			} else {
				antReq.System += "\n\n" + m.Content
			}
			continue
		}
		antReq.Messages = append(antReq.Messages, anthropicMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	return antReq
}

func fromAnthropicResponse(resp anthropicResponse) *domain.ChatResponse {
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &domain.ChatResponse{
		ID:    resp.ID,
		Model: resp.Model,
		Message: domain.Message{
			Role:    domain.RoleAssistant,
			Content: text.String(),
		},
		Usage: domain.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
}
