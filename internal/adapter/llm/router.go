package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mark1-ai/internal/domain"
	"mark1-ai/internal/infra/config"
)

var _ domain.CompletionRouter = (*Router)(nil)

// complexQueryTokens is the query-token threshold above which the power
// model is preferred when the caller did not request a model.
const complexQueryTokens = 120

// complexityMarkers are lowercase substrings that suggest a query needs a
// stronger model even when it is short.
var complexityMarkers = []string{
	"step by step",
	"prove",
	"derive",
	"architecture",
	"trade-off",
	"tradeoff",
	"compare and contrast",
}

// Router picks a model for each request and drives the attempt chain.
// It holds the static model catalog and resolves each catalog entry to a
// registered provider. Routing decisions use only the original user query,
// never the search-augmented prompt.
type Router struct {
	registry *Registry
	catalog  []domain.ModelDescriptor
	byID     map[string]config.ModelConfig

	defaultModel  string
	fallbackModel string
	powerModel    string
	timeout       time.Duration

	tokens *TokenCounter
	logger *slog.Logger
}

// NewRouter creates a router from the LLM configuration and a populated
// provider registry. Config is assumed validated: every catalog model
// references a registered provider.
func NewRouter(cfg config.LLMConfig, registry *Registry, logger *slog.Logger) *Router {
	byID := make(map[string]config.ModelConfig, len(cfg.Models))
	catalog := make([]domain.ModelDescriptor, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		byID[m.ID] = m
		catalog = append(catalog, domain.ModelDescriptor{
			ID:           m.ID,
			Name:         m.Name,
			Provider:     m.Provider,
			Capabilities: m.Capabilities,
			Default:      m.ID == cfg.DefaultModel,
		})
	}

	timeout := cfg.CompletionTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Router{
		registry:      registry,
		catalog:       catalog,
		byID:          byID,
		defaultModel:  cfg.DefaultModel,
		fallbackModel: cfg.FallbackModel,
		powerModel:    cfg.PowerModel,
		timeout:       timeout,
		tokens:        NewTokenCounter(),
		logger:        logger,
	}
}

// AvailableModels implements domain.CompletionRouter. The catalog is static
// configuration; no network calls are made.
func (r *Router) AvailableModels() []domain.ModelDescriptor {
	out := make([]domain.ModelDescriptor, len(r.catalog))
	copy(out, r.catalog)
	return out
}

// Chat implements domain.CompletionRouter. It selects a primary model,
// builds the ordered attempt list [primary, fallback], and tries each in
// turn. The outcome is always well-formed: when every attempt fails the
// failure is reported in the outcome, not returned as an error.
func (r *Router) Chat(ctx context.Context, messages []domain.Message, requestedModel, originalQuery string) domain.CompletionOutcome {
	routing := domain.RoutingInfo{Requested: requestedModel}

	primary := r.selectModel(requestedModel, originalQuery, &routing)
	routing.Selected = primary

	attemptModels := []string{primary}
	if r.fallbackModel != "" && r.fallbackModel != primary {
		attemptModels = append(attemptModels, r.fallbackModel)
	}

	var lastErr error
	lastModel := primary

	for i, modelID := range attemptModels {
		lastModel = modelID

		resp, attempt, err := r.attempt(ctx, modelID, messages)
		routing.Attempts = append(routing.Attempts, attempt)
		if err != nil {
			r.logger.Warn("model attempt failed",
				"model", modelID,
				"attempt", i+1,
				"error", err,
			)
			if lastErr == nil {
				lastErr = err
			} else {
				lastErr = fmt.Errorf("%v; %w", lastErr, err)
			}
			continue
		}

		return domain.CompletionOutcome{
			Success:  true,
			Response: resp.Message.Content,
			Model:    modelID,
			Usage:    resp.Usage,
			Fallback: i > 0,
			Routing:  routing,
		}
	}

	return domain.CompletionOutcome{
		Success: false,
		Model:   lastModel,
		Routing: routing,
		Error:   fmt.Sprintf("all models failed: %v", lastErr),
	}
}

// attempt runs a single model attempt with the configured per-attempt timeout.
func (r *Router) attempt(ctx context.Context, modelID string, messages []domain.Message) (*domain.ChatResponse, domain.RoutingAttempt, error) {
	mc, ok := r.byID[modelID]
	attempt := domain.RoutingAttempt{Model: modelID, Provider: mc.Provider}
	if !ok {
		err := domain.NewDomainError("Router.attempt", domain.ErrModelNotFound, modelID)
		attempt.Error = err.Error()
		return nil, attempt, err
	}

	provider, err := r.registry.Get(mc.Provider)
	if err != nil {
		attempt.Error = err.Error()
		return nil, attempt, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := provider.Chat(attemptCtx, domain.ChatRequest{
		Model:    modelID,
		Messages: messages,
	})
	attempt.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("%w: model %s after %s", domain.ErrTimeout, modelID, r.timeout)
		}
		attempt.Error = err.Error()
		return nil, attempt, err
	}
	return resp, attempt, nil
}

// selectModel picks the primary model and records the decision in routing.
func (r *Router) selectModel(requestedModel, originalQuery string, routing *domain.RoutingInfo) string {
	if requestedModel != "" {
		if _, ok := r.byID[requestedModel]; ok {
			routing.Reason = "requested"
			return requestedModel
		}
		routing.Reason = "requested model not in catalog, using default"
		return r.defaultModel
	}

	if r.powerModel != "" && r.powerModel != r.defaultModel {
		tokens := r.tokens.Count(originalQuery)
		routing.QueryTokens = tokens
		if tokens > complexQueryTokens || isComplexQuery(originalQuery) {
			routing.Reason = "complex query, using power model"
			return r.powerModel
		}
	}

	routing.Reason = "default"
	return r.defaultModel
}

func isComplexQuery(query string) bool {
	q := strings.ToLower(query)
	for _, marker := range complexityMarkers {
		if strings.Contains(q, marker) {
			return true
		}
	}
	return false
}
