package domain

import "context"

// LLMProvider is the interface for any LLM backend.
type LLMProvider interface {
	// Chat sends a request and returns a complete response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// Name returns the provider's identifier (e.g., "openrouter", "ollama").
	Name() string
}

// SearchClient issues a bounded web search. Implementations never surface
// backend failures as errors: a failed lookup is a SearchOutcome with
// Success false and empty Results.
type SearchClient interface {
	Search(ctx context.Context, query string, limit int) SearchOutcome
}

// CompletionRouter selects a model for the composed prompt, attempts it
// with bounded fallback, and reports the outcome. originalQuery is the
// unmodified user question, used for routing analysis only.
type CompletionRouter interface {
	Chat(ctx context.Context, messages []Message, requestedModel, originalQuery string) CompletionOutcome
	AvailableModels() []ModelDescriptor
}
