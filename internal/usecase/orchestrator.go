package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mark1-ai/internal/domain"
	"mark1-ai/internal/infra/tracer"
)

// Orchestrator runs the search-then-answer pipeline: web search, prompt
// composition, model routing, envelope assembly. Search failures degrade
// the answer; only invalid input fails the request.
type Orchestrator struct {
	search      domain.SearchClient
	router      domain.CompletionRouter
	searchLimit int
	logger      *slog.Logger
}

// NewOrchestrator wires the pipeline. searchLimit caps how many web
// results are fetched and rendered into the prompt.
func NewOrchestrator(search domain.SearchClient, router domain.CompletionRouter, searchLimit int, logger *slog.Logger) *Orchestrator {
	if searchLimit <= 0 {
		searchLimit = 5
	}
	return &Orchestrator{
		search:      search,
		router:      router,
		searchLimit: searchLimit,
		logger:      logger,
	}
}

// Handle answers one query. requestedModel may be empty, in which case
// the router picks. The returned envelope is always well-formed; an error
// is returned only for invalid input.
func (o *Orchestrator) Handle(ctx context.Context, query, requestedModel string) (envelope *domain.ResponseEnvelope, err error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.NewDomainError("Orchestrator.Handle", domain.ErrEmptyQuery, "")
	}

	ctx, span := tracer.StartSpan(ctx, "orchestrator.handle",
		trace.WithAttributes(tracer.StringAttr("query.model", requestedModel)),
	)
	defer span.End()

	start := time.Now()

	// A panic anywhere in the pipeline must not leak internals to the
	// caller; it becomes a generic failure envelope.
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("pipeline panic",
				"panic", r,
				"request_id", domain.RequestIDFromContext(ctx),
				"stack", string(debug.Stack()),
			)
			tracer.RecordError(span, fmt.Errorf("panic: %v", r))
			envelope = o.failureEnvelope(query, start)
			err = nil
		}
	}()

	outcome := o.search.Search(ctx, query, o.searchLimit)
	messages := Compose(query, outcome)
	completion := o.router.Chat(ctx, messages, requestedModel, query)

	webResults := []domain.SearchResult{}
	if outcome.Success {
		webResults = outcome.Results
	}

	envelope = &domain.ResponseEnvelope{
		Success:      completion.Success,
		Query:        query,
		Response:     completion.Response,
		WebResults:   webResults,
		SearchSource: outcome.Source,
		Model:        completion.Model,
		Usage:        completion.Usage,
		Fallback:     completion.Fallback,
		ResponseTime: time.Since(start).Milliseconds(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Routing:      completion.Routing,
		Error:        completion.Error,
	}

	if completion.Success {
		tracer.SetOK(span)
	}
	o.logger.Info("query handled",
		"request_id", domain.RequestIDFromContext(ctx),
		"model", completion.Model,
		"fallback", completion.Fallback,
		"search_success", outcome.Success,
		"success", completion.Success,
		"duration_ms", envelope.ResponseTime,
	)

	return envelope, nil
}

// Models exposes the router's static catalog.
func (o *Orchestrator) Models() []domain.ModelDescriptor {
	return o.router.AvailableModels()
}

// failureEnvelope is the generic envelope returned after a recovered panic.
func (o *Orchestrator) failureEnvelope(query string, start time.Time) *domain.ResponseEnvelope {
	return &domain.ResponseEnvelope{
		Success:      false,
		Query:        query,
		WebResults:   []domain.SearchResult{},
		ResponseTime: time.Since(start).Milliseconds(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Error:        "internal error",
	}
}
