package search

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"

	"mark1-ai/internal/domain"
	"mark1-ai/internal/infra/tracer"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 20
	defaultTimeout     = 5 * time.Second
	maxSnippetLen      = 500
)

var _ domain.SearchClient = (*Client)(nil)

// Client wraps a Backend behind the domain.SearchClient contract: a search
// never fails the caller. Backend errors, timeouts, and malformed results
// all degrade to an outcome with Success false and empty Results. Each call
// hits the backend; outcomes are not reused across requests.
type Client struct {
	backend Backend
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient creates a search client over the given backend.
func NewClient(backend Backend, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		backend: backend,
		timeout: timeout,
		logger:  logger,
	}
}

// Search implements domain.SearchClient.
func (c *Client) Search(ctx context.Context, query string, limit int) domain.SearchOutcome {
	ctx, span := tracer.StartSpan(ctx, "search.web",
		trace.WithAttributes(
			tracer.StringAttr("search.backend", c.backend.Name()),
			tracer.StringAttr("search.query", query),
		),
	)
	defer span.End()

	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	searchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results, err := c.backend.Search(searchCtx, query, limit)
	if err != nil {
		c.logger.Warn("web search failed",
			"backend", c.backend.Name(),
			"query", query,
			"error", err,
		)
		tracer.RecordError(span, err)
		return domain.FailedSearch(c.backend.Name())
	}

	if len(results) > limit {
		results = results[:limit]
	}

	sanitized := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		sr := sanitizeResult(r)
		if sr.Title == "" && sr.Snippet == "" {
			continue
		}
		sanitized = append(sanitized, sr)
	}

	outcome := domain.SearchOutcome{
		Success: true,
		Results: sanitized,
		Source:  c.backend.Name(),
	}

	span.SetAttributes(tracer.IntAttr("search.results", len(sanitized)))
	tracer.SetOK(span)
	c.logger.Debug("web search completed", "query", query, "results", len(sanitized))
	return outcome
}

var (
	htmlTagRe     = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	controlCharRe = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
)

// sanitizeResult strips HTML tags and control characters from a result and
// collapses whitespace. Snippets are capped so one result cannot flood the
// prompt.
func sanitizeResult(r domain.SearchResult) domain.SearchResult {
	return domain.SearchResult{
		Title:   sanitizeText(r.Title, 0),
		URL:     strings.TrimSpace(r.URL),
		Snippet: sanitizeText(r.Snippet, maxSnippetLen),
	}
}

func sanitizeText(s string, maxLen int) string {
	s = htmlTagRe.ReplaceAllString(s, "")
	s = controlCharRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if maxLen > 0 && len(s) > maxLen {
		// Back up to a rune boundary so the cut never splits a multi-byte
		// character.
		for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
			maxLen--
		}
		s = strings.TrimSpace(s[:maxLen])
	}
	return s
}
