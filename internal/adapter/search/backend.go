package search

import (
	"context"

	"mark1-ai/internal/domain"
)

const maxSearchBodySize = 512 * 1024 // 512KB

// Backend abstracts a web search engine.
type Backend interface {
	// Search performs a web search and returns at most limit results.
	Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)
	// Name returns the backend identifier (e.g. "duckduckgo").
	Name() string
}
