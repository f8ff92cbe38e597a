package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mark1-ai/internal/domain"
)

// BraveBackend searches via the Brave Search API. An API key is required
// and sent in the X-Subscription-Token header.
type BraveBackend struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewBraveBackend creates a Brave search backend.
func NewBraveBackend(apiKey string, logger *slog.Logger) *BraveBackend {
	return &BraveBackend{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: "https://api.search.brave.com/res/v1",
		apiKey:  apiKey,
		logger:  logger,
	}
}

func (b *BraveBackend) Name() string { return "brave" }

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (b *BraveBackend) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(b.apiKey) == "" {
		return nil, errors.New("brave: API key is missing")
	}

	endpoint := fmt.Sprintf("%s/web/search?q=%s&count=%d",
		b.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSearchBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	var braveResp braveResponse
	if err := json.Unmarshal(body, &braveResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(braveResp.Web.Results))
	for _, r := range braveResp.Web.Results {
		if len(results) >= limit {
			break
		}
		results = append(results, domain.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Description,
		})
	}

	b.logger.Debug("brave search completed", "query", query, "results", len(results))
	return results, nil
}
