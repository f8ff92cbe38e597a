package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mark1-ai/internal/domain"
)

// DuckDuckGoBackend searches via the DuckDuckGo instant answer API.
// The API needs no key, which makes it the zero-config default backend.
type DuckDuckGoBackend struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewDuckDuckGoBackend creates a keyless search backend.
func NewDuckDuckGoBackend(logger *slog.Logger) *DuckDuckGoBackend {
	return &DuckDuckGoBackend{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: "https://api.duckduckgo.com",
		logger:  logger,
	}
}

func (b *DuckDuckGoBackend) Name() string { return "duckduckgo" }

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	Answer        string     `json:"Answer"`
	Definition    string     `json:"Definition"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

func (b *DuckDuckGoBackend) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	apiURL := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1",
		b.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

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

	var ddgResp ddgResponse
	if err := json.Unmarshal(body, &ddgResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]domain.SearchResult, 0, limit)

	// The instant answer abstract, when present, is the best single result.
	if ddgResp.AbstractText != "" {
		title := ddgResp.Heading
		if title == "" {
			title = query
		}
		results = append(results, domain.SearchResult{
			Title:   title,
			URL:     ddgResp.AbstractURL,
			Snippet: ddgResp.AbstractText,
		})
	}

	var appendTopic func(topic ddgTopic)
	appendTopic = func(topic ddgTopic) {
		if len(results) >= limit {
			return
		}
		if topic.Text != "" {
			title, snippet := splitTopicText(topic.Text)
			results = append(results, domain.SearchResult{
				Title:   title,
				URL:     topic.FirstURL,
				Snippet: snippet,
			})
		}
		for _, child := range topic.Topics {
			appendTopic(child)
		}
	}
	for _, topic := range ddgResp.RelatedTopics {
		appendTopic(topic)
	}

	if len(results) > limit {
		results = results[:limit]
	}

	b.logger.Debug("duckduckgo search completed", "query", query, "results", len(results))
	return results, nil
}

// splitTopicText splits a DuckDuckGo topic text ("Title - snippet") into
// title and snippet parts.
func splitTopicText(text string) (title string, snippet string) {
	parts := strings.SplitN(text, " - ", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(text), ""
}
