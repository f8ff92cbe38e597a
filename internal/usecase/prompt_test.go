package usecase

import (
	"strings"
	"testing"

	"mark1-ai/internal/domain"
)

func TestComposeWithResults(t *testing.T) {
	outcome := domain.SearchOutcome{
		Success: true,
		Source:  "duckduckgo",
		Results: []domain.SearchResult{
			{Title: "France", URL: "https://en.wikipedia.org/wiki/France", Snippet: "Paris is the capital."},
			{Title: "Paris", URL: "https://en.wikipedia.org/wiki/Paris", Snippet: "Capital of France."},
		},
	}

	messages := Compose("What is the capital of France?", outcome)

	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(messages))
	}
	if messages[0].Role != domain.RoleSystem {
		t.Errorf("first role = %q, want system", messages[0].Role)
	}
	if !strings.Contains(messages[0].Content, "AI Mark1") {
		t.Error("system prompt missing assistant identity")
	}
	if !strings.Contains(messages[0].Content, "cite sources") {
		t.Error("system prompt missing citation instruction")
	}

	user := messages[1]
	if user.Role != domain.RoleUser {
		t.Errorf("second role = %q, want user", user.Role)
	}
	if !strings.HasPrefix(user.Content, "Question: What is the capital of France?") {
		t.Errorf("user content prefix wrong: %q", user.Content)
	}
	if !strings.Contains(user.Content, "Web Search Results:\n") {
		t.Error("missing results header")
	}
	want := "1. France\n   https://en.wikipedia.org/wiki/France\n   Paris is the capital.\n\n" +
		"2. Paris\n   https://en.wikipedia.org/wiki/Paris\n   Capital of France.\n\n"
	if !strings.Contains(user.Content, want) {
		t.Errorf("results block wrong:\n%q", user.Content)
	}
	if !strings.HasSuffix(user.Content, closingInstruction) {
		t.Error("missing closing instruction")
	}
}

func TestComposeFailedSearch(t *testing.T) {
	messages := Compose("hello", domain.FailedSearch("duckduckgo"))

	user := messages[1].Content
	if strings.Contains(user, "Web Search Results") {
		t.Error("failed search must not render a results block")
	}
	if !strings.HasPrefix(user, "Question: hello") {
		t.Errorf("user content = %q", user)
	}
}

func TestComposeEmptyResults(t *testing.T) {
	outcome := domain.SearchOutcome{Success: true, Results: []domain.SearchResult{}, Source: "brave"}
	messages := Compose("hello", outcome)

	if strings.Contains(messages[1].Content, "Web Search Results") {
		t.Error("empty results must not render a results block")
	}
}

func TestComposeIsPure(t *testing.T) {
	outcome := domain.SearchOutcome{
		Success: true,
		Results: []domain.SearchResult{{Title: "t", URL: "u", Snippet: "s"}},
		Source:  "stub",
	}

	a := Compose("q", outcome)
	b := Compose("q", outcome)

	if a[0].Content != b[0].Content || a[1].Content != b[1].Content {
		t.Error("Compose is not deterministic")
	}
}
