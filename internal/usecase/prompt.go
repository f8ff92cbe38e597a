package usecase

import (
	"fmt"
	"strings"

	"mark1-ai/internal/domain"
)

const systemPrompt = "You are AI Mark1, a helpful AI search assistant. " +
	"You have access to current web search results. " +
	"Provide a comprehensive answer based on the web search results and your knowledge. " +
	"Be concise but informative. Always cite sources when using information from web results."

const closingInstruction = "Please provide a comprehensive answer based on the search results and your knowledge."

// Compose builds the model prompt from the user query and the search
// outcome. It is a pure function: same inputs, same messages, no I/O.
// A failed or empty search yields a prompt without a results block, so
// the model still answers from its own knowledge.
func Compose(query string, outcome domain.SearchOutcome) []domain.Message {
	var sb strings.Builder
	sb.WriteString("Question: ")
	sb.WriteString(query)

	if outcome.Success && len(outcome.Results) > 0 {
		sb.WriteString("\n\nWeb Search Results:\n")
		for i, r := range outcome.Results {
			fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n\n", i+1, r.Title, r.URL, r.Snippet)
		}
	}

	sb.WriteString("\n\n")
	sb.WriteString(closingInstruction)

	return []domain.Message{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: sb.String()},
	}
}
