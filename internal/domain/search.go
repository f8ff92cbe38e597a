package domain

// SearchResult is a single ranked web search result. Field values are
// plain text (markup already stripped by the adapter).
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchOutcome is the uniform result of a web search attempt.
// Invariant: when Success is false, Results is empty (but non-nil, so the
// envelope always serializes it as a JSON array).
type SearchOutcome struct {
	Success bool           `json:"success"`
	Results []SearchResult `json:"results"`
	Source  string         `json:"source"`
}

// FailedSearch builds the degraded outcome for a backend that could not
// answer. The source is kept so the envelope still reports provenance.
func FailedSearch(source string) SearchOutcome {
	return SearchOutcome{Success: false, Results: []SearchResult{}, Source: source}
}
