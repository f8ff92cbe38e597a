package domain

// RoutingAttempt records a single model attempt made by the router.
type RoutingAttempt struct {
	Model      string `json:"model"`
	Provider   string `json:"provider"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// RoutingInfo is the diagnostic metadata describing how the router picked
// and exercised models for one request. It is derived from the original
// user query only, never from the search-augmented prompt.
type RoutingInfo struct {
	Requested   string           `json:"requested,omitempty"`
	Selected    string           `json:"selected"`
	Reason      string           `json:"reason"`
	QueryTokens int              `json:"queryTokens,omitempty"`
	Attempts    []RoutingAttempt `json:"attempts"`
}

// CompletionOutcome is the uniform result of routing a prompt through the
// model attempt chain. Always well-formed: both-models-failed is reported
// here, not raised as an error.
type CompletionOutcome struct {
	Success  bool        `json:"success"`
	Response string      `json:"response"`
	Model    string      `json:"model"`
	Usage    Usage       `json:"usage"`
	Fallback bool        `json:"fallback"`
	Routing  RoutingInfo `json:"routing"`
	Error    string      `json:"error,omitempty"`
}

// ModelDescriptor describes one catalog entry served by GET /api/models.
// The catalog is static configuration; listing it performs no network call.
type ModelDescriptor struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Provider     string   `json:"provider"`
	Capabilities []string `json:"capabilities,omitempty"`
	Default      bool     `json:"default,omitempty"`
}

// ResponseEnvelope is the externally visible result of one request. The
// JSON field names are a stable wire contract.
type ResponseEnvelope struct {
	Success      bool           `json:"success"`
	Query        string         `json:"query"`
	Response     string         `json:"response"`
	WebResults   []SearchResult `json:"webResults"`
	SearchSource string         `json:"searchSource"`
	Model        string         `json:"model"`
	Usage        Usage          `json:"usage"`
	Fallback     bool           `json:"fallback"`
	ResponseTime int64          `json:"responseTime"`
	Timestamp    string         `json:"timestamp"`
	Routing      RoutingInfo    `json:"routing"`
	Error        string         `json:"error,omitempty"`
}
