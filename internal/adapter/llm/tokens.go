package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates token counts for routing decisions. It lazily
// loads the cl100k_base encoding; if loading fails (e.g. the embedded
// dictionary is unavailable), it falls back to a bytes/4 heuristic.
type TokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTokenCounter creates a token counter. Encoding load is deferred to
// the first Count call.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

// Count returns the estimated token count of text.
func (c *TokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err == nil {
			c.enc = enc
		}
	})

	if c.enc != nil {
		return len(c.enc.Encode(text, nil, nil))
	}
	// Rough heuristic: ~4 bytes per token for English text.
	return (len(text) + 3) / 4
}
