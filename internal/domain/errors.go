package domain

import "fmt"

// Sentinel errors for the domain layer.
var (
	ErrInvalidInput     = fmt.Errorf("invalid input")
	ErrEmptyQuery       = fmt.Errorf("%w: query must not be empty", ErrInvalidInput)
	ErrProviderNotFound = fmt.Errorf("llm provider not found")
	ErrModelNotFound    = fmt.Errorf("model not in catalog")
	ErrProviderError    = fmt.Errorf("provider error")
	ErrRateLimit        = fmt.Errorf("rate limit exceeded")
	ErrAuthInvalid      = fmt.Errorf("authentication invalid")
	ErrTimeout          = fmt.Errorf("operation timed out")
	ErrConfigLoad       = fmt.Errorf("failed to load configuration")
	ErrDecryption       = fmt.Errorf("decryption failed")
)

// DomainError carries operation context alongside a sentinel.
type DomainError struct {
	Op     string // operation name (e.g., "Router.Chat")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
