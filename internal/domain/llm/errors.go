package llm

import (
	"errors"
	"fmt"
)

// ErrModelNotFound is the distinguished provider error for an unknown model
// id. The orchestrator refreshes the model catalog and retries once before
// failing permanently.
var ErrModelNotFound = errors.New("model not found")

// TransientError wraps provider failures that are safe to retry with
// backoff (rate limits, timeouts, upstream 5xx).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient provider error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is a retryable provider failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
