// Package status defines shared lifecycle types for generations.
package status

import "errors"

// Status represents the lifecycle status of a generation run.
type Status string

const (
	// Non-terminal states
	StatusPending    Status = "pending"    // Queued, not yet started
	StatusStreaming  Status = "streaming"  // Provider stream open, chunks flowing
	StatusFinalizing Status = "finalizing" // Stream ended, persisting final state

	// Terminal states (no further transitions allowed)
	StatusCompleted Status = "completed" // Successfully finished
	StatusFailed    Status = "failed"    // Unrecoverable error
)

// ErrInvalidTransition is returned when a status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsActive returns true if the status indicates active processing.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusStreaming || s == StatusFinalizing
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ValidTransitions defines allowed status transitions.
var ValidTransitions = map[Status][]Status{
	StatusPending:    {StatusStreaming, StatusFailed},
	StatusStreaming:  {StatusFinalizing, StatusFailed},
	StatusFinalizing: {StatusCompleted, StatusFailed},
	// Terminal states have no valid transitions
	StatusCompleted: {},
	StatusFailed:    {},
}

// CanTransitionTo checks if a transition from current status to target status is valid.
func (s Status) CanTransitionTo(target Status) bool {
	validTargets, ok := ValidTransitions[s]
	if !ok {
		return false
	}
	for _, t := range validTargets {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo attempts to transition to the target status and returns error if invalid.
func (s Status) TransitionTo(target Status) (Status, error) {
	if !s.CanTransitionTo(target) {
		return s, ErrInvalidTransition
	}
	return target, nil
}

// ErrorSeverity indicates how a generation error should be handled.
type ErrorSeverity string

const (
	ErrorSeverityRetryable ErrorSeverity = "retryable" // Retry with backoff
	ErrorSeverityRefresh   ErrorSeverity = "refresh"   // Refresh model catalog, retry once
	ErrorSeverityFatal     ErrorSeverity = "fatal"     // Fail the generation
)

// String returns the string representation of the error severity.
func (e ErrorSeverity) String() string {
	return string(e)
}

// IsRetryable returns true if the error can be retried.
func (e ErrorSeverity) IsRetryable() bool {
	return e == ErrorSeverityRetryable
}

// IsFatal returns true if the error should fail the generation.
func (e ErrorSeverity) IsFatal() bool {
	return e == ErrorSeverityFatal
}
