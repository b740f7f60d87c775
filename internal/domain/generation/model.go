package generation

import (
	"context"
	"errors"
	"time"

	"parley/conversation-api/internal/domain/status"
)

var (
	// ErrGenerationNotFound indicates the generation does not exist.
	ErrGenerationNotFound = errors.New("generation not found")
	// ErrGenerationInProgress rejects a second concurrent run for the same
	// conversation.
	ErrGenerationInProgress = errors.New("a generation is already in progress for this conversation")
	// ErrInsufficientCredits indicates the tenant has no quota left.
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// ErrorDetails captures why a generation failed.
type ErrorDetails struct {
	Code     string               `json:"code"`
	Message  string               `json:"message"`
	Severity status.ErrorSeverity `json:"severity"`
}

// Generation is one background run that produces a single assistant
// message. It doubles as the queue row: pending rows are claimed by
// workers, and the status field is the run's state machine.
type Generation struct {
	ID             uint                 `json:"-"`
	PublicID       string               `json:"id"`
	TenantID       string               `json:"-"`
	ConversationID uint                 `json:"-"`
	AgentID        *uint                `json:"-"`
	Model          string               `json:"model"`
	Reasoning      bool                 `json:"reasoning"`
	Status         status.Status        `json:"status"`
	MessageID      *uint                `json:"-"`
	Error          *ErrorDetails        `json:"error,omitempty"`
	Attempts       int                  `json:"attempts"`
	QueuedAt       time.Time            `json:"queued_at"`
	StartedAt      *time.Time           `json:"started_at,omitempty"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
	FailedAt       *time.Time           `json:"failed_at,omitempty"`
}

// NewGeneration builds a pending generation for the conversation.
func NewGeneration(publicID, tenantID string, conversationID uint, agentID *uint, model string, reasoning bool) *Generation {
	return &Generation{
		PublicID:       publicID,
		TenantID:       tenantID,
		ConversationID: conversationID,
		AgentID:        agentID,
		Model:          model,
		Reasoning:      reasoning,
		Status:         status.StatusPending,
		QueuedAt:       time.Now(),
	}
}

// Repository persists generations.
type Repository interface {
	Create(ctx context.Context, gen *Generation) error
	Update(ctx context.Context, gen *Generation) error
	FindByPublicID(ctx context.Context, publicID string) (*Generation, error)
	// ActiveForConversation returns the pending or running generation for
	// the conversation, or nil when none exists.
	ActiveForConversation(ctx context.Context, conversationID uint) (*Generation, error)
	// ClaimNextPending atomically claims one pending generation and moves
	// it to streaming, skipping rows other workers hold. Returns nil when
	// the queue is empty.
	ClaimNextPending(ctx context.Context) (*Generation, error)
	// MarkFailed moves a non-terminal generation to failed with the given
	// error, releasing its conversation for new runs.
	MarkFailed(ctx context.Context, publicID, code, message string) error
	// PendingCount returns the queue depth.
	PendingCount(ctx context.Context) (int64, error)
}
