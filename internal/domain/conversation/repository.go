package conversation

import "context"

// Repository persists conversations.
type Repository interface {
	Create(ctx context.Context, conv *Conversation) error
	FindByPublicID(ctx context.Context, publicID string) (*Conversation, error)
	FindByID(ctx context.Context, id uint) (*Conversation, error)
	UpdateStatus(ctx context.Context, id uint, status Status) error
	SetActiveDocument(ctx context.Context, id uint, documentID *uint) error
	Touch(ctx context.Context, id uint) error
}

// MessageRepository persists messages and serves the paginated window.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	Update(ctx context.Context, msg *Message) error
	Delete(ctx context.Context, id uint) error
	FindByPublicID(ctx context.Context, publicID string) (*Message, error)
	// Latest returns the newest message of the conversation, or nil when empty.
	Latest(ctx context.Context, conversationID uint) (*Message, error)
	// WindowBefore returns up to limit messages strictly older than the
	// cursor (or the newest messages when cursor is empty), in ascending
	// creation order, plus whether at least one older message exists.
	WindowBefore(ctx context.Context, conversationID uint, beforeCursor string, limit int) ([]Message, bool, error)
	// TotalTokens aggregates input+output token counts across the whole
	// conversation, independent of pagination.
	TotalTokens(ctx context.Context, conversationID uint) (int64, error)
	// AppendContent persists a buffered content flush onto a streaming message.
	AppendContent(ctx context.Context, id uint, delta string) error
	// AppendReasoning persists a buffered reasoning flush onto a streaming message.
	AppendReasoning(ctx context.Context, id uint, delta string) error
	// ReplaceWithRepair atomically inserts the synthetic messages and
	// rewrites the original message's content. Either everything is
	// persisted or nothing is.
	ReplaceWithRepair(ctx context.Context, original *Message, inserted []Message, newContent string) error
}
