package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parley/conversation-api/internal/domain/event"
)

// Service exposes conversation lifecycle and the read-side message window.
// Every lookup is scoped to the caller's tenant; another tenant's
// conversation is indistinguishable from a missing one.
type Service interface {
	Create(ctx context.Context, tenantID string, mode Mode, title *string, metadata map[string]string) (*Conversation, error)
	GetByPublicID(ctx context.Context, tenantID, publicID string) (*Conversation, error)
	Archive(ctx context.Context, tenantID, publicID string) error
	SoftDelete(ctx context.Context, tenantID, publicID string) error
	AppendUserMessage(ctx context.Context, tenantID, publicID, authorName, content string) (*Conversation, *Message, error)
	// Window serves the most recent messages plus a backward cursor; it is
	// decoupled from the write path on purpose.
	Window(ctx context.Context, tenantID, publicID string, beforeCursor string, limit int) (*Window, error)
}

// ServiceImpl provides the domain implementation.
type ServiceImpl struct {
	conversations Repository
	messages      MessageRepository
	events        event.Publisher
	log           zerolog.Logger
}

// NewService wires dependencies.
func NewService(conversations Repository, messages MessageRepository, events event.Publisher, log zerolog.Logger) *ServiceImpl {
	return &ServiceImpl{
		conversations: conversations,
		messages:      messages,
		events:        events,
		log:           log.With().Str("component", "conversation-service").Logger(),
	}
}

// Create starts a new conversation for the tenant.
func (s *ServiceImpl) Create(ctx context.Context, tenantID string, mode Mode, title *string, metadata map[string]string) (*Conversation, error) {
	conv := NewConversation(newPublicID("conv"), tenantID, mode, title, metadata)
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// GetByPublicID returns the tenant's conversation by id.
func (s *ServiceImpl) GetByPublicID(ctx context.Context, tenantID, publicID string) (*Conversation, error) {
	return s.findOwned(ctx, tenantID, publicID)
}

// findOwned resolves the conversation and hides other tenants' rows behind
// the not-found sentinel.
func (s *ServiceImpl) findOwned(ctx context.Context, tenantID, publicID string) (*Conversation, error) {
	conv, err := s.conversations.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if conv.TenantID != tenantID {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

// Archive marks the conversation archived; it stays readable.
func (s *ServiceImpl) Archive(ctx context.Context, tenantID, publicID string) error {
	return s.setStatus(ctx, tenantID, publicID, StatusArchived)
}

// SoftDelete marks the conversation deleted; it stays readable.
func (s *ServiceImpl) SoftDelete(ctx context.Context, tenantID, publicID string) error {
	return s.setStatus(ctx, tenantID, publicID, StatusDeleted)
}

func (s *ServiceImpl) setStatus(ctx context.Context, tenantID, publicID string, target Status) error {
	conv, err := s.findOwned(ctx, tenantID, publicID)
	if err != nil {
		return err
	}
	if err := s.conversations.UpdateStatus(ctx, conv.ID, target); err != nil {
		return fmt.Errorf("update conversation status: %w", err)
	}
	s.events.Publish(event.Event{
		Key:    event.Key{Type: event.EntityConversation, ID: conv.PublicID},
		Action: event.ActionReload,
	})
	return nil
}

// AppendUserMessage stores a user message on an active conversation.
func (s *ServiceImpl) AppendUserMessage(ctx context.Context, tenantID, publicID, authorName, content string) (*Conversation, *Message, error) {
	conv, err := s.findOwned(ctx, tenantID, publicID)
	if err != nil {
		return nil, nil, err
	}
	if !conv.AcceptsMessages() {
		return nil, nil, fmt.Errorf("conversation %s is %s: %w", publicID, conv.Status, ErrConversationNotActive)
	}

	msg := NewUserMessage(newPublicID("msg"), conv.ID, authorName, content)
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, nil, fmt.Errorf("create user message: %w", err)
	}
	if err := s.conversations.Touch(ctx, conv.ID); err != nil {
		s.log.Warn().Err(err).Str("conversation_id", publicID).Msg("touch conversation failed")
	}
	s.events.Publish(event.Event{
		Key:    event.Key{Type: event.EntityConversation, ID: conv.PublicID},
		Action: event.ActionReload,
	})
	return conv, msg, nil
}

// Window pages backward through the transcript. HasMore is an existence
// check, never a full count; TotalTokens is a single aggregate over the
// whole conversation.
func (s *ServiceImpl) Window(ctx context.Context, tenantID, publicID string, beforeCursor string, limit int) (*Window, error) {
	conv, err := s.findOwned(ctx, tenantID, publicID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultWindowLimit
	}

	messages, hasMore, err := s.messages.WindowBefore(ctx, conv.ID, beforeCursor, limit)
	if err != nil {
		return nil, fmt.Errorf("page messages: %w", err)
	}

	totalTokens, err := s.messages.TotalTokens(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("aggregate tokens: %w", err)
	}

	window := &Window{
		Messages:    messages,
		HasMore:     hasMore,
		TotalTokens: totalTokens,
		LongWarning: totalTokens >= TokenWarningThreshold,
	}
	if len(messages) > 0 {
		window.OldestCursor = messages[0].PublicID
	}
	return window, nil
}

func newPublicID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

var _ Service = (*ServiceImpl)(nil)
