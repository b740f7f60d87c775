package realtime

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"parley/conversation-api/internal/domain/agent"
	"parley/conversation-api/internal/domain/conversation"
	"parley/conversation-api/internal/domain/document"
	"parley/conversation-api/internal/domain/event"
)

// Authorizer decides whether a tenant may watch a given entity key. Each
// entity type has its own check; a key that fails (or errors) is simply not
// subscribed, the client is never told why.
type Authorizer struct {
	conversations conversation.Repository
	messages      conversation.MessageRepository
	documents     document.Repository
	agents        agent.Repository
	log           zerolog.Logger
}

func NewAuthorizer(
	conversations conversation.Repository,
	messages conversation.MessageRepository,
	documents document.Repository,
	agents agent.Repository,
) *Authorizer {
	return &Authorizer{
		conversations: conversations,
		messages:      messages,
		documents:     documents,
		agents:        agents,
		log:           log.With().Str("component", "realtime_authorizer").Logger(),
	}
}

// Authorize reports whether the tenant owns the entity behind the key.
func (a *Authorizer) Authorize(ctx context.Context, tenantID string, key event.Key) bool {
	if tenantID == "" {
		return false
	}

	switch key.Type {
	case event.EntityConversation:
		conv, err := a.conversations.FindByPublicID(ctx, key.ID)
		return err == nil && conv.TenantID == tenantID

	case event.EntityMessage:
		msg, err := a.messages.FindByPublicID(ctx, key.ID)
		if err != nil {
			return false
		}
		conv, err := a.conversations.FindByID(ctx, msg.ConversationID)
		return err == nil && conv.TenantID == tenantID

	case event.EntityDocument:
		doc, err := a.documents.FindByPublicID(ctx, key.ID)
		return err == nil && doc.TenantID == tenantID

	case event.EntityAgent:
		ag, err := a.agents.FindByPublicID(ctx, key.ID)
		return err == nil && ag.TenantID == tenantID

	default:
		return false
	}
}
