package handlers

import (
	"github.com/rs/zerolog"

	"parley/conversation-api/internal/domain/agent"
	"parley/conversation-api/internal/domain/conversation"
	"parley/conversation-api/internal/domain/document"
	"parley/conversation-api/internal/domain/generation"
	"parley/conversation-api/internal/interfaces/realtime"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Conversation *ConversationHandler
	Generation   *GenerationHandler
	Document     *DocumentHandler
	Agent        *AgentHandler
	Realtime     *RealtimeHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	conversationService conversation.Service,
	generationService generation.Service,
	documentService document.Service,
	agentService agent.Service,
	hub *realtime.Hub,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Conversation: NewConversationHandler(conversationService, log),
		Generation:   NewGenerationHandler(generationService, log),
		Document:     NewDocumentHandler(documentService, log),
		Agent:        NewAgentHandler(agentService, log),
		Realtime:     NewRealtimeHandler(hub, log),
	}
}
