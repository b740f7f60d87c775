package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"parley/conversation-api/internal/domain/agent"
	"parley/conversation-api/internal/domain/conversation"
	"parley/conversation-api/internal/domain/status"
)

// Service schedules generations and is the entrypoint background workers
// call into.
type Service interface {
	// Request queues a generation for the tenant's conversation. At most
	// one generation is active per conversation at a time.
	Request(ctx context.Context, tenantID, conversationPublicID, agentPublicID string) (*Generation, error)
	// Retry schedules a fresh run after a failed one. The failed run's
	// partial message is superseded by the new run, never regenerated
	// concurrently.
	Retry(ctx context.Context, tenantID, generationPublicID string) (*Generation, error)
	GetByPublicID(ctx context.Context, tenantID, publicID string) (*Generation, error)
	// ExecuteBackground runs one claimed generation to a terminal state.
	ExecuteBackground(ctx context.Context, publicID string) error
}

type ServiceImpl struct {
	generations   Repository
	conversations conversation.Repository
	messages      conversation.MessageRepository
	agents        agent.Repository
	orchestrator  *Orchestrator
	log           zerolog.Logger
}

func NewService(
	generations Repository,
	conversations conversation.Repository,
	messages conversation.MessageRepository,
	agents agent.Repository,
	orchestrator *Orchestrator,
) *ServiceImpl {
	return &ServiceImpl{
		generations:   generations,
		conversations: conversations,
		messages:      messages,
		agents:        agents,
		orchestrator:  orchestrator,
		log:           log.With().Str("component", "generation_service").Logger(),
	}
}

func (s *ServiceImpl) Request(ctx context.Context, tenantID, conversationPublicID, agentPublicID string) (*Generation, error) {
	conv, err := s.conversations.FindByPublicID(ctx, conversationPublicID)
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	if conv.TenantID != tenantID {
		return nil, conversation.ErrConversationNotFound
	}
	if !conv.AcceptsMessages() {
		return nil, conversation.ErrConversationNotActive
	}

	active, err := s.generations.ActiveForConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active generations: %w", err)
	}
	if active != nil {
		return nil, ErrGenerationInProgress
	}

	a, err := s.agents.FindByPublicID(ctx, agentPublicID)
	if err != nil {
		return nil, fmt.Errorf("failed to find agent: %w", err)
	}
	if a.TenantID != tenantID {
		return nil, agent.ErrAgentNotFound
	}

	gen := NewGeneration(newPublicID("gen"), conv.TenantID, conv.ID, &a.ID, a.Model, a.Reasoning)
	if err := s.generations.Create(ctx, gen); err != nil {
		return nil, fmt.Errorf("failed to queue generation: %w", err)
	}

	s.log.Info().
		Str("generation_id", gen.PublicID).
		Str("conversation_id", conv.PublicID).
		Str("agent_id", a.PublicID).
		Msg("Generation queued")
	return gen, nil
}

func (s *ServiceImpl) Retry(ctx context.Context, tenantID, generationPublicID string) (*Generation, error) {
	prior, err := s.generations.FindByPublicID(ctx, generationPublicID)
	if err != nil {
		return nil, fmt.Errorf("failed to find generation: %w", err)
	}
	if prior.TenantID != tenantID {
		return nil, ErrGenerationNotFound
	}
	if !prior.Status.IsTerminal() {
		return nil, ErrGenerationInProgress
	}
	if prior.Status != status.StatusFailed {
		return nil, fmt.Errorf("generation %s is %s, only failed runs can be retried", prior.PublicID, prior.Status)
	}

	active, err := s.generations.ActiveForConversation(ctx, prior.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active generations: %w", err)
	}
	if active != nil {
		return nil, ErrGenerationInProgress
	}

	gen := NewGeneration(newPublicID("gen"), prior.TenantID, prior.ConversationID, prior.AgentID, prior.Model, prior.Reasoning)
	gen.Attempts = prior.Attempts
	if err := s.generations.Create(ctx, gen); err != nil {
		return nil, fmt.Errorf("failed to queue retry: %w", err)
	}

	s.log.Info().
		Str("generation_id", gen.PublicID).
		Str("superseded", prior.PublicID).
		Msg("Retry queued")
	return gen, nil
}

func (s *ServiceImpl) GetByPublicID(ctx context.Context, tenantID, publicID string) (*Generation, error) {
	gen, err := s.generations.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, fmt.Errorf("failed to find generation: %w", err)
	}
	if gen.TenantID != tenantID {
		return nil, ErrGenerationNotFound
	}
	return gen, nil
}

// ExecuteBackground is idempotent: a generation that already reached a
// terminal state, or whose conversation already ends in a finalized
// assistant message from this run, is a no-op.
func (s *ServiceImpl) ExecuteBackground(ctx context.Context, publicID string) error {
	gen, err := s.generations.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, ErrGenerationNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load generation: %w", err)
	}
	if gen.Status.IsTerminal() {
		return nil
	}
	if gen.MessageID != nil {
		latest, err := s.messages.Latest(ctx, gen.ConversationID)
		if err == nil && latest != nil && latest.ID == *gen.MessageID && !latest.Streaming {
			return nil
		}
	}
	return s.orchestrator.Run(ctx, gen)
}

var _ Service = (*ServiceImpl)(nil)
