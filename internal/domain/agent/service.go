package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Service exposes agent management to the transport layer.
type Service interface {
	Create(ctx context.Context, tenantID, name, persona, model string, reasoning bool) (*Agent, error)
	GetByPublicID(ctx context.Context, tenantID, publicID string) (*Agent, error)
	RecentMemories(ctx context.Context, tenantID, publicID string, kind MemoryKind, limit int) ([]MemoryEntry, error)
}

type ServiceImpl struct {
	agents   Repository
	memories MemoryRepository
	log      zerolog.Logger
}

func NewService(agents Repository, memories MemoryRepository) *ServiceImpl {
	return &ServiceImpl{
		agents:   agents,
		memories: memories,
		log:      log.With().Str("component", "agent_service").Logger(),
	}
}

func (s *ServiceImpl) Create(ctx context.Context, tenantID, name, persona, model string, reasoning bool) (*Agent, error) {
	if name == "" {
		return nil, fmt.Errorf("agent name is required")
	}
	if model == "" {
		return nil, fmt.Errorf("agent model is required")
	}

	a := &Agent{
		PublicID:  newPublicID("agent"),
		TenantID:  tenantID,
		Name:      name,
		Persona:   persona,
		Model:     model,
		Reasoning: reasoning,
	}
	if err := s.agents.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}

	s.log.Info().Str("agent_id", a.PublicID).Str("model", model).Msg("Agent created")
	return a, nil
}

// GetByPublicID returns the tenant's agent; another tenant's agent is
// reported as missing.
func (s *ServiceImpl) GetByPublicID(ctx context.Context, tenantID, publicID string) (*Agent, error) {
	return s.findOwned(ctx, tenantID, publicID)
}

func (s *ServiceImpl) findOwned(ctx context.Context, tenantID, publicID string) (*Agent, error) {
	a, err := s.agents.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if a.TenantID != tenantID {
		return nil, ErrAgentNotFound
	}
	return a, nil
}

func (s *ServiceImpl) RecentMemories(ctx context.Context, tenantID, publicID string, kind MemoryKind, limit int) ([]MemoryEntry, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown memory kind %q", kind)
	}
	a, err := s.findOwned(ctx, tenantID, publicID)
	if err != nil {
		return nil, err
	}
	return s.memories.Recent(ctx, a.ID, kind, limit)
}

func newPublicID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(uuid.New().String(), "-", ""))
}

var _ Service = (*ServiceImpl)(nil)
