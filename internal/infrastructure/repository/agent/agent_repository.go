// Package agent provides the GORM-backed persistence for agents and their
// memory entries.
package agent

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "parley/conversation-api/internal/domain/agent"
	"parley/conversation-api/internal/infrastructure/database/entities"
)

type GormAgentRepository struct {
	db *gorm.DB
}

func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

func (r *GormAgentRepository) Create(ctx context.Context, a *domain.Agent) error {
	entity := entities.NewSchemaAgent(a)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	a.ID = entity.ID
	return nil
}

func (r *GormAgentRepository) FindByPublicID(ctx context.Context, publicID string) (*domain.Agent, error) {
	var entity entities.Agent
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, fmt.Errorf("query agent: %w", err)
	}
	return entity.EtoD(), nil
}

func (r *GormAgentRepository) FindByID(ctx context.Context, id uint) (*domain.Agent, error) {
	var entity entities.Agent
	err := r.db.WithContext(ctx).First(&entity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, fmt.Errorf("query agent: %w", err)
	}
	return entity.EtoD(), nil
}

func (r *GormAgentRepository) Update(ctx context.Context, a *domain.Agent) error {
	entity := entities.NewSchemaAgent(a)
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return fmt.Errorf("update agent: %w", err)
	}
	return nil
}

var _ domain.Repository = (*GormAgentRepository)(nil)

type GormMemoryRepository struct {
	db *gorm.DB
}

func NewGormMemoryRepository(db *gorm.DB) *GormMemoryRepository {
	return &GormMemoryRepository{db: db}
}

func (r *GormMemoryRepository) Append(ctx context.Context, entry *domain.MemoryEntry) error {
	entity := entities.NewSchemaMemoryEntry(entry)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("insert memory entry: %w", err)
	}
	entry.ID = entity.ID
	return nil
}

func (r *GormMemoryRepository) Recent(ctx context.Context, agentID uint, kind domain.MemoryKind, limit int) ([]domain.MemoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []entities.MemoryEntry
	err := r.db.WithContext(ctx).
		Where("agent_id = ? AND kind = ?", agentID, kind).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query memory entries: %w", err)
	}

	entries := make([]domain.MemoryEntry, len(rows))
	for i, row := range rows {
		entries[i] = *row.EtoD()
	}
	return entries, nil
}

var _ domain.MemoryRepository = (*GormMemoryRepository)(nil)
