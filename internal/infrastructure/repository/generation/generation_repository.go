// Package generation provides the GORM-backed persistence for generation
// runs, which also serve as the background work queue.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "parley/conversation-api/internal/domain/generation"
	"parley/conversation-api/internal/domain/status"
	"parley/conversation-api/internal/infrastructure/database/entities"
)

type GormGenerationRepository struct {
	db *gorm.DB
}

func NewGormGenerationRepository(db *gorm.DB) *GormGenerationRepository {
	return &GormGenerationRepository{db: db}
}

func (r *GormGenerationRepository) Create(ctx context.Context, gen *domain.Generation) error {
	entity := entities.NewSchemaGeneration(gen)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}
	gen.ID = entity.ID
	return nil
}

func (r *GormGenerationRepository) Update(ctx context.Context, gen *domain.Generation) error {
	entity := entities.NewSchemaGeneration(gen)
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return fmt.Errorf("update generation: %w", err)
	}
	return nil
}

func (r *GormGenerationRepository) FindByPublicID(ctx context.Context, publicID string) (*domain.Generation, error) {
	var entity entities.Generation
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGenerationNotFound
		}
		return nil, fmt.Errorf("query generation: %w", err)
	}
	return entity.EtoD(), nil
}

func (r *GormGenerationRepository) ActiveForConversation(ctx context.Context, conversationID uint) (*domain.Generation, error) {
	var entity entities.Generation
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND status IN ?", conversationID, []status.Status{
			status.StatusPending, status.StatusStreaming, status.StatusFinalizing,
		}).
		Order("queued_at ASC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query active generation: %w", err)
	}
	return entity.EtoD(), nil
}

// ClaimNextPending pops the oldest pending row using a SKIP LOCKED row
// lock, so concurrent workers never claim the same generation and never
// queue up behind each other.
func (r *GormGenerationRepository) ClaimNextPending(ctx context.Context) (*domain.Generation, error) {
	var claimed *entities.Generation

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entity entities.Generation
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", status.StatusPending).
			Order("queued_at ASC").
			First(&entity).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("lock pending generation: %w", err)
		}

		if err := tx.Model(&entity).Update("status", status.StatusStreaming).Error; err != nil {
			return fmt.Errorf("mark generation streaming: %w", err)
		}
		entity.Status = status.StatusStreaming
		claimed = &entity
		return nil
	})
	if err != nil {
		return nil, err
	}
	if claimed == nil {
		return nil, nil
	}
	return claimed.EtoD(), nil
}

// MarkFailed is the worker's backstop for runs that died outside the
// orchestrator: the row leaves the active set so the conversation can
// accept new generation requests.
func (r *GormGenerationRepository) MarkFailed(ctx context.Context, publicID, code, message string) error {
	details, err := json.Marshal(domain.ErrorDetails{
		Code:     code,
		Message:  message,
		Severity: status.ErrorSeverityFatal,
	})
	if err != nil {
		return fmt.Errorf("marshal error details: %w", err)
	}
	result := r.db.WithContext(ctx).
		Model(&entities.Generation{}).
		Where("public_id = ? AND status NOT IN ?", publicID, []status.Status{
			status.StatusCompleted, status.StatusFailed,
		}).
		Updates(map[string]interface{}{
			"status":    status.StatusFailed,
			"error":     datatypes.JSON(details),
			"failed_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("mark generation failed: %w", result.Error)
	}
	return nil
}

func (r *GormGenerationRepository) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.Generation{}).
		Where("status = ?", status.StatusPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count pending generations: %w", err)
	}
	return count, nil
}

var _ domain.Repository = (*GormGenerationRepository)(nil)
