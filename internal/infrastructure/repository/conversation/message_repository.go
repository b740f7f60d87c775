package conversation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "parley/conversation-api/internal/domain/conversation"
	"parley/conversation-api/internal/infrastructure/database/entities"
)

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	entity := entities.NewSchemaMessage(msg)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	msg.ID = entity.ID
	return nil
}

func (r *GormMessageRepository) Update(ctx context.Context, msg *domain.Message) error {
	entity := entities.NewSchemaMessage(msg)
	if err := r.db.WithContext(ctx).Save(entity).Error; err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

func (r *GormMessageRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&entities.Message{}, id).Error; err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (r *GormMessageRepository) FindByPublicID(ctx context.Context, publicID string) (*domain.Message, error) {
	var entity entities.Message
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return entity.EtoD(), nil
}

func (r *GormMessageRepository) Latest(ctx context.Context, conversationID uint) (*domain.Message, error) {
	var entity entities.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest message: %w", err)
	}
	return entity.EtoD(), nil
}

// WindowBefore pages backwards through the transcript with a keyset on
// (created_at, id). The page itself is returned in ascending order; one
// extra row is fetched to decide has-more without a count query.
func (r *GormMessageRepository) WindowBefore(ctx context.Context, conversationID uint, beforeCursor string, limit int) ([]domain.Message, bool, error) {
	if limit <= 0 {
		limit = domain.DefaultWindowLimit
	}

	query := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID)

	if beforeCursor != "" {
		var anchor entities.Message
		err := r.db.WithContext(ctx).
			Where("conversation_id = ? AND public_id = ?", conversationID, beforeCursor).
			First(&anchor).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, domain.ErrMessageNotFound
			}
			return nil, false, fmt.Errorf("resolve cursor: %w", err)
		}
		query = query.Where("(created_at, id) < (?, ?)", anchor.CreatedAt, anchor.ID)
	}

	var rows []entities.Message
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, false, fmt.Errorf("query window: %w", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	// rows are newest-first; the window contract is ascending.
	messages := make([]domain.Message, len(rows))
	for i, row := range rows {
		messages[len(rows)-1-i] = *row.EtoD()
	}
	return messages, hasMore, nil
}

func (r *GormMessageRepository) TotalTokens(ctx context.Context, conversationID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("conversation_id = ?", conversationID).
		Select("COALESCE(SUM(input_tokens + output_tokens), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("aggregate tokens: %w", err)
	}
	return total, nil
}

func (r *GormMessageRepository) AppendContent(ctx context.Context, id uint, delta string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("id = ?", id).
		Update("content", gorm.Expr("content || ?", delta))
	if result.Error != nil {
		return fmt.Errorf("append content: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *GormMessageRepository) AppendReasoning(ctx context.Context, id uint, delta string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("id = ?", id).
		Update("reasoning", gorm.Expr("COALESCE(reasoning, '') || ?", delta))
	if result.Error != nil {
		return fmt.Errorf("append reasoning: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

// ReplaceWithRepair inserts the synthetic notices and rewrites the original
// message's content in one transaction, so readers see either the
// unrepaired transcript or the fully repaired one.
func (r *GormMessageRepository) ReplaceWithRepair(ctx context.Context, original *domain.Message, inserted []domain.Message, newContent string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range inserted {
			entity := entities.NewSchemaMessage(&inserted[i])
			if err := tx.Create(entity).Error; err != nil {
				return fmt.Errorf("insert repair notice: %w", err)
			}
			inserted[i].ID = entity.ID
		}

		result := tx.Model(&entities.Message{}).
			Where("id = ?", original.ID).
			Update("content", newContent)
		if result.Error != nil {
			return fmt.Errorf("rewrite message content: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrMessageNotFound
		}
		return nil
	})
}

var _ domain.MessageRepository = (*GormMessageRepository)(nil)
