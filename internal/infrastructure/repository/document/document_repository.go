// Package document provides the GORM-backed persistence for shared
// documents, including the optimistic-concurrency write path.
package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "parley/conversation-api/internal/domain/document"
	"parley/conversation-api/internal/infrastructure/database/entities"
)

type GormDocumentRepository struct {
	db *gorm.DB
}

func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

func (r *GormDocumentRepository) Create(ctx context.Context, doc *domain.SharedDocument) error {
	entity := entities.NewSchemaSharedDocument(doc)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	doc.ID = entity.ID
	return nil
}

func (r *GormDocumentRepository) FindByPublicID(ctx context.Context, publicID string) (*domain.SharedDocument, error) {
	var entity entities.SharedDocument
	err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("query document: %w", err)
	}
	return entity.EtoD(), nil
}

func (r *GormDocumentRepository) FindByID(ctx context.Context, id uint) (*domain.SharedDocument, error) {
	var entity entities.SharedDocument
	err := r.db.WithContext(ctx).First(&entity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("query document: %w", err)
	}
	return entity.EtoD(), nil
}

// UpdateContent is a compare-and-swap on the revision column. Zero rows
// affected means somebody else won the race; the caller gets the current
// revision back inside a ConflictError so it can re-read and retry.
func (r *GormDocumentRepository) UpdateContent(ctx context.Context, publicID string, baseRevision int, content, editorKind, editorName string) (*domain.SharedDocument, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.SharedDocument{}).
		Where("public_id = ? AND revision = ?", publicID, baseRevision).
		Updates(map[string]interface{}{
			"content":          content,
			"revision":         gorm.Expr("revision + 1"),
			"last_editor_kind": editorKind,
			"last_editor_name": editorName,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("update document: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		current, err := r.FindByPublicID(ctx, publicID)
		if err != nil {
			return nil, err
		}
		return nil, &domain.ConflictError{
			PublicID:        publicID,
			SubmittedRev:    baseRevision,
			CurrentRevision: current.Revision,
		}
	}

	return r.FindByPublicID(ctx, publicID)
}

var _ domain.Repository = (*GormDocumentRepository)(nil)
