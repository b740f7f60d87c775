package entities

import (
	"time"

	"parley/conversation-api/internal/domain/document"
)

// SharedDocument represents the database schema for shared documents.
// Revision is the optimistic-lock version; every successful content write
// increments it by exactly one.
type SharedDocument struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID       string `gorm:"type:varchar(50);uniqueIndex;not null"`
	TenantID       string `gorm:"type:varchar(64);index;not null"`
	ConversationID *uint  `gorm:"index"`
	Title          string `gorm:"type:varchar(256);not null"`
	Content        string `gorm:"type:text;not null;default:''"`
	Revision       int    `gorm:"not null;default:1"`
	LastEditorKind string `gorm:"type:varchar(20)"`
	LastEditorName string `gorm:"type:varchar(128)"`
}

// TableName specifies the table name for SharedDocument.
func (SharedDocument) TableName() string {
	return "shared_documents"
}

// EtoD converts the entity to its domain representation.
func (e *SharedDocument) EtoD() *document.SharedDocument {
	return &document.SharedDocument{
		ID:             e.ID,
		PublicID:       e.PublicID,
		TenantID:       e.TenantID,
		ConversationID: e.ConversationID,
		Title:          e.Title,
		Content:        e.Content,
		Revision:       e.Revision,
		LastEditorKind: e.LastEditorKind,
		LastEditorName: e.LastEditorName,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// NewSchemaSharedDocument converts a domain document into its entity form.
func NewSchemaSharedDocument(d *document.SharedDocument) *SharedDocument {
	return &SharedDocument{
		ID:             d.ID,
		PublicID:       d.PublicID,
		TenantID:       d.TenantID,
		ConversationID: d.ConversationID,
		Title:          d.Title,
		Content:        d.Content,
		Revision:       d.Revision,
		LastEditorKind: d.LastEditorKind,
		LastEditorName: d.LastEditorName,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}
