package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"parley/conversation-api/internal/domain/conversation"
)

// Conversation represents the database schema for conversations
type Conversation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID         string              `gorm:"type:varchar(50);uniqueIndex;not null"`
	TenantID         string              `gorm:"type:varchar(64);index:idx_conversation_tenant_status;not null"`
	Title            *string             `gorm:"type:varchar(256)"`
	Mode             conversation.Mode   `gorm:"type:varchar(20);not null;default:'single_agent'"`
	Status           conversation.Status `gorm:"type:varchar(20);index:idx_conversation_tenant_status;not null;default:'active'"`
	ActiveDocumentID *uint               `gorm:"index"`
	Metadata         JSONMap             `gorm:"type:jsonb"`

	Messages []Message `gorm:"foreignKey:ConversationID"`
}

// TableName specifies the table name for Conversation.
func (Conversation) TableName() string {
	return "conversations"
}

// EtoD converts the entity to its domain representation.
func (e *Conversation) EtoD() *conversation.Conversation {
	return &conversation.Conversation{
		ID:               e.ID,
		PublicID:         e.PublicID,
		TenantID:         e.TenantID,
		Title:            e.Title,
		Mode:             e.Mode,
		Status:           e.Status,
		ActiveDocumentID: e.ActiveDocumentID,
		Metadata:         map[string]string(e.Metadata),
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

// NewSchemaConversation converts a domain conversation into its entity form.
func NewSchemaConversation(d *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:               d.ID,
		PublicID:         d.PublicID,
		TenantID:         d.TenantID,
		Title:            d.Title,
		Mode:             d.Mode,
		Status:           d.Status,
		ActiveDocumentID: d.ActiveDocumentID,
		Metadata:         JSONMap(d.Metadata),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// ===============================================
// JSON Types for GORM
// ===============================================

// JSONMap is a custom type for map[string]string stored as JSON
type JSONMap map[string]string

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("unsupported JSONMap source type %T", value)
		}
	}
	return json.Unmarshal(bytes, j)
}
