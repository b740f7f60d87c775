package entities

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"parley/conversation-api/internal/domain/generation"
	"parley/conversation-api/internal/domain/status"
)

// Generation represents the database schema for generation runs. Pending
// rows double as the work queue; workers claim them with row locks.
type Generation struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID       string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	TenantID       string         `gorm:"type:varchar(64);index;not null"`
	ConversationID uint           `gorm:"index:idx_generation_conversation_status;not null"`
	AgentID        *uint          `gorm:"index"`
	Model          string         `gorm:"type:varchar(128);not null"`
	Reasoning      bool           `gorm:"not null;default:false"`
	Status         status.Status  `gorm:"type:varchar(20);index:idx_generation_conversation_status;index:idx_generation_status_queued;not null;default:'pending'"`
	MessageID      *uint          `gorm:"index"`
	Error          datatypes.JSON `gorm:"type:jsonb"`
	Attempts       int            `gorm:"not null;default:0"`
	QueuedAt       time.Time      `gorm:"index:idx_generation_status_queued;not null"`
	StartedAt      *time.Time
	CompletedAt    *time.Time
	FailedAt       *time.Time
}

// TableName specifies the table name for Generation.
func (Generation) TableName() string {
	return "generations"
}

// EtoD converts the entity to its domain representation.
func (e *Generation) EtoD() *generation.Generation {
	gen := &generation.Generation{
		ID:             e.ID,
		PublicID:       e.PublicID,
		TenantID:       e.TenantID,
		ConversationID: e.ConversationID,
		AgentID:        e.AgentID,
		Model:          e.Model,
		Reasoning:      e.Reasoning,
		Status:         e.Status,
		MessageID:      e.MessageID,
		Attempts:       e.Attempts,
		QueuedAt:       e.QueuedAt,
		StartedAt:      e.StartedAt,
		CompletedAt:    e.CompletedAt,
		FailedAt:       e.FailedAt,
	}
	if len(e.Error) > 0 {
		var details generation.ErrorDetails
		if err := json.Unmarshal(e.Error, &details); err == nil {
			gen.Error = &details
		}
	}
	return gen
}

// NewSchemaGeneration converts a domain generation into its entity form.
func NewSchemaGeneration(d *generation.Generation) *Generation {
	e := &Generation{
		ID:             d.ID,
		PublicID:       d.PublicID,
		TenantID:       d.TenantID,
		ConversationID: d.ConversationID,
		AgentID:        d.AgentID,
		Model:          d.Model,
		Reasoning:      d.Reasoning,
		Status:         d.Status,
		MessageID:      d.MessageID,
		Attempts:       d.Attempts,
		QueuedAt:       d.QueuedAt,
		StartedAt:      d.StartedAt,
		CompletedAt:    d.CompletedAt,
		FailedAt:       d.FailedAt,
	}
	if d.Error != nil {
		if raw, err := json.Marshal(d.Error); err == nil {
			e.Error = raw
		}
	}
	return e
}
