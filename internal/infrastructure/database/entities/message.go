package entities

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"parley/conversation-api/internal/domain/conversation"
)

// Message represents the database schema for transcript messages. The
// composite index on (conversation_id, created_at, id) backs both the
// transcript ordering and keyset pagination.
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;index:idx_message_window,priority:2"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID       string                  `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationID uint                    `gorm:"index:idx_message_window,priority:1;not null"`
	Role           conversation.Role       `gorm:"type:varchar(20);not null"`
	AuthorKind     conversation.AuthorKind `gorm:"type:varchar(20);not null"`
	AuthorName     string                  `gorm:"type:varchar(128)"`
	AgentID        *uint                   `gorm:"index"`
	Content        string                  `gorm:"type:text;not null;default:''"`
	Reasoning      *string                 `gorm:"type:text"`
	Streaming      bool                    `gorm:"not null;default:false"`
	ToolCalls      datatypes.JSON          `gorm:"type:jsonb"`
	ToolResult     datatypes.JSON          `gorm:"type:jsonb"`
	InputTokens    int                     `gorm:"not null;default:0"`
	OutputTokens   int                     `gorm:"not null;default:0"`
}

// TableName specifies the table name for Message.
func (Message) TableName() string {
	return "messages"
}

// EtoD converts the entity to its domain representation.
func (e *Message) EtoD() *conversation.Message {
	msg := &conversation.Message{
		ID:             e.ID,
		ConversationID: e.ConversationID,
		PublicID:       e.PublicID,
		Role:           e.Role,
		AuthorKind:     e.AuthorKind,
		AuthorName:     e.AuthorName,
		AgentID:        e.AgentID,
		Content:        e.Content,
		Reasoning:      e.Reasoning,
		Streaming:      e.Streaming,
		InputTokens:    e.InputTokens,
		OutputTokens:   e.OutputTokens,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
	if len(e.ToolCalls) > 0 {
		_ = json.Unmarshal(e.ToolCalls, &msg.ToolCalls)
	}
	if len(e.ToolResult) > 0 {
		var result conversation.ToolResultRecord
		if err := json.Unmarshal(e.ToolResult, &result); err == nil {
			msg.ToolResult = &result
		}
	}
	return msg
}

// NewSchemaMessage converts a domain message into its entity form.
func NewSchemaMessage(d *conversation.Message) *Message {
	e := &Message{
		ID:             d.ID,
		ConversationID: d.ConversationID,
		PublicID:       d.PublicID,
		Role:           d.Role,
		AuthorKind:     d.AuthorKind,
		AuthorName:     d.AuthorName,
		AgentID:        d.AgentID,
		Content:        d.Content,
		Reasoning:      d.Reasoning,
		Streaming:      d.Streaming,
		InputTokens:    d.InputTokens,
		OutputTokens:   d.OutputTokens,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if len(d.ToolCalls) > 0 {
		if raw, err := json.Marshal(d.ToolCalls); err == nil {
			e.ToolCalls = raw
		}
	}
	if d.ToolResult != nil {
		if raw, err := json.Marshal(d.ToolResult); err == nil {
			e.ToolResult = raw
		}
	}
	return e
}
