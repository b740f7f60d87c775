package entities

import (
	"time"

	"parley/conversation-api/internal/domain/agent"
)

// Agent represents the database schema for agents.
type Agent struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID  string `gorm:"type:varchar(50);uniqueIndex;not null"`
	TenantID  string `gorm:"type:varchar(64);index;not null"`
	Name      string `gorm:"type:varchar(128);not null"`
	Persona   string `gorm:"type:text"`
	Model     string `gorm:"type:varchar(128);not null"`
	Reasoning bool   `gorm:"not null;default:false"`

	Memories []MemoryEntry `gorm:"foreignKey:AgentID"`
}

// TableName specifies the table name for Agent.
func (Agent) TableName() string {
	return "agents"
}

// EtoD converts the entity to its domain representation.
func (e *Agent) EtoD() *agent.Agent {
	return &agent.Agent{
		ID:        e.ID,
		PublicID:  e.PublicID,
		TenantID:  e.TenantID,
		Name:      e.Name,
		Persona:   e.Persona,
		Model:     e.Model,
		Reasoning: e.Reasoning,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// NewSchemaAgent converts a domain agent into its entity form.
func NewSchemaAgent(d *agent.Agent) *Agent {
	return &Agent{
		ID:        d.ID,
		PublicID:  d.PublicID,
		TenantID:  d.TenantID,
		Name:      d.Name,
		Persona:   d.Persona,
		Model:     d.Model,
		Reasoning: d.Reasoning,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// MemoryEntry represents the database schema for agent memories.
type MemoryEntry struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_memory_agent_kind,priority:3"`

	AgentID uint             `gorm:"index:idx_memory_agent_kind,priority:1;not null"`
	Kind    agent.MemoryKind `gorm:"type:varchar(20);index:idx_memory_agent_kind,priority:2;not null"`
	Content string           `gorm:"type:text;not null"`
}

// TableName specifies the table name for MemoryEntry.
func (MemoryEntry) TableName() string {
	return "memory_entries"
}

// EtoD converts the entity to its domain representation.
func (e *MemoryEntry) EtoD() *agent.MemoryEntry {
	return &agent.MemoryEntry{
		ID:        e.ID,
		AgentID:   e.AgentID,
		Kind:      e.Kind,
		Content:   e.Content,
		CreatedAt: e.CreatedAt,
	}
}

// NewSchemaMemoryEntry converts a domain memory entry into its entity form.
func NewSchemaMemoryEntry(d *agent.MemoryEntry) *MemoryEntry {
	return &MemoryEntry{
		ID:        d.ID,
		AgentID:   d.AgentID,
		Kind:      d.Kind,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
	}
}
