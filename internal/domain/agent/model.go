package agent

import (
	"context"
	"errors"
	"time"
)

// ErrAgentNotFound indicates the agent does not exist.
var ErrAgentNotFound = errors.New("agent not found")

// Agent is a named assistant persona owned by a tenant. Tools that mutate
// shared state run in the context of exactly one acting agent.
type Agent struct {
	ID        uint      `json:"-"`
	PublicID  string    `json:"id"`
	TenantID  string    `json:"-"`
	Name      string    `json:"name"`
	Persona   string    `json:"persona,omitempty"`
	Model     string    `json:"model"`
	Reasoning bool      `json:"reasoning"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemoryKind distinguishes the two memory stores an agent can write to.
type MemoryKind string

const (
	MemoryJournal MemoryKind = "journal"
	MemoryFact    MemoryKind = "fact"
)

// ValidMemoryKinds enumerates the accepted values for memory_type params.
func ValidMemoryKinds() []string {
	return []string{string(MemoryJournal), string(MemoryFact)}
}

// Valid reports whether k is a known memory kind.
func (k MemoryKind) Valid() bool {
	return k == MemoryJournal || k == MemoryFact
}

// NewMemoryEntry builds a memory entry for the agent.
func NewMemoryEntry(agentID uint, kind MemoryKind, content string) *MemoryEntry {
	return &MemoryEntry{
		AgentID:   agentID,
		Kind:      kind,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// MemoryEntry is one persisted agent memory.
type MemoryEntry struct {
	ID        uint       `json:"-"`
	AgentID   uint       `json:"-"`
	Kind      MemoryKind `json:"memory_type"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}

// Repository persists agents.
type Repository interface {
	Create(ctx context.Context, a *Agent) error
	FindByPublicID(ctx context.Context, publicID string) (*Agent, error)
	FindByID(ctx context.Context, id uint) (*Agent, error)
	Update(ctx context.Context, a *Agent) error
}

// MemoryRepository persists agent memories.
type MemoryRepository interface {
	Append(ctx context.Context, entry *MemoryEntry) error
	Recent(ctx context.Context, agentID uint, kind MemoryKind, limit int) ([]MemoryEntry, error)
}
