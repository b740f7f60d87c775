package conversation

import (
	"time"
)

// ===============================================
// Conversation Types
// ===============================================

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDeleted  Status = "deleted"
)

// Mode controls how turns are taken in a conversation.
type Mode string

const (
	// ModeSingleAgent generates an agent reply after every user message.
	ModeSingleAgent Mode = "single_agent"
	// ModeGroupManual is a group conversation where agent turns are
	// requested explicitly.
	ModeGroupManual Mode = "group_manual"
)

// Conversation represents an ordered, append-only chat thread owned by a tenant.
type Conversation struct {
	ID               uint              `json:"-"`
	PublicID         string            `json:"id"`
	TenantID         string            `json:"-"`
	Title            *string           `json:"title,omitempty"`
	Mode             Mode              `json:"mode"`
	Status           Status            `json:"status"`
	ActiveDocumentID *uint             `json:"-"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// AcceptsMessages reports whether new messages may be appended.
// Archived and deleted conversations stay readable but reject writes.
func (c *Conversation) AcceptsMessages() bool {
	return c.Status == StatusActive
}

// ===============================================
// Message Types
// ===============================================

// Role indicates who authored the message.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolNotice Role = "tool_notice"
)

// AuthorKind distinguishes human users from named agents.
type AuthorKind string

const (
	AuthorUser  AuthorKind = "user"
	AuthorAgent AuthorKind = "agent"
)

// Message is one transcript entry. While Streaming is true the content is
// still being appended to; once finalized the message is immutable (the
// hallucination repairer being the single, transactional exception).
type Message struct {
	ID             uint       `json:"-"`
	ConversationID uint       `json:"-"`
	PublicID       string     `json:"id"`
	Role           Role       `json:"role"`
	AuthorKind     AuthorKind `json:"author_kind"`
	AuthorName     string     `json:"author_name,omitempty"`
	AgentID        *uint      `json:"-"`
	Content        string     `json:"content"`
	Reasoning      *string    `json:"reasoning,omitempty"`
	Streaming      bool       `json:"streaming"`
	ToolCalls      []ToolCallRecord `json:"tool_calls,omitempty"`
	ToolResult     *ToolResultRecord `json:"tool_result,omitempty"`
	InputTokens    int        `json:"input_tokens"`
	OutputTokens   int        `json:"output_tokens"`
	// CreatedAt provides both transcript ordering and the pagination
	// cursor; within a conversation (created_at, id) is strictly monotonic.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// ToolCallRecord is the persisted form of a tool call requested by a message.
type ToolCallRecord struct {
	CallID    string                 `json:"call_id"`
	Action    string                 `json:"action"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

// ToolResultRecord is the persisted outcome of a tool call, attached to a
// tool-notice message.
type ToolResultRecord struct {
	CallID  string                 `json:"call_id,omitempty"`
	Action  string                 `json:"action"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	IsError bool                   `json:"is_error"`
	Error   string                 `json:"error,omitempty"`
}

// ===============================================
// Window Types
// ===============================================

// DefaultWindowLimit is the page size used when none is requested.
const DefaultWindowLimit = 30

// TokenWarningThreshold is the conversation-total token count past which the
// UI shows a long-conversation warning.
const TokenWarningThreshold = 100_000

// Window is one page of the most recent messages plus a cursor for
// backward pagination.
type Window struct {
	Messages     []Message `json:"messages"`
	HasMore      bool      `json:"has_more"`
	OldestCursor string    `json:"oldest_cursor,omitempty"`
	TotalTokens  int64     `json:"total_tokens"`
	LongWarning  bool      `json:"long_warning"`
}

// ===============================================
// Factory Functions
// ===============================================

// NewConversation creates a new active conversation.
func NewConversation(publicID, tenantID string, mode Mode, title *string, metadata map[string]string) *Conversation {
	now := time.Now()
	if metadata == nil {
		metadata = make(map[string]string)
	}
	if mode == "" {
		mode = ModeSingleAgent
	}
	return &Conversation{
		PublicID:  publicID,
		TenantID:  tenantID,
		Title:     title,
		Mode:      mode,
		Status:    StatusActive,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewUserMessage creates a finalized user message.
func NewUserMessage(publicID string, conversationID uint, authorName, content string) *Message {
	now := time.Now()
	return &Message{
		ConversationID: conversationID,
		PublicID:       publicID,
		Role:           RoleUser,
		AuthorKind:     AuthorUser,
		AuthorName:     authorName,
		Content:        content,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewStreamingAssistantMessage creates an empty assistant message in
// streaming state.
func NewStreamingAssistantMessage(publicID string, conversationID uint, agentID *uint, agentName string) *Message {
	now := time.Now()
	return &Message{
		ConversationID: conversationID,
		PublicID:       publicID,
		Role:           RoleAssistant,
		AuthorKind:     AuthorAgent,
		AuthorName:     agentName,
		AgentID:        agentID,
		Streaming:      true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewToolNoticeMessage creates a finalized tool-notice message carrying a
// tool result, timestamped explicitly by the caller.
func NewToolNoticeMessage(publicID string, conversationID uint, result ToolResultRecord, at time.Time) *Message {
	return &Message{
		ConversationID: conversationID,
		PublicID:       publicID,
		Role:           RoleToolNotice,
		AuthorKind:     AuthorAgent,
		ToolResult:     &result,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}
