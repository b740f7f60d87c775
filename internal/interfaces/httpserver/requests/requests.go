// Package requests declares the HTTP request payloads.
package requests

// CreateConversationRequest starts a new conversation.
type CreateConversationRequest struct {
	Title    *string           `json:"title"`
	Mode     string            `json:"mode"`
	Metadata map[string]string `json:"metadata"`
}

// AppendMessageRequest adds a user message to the transcript.
type AppendMessageRequest struct {
	AuthorName string `json:"author_name"`
	Content    string `json:"content" binding:"required"`
}

// CreateGenerationRequest schedules a background generation run.
type CreateGenerationRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
}

// CreateDocumentRequest creates a shared document, optionally attached to a
// conversation.
type CreateDocumentRequest struct {
	ConversationID *string `json:"conversation_id"`
	Title          string  `json:"title" binding:"required"`
	Content        string  `json:"content"`
	EditorName     string  `json:"editor_name"`
}

// UpdateDocumentRequest applies an optimistic-concurrency edit.
type UpdateDocumentRequest struct {
	BaseRevision int    `json:"base_revision" binding:"min=1"`
	Content      string `json:"content" binding:"required"`
	EditorName   string `json:"editor_name"`
}

// CreateAgentRequest registers a new agent.
type CreateAgentRequest struct {
	Name      string `json:"name" binding:"required"`
	Persona   string `json:"persona"`
	Model     string `json:"model" binding:"required"`
	Reasoning bool   `json:"reasoning"`
}
