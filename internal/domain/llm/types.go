package llm

import "context"

// Provider defines the contract for opening a generation stream against an
// upstream model endpoint.
type Provider interface {
	StreamGeneration(reqCtx context.Context, req GenerationRequest) (Stream, error)
}

// Stream abstracts an SSE or chunked response from a provider.
type Stream interface {
	Recv() (*StreamChunk, error)
	Close() error
}

// GenerationRequest describes one generation call.
type GenerationRequest struct {
	Model           string           `json:"model"`
	Messages        []ChatMessage    `json:"messages"`
	Tools           []ToolDefinition `json:"tools,omitempty"`
	Temperature     *float64         `json:"temperature,omitempty"`
	MaxTokens       *int             `json:"max_tokens,omitempty"`
	Reasoning       bool             `json:"reasoning,omitempty"`
	Transport       Transport        `json:"-"`
	ProviderModelID string           `json:"-"`
}

// ChatMessage represents a single message in the conversation history.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID *string    `json:"tool_call_id,omitempty"`
}

// ToolCall mirrors the OpenAI tool call format.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction contains the function name and JSON arguments.
type ToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition is the OpenAI compatible representation of a domain tool.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function ToolFunctionSchema `json:"function"`
}

// ToolFunctionSchema declares the function contract passed to the model.
type ToolFunctionSchema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Usage contains token accounting metadata.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToolCallFragment is a partial tool call carried by a streaming chunk.
// Fragments with the same Index belong to the same call; Arguments arrive
// as concatenable deltas.
type ToolCallFragment struct {
	Index          int    `json:"index"`
	ID             string `json:"id,omitempty"`
	Name           string `json:"name,omitempty"`
	ArgumentsDelta string `json:"arguments_delta,omitempty"`
}

// StreamChunk is one unit of a provider stream. Text and ReasoningText are
// independent channels and may interleave within one stream.
type StreamChunk struct {
	Text          string            `json:"text,omitempty"`
	ReasoningText string            `json:"reasoning_text,omitempty"`
	ToolCall      *ToolCallFragment `json:"tool_call,omitempty"`
	Usage         *Usage            `json:"usage,omitempty"`
	IsFinal       bool              `json:"is_final"`
}
