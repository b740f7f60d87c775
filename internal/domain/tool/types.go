// Package tool routes model-issued tool calls to domain tools and shapes
// their results so the model can self-correct malformed calls.
package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"parley/conversation-api/internal/domain/agent"
	"parley/conversation-api/internal/domain/conversation"
)

// CallContext carries the conversation state a tool executes against.
// ActingAgent is nil for calls that arrive outside an agent turn.
type CallContext struct {
	Conversation *conversation.Conversation
	ActingAgent  *agent.Agent
}

// Result is the JSON-serializable outcome of one tool call. Every result
// carries a "type" discriminator; error results additionally carry the
// corrective fields the model needs to retry.
type Result map[string]interface{}

// IsError reports whether the result is a self-correction payload.
func (r Result) IsError() bool {
	t, _ := r["type"].(string)
	return t == "error"
}

// ErrorMessage returns the error text of an error result, or "".
func (r Result) ErrorMessage() string {
	msg, _ := r["error"].(string)
	return msg
}

// Handler executes one action. Params are the already-decoded call arguments.
type Handler func(ctx context.Context, tc CallContext, params map[string]interface{}) Result

// DomainTool is one tool surface exposed to the model. Actions are unique
// across all registered tools.
type DomainTool interface {
	Name() string
	Description() string
	Actions() []string
	RequiresActingAgent() bool
	Execute(ctx context.Context, tc CallContext, action string, params map[string]interface{}) Result
}

// errorResult builds the self-correcting error shape: the message plus the
// action vocabulary the caller may choose from on retry.
func errorResult(message string, allowedActions []string) Result {
	return Result{
		"type":           "error",
		"error":          message,
		"allowedActions": allowedActions,
	}
}

// invalidValueResult narrows an error to one parameter and its legal values.
func invalidValueResult(message string, allowedActions, allowedValues []string) Result {
	r := errorResult(message, allowedActions)
	r["allowedValues"] = allowedValues
	return r
}

func newPublicID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(uuid.New().String(), "-", ""))
}

// stringParam fetches a required string parameter.
func stringParam(params map[string]interface{}, name string) (string, error) {
	raw, ok := params[name]
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", name)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", name)
	}
	return s, nil
}

// intParam fetches an optional integer parameter, returning fallback when
// absent. JSON numbers decode as float64.
func intParam(params map[string]interface{}, name string, fallback int) int {
	raw, ok := params[name]
	if !ok {
		return fallback
	}
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
