package tool

import (
	"context"
	"fmt"

	"parley/conversation-api/internal/domain/agent"
)

// MemoryTool reads and appends the acting agent's memory entries. Memory is
// scoped to the agent, so every action needs an acting agent.
type MemoryTool struct {
	memories agent.MemoryRepository
}

func NewMemoryTool(memories agent.MemoryRepository) *MemoryTool {
	return &MemoryTool{memories: memories}
}

func (t *MemoryTool) Name() string              { return "memory" }
func (t *MemoryTool) Description() string       { return "Persist and recall agent memory entries" }
func (t *MemoryTool) Actions() []string         { return []string{"memory_write", "memory_read"} }
func (t *MemoryTool) RequiresActingAgent() bool { return true }

func (t *MemoryTool) Execute(ctx context.Context, tc CallContext, action string, params map[string]interface{}) Result {
	switch action {
	case "memory_write":
		return t.write(ctx, tc, params)
	case "memory_read":
		return t.read(ctx, tc, params)
	default:
		return errorResult(fmt.Sprintf("action %q is not a memory action", action), t.Actions())
	}
}

func (t *MemoryTool) write(ctx context.Context, tc CallContext, params map[string]interface{}) Result {
	kindRaw, err := stringParam(params, "memory_type")
	if err != nil {
		return invalidValueResult(err.Error(), t.Actions(), agent.ValidMemoryKinds())
	}
	kind := agent.MemoryKind(kindRaw)
	if !kind.Valid() {
		return invalidValueResult(fmt.Sprintf("unknown memory_type %q", kindRaw), t.Actions(), agent.ValidMemoryKinds())
	}
	content, err := stringParam(params, "content")
	if err != nil {
		return errorResult(err.Error(), t.Actions())
	}

	entry := agent.NewMemoryEntry(tc.ActingAgent.ID, kind, content)
	if err := t.memories.Append(ctx, entry); err != nil {
		return errorResult(fmt.Sprintf("failed to write memory: %v", err), t.Actions())
	}
	return Result{"type": "memory_written", "memory_type": string(kind)}
}

func (t *MemoryTool) read(ctx context.Context, tc CallContext, params map[string]interface{}) Result {
	kindRaw, err := stringParam(params, "memory_type")
	if err != nil {
		return invalidValueResult(err.Error(), t.Actions(), agent.ValidMemoryKinds())
	}
	kind := agent.MemoryKind(kindRaw)
	if !kind.Valid() {
		return invalidValueResult(fmt.Sprintf("unknown memory_type %q", kindRaw), t.Actions(), agent.ValidMemoryKinds())
	}
	limit := intParam(params, "limit", 10)

	entries, err := t.memories.Recent(ctx, tc.ActingAgent.ID, kind, limit)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to read memory: %v", err), t.Actions())
	}
	items := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		items = append(items, map[string]interface{}{
			"content":    e.Content,
			"created_at": e.CreatedAt,
		})
	}
	return Result{"type": "memory_entries", "memory_type": string(kind), "entries": items}
}

var _ DomainTool = (*MemoryTool)(nil)
