package generation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"parley/conversation-api/internal/domain/llm"
)

// toolCallAccumulator reassembles streamed tool-call fragments into complete
// calls. Fragments sharing an index belong to one call; argument deltas are
// concatenated in arrival order.
type toolCallAccumulator struct {
	calls map[int]*pendingToolCall
}

type pendingToolCall struct {
	index int
	id    string
	name  string
	args  strings.Builder
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{calls: make(map[int]*pendingToolCall)}
}

func (a *toolCallAccumulator) add(f *llm.ToolCallFragment) {
	call, ok := a.calls[f.Index]
	if !ok {
		call = &pendingToolCall{index: f.Index}
		a.calls[f.Index] = call
	}
	if f.ID != "" {
		call.id = f.ID
	}
	if f.Name != "" {
		call.name = f.Name
	}
	call.args.WriteString(f.ArgumentsDelta)
}

// completed returns the assembled calls in index order and resets the
// accumulator for the next stream.
func (a *toolCallAccumulator) completed() []llm.ToolCall {
	indexes := make([]int, 0, len(a.calls))
	for idx := range a.calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	out := make([]llm.ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		call := a.calls[idx]
		out = append(out, llm.ToolCall{
			ID:   call.id,
			Type: "function",
			Function: llm.ToolFunction{
				Name:      call.name,
				Arguments: call.args.String(),
			},
		})
	}
	a.calls = make(map[int]*pendingToolCall)
	return out
}

// decodeCallArguments parses the {"action": ..., "params": ...} argument
// envelope of an assembled tool call.
func decodeCallArguments(call llm.ToolCall) (string, map[string]interface{}, error) {
	var envelope struct {
		Action string                 `json:"action"`
		Params map[string]interface{} `json:"params"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &envelope); err != nil {
		return "", nil, fmt.Errorf("malformed tool arguments: %w", err)
	}
	if envelope.Action == "" {
		return "", nil, fmt.Errorf("tool call %s carries no action", call.ID)
	}
	if envelope.Params == nil {
		envelope.Params = make(map[string]interface{})
	}
	return envelope.Action, envelope.Params, nil
}
