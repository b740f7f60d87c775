package tool

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"parley/conversation-api/internal/domain/llm"
	"parley/conversation-api/internal/infrastructure/metrics"
)

// Dispatcher routes an action name to the tool that owns it and enforces
// the per-call timeout and acting-agent requirement.
type Dispatcher struct {
	tools       map[string]DomainTool
	actionIndex map[string]string
	timeout     time.Duration
	log         zerolog.Logger
}

// NewDispatcher registers the given tools. Registering two tools that claim
// the same action is a programming error.
func NewDispatcher(timeout time.Duration, tools ...DomainTool) (*Dispatcher, error) {
	d := &Dispatcher{
		tools:       make(map[string]DomainTool, len(tools)),
		actionIndex: make(map[string]string),
		timeout:     timeout,
		log:         log.With().Str("component", "tool_dispatcher").Logger(),
	}
	for _, t := range tools {
		if _, exists := d.tools[t.Name()]; exists {
			return nil, fmt.Errorf("duplicate tool %q", t.Name())
		}
		d.tools[t.Name()] = t
		for _, action := range t.Actions() {
			if owner, exists := d.actionIndex[action]; exists {
				return nil, fmt.Errorf("action %q claimed by both %q and %q", action, owner, t.Name())
			}
			d.actionIndex[action] = t.Name()
		}
	}
	return d, nil
}

// AllActions returns every registered action name, sorted.
func (d *Dispatcher) AllActions() []string {
	actions := make([]string, 0, len(d.actionIndex))
	for action := range d.actionIndex {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}

// Owner returns the tool that handles the action, if any.
func (d *Dispatcher) Owner(action string) (DomainTool, bool) {
	name, ok := d.actionIndex[action]
	if !ok {
		return nil, false
	}
	return d.tools[name], true
}

// Execute runs one action. It never returns a Go error to the caller: every
// failure mode becomes a structured error result so it can be fed back to
// the model verbatim.
func (d *Dispatcher) Execute(ctx context.Context, tc CallContext, action string, params map[string]interface{}) Result {
	t, ok := d.Owner(action)
	if !ok {
		return errorResult(fmt.Sprintf("unknown action %q", action), d.AllActions())
	}
	if t.RequiresActingAgent() && tc.ActingAgent == nil {
		return errorResult(fmt.Sprintf("action %q requires an acting agent", action), d.AllActions())
	}

	execCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	result := t.Execute(execCtx, tc, action, params)
	outcome := "ok"
	if result.IsError() {
		outcome = "error"
	}
	metrics.ToolCallsTotal.WithLabelValues(action, outcome).Inc()
	d.log.Debug().
		Str("tool", t.Name()).
		Str("action", action).
		Bool("error", result.IsError()).
		Dur("duration", time.Since(start)).
		Msg("Tool call executed")
	return result
}

// Definitions exposes one function definition per registered tool so the
// provider request can advertise the tool surface.
func (d *Dispatcher) Definitions() []llm.ToolDefinition {
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]llm.ToolDefinition, 0, len(names))
	for _, name := range names {
		t := d.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Type: "function",
			Function: llm.ToolFunctionSchema{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"action": map[string]interface{}{
							"type": "string",
							"enum": t.Actions(),
						},
						"params": map[string]interface{}{
							"type": "object",
						},
					},
					"required": []string{"action"},
				},
			},
		})
	}
	return defs
}
