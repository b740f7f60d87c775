package tool

import (
	"context"
	"fmt"

	"parley/conversation-api/internal/domain/agent"
	"parley/conversation-api/internal/domain/llm"
)

// AgentTool lets an agent inspect and mutate its own profile.
type AgentTool struct {
	agents  agent.Repository
	catalog *llm.Catalog
}

func NewAgentTool(agents agent.Repository, catalog *llm.Catalog) *AgentTool {
	return &AgentTool{agents: agents, catalog: catalog}
}

func (t *AgentTool) Name() string        { return "agent" }
func (t *AgentTool) Description() string { return "Read and update the acting agent's profile" }
func (t *AgentTool) Actions() []string {
	return []string{"get_profile", "set_persona", "set_model", "set_reasoning"}
}
func (t *AgentTool) RequiresActingAgent() bool { return true }

func (t *AgentTool) Execute(ctx context.Context, tc CallContext, action string, params map[string]interface{}) Result {
	switch action {
	case "get_profile":
		return t.getProfile(ctx, tc, params)
	case "set_persona":
		return t.setPersona(ctx, tc, params)
	case "set_model":
		return t.setModel(ctx, tc, params)
	case "set_reasoning":
		return t.setReasoning(ctx, tc, params)
	default:
		return errorResult(fmt.Sprintf("action %q is not an agent action", action), t.Actions())
	}
}

func (t *AgentTool) getProfile(_ context.Context, tc CallContext, _ map[string]interface{}) Result {
	a := tc.ActingAgent
	return Result{
		"type":      "agent_profile",
		"agent_id":  a.PublicID,
		"name":      a.Name,
		"persona":   a.Persona,
		"model":     a.Model,
		"reasoning": a.Reasoning,
	}
}

func (t *AgentTool) setPersona(ctx context.Context, tc CallContext, params map[string]interface{}) Result {
	persona, err := stringParam(params, "persona")
	if err != nil {
		return errorResult(err.Error(), t.Actions())
	}
	tc.ActingAgent.Persona = persona
	if err := t.agents.Update(ctx, tc.ActingAgent); err != nil {
		return errorResult(fmt.Sprintf("failed to update persona: %v", err), t.Actions())
	}
	return Result{"type": "agent_updated", "agent_id": tc.ActingAgent.PublicID, "persona": persona}
}

func (t *AgentTool) setModel(ctx context.Context, tc CallContext, params map[string]interface{}) Result {
	model, err := stringParam(params, "model")
	if err != nil {
		return errorResult(err.Error(), t.Actions())
	}
	if _, ok := t.catalog.Lookup(model); !ok {
		return invalidValueResult(fmt.Sprintf("unknown model %q", model), t.Actions(), t.catalog.ModelIDs())
	}
	tc.ActingAgent.Model = model
	if err := t.agents.Update(ctx, tc.ActingAgent); err != nil {
		return errorResult(fmt.Sprintf("failed to update model: %v", err), t.Actions())
	}
	return Result{"type": "agent_updated", "agent_id": tc.ActingAgent.PublicID, "model": model}
}

func (t *AgentTool) setReasoning(ctx context.Context, tc CallContext, params map[string]interface{}) Result {
	enabled, ok := params["enabled"].(bool)
	if !ok {
		return invalidValueResult(`parameter "enabled" must be a boolean`, t.Actions(), []string{"true", "false"})
	}
	tc.ActingAgent.Reasoning = enabled
	if err := t.agents.Update(ctx, tc.ActingAgent); err != nil {
		return errorResult(fmt.Sprintf("failed to update reasoning: %v", err), t.Actions())
	}
	return Result{"type": "agent_updated", "agent_id": tc.ActingAgent.PublicID, "reasoning": enabled}
}

var _ DomainTool = (*AgentTool)(nil)
