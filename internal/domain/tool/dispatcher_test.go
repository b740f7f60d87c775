package tool_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"parley/conversation-api/internal/domain/agent"
	"parley/conversation-api/internal/domain/conversation"
	"parley/conversation-api/internal/domain/tool"
	"parley/conversation-api/internal/infrastructure/metrics"
)

// fakeTool is a minimal DomainTool for dispatcher tests.
type fakeTool struct {
	name          string
	actions       []string
	requiresAgent bool
	executeFunc   func(ctx context.Context, tc tool.CallContext, action string, params map[string]interface{}) tool.Result
}

func (f *fakeTool) Name() string              { return f.name }
func (f *fakeTool) Description() string       { return "test tool" }
func (f *fakeTool) Actions() []string         { return f.actions }
func (f *fakeTool) RequiresActingAgent() bool { return f.requiresAgent }

func (f *fakeTool) Execute(ctx context.Context, tc tool.CallContext, action string, params map[string]interface{}) tool.Result {
	if f.executeFunc != nil {
		return f.executeFunc(ctx, tc, action, params)
	}
	return tool.Result{"type": "ok", "action": action}
}

func testCallContext() tool.CallContext {
	return tool.CallContext{
		Conversation: &conversation.Conversation{ID: 1, PublicID: "conv_1", TenantID: "tenant"},
	}
}

func TestNewDispatcher_DuplicateAction(t *testing.T) {
	first := &fakeTool{name: "alpha", actions: []string{"do_thing"}}
	second := &fakeTool{name: "beta", actions: []string{"do_thing"}}

	if _, err := tool.NewDispatcher(time.Second, first, second); err == nil {
		t.Fatal("expected error for duplicate action registration")
	}
}

func TestDispatcher_UnknownAction(t *testing.T) {
	d, err := tool.NewDispatcher(time.Second,
		&fakeTool{name: "alpha", actions: []string{"first_action", "second_action"}},
	)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	result := d.Execute(context.Background(), testCallContext(), "bogus_action", nil)
	if !result.IsError() {
		t.Fatal("expected error result for unknown action")
	}

	allowed, ok := result["allowedActions"].([]string)
	if !ok {
		t.Fatalf("allowedActions missing or wrong type: %#v", result["allowedActions"])
	}
	if len(allowed) != 2 || allowed[0] != "first_action" || allowed[1] != "second_action" {
		t.Errorf("allowedActions = %v, want sorted action list", allowed)
	}
}

func TestDispatcher_RequiresActingAgent(t *testing.T) {
	d, err := tool.NewDispatcher(time.Second,
		&fakeTool{name: "alpha", actions: []string{"guarded_action"}, requiresAgent: true},
	)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	tc := testCallContext()
	result := d.Execute(context.Background(), tc, "guarded_action", nil)
	if !result.IsError() {
		t.Fatal("expected error result without acting agent")
	}

	tc.ActingAgent = &agent.Agent{ID: 7, PublicID: "agent_7", Name: "Ada"}
	result = d.Execute(context.Background(), tc, "guarded_action", nil)
	if result.IsError() {
		t.Fatalf("expected success with acting agent, got %q", result.ErrorMessage())
	}
}

func TestDispatcher_RoutesToOwningTool(t *testing.T) {
	var gotAction string
	alpha := &fakeTool{
		name:    "alpha",
		actions: []string{"alpha_action"},
		executeFunc: func(ctx context.Context, tc tool.CallContext, action string, params map[string]interface{}) tool.Result {
			gotAction = action
			return tool.Result{"type": "ok"}
		},
	}
	beta := &fakeTool{
		name:    "beta",
		actions: []string{"beta_action"},
		executeFunc: func(ctx context.Context, tc tool.CallContext, action string, params map[string]interface{}) tool.Result {
			t.Error("beta should not receive alpha's action")
			return tool.Result{"type": "ok"}
		},
	}

	d, err := tool.NewDispatcher(time.Second, alpha, beta)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	result := d.Execute(context.Background(), testCallContext(), "alpha_action", map[string]interface{}{"k": "v"})
	if result.IsError() {
		t.Fatalf("unexpected error result: %q", result.ErrorMessage())
	}
	if gotAction != "alpha_action" {
		t.Errorf("routed action = %q, want alpha_action", gotAction)
	}
}

func TestDispatcher_TimeoutContext(t *testing.T) {
	slow := &fakeTool{
		name:    "slow",
		actions: []string{"slow_action"},
		executeFunc: func(ctx context.Context, tc tool.CallContext, action string, params map[string]interface{}) tool.Result {
			deadline, ok := ctx.Deadline()
			if !ok {
				t.Error("expected execution context to carry a deadline")
			}
			if remaining := time.Until(deadline); remaining > 50*time.Millisecond {
				t.Errorf("deadline too far out: %v", remaining)
			}
			return tool.Result{"type": "ok"}
		},
	}

	d, err := tool.NewDispatcher(50*time.Millisecond, slow)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	d.Execute(context.Background(), testCallContext(), "slow_action", nil)
}

func TestDispatcher_Definitions(t *testing.T) {
	d, err := tool.NewDispatcher(time.Second,
		&fakeTool{name: "beta", actions: []string{"b_one"}},
		&fakeTool{name: "alpha", actions: []string{"a_one", "a_two"}},
	)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	defs := d.Definitions()
	if len(defs) != 2 {
		t.Fatalf("len(defs) = %d, want 2", len(defs))
	}
	// Definitions are ordered by tool name for a stable provider payload.
	if defs[0].Function.Name != "alpha" || defs[1].Function.Name != "beta" {
		t.Errorf("definition order = %q, %q; want alpha, beta", defs[0].Function.Name, defs[1].Function.Name)
	}
	if defs[0].Type != "function" {
		t.Errorf("definition type = %q, want function", defs[0].Type)
	}
}

func TestDispatcher_ExecuteCountsCalls(t *testing.T) {
	failing := &fakeTool{
		name:    "alpha",
		actions: []string{"counted_ok", "counted_bad"},
		executeFunc: func(ctx context.Context, tc tool.CallContext, action string, params map[string]interface{}) tool.Result {
			if action == "counted_bad" {
				return tool.Result{"type": "error", "error": "boom"}
			}
			return tool.Result{"type": "ok"}
		},
	}
	d, err := tool.NewDispatcher(time.Second, failing)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	okBefore := testutil.ToFloat64(metrics.ToolCallsTotal.WithLabelValues("counted_ok", "ok"))
	badBefore := testutil.ToFloat64(metrics.ToolCallsTotal.WithLabelValues("counted_bad", "error"))

	d.Execute(context.Background(), testCallContext(), "counted_ok", nil)
	d.Execute(context.Background(), testCallContext(), "counted_bad", nil)

	if got := testutil.ToFloat64(metrics.ToolCallsTotal.WithLabelValues("counted_ok", "ok")) - okBefore; got != 1 {
		t.Errorf("ok counter delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.ToolCallsTotal.WithLabelValues("counted_bad", "error")) - badBefore; got != 1 {
		t.Errorf("error counter delta = %v, want 1", got)
	}
}
