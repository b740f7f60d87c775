package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"parley/conversation-api/internal/domain/agent"
	"parley/conversation-api/internal/domain/conversation"
	"parley/conversation-api/internal/domain/event"
	"parley/conversation-api/internal/domain/llm"
	"parley/conversation-api/internal/domain/repair"
	"parley/conversation-api/internal/domain/retry"
	"parley/conversation-api/internal/domain/status"
	"parley/conversation-api/internal/domain/tool"
)

// Orchestrator drives one generation from claimed to terminal. Whatever
// path a run takes, the streaming flag on its message is cleared and
// buffered text is flushed before the run ends; transient provider blips
// never become transcript entries.
type Orchestrator struct {
	router        *llm.Router
	catalog       *llm.Catalog
	providers     ProviderSelector
	dispatcher    *tool.Dispatcher
	repairer      *repair.Repairer
	conversations conversation.Repository
	messages      conversation.MessageRepository
	agents        agent.Repository
	generations   Repository
	billing       Biller
	audit         Auditor
	events        event.Publisher

	flushInterval time.Duration
	maxToolDepth  int
	retryPolicy   retry.Policy
	log           zerolog.Logger
}

// OrchestratorParams wires the orchestrator's collaborators.
type OrchestratorParams struct {
	Router        *llm.Router
	Catalog       *llm.Catalog
	Providers     ProviderSelector
	Dispatcher    *tool.Dispatcher
	Repairer      *repair.Repairer
	Conversations conversation.Repository
	Messages      conversation.MessageRepository
	Agents        agent.Repository
	Generations   Repository
	Billing       Biller
	Audit         Auditor
	Events        event.Publisher
	FlushInterval time.Duration
	MaxToolDepth  int
	RetryPolicy   retry.Policy
}

func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	if p.MaxToolDepth <= 0 {
		p.MaxToolDepth = 8
	}
	return &Orchestrator{
		router:        p.Router,
		catalog:       p.Catalog,
		providers:     p.Providers,
		dispatcher:    p.Dispatcher,
		repairer:      p.Repairer,
		conversations: p.Conversations,
		messages:      p.Messages,
		agents:        p.Agents,
		generations:   p.Generations,
		billing:       p.Billing,
		audit:         p.Audit,
		events:        p.Events,
		flushInterval: p.FlushInterval,
		maxToolDepth:  p.MaxToolDepth,
		retryPolicy:   p.RetryPolicy,
		log:           log.With().Str("component", "orchestrator").Logger(),
	}
}

// run holds the mutable state of one generation run.
type run struct {
	gen         *Generation
	conv        *conversation.Conversation
	actingAgent *agent.Agent
	msg         *conversation.Message
	contentBuf  *StreamBuffer
	reasonBuf   *StreamBuffer
	usage       llm.Usage
}

// Run executes one claimed generation to a terminal state. It returns an
// error only for infrastructure failures; domain failures are recorded on
// the generation itself.
func (o *Orchestrator) Run(ctx context.Context, gen *Generation) error {
	if gen.Status.IsTerminal() {
		return nil
	}

	ctx, span := otel.Tracer("generation").Start(ctx, "generation.run")
	span.SetAttributes(
		attribute.String("generation.id", gen.PublicID),
		attribute.String("generation.model", gen.Model),
	)
	defer span.End()

	conv, err := o.conversations.FindByID(ctx, gen.ConversationID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	r := &run{
		gen:        gen,
		conv:       conv,
		contentBuf: NewStreamBuffer(o.flushInterval),
		reasonBuf:  NewStreamBuffer(o.flushInterval),
	}
	if gen.AgentID != nil {
		r.actingAgent, err = o.agents.FindByID(ctx, *gen.AgentID)
		if err != nil {
			return fmt.Errorf("failed to load agent: %w", err)
		}
	}

	history, err := o.loadHistory(ctx, r)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if err := o.checkQuota(ctx, r, history); err != nil {
		return o.fail(ctx, r, status.ErrorSeverityFatal, "insufficient_credits", err.Error())
	}

	decision, err := o.route(ctx, gen)
	if err != nil {
		return o.fail(ctx, r, status.ErrorSeverityFatal, "model_not_found", err.Error())
	}

	// Whatever happens below, buffered text gets flushed and no message
	// is left flagged as streaming. Registered before the message is
	// created so a partially opened run is cleaned up too.
	defer o.ensureClosed(context.WithoutCancel(ctx), r)

	if err := o.openMessage(ctx, r); err != nil {
		return fmt.Errorf("failed to open streaming message: %w", err)
	}

	req := o.buildRequest(r, decision, history)
	if err := o.streamLoop(ctx, r, req); err != nil {
		severity, code := classifyFailure(err)
		return o.fail(ctx, r, severity, code, err.Error())
	}

	return o.finalize(ctx, r)
}

// loadHistory returns the recent transcript as provider chat messages.
func (o *Orchestrator) loadHistory(ctx context.Context, r *run) ([]llm.ChatMessage, error) {
	window, _, err := o.messages.WindowBefore(ctx, r.conv.ID, "", conversation.DefaultWindowLimit)
	if err != nil {
		return nil, err
	}

	history := make([]llm.ChatMessage, 0, len(window)+1)
	if r.actingAgent != nil && r.actingAgent.Persona != "" {
		history = append(history, llm.ChatMessage{Role: "system", Content: r.actingAgent.Persona})
	}
	for _, m := range window {
		switch m.Role {
		case conversation.RoleUser:
			history = append(history, llm.ChatMessage{Role: "user", Content: m.Content})
		case conversation.RoleAssistant:
			if m.Content != "" {
				history = append(history, llm.ChatMessage{Role: "assistant", Content: m.Content})
			}
		case conversation.RoleToolNotice:
			if m.ToolResult != nil {
				history = append(history, llm.ChatMessage{
					Role:    "system",
					Content: fmt.Sprintf("tool %s result: %v", m.ToolResult.Action, m.ToolResult.Payload),
				})
			}
		}
	}
	return history, nil
}

func (o *Orchestrator) checkQuota(ctx context.Context, r *run, history []llm.ChatMessage) error {
	estimated := llm.EstimateMessagesTokenCount(history)
	ok, err := o.billing.HasQuota(ctx, r.gen.TenantID, estimated)
	if err != nil {
		// Billing being down must not block generation; the post-run
		// consume call will reconcile.
		o.log.Warn().Err(err).Str("tenant_id", r.gen.TenantID).Msg("Quota check unavailable, proceeding")
		return nil
	}
	if !ok {
		return ErrInsufficientCredits
	}
	return nil
}

// route resolves the model, refreshing the catalog once when the model is
// unknown so a stale snapshot does not fail a valid request.
func (o *Orchestrator) route(ctx context.Context, gen *Generation) (llm.RouteDecision, error) {
	decision, err := o.router.Route(gen.Model, gen.Reasoning)
	if !errors.Is(err, llm.ErrModelNotFound) {
		return decision, err
	}
	if refreshErr := o.catalog.Refresh(ctx); refreshErr != nil {
		o.log.Warn().Err(refreshErr).Msg("Catalog refresh failed")
		return decision, err
	}
	return o.router.Route(gen.Model, gen.Reasoning)
}

// openMessage creates the empty streaming assistant message and moves the
// generation to streaming.
func (o *Orchestrator) openMessage(ctx context.Context, r *run) error {
	agentName := ""
	if r.actingAgent != nil {
		agentName = r.actingAgent.Name
	}
	msg := conversation.NewStreamingAssistantMessage(newPublicID("msg"), r.conv.ID, r.gen.AgentID, agentName)
	if err := o.messages.Create(ctx, msg); err != nil {
		return err
	}
	r.msg = msg

	now := time.Now()
	r.gen.MessageID = &msg.ID
	r.gen.StartedAt = &now
	r.gen.Attempts++
	newStatus, err := r.gen.Status.TransitionTo(status.StatusStreaming)
	if err == nil {
		r.gen.Status = newStatus
	}
	if err := o.generations.Update(ctx, r.gen); err != nil {
		return err
	}

	o.events.Publish(event.Event{
		Key:    event.Key{Type: event.EntityConversation, ID: r.conv.PublicID},
		Action: event.ActionReload,
	})
	return nil
}

func (o *Orchestrator) buildRequest(r *run, decision llm.RouteDecision, history []llm.ChatMessage) llm.GenerationRequest {
	return llm.GenerationRequest{
		Model:           r.gen.Model,
		Messages:        history,
		Tools:           o.dispatcher.Definitions(),
		Reasoning:       r.gen.Reasoning && decision.SupportsReasoning,
		Transport:       decision.Transport,
		ProviderModelID: decision.ProviderModelID,
	}
}

// streamLoop consumes provider streams until the model stops requesting
// tools or the depth limit is hit.
func (o *Orchestrator) streamLoop(ctx context.Context, r *run, req llm.GenerationRequest) error {
	for depth := 0; ; depth++ {
		toolCalls, err := o.streamOnce(ctx, r, req)
		if err != nil {
			return err
		}
		if len(toolCalls) == 0 {
			return nil
		}
		if depth >= o.maxToolDepth {
			o.log.Warn().
				Str("generation_id", r.gen.PublicID).
				Int("depth", depth).
				Msg("Tool depth limit reached, finishing without further calls")
			return nil
		}
		req.Messages = o.executeToolCalls(ctx, r, req.Messages, toolCalls)
	}
}

// streamOnce opens one provider stream and drains it into the buffers.
// Opening is retried per the policy; a failure after content has arrived is
// not retried so partial text is preserved exactly once.
func (o *Orchestrator) streamOnce(ctx context.Context, r *run, req llm.GenerationRequest) ([]llm.ToolCall, error) {
	stream, err := o.openStream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	accumulator := newToolCallAccumulator()
	for {
		chunk, err := stream.Recv()
		if err != nil {
			return nil, err
		}

		r.contentBuf.Append(chunk.Text)
		r.reasonBuf.Append(chunk.ReasoningText)
		if chunk.ToolCall != nil {
			accumulator.add(chunk.ToolCall)
		}
		if chunk.Usage != nil {
			r.usage.PromptTokens += chunk.Usage.PromptTokens
			r.usage.CompletionTokens += chunk.Usage.CompletionTokens
			r.usage.TotalTokens += chunk.Usage.TotalTokens
		}

		o.flushDue(ctx, r)

		if chunk.IsFinal {
			return accumulator.completed(), nil
		}
	}
}

// openStream opens the provider stream under the retry policy. Fatal
// failures abort the attempts immediately; only transient ones are retried.
func (o *Orchestrator) openStream(ctx context.Context, req llm.GenerationRequest) (llm.Stream, error) {
	provider := o.providers.For(req.Transport)
	var stream llm.Stream
	err := o.retryPolicy.Execute(ctx, func(ctx context.Context, attempt int) error {
		s, err := provider.StreamGeneration(ctx, req)
		if err == nil {
			stream = s
			return nil
		}
		if severity, _ := classifyFailure(err); !severity.IsRetryable() {
			return retry.Permanent(err)
		}
		o.log.Warn().Err(err).Int("attempt", attempt+1).Msg("Provider stream open failed")
		return err
	})
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// flushDue persists and publishes any buffered text whose debounce interval
// has elapsed.
func (o *Orchestrator) flushDue(ctx context.Context, r *run) {
	if delta, ok := r.contentBuf.FlushIfDue(); ok {
		o.persistDelta(ctx, r, "content", delta)
	}
	if delta, ok := r.reasonBuf.FlushIfDue(); ok {
		o.persistDelta(ctx, r, "reasoning", delta)
	}
}

func (o *Orchestrator) persistDelta(ctx context.Context, r *run, field, delta string) {
	var err error
	switch field {
	case "content":
		err = o.messages.AppendContent(ctx, r.msg.ID, delta)
		r.msg.Content += delta
	case "reasoning":
		err = o.messages.AppendReasoning(ctx, r.msg.ID, delta)
		appendReasoning(r.msg, delta)
	}
	if err != nil {
		o.log.Error().Err(err).Str("message_id", r.msg.PublicID).Str("field", field).Msg("Failed to persist stream delta")
		return
	}
	o.events.Publish(event.Event{
		Key:    event.Key{Type: event.EntityMessage, ID: r.msg.PublicID, Field: field},
		Action: event.ActionPatch,
		Data:   map[string]interface{}{"append": delta},
	})
}

// executeToolCalls runs each requested call, records a tool notice in the
// transcript and feeds the results back into the next provider request.
func (o *Orchestrator) executeToolCalls(ctx context.Context, r *run, history []llm.ChatMessage, calls []llm.ToolCall) []llm.ChatMessage {
	tc := tool.CallContext{Conversation: r.conv, ActingAgent: r.actingAgent}

	for _, call := range calls {
		action, params, err := decodeCallArguments(call)
		var result tool.Result
		if err != nil {
			result = tool.Result{"type": "error", "error": err.Error(), "allowedActions": o.dispatcher.AllActions()}
			action = call.Function.Name
		} else {
			result = o.dispatcher.Execute(ctx, tc, action, params)
		}

		record := conversation.ToolResultRecord{
			CallID:  call.ID,
			Action:  action,
			Payload: map[string]interface{}(result),
			IsError: result.IsError(),
			Error:   result.ErrorMessage(),
		}
		r.msg.ToolCalls = append(r.msg.ToolCalls, conversation.ToolCallRecord{
			CallID: call.ID,
			Action: action,
			Params: params,
		})

		notice := conversation.NewToolNoticeMessage(newPublicID("msg"), r.conv.ID, record, time.Now())
		notice.AgentID = r.gen.AgentID
		if r.actingAgent != nil {
			notice.AuthorName = r.actingAgent.Name
		}
		if err := o.messages.Create(ctx, notice); err != nil {
			o.log.Error().Err(err).Str("action", action).Msg("Failed to persist tool notice")
		}

		history = append(history, llm.ChatMessage{
			Role:    "system",
			Content: fmt.Sprintf("tool %s result: %v", action, map[string]interface{}(result)),
		})
	}

	o.events.Publish(event.Event{
		Key:    event.Key{Type: event.EntityConversation, ID: r.conv.PublicID},
		Action: event.ActionReload,
	})
	return history
}

// finalize flushes remaining text, applies repair, records usage and moves
// the generation to completed.
func (o *Orchestrator) finalize(ctx context.Context, r *run) error {
	if s, err := r.gen.Status.TransitionTo(status.StatusFinalizing); err == nil {
		r.gen.Status = s
		if err := o.generations.Update(ctx, r.gen); err != nil {
			o.log.Error().Err(err).Msg("Failed to persist finalizing status")
		}
	}

	o.forceFlush(ctx, r)

	if r.usage.TotalTokens == 0 {
		r.usage.CompletionTokens = llm.EstimateTokenCount(r.msg.Content)
		r.usage.TotalTokens = r.usage.PromptTokens + r.usage.CompletionTokens
	}
	r.msg.InputTokens = r.usage.PromptTokens
	r.msg.OutputTokens = r.usage.CompletionTokens
	r.msg.Streaming = false
	if err := o.messages.Update(ctx, r.msg); err != nil {
		return fmt.Errorf("failed to finalize message: %w", err)
	}

	tc := tool.CallContext{Conversation: r.conv, ActingAgent: r.actingAgent}
	if _, err := o.repairer.Repair(ctx, tc, r.msg); err != nil {
		// The message is already finalized and readable; repair failing
		// is logged, not fatal.
		o.log.Error().Err(err).Str("message_id", r.msg.PublicID).Msg("Repair failed")
	}

	if err := o.billing.Consume(ctx, r.gen.TenantID, r.usage.TotalTokens); err != nil {
		o.log.Warn().Err(err).Str("tenant_id", r.gen.TenantID).Msg("Failed to report token consumption")
	}

	now := time.Now()
	r.gen.CompletedAt = &now
	if s, err := r.gen.Status.TransitionTo(status.StatusCompleted); err == nil {
		r.gen.Status = s
	}
	if err := o.generations.Update(ctx, r.gen); err != nil {
		return fmt.Errorf("failed to complete generation: %w", err)
	}

	if err := o.conversations.Touch(ctx, r.conv.ID); err != nil {
		o.log.Warn().Err(err).Msg("Failed to touch conversation")
	}

	o.events.Publish(event.Event{
		Key:    event.Key{Type: event.EntityMessage, ID: r.msg.PublicID},
		Action: event.ActionReload,
	})
	o.events.Publish(event.Event{
		Key:    event.Key{Type: event.EntityConversation, ID: r.conv.PublicID},
		Action: event.ActionReload,
	})
	o.audit.Record(ctx, r.gen.TenantID, "generation.completed", r.gen.PublicID, map[string]interface{}{
		"conversation_id": r.conv.PublicID,
		"message_id":      r.msg.PublicID,
		"total_tokens":    r.usage.TotalTokens,
	})

	o.log.Info().
		Str("generation_id", r.gen.PublicID).
		Str("message_id", r.msg.PublicID).
		Int("total_tokens", r.usage.TotalTokens).
		Msg("Generation completed")
	return nil
}

// fail records a terminal failure. Partial text survives; a message that
// never received any text is removed so the transcript carries no empty
// husk. Subscribers get an ephemeral error event that is never persisted.
func (o *Orchestrator) fail(ctx context.Context, r *run, severity status.ErrorSeverity, code, message string) error {
	o.forceFlush(ctx, r)

	quotaFailure := code == "insufficient_credits"
	if r.msg != nil {
		if r.msg.Content == "" && !quotaFailure {
			if err := o.messages.Delete(ctx, r.msg.ID); err != nil {
				o.log.Error().Err(err).Str("message_id", r.msg.PublicID).Msg("Failed to remove empty message")
			}
			r.msg = nil
		} else {
			r.msg.Streaming = false
			if err := o.messages.Update(ctx, r.msg); err != nil {
				o.log.Error().Err(err).Str("message_id", r.msg.PublicID).Msg("Failed to finalize partial message")
			}
		}
	}

	// Any failure that leaves partial text behind also leaves an explicit
	// notice; the error event alone is ephemeral and a later reader would
	// otherwise mistake the fragment for a finished answer.
	if r.msg != nil {
		reason := strings.ReplaceAll(code, "_", " ")
		record := conversation.ToolResultRecord{
			Action:  "generation_interrupted",
			IsError: true,
			Error:   fmt.Sprintf("generation interrupted: %s", reason),
		}
		notice := conversation.NewToolNoticeMessage(newPublicID("msg"), r.conv.ID, record, time.Now())
		if err := o.messages.Create(ctx, notice); err != nil {
			o.log.Error().Err(err).Msg("Failed to persist interruption notice")
		}
	}

	now := time.Now()
	r.gen.FailedAt = &now
	r.gen.Error = &ErrorDetails{Code: code, Message: message, Severity: severity}
	r.gen.Status = status.StatusFailed
	if err := o.generations.Update(ctx, r.gen); err != nil {
		return fmt.Errorf("failed to record generation failure: %w", err)
	}

	o.events.Publish(event.Event{
		Key:    event.Key{Type: event.EntityConversation, ID: r.conv.PublicID},
		Action: event.ActionError,
		Data:   map[string]interface{}{"code": code, "message": message},
	})
	o.audit.Record(ctx, r.gen.TenantID, "generation.failed", r.gen.PublicID, map[string]interface{}{
		"conversation_id": r.conv.PublicID,
		"code":            code,
	})

	o.log.Warn().
		Str("generation_id", r.gen.PublicID).
		Str("code", code).
		Str("severity", severity.String()).
		Msg("Generation failed")
	return nil
}

// ensureClosed is the last line of defense: whatever path Run took, no
// message is left flagged as streaming and no buffered text is lost.
func (o *Orchestrator) ensureClosed(ctx context.Context, r *run) {
	if r.msg == nil {
		return
	}
	o.forceFlush(ctx, r)
	if !r.msg.Streaming {
		return
	}
	r.msg.Streaming = false
	if err := o.messages.Update(ctx, r.msg); err != nil {
		o.log.Error().Err(err).Str("message_id", r.msg.PublicID).Msg("Failed to clear streaming flag")
	}
	o.events.Publish(event.Event{
		Key:    event.Key{Type: event.EntityMessage, ID: r.msg.PublicID},
		Action: event.ActionReload,
	})
}

func (o *Orchestrator) forceFlush(ctx context.Context, r *run) {
	if r.msg == nil {
		return
	}
	if delta, ok := r.contentBuf.ForceFlush(); ok {
		o.persistDelta(ctx, r, "content", delta)
	}
	if delta, ok := r.reasonBuf.ForceFlush(); ok {
		o.persistDelta(ctx, r, "reasoning", delta)
	}
}

// classifyFailure maps an error to its severity and a stable code.
func classifyFailure(err error) (status.ErrorSeverity, string) {
	switch {
	case llm.IsTransient(err):
		return status.ErrorSeverityRetryable, "provider_unavailable"
	case errors.Is(err, llm.ErrModelNotFound):
		return status.ErrorSeverityRefresh, "model_not_found"
	case errors.Is(err, ErrInsufficientCredits):
		return status.ErrorSeverityFatal, "insufficient_credits"
	case errors.Is(err, context.DeadlineExceeded):
		return status.ErrorSeverityRetryable, "timeout"
	default:
		return status.ErrorSeverityFatal, "provider_error"
	}
}

func appendReasoning(msg *conversation.Message, delta string) {
	if msg.Reasoning == nil {
		msg.Reasoning = &delta
		return
	}
	combined := *msg.Reasoning + delta
	msg.Reasoning = &combined
}

func newPublicID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(uuid.New().String(), "-", ""))
}
