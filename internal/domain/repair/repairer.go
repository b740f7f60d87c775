package repair

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"parley/conversation-api/internal/domain/conversation"
	"parley/conversation-api/internal/domain/event"
	"parley/conversation-api/internal/domain/tool"
	"parley/conversation-api/internal/infrastructure/metrics"
)

// Repairer rewrites assistant messages whose content begins with tool-call
// payloads the model emitted as prose. Recovered calls are executed for
// real; the transcript rewrite (synthetic tool notices plus the trimmed
// original) is applied in one transaction so readers never observe a
// half-repaired message.
type Repairer struct {
	dispatcher *tool.Dispatcher
	messages   conversation.MessageRepository
	events     event.Publisher
	log        zerolog.Logger
}

func NewRepairer(dispatcher *tool.Dispatcher, messages conversation.MessageRepository, events event.Publisher) *Repairer {
	return &Repairer{
		dispatcher: dispatcher,
		messages:   messages,
		events:     events,
		log:        log.With().Str("component", "repairer").Logger(),
	}
}

// Repair inspects a finalized assistant message and, when it recognizes
// hallucinated tool payloads at the front of the content, executes them and
// rewrites the message. Returns whether a repair was applied. A payload the
// shape table cannot identify aborts the whole repair and leaves the
// message byte-for-byte intact.
func (r *Repairer) Repair(ctx context.Context, tc tool.CallContext, msg *conversation.Message) (bool, error) {
	payloads, rest, found := extractLeadingObjects(msg.Content)
	if !found {
		return false, nil
	}

	calls := make([]inferredCall, 0, len(payloads))
	for _, payload := range payloads {
		call, ok := inferCall(payload)
		if !ok {
			r.log.Debug().
				Str("message_id", msg.PublicID).
				Msg("Unrecognized payload shape, leaving message untouched")
			return false, nil
		}
		calls = append(calls, call)
	}

	// Execute first, persist after: side effects are real tool calls, and
	// the transcript rewrite only happens once results are known.
	inserted := make([]conversation.Message, 0, len(calls))
	for i, call := range calls {
		result := r.dispatcher.Execute(ctx, tc, call.Action, call.Params)
		record := conversation.ToolResultRecord{
			Action:  call.Action,
			Payload: map[string]interface{}(result),
			IsError: result.IsError(),
			Error:   result.ErrorMessage(),
		}
		// Synthetic notices sort strictly before the repaired message and
		// keep the order the payloads appeared in.
		at := msg.CreatedAt.Add(-time.Duration(len(calls)-i) * time.Millisecond)
		notice := conversation.NewToolNoticeMessage(newPublicID("msg"), msg.ConversationID, record, at)
		notice.AuthorName = msg.AuthorName
		notice.AgentID = msg.AgentID
		inserted = append(inserted, *notice)
	}

	if err := r.messages.ReplaceWithRepair(ctx, msg, inserted, rest); err != nil {
		return false, fmt.Errorf("failed to persist repair: %w", err)
	}
	msg.Content = rest
	metrics.RepairsTotal.Inc()

	r.events.Publish(event.Event{
		Key:    event.Key{Type: event.EntityConversation, ID: tc.Conversation.PublicID},
		Action: event.ActionReload,
	})
	r.log.Info().
		Str("message_id", msg.PublicID).
		Int("recovered_calls", len(calls)).
		Msg("Repaired hallucinated tool calls")
	return true, nil
}

func newPublicID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(uuid.New().String(), "-", ""))
}
