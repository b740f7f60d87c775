package tool

import (
	"context"
	"errors"
	"fmt"

	"parley/conversation-api/internal/domain/conversation"
	"parley/conversation-api/internal/domain/document"
	"parley/conversation-api/internal/domain/event"
)

// DocumentTool lets an agent create and edit the shared documents attached
// to the conversation. Edits go through the revision check, so a concurrent
// human edit surfaces as a corrective error the model can recover from.
type DocumentTool struct {
	documents     document.Repository
	conversations conversation.Repository
	events        event.Publisher
}

func NewDocumentTool(documents document.Repository, conversations conversation.Repository, events event.Publisher) *DocumentTool {
	return &DocumentTool{documents: documents, conversations: conversations, events: events}
}

func (t *DocumentTool) Name() string        { return "document" }
func (t *DocumentTool) Description() string { return "Create, read and edit shared documents" }
func (t *DocumentTool) Actions() []string {
	return []string{"create_document", "read_document", "update_document"}
}
func (t *DocumentTool) RequiresActingAgent() bool { return true }

func (t *DocumentTool) Execute(ctx context.Context, tc CallContext, action string, params map[string]interface{}) Result {
	switch action {
	case "create_document":
		return t.create(ctx, tc, params)
	case "read_document":
		return t.read(ctx, tc, params)
	case "update_document":
		return t.update(ctx, tc, params)
	default:
		return errorResult(fmt.Sprintf("action %q is not a document action", action), t.Actions())
	}
}

func (t *DocumentTool) create(ctx context.Context, tc CallContext, params map[string]interface{}) Result {
	title, err := stringParam(params, "title")
	if err != nil {
		return errorResult(err.Error(), t.Actions())
	}
	content, _ := params["content"].(string)

	convID := tc.Conversation.ID
	doc := document.NewSharedDocument(
		newPublicID("doc"), tc.Conversation.TenantID, &convID,
		title, content, document.EditorAgent, tc.ActingAgent.Name,
	)
	if err := t.documents.Create(ctx, doc); err != nil {
		return errorResult(fmt.Sprintf("failed to create document: %v", err), t.Actions())
	}
	if err := t.conversations.SetActiveDocument(ctx, tc.Conversation.ID, &doc.ID); err != nil {
		return errorResult(fmt.Sprintf("failed to attach document: %v", err), t.Actions())
	}
	t.events.Publish(event.Event{
		Key:    event.Key{Type: event.EntityConversation, ID: tc.Conversation.PublicID},
		Action: event.ActionReload,
	})
	return Result{"type": "document", "document_id": doc.PublicID, "title": doc.Title, "revision": doc.Revision}
}

func (t *DocumentTool) read(ctx context.Context, _ CallContext, params map[string]interface{}) Result {
	publicID, err := stringParam(params, "document_id")
	if err != nil {
		return errorResult(err.Error(), t.Actions())
	}
	doc, err := t.documents.FindByPublicID(ctx, publicID)
	if err != nil {
		return errorResult(fmt.Sprintf("document %q not found", publicID), t.Actions())
	}
	return Result{
		"type":        "document",
		"document_id": doc.PublicID,
		"title":       doc.Title,
		"content":     doc.Content,
		"revision":    doc.Revision,
	}
}

func (t *DocumentTool) update(ctx context.Context, tc CallContext, params map[string]interface{}) Result {
	publicID, err := stringParam(params, "document_id")
	if err != nil {
		return errorResult(err.Error(), t.Actions())
	}
	content, err := stringParam(params, "content")
	if err != nil {
		return errorResult(err.Error(), t.Actions())
	}
	baseRevision := intParam(params, "base_revision", -1)
	if baseRevision < 0 {
		return errorResult(`parameter "base_revision" must be the revision the edit was based on`, t.Actions())
	}

	doc, err := t.documents.UpdateContent(ctx, publicID, baseRevision, content, document.EditorAgent, tc.ActingAgent.Name)
	if err != nil {
		var conflict *document.ConflictError
		if errors.As(err, &conflict) {
			return invalidValueResult(
				fmt.Sprintf("revision conflict: document is at revision %d, re-read before editing", conflict.CurrentRevision),
				t.Actions(),
				[]string{fmt.Sprintf("%d", conflict.CurrentRevision)},
			)
		}
		return errorResult(fmt.Sprintf("failed to update document: %v", err), t.Actions())
	}
	t.events.Publish(event.Event{
		Key:    event.Key{Type: event.EntityDocument, ID: doc.PublicID},
		Action: event.ActionReload,
	})
	return Result{"type": "document", "document_id": doc.PublicID, "revision": doc.Revision}
}

var _ DomainTool = (*DocumentTool)(nil)
