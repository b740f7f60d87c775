package document

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrDocumentNotFound indicates the document does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// SharedDocument is a collaboratively edited artifact (e.g. a board). Writes
// use optimistic concurrency: a writer presents the revision it read, and a
// stale revision is rejected, never silently overwritten.
type SharedDocument struct {
	ID             uint      `json:"-"`
	PublicID       string    `json:"id"`
	TenantID       string    `json:"-"`
	ConversationID *uint     `json:"-"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Revision       int       `json:"revision"`
	LastEditorKind string    `json:"last_editor_kind,omitempty"`
	LastEditorName string    `json:"last_editor_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Editor kinds recorded on the last write.
const (
	EditorUser  = "user"
	EditorAgent = "agent"
)

// NewSharedDocument builds a document at revision 1 owned by the tenant and
// optionally attached to a conversation.
func NewSharedDocument(publicID, tenantID string, conversationID *uint, title, content, editorKind, editorName string) *SharedDocument {
	now := time.Now()
	return &SharedDocument{
		PublicID:       publicID,
		TenantID:       tenantID,
		ConversationID: conversationID,
		Title:          title,
		Content:        content,
		Revision:       1,
		LastEditorKind: editorKind,
		LastEditorName: editorName,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ConflictError signals a stale-revision write. Callers must re-read and
// retry; there is no last-writer-wins path.
type ConflictError struct {
	PublicID        string
	SubmittedRev    int
	CurrentRevision int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("document %s revision conflict: submitted %d, current %d",
		e.PublicID, e.SubmittedRev, e.CurrentRevision)
}

// Repository persists shared documents.
type Repository interface {
	Create(ctx context.Context, doc *SharedDocument) error
	FindByPublicID(ctx context.Context, publicID string) (*SharedDocument, error)
	FindByID(ctx context.Context, id uint) (*SharedDocument, error)
	// UpdateContent applies the write only when the stored revision still
	// equals baseRevision, advancing it by one. A stale base returns
	// *ConflictError.
	UpdateContent(ctx context.Context, publicID string, baseRevision int, content, editorKind, editorName string) (*SharedDocument, error)
}
