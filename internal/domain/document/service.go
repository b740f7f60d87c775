package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"parley/conversation-api/internal/domain/conversation"
	"parley/conversation-api/internal/domain/event"
)

// Service exposes shared document operations to the transport layer.
type Service interface {
	Create(ctx context.Context, tenantID string, conversationPublicID *string, title, content, editorName string) (*SharedDocument, error)
	GetByPublicID(ctx context.Context, tenantID, publicID string) (*SharedDocument, error)
	// UpdateContent applies an edit based on the revision the editor read.
	// A stale base surfaces as *ConflictError.
	UpdateContent(ctx context.Context, tenantID, publicID string, baseRevision int, content, editorKind, editorName string) (*SharedDocument, error)
}

type ServiceImpl struct {
	documents     Repository
	conversations conversation.Repository
	events        event.Publisher
	log           zerolog.Logger
}

func NewService(documents Repository, conversations conversation.Repository, events event.Publisher) *ServiceImpl {
	return &ServiceImpl{
		documents:     documents,
		conversations: conversations,
		events:        events,
		log:           log.With().Str("component", "document_service").Logger(),
	}
}

func (s *ServiceImpl) Create(ctx context.Context, tenantID string, conversationPublicID *string, title, content, editorName string) (*SharedDocument, error) {
	var conversationID *uint
	if conversationPublicID != nil {
		conv, err := s.conversations.FindByPublicID(ctx, *conversationPublicID)
		if err != nil {
			return nil, fmt.Errorf("resolve conversation: %w", err)
		}
		if conv.TenantID != tenantID {
			return nil, conversation.ErrConversationNotFound
		}
		conversationID = &conv.ID
	}

	doc := NewSharedDocument(newPublicID("doc"), tenantID, conversationID, title, content, EditorUser, editorName)
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	if conversationID != nil {
		if err := s.conversations.SetActiveDocument(ctx, *conversationID, &doc.ID); err != nil {
			return nil, fmt.Errorf("attach document: %w", err)
		}
	}

	s.log.Info().Str("document_id", doc.PublicID).Msg("Document created")
	return doc, nil
}

// GetByPublicID returns the tenant's document; another tenant's document
// is reported as missing.
func (s *ServiceImpl) GetByPublicID(ctx context.Context, tenantID, publicID string) (*SharedDocument, error) {
	return s.findOwned(ctx, tenantID, publicID)
}

func (s *ServiceImpl) findOwned(ctx context.Context, tenantID, publicID string) (*SharedDocument, error) {
	doc, err := s.documents.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if doc.TenantID != tenantID {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func (s *ServiceImpl) UpdateContent(ctx context.Context, tenantID, publicID string, baseRevision int, content, editorKind, editorName string) (*SharedDocument, error) {
	if _, err := s.findOwned(ctx, tenantID, publicID); err != nil {
		return nil, err
	}
	doc, err := s.documents.UpdateContent(ctx, publicID, baseRevision, content, editorKind, editorName)
	if err != nil {
		return nil, err
	}

	s.events.Publish(event.Event{
		Key:    event.Key{Type: event.EntityDocument, ID: doc.PublicID},
		Action: event.ActionReload,
	})
	return doc, nil
}

func newPublicID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(uuid.New().String(), "-", ""))
}

var _ Service = (*ServiceImpl)(nil)
