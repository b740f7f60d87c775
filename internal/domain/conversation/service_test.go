package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"parley/conversation-api/internal/domain/conversation"
	"parley/conversation-api/internal/domain/event"
)

// mockConversationRepository implements conversation.Repository with
// function fields.
type mockConversationRepository struct {
	CreateFunc            func(ctx context.Context, conv *conversation.Conversation) error
	FindByPublicIDFunc    func(ctx context.Context, publicID string) (*conversation.Conversation, error)
	FindByIDFunc          func(ctx context.Context, id uint) (*conversation.Conversation, error)
	UpdateStatusFunc      func(ctx context.Context, id uint, status conversation.Status) error
	SetActiveDocumentFunc func(ctx context.Context, id uint, documentID *uint) error
	TouchFunc             func(ctx context.Context, id uint) error
}

func (m *mockConversationRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, conv)
	}
	return nil
}

func (m *mockConversationRepository) FindByPublicID(ctx context.Context, publicID string) (*conversation.Conversation, error) {
	if m.FindByPublicIDFunc != nil {
		return m.FindByPublicIDFunc(ctx, publicID)
	}
	return nil, conversation.ErrConversationNotFound
}

func (m *mockConversationRepository) FindByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, conversation.ErrConversationNotFound
}

func (m *mockConversationRepository) UpdateStatus(ctx context.Context, id uint, status conversation.Status) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockConversationRepository) SetActiveDocument(ctx context.Context, id uint, documentID *uint) error {
	if m.SetActiveDocumentFunc != nil {
		return m.SetActiveDocumentFunc(ctx, id, documentID)
	}
	return nil
}

func (m *mockConversationRepository) Touch(ctx context.Context, id uint) error {
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, id)
	}
	return nil
}

// mockMessageRepository implements conversation.MessageRepository with
// function fields.
type mockMessageRepository struct {
	CreateFunc            func(ctx context.Context, msg *conversation.Message) error
	UpdateFunc            func(ctx context.Context, msg *conversation.Message) error
	DeleteFunc            func(ctx context.Context, id uint) error
	FindByPublicIDFunc    func(ctx context.Context, publicID string) (*conversation.Message, error)
	LatestFunc            func(ctx context.Context, conversationID uint) (*conversation.Message, error)
	WindowBeforeFunc      func(ctx context.Context, conversationID uint, beforeCursor string, limit int) ([]conversation.Message, bool, error)
	TotalTokensFunc       func(ctx context.Context, conversationID uint) (int64, error)
	AppendContentFunc     func(ctx context.Context, id uint, delta string) error
	AppendReasoningFunc   func(ctx context.Context, id uint, delta string) error
	ReplaceWithRepairFunc func(ctx context.Context, msg *conversation.Message, inserted []conversation.Message, newContent string) error
}

func (m *mockMessageRepository) Create(ctx context.Context, msg *conversation.Message) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, msg)
	}
	return nil
}

func (m *mockMessageRepository) Update(ctx context.Context, msg *conversation.Message) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, msg)
	}
	return nil
}

func (m *mockMessageRepository) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockMessageRepository) FindByPublicID(ctx context.Context, publicID string) (*conversation.Message, error) {
	if m.FindByPublicIDFunc != nil {
		return m.FindByPublicIDFunc(ctx, publicID)
	}
	return nil, conversation.ErrMessageNotFound
}

func (m *mockMessageRepository) Latest(ctx context.Context, conversationID uint) (*conversation.Message, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, conversationID)
	}
	return nil, nil
}

func (m *mockMessageRepository) WindowBefore(ctx context.Context, conversationID uint, beforeCursor string, limit int) ([]conversation.Message, bool, error) {
	if m.WindowBeforeFunc != nil {
		return m.WindowBeforeFunc(ctx, conversationID, beforeCursor, limit)
	}
	return nil, false, nil
}

func (m *mockMessageRepository) TotalTokens(ctx context.Context, conversationID uint) (int64, error) {
	if m.TotalTokensFunc != nil {
		return m.TotalTokensFunc(ctx, conversationID)
	}
	return 0, nil
}

func (m *mockMessageRepository) AppendContent(ctx context.Context, id uint, delta string) error {
	if m.AppendContentFunc != nil {
		return m.AppendContentFunc(ctx, id, delta)
	}
	return nil
}

func (m *mockMessageRepository) AppendReasoning(ctx context.Context, id uint, delta string) error {
	if m.AppendReasoningFunc != nil {
		return m.AppendReasoningFunc(ctx, id, delta)
	}
	return nil
}

func (m *mockMessageRepository) ReplaceWithRepair(ctx context.Context, msg *conversation.Message, inserted []conversation.Message, newContent string) error {
	if m.ReplaceWithRepairFunc != nil {
		return m.ReplaceWithRepairFunc(ctx, msg, inserted, newContent)
	}
	return nil
}

type recordingPublisher struct {
	events []event.Event
}

func (p *recordingPublisher) Publish(evt event.Event) {
	p.events = append(p.events, evt)
}

func activeConversation() *conversation.Conversation {
	return &conversation.Conversation{
		ID:       1,
		PublicID: "conv_active",
		TenantID: "tenant",
		Mode:     conversation.ModeSingleAgent,
		Status:   conversation.StatusActive,
	}
}

// transcript builds n messages with strictly increasing (created_at, id).
func transcript(n int) []conversation.Message {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	messages := make([]conversation.Message, n)
	for i := range messages {
		messages[i] = conversation.Message{
			ID:             uint(i + 1),
			ConversationID: 1,
			PublicID:       fmt.Sprintf("msg_%03d", i+1),
			Role:           conversation.RoleUser,
			Content:        fmt.Sprintf("message %d", i+1),
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}
	}
	return messages
}

// pageBefore emulates keyset pagination over an in-memory transcript.
func pageBefore(all []conversation.Message, beforeCursor string, limit int) ([]conversation.Message, bool) {
	end := len(all)
	if beforeCursor != "" {
		for i, msg := range all {
			if msg.PublicID == beforeCursor {
				end = i
				break
			}
		}
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	return all[start:end], start > 0
}

func newWindowService(all []conversation.Message, tokens int64) (*recordingPublisher, conversation.Service) {
	conversations := &mockConversationRepository{
		FindByPublicIDFunc: func(ctx context.Context, publicID string) (*conversation.Conversation, error) {
			return activeConversation(), nil
		},
	}
	messages := &mockMessageRepository{
		WindowBeforeFunc: func(ctx context.Context, conversationID uint, beforeCursor string, limit int) ([]conversation.Message, bool, error) {
			page, hasMore := pageBefore(all, beforeCursor, limit)
			return page, hasMore, nil
		},
		TotalTokensFunc: func(ctx context.Context, conversationID uint) (int64, error) {
			return tokens, nil
		},
	}
	publisher := &recordingPublisher{}
	return publisher, conversation.NewService(conversations, messages, publisher, zerolog.Nop())
}

func TestService_WindowPagination(t *testing.T) {
	all := transcript(45)
	_, svc := newWindowService(all, 100)

	// First page: the newest 30 messages, oldest first.
	page1, err := svc.Window(context.Background(), "tenant", "conv_active", "", 30)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(page1.Messages) != 30 {
		t.Fatalf("page1 size = %d, want 30", len(page1.Messages))
	}
	if page1.Messages[0].PublicID != "msg_016" || page1.Messages[29].PublicID != "msg_045" {
		t.Errorf("page1 spans %s..%s, want msg_016..msg_045", page1.Messages[0].PublicID, page1.Messages[29].PublicID)
	}
	if !page1.HasMore {
		t.Error("page1 should report more history")
	}
	if page1.OldestCursor != "msg_016" {
		t.Errorf("page1 cursor = %q, want msg_016", page1.OldestCursor)
	}

	// Second page: everything older than the cursor.
	page2, err := svc.Window(context.Background(), "tenant", "conv_active", page1.OldestCursor, 30)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(page2.Messages) != 15 {
		t.Fatalf("page2 size = %d, want 15", len(page2.Messages))
	}
	if page2.Messages[0].PublicID != "msg_001" || page2.Messages[14].PublicID != "msg_015" {
		t.Errorf("page2 spans %s..%s, want msg_001..msg_015", page2.Messages[0].PublicID, page2.Messages[14].PublicID)
	}
	if page2.HasMore {
		t.Error("page2 should be the end of history")
	}
}

func TestService_WindowEmptyConversation(t *testing.T) {
	_, svc := newWindowService(nil, 0)

	window, err := svc.Window(context.Background(), "tenant", "conv_active", "", 30)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(window.Messages) != 0 || window.HasMore || window.OldestCursor != "" {
		t.Errorf("unexpected window for empty conversation: %+v", window)
	}
}

func TestService_WindowLongWarning(t *testing.T) {
	all := transcript(3)

	_, svc := newWindowService(all, conversation.TokenWarningThreshold)
	window, err := svc.Window(context.Background(), "tenant", "conv_active", "", 30)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if !window.LongWarning {
		t.Error("expected long warning at the threshold")
	}

	_, svc = newWindowService(all, conversation.TokenWarningThreshold-1)
	window, err = svc.Window(context.Background(), "tenant", "conv_active", "", 30)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if window.LongWarning {
		t.Error("no warning expected below the threshold")
	}
}

func TestService_AppendUserMessage(t *testing.T) {
	var created *conversation.Message
	conversations := &mockConversationRepository{
		FindByPublicIDFunc: func(ctx context.Context, publicID string) (*conversation.Conversation, error) {
			return activeConversation(), nil
		},
	}
	messages := &mockMessageRepository{
		CreateFunc: func(ctx context.Context, msg *conversation.Message) error {
			created = msg
			return nil
		},
	}
	publisher := &recordingPublisher{}
	svc := conversation.NewService(conversations, messages, publisher, zerolog.Nop())

	_, msg, err := svc.AppendUserMessage(context.Background(), "tenant", "conv_active", "dana", "hello")
	if err != nil {
		t.Fatalf("AppendUserMessage: %v", err)
	}
	if created == nil {
		t.Fatal("message was not persisted")
	}
	if msg.Role != conversation.RoleUser || msg.Content != "hello" || msg.AuthorName != "dana" {
		t.Errorf("unexpected message %+v", msg)
	}
	if !strings.HasPrefix(msg.PublicID, "msg_") {
		t.Errorf("public id = %q, want msg_ prefix", msg.PublicID)
	}
	if len(publisher.events) != 1 || publisher.events[0].Action != event.ActionReload {
		t.Errorf("expected one reload event, got %+v", publisher.events)
	}
}

func TestService_AppendUserMessageRejectsInactive(t *testing.T) {
	for _, status := range []conversation.Status{conversation.StatusArchived, conversation.StatusDeleted} {
		conversations := &mockConversationRepository{
			FindByPublicIDFunc: func(ctx context.Context, publicID string) (*conversation.Conversation, error) {
				conv := activeConversation()
				conv.Status = status
				return conv, nil
			},
		}
		messages := &mockMessageRepository{
			CreateFunc: func(ctx context.Context, msg *conversation.Message) error {
				t.Errorf("no message should be created on a %s conversation", status)
				return nil
			},
		}
		svc := conversation.NewService(conversations, messages, &recordingPublisher{}, zerolog.Nop())

		_, _, err := svc.AppendUserMessage(context.Background(), "tenant", "conv_active", "dana", "hello")
		if !errors.Is(err, conversation.ErrConversationNotActive) {
			t.Errorf("status %s: err = %v, want ErrConversationNotActive", status, err)
		}
	}
}

func TestService_ArchiveStaysReadable(t *testing.T) {
	var updatedTo conversation.Status
	conversations := &mockConversationRepository{
		FindByPublicIDFunc: func(ctx context.Context, publicID string) (*conversation.Conversation, error) {
			return activeConversation(), nil
		},
		UpdateStatusFunc: func(ctx context.Context, id uint, status conversation.Status) error {
			updatedTo = status
			return nil
		},
	}
	publisher := &recordingPublisher{}
	svc := conversation.NewService(conversations, &mockMessageRepository{}, publisher, zerolog.Nop())

	if err := svc.Archive(context.Background(), "tenant", "conv_active"); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if updatedTo != conversation.StatusArchived {
		t.Errorf("status = %q, want archived", updatedTo)
	}
	if len(publisher.events) != 1 {
		t.Errorf("expected a reload event after archive")
	}
}

func TestService_OtherTenantConversationIsNotFound(t *testing.T) {
	conversations := &mockConversationRepository{
		FindByPublicIDFunc: func(ctx context.Context, publicID string) (*conversation.Conversation, error) {
			return activeConversation(), nil
		},
		UpdateStatusFunc: func(ctx context.Context, id uint, status conversation.Status) error {
			t.Error("cross-tenant archive must not update the row")
			return nil
		},
	}
	messages := &mockMessageRepository{
		CreateFunc: func(ctx context.Context, msg *conversation.Message) error {
			t.Error("cross-tenant append must not create a message")
			return nil
		},
	}
	svc := conversation.NewService(conversations, messages, &recordingPublisher{}, zerolog.Nop())

	if _, err := svc.GetByPublicID(context.Background(), "intruder", "conv_active"); !errors.Is(err, conversation.ErrConversationNotFound) {
		t.Errorf("Get err = %v, want ErrConversationNotFound", err)
	}
	if _, err := svc.Window(context.Background(), "intruder", "conv_active", "", 30); !errors.Is(err, conversation.ErrConversationNotFound) {
		t.Errorf("Window err = %v, want ErrConversationNotFound", err)
	}
	if err := svc.Archive(context.Background(), "intruder", "conv_active"); !errors.Is(err, conversation.ErrConversationNotFound) {
		t.Errorf("Archive err = %v, want ErrConversationNotFound", err)
	}
	if _, _, err := svc.AppendUserMessage(context.Background(), "intruder", "conv_active", "dana", "hi"); !errors.Is(err, conversation.ErrConversationNotFound) {
		t.Errorf("Append err = %v, want ErrConversationNotFound", err)
	}
}
