package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parley/conversation-api/internal/domain/conversation"
	"parley/conversation-api/internal/infrastructure/auth"
	"parley/conversation-api/internal/interfaces/httpserver/handlers"
)

// MockConversationService is a mock implementation of conversation.Service.
type MockConversationService struct {
	CreateFunc            func(ctx context.Context, tenantID string, mode conversation.Mode, title *string, metadata map[string]string) (*conversation.Conversation, error)
	GetByPublicIDFunc     func(ctx context.Context, tenantID, publicID string) (*conversation.Conversation, error)
	ArchiveFunc           func(ctx context.Context, tenantID, publicID string) error
	SoftDeleteFunc        func(ctx context.Context, tenantID, publicID string) error
	AppendUserMessageFunc func(ctx context.Context, tenantID, publicID, authorName, content string) (*conversation.Conversation, *conversation.Message, error)
	WindowFunc            func(ctx context.Context, tenantID, publicID, beforeCursor string, limit int) (*conversation.Window, error)
}

func (m *MockConversationService) Create(ctx context.Context, tenantID string, mode conversation.Mode, title *string, metadata map[string]string) (*conversation.Conversation, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tenantID, mode, title, metadata)
	}
	return nil, nil
}

func (m *MockConversationService) GetByPublicID(ctx context.Context, tenantID, publicID string) (*conversation.Conversation, error) {
	if m.GetByPublicIDFunc != nil {
		return m.GetByPublicIDFunc(ctx, tenantID, publicID)
	}
	return nil, nil
}

func (m *MockConversationService) Archive(ctx context.Context, tenantID, publicID string) error {
	if m.ArchiveFunc != nil {
		return m.ArchiveFunc(ctx, tenantID, publicID)
	}
	return nil
}

func (m *MockConversationService) SoftDelete(ctx context.Context, tenantID, publicID string) error {
	if m.SoftDeleteFunc != nil {
		return m.SoftDeleteFunc(ctx, tenantID, publicID)
	}
	return nil
}

func (m *MockConversationService) AppendUserMessage(ctx context.Context, tenantID, publicID, authorName, content string) (*conversation.Conversation, *conversation.Message, error) {
	if m.AppendUserMessageFunc != nil {
		return m.AppendUserMessageFunc(ctx, tenantID, publicID, authorName, content)
	}
	return nil, nil, nil
}

func (m *MockConversationService) Window(ctx context.Context, tenantID, publicID, beforeCursor string, limit int) (*conversation.Window, error) {
	if m.WindowFunc != nil {
		return m.WindowFunc(ctx, tenantID, publicID, beforeCursor, limit)
	}
	return nil, nil
}

func setupConversationTestRouter(handler *handlers.ConversationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.TenantIDKey, "tenant-1")
		c.Next()
	})
	v1 := r.Group("/v1/conversations")
	{
		v1.POST("", handler.Create)
		v1.GET("/:conversation_id", handler.Get)
		v1.POST("/:conversation_id/archive", handler.Archive)
		v1.DELETE("/:conversation_id", handler.Delete)
		v1.POST("/:conversation_id/messages", handler.AppendMessage)
		v1.GET("/:conversation_id/messages", handler.Window)
	}
	return r
}

func TestConversationHandler_Create(t *testing.T) {
	mockService := &MockConversationService{
		CreateFunc: func(ctx context.Context, tenantID string, mode conversation.Mode, title *string, metadata map[string]string) (*conversation.Conversation, error) {
			if tenantID != "tenant-1" {
				t.Errorf("Expected tenant 'tenant-1', got %q", tenantID)
			}
			if mode != conversation.ModeGroupManual {
				t.Errorf("Expected mode group_manual, got %q", mode)
			}
			return &conversation.Conversation{
				PublicID:  "conv_abc",
				TenantID:  tenantID,
				Mode:      mode,
				Title:     title,
				Status:    conversation.StatusActive,
				CreatedAt: time.Now(),
			}, nil
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	body := bytes.NewBufferString(`{"title": "Planning", "mode": "group_manual"}`)
	req, _ := http.NewRequest("POST", "/v1/conversations", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["id"] != "conv_abc" {
		t.Errorf("Expected conversation id 'conv_abc', got %v", response["id"])
	}
	if response["status"] != "active" {
		t.Errorf("Expected status 'active', got %v", response["status"])
	}
}

func TestConversationHandler_GetNotFound(t *testing.T) {
	mockService := &MockConversationService{
		GetByPublicIDFunc: func(ctx context.Context, tenantID, publicID string) (*conversation.Conversation, error) {
			return nil, conversation.ErrConversationNotFound
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/conversations/conv_missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestConversationHandler_Archive(t *testing.T) {
	archived := ""
	mockService := &MockConversationService{
		ArchiveFunc: func(ctx context.Context, tenantID, publicID string) error {
			archived = publicID
			return nil
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	req, _ := http.NewRequest("POST", "/v1/conversations/conv_abc/archive", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if archived != "conv_abc" {
		t.Errorf("Expected Archive('conv_abc'), got %q", archived)
	}
}

func TestConversationHandler_AppendMessage(t *testing.T) {
	mockService := &MockConversationService{
		AppendUserMessageFunc: func(ctx context.Context, tenantID, publicID, authorName, content string) (*conversation.Conversation, *conversation.Message, error) {
			return &conversation.Conversation{PublicID: publicID}, &conversation.Message{
				PublicID:   "msg_1",
				Role:       conversation.RoleUser,
				AuthorKind: conversation.AuthorUser,
				AuthorName: authorName,
				Content:    content,
				CreatedAt:  time.Now(),
			}, nil
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	body := bytes.NewBufferString(`{"author_name": "dana", "content": "hello"}`)
	req, _ := http.NewRequest("POST", "/v1/conversations/conv_abc/messages", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["content"] != "hello" {
		t.Errorf("Expected content 'hello', got %v", response["content"])
	}
}

func TestConversationHandler_AppendMessageValidation(t *testing.T) {
	mockService := &MockConversationService{
		AppendUserMessageFunc: func(ctx context.Context, tenantID, publicID, authorName, content string) (*conversation.Conversation, *conversation.Message, error) {
			t.Error("service should not be called for an invalid payload")
			return nil, nil, nil
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	body := bytes.NewBufferString(`{"author_name": "dana"}`)
	req, _ := http.NewRequest("POST", "/v1/conversations/conv_abc/messages", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestConversationHandler_AppendMessageArchived(t *testing.T) {
	mockService := &MockConversationService{
		AppendUserMessageFunc: func(ctx context.Context, tenantID, publicID, authorName, content string) (*conversation.Conversation, *conversation.Message, error) {
			return nil, nil, conversation.ErrConversationNotActive
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	body := bytes.NewBufferString(`{"content": "hello"}`)
	req, _ := http.NewRequest("POST", "/v1/conversations/conv_abc/messages", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestConversationHandler_Window(t *testing.T) {
	mockService := &MockConversationService{
		WindowFunc: func(ctx context.Context, tenantID, publicID, beforeCursor string, limit int) (*conversation.Window, error) {
			if beforeCursor != "msg_010" {
				t.Errorf("Expected cursor 'msg_010', got %q", beforeCursor)
			}
			if limit != 15 {
				t.Errorf("Expected limit 15, got %d", limit)
			}
			return &conversation.Window{
				Messages:     []conversation.Message{{PublicID: "msg_008"}, {PublicID: "msg_009"}},
				HasMore:      true,
				OldestCursor: "msg_008",
			}, nil
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/conversations/conv_abc/messages?before_cursor=msg_010&limit=15", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["has_more"] != true {
		t.Errorf("Expected has_more true, got %v", response["has_more"])
	}
	if response["oldest_cursor"] != "msg_008" {
		t.Errorf("Expected oldest_cursor 'msg_008', got %v", response["oldest_cursor"])
	}
}

func TestConversationHandler_WindowDefaultLimit(t *testing.T) {
	mockService := &MockConversationService{
		WindowFunc: func(ctx context.Context, tenantID, publicID, beforeCursor string, limit int) (*conversation.Window, error) {
			if limit != 30 {
				t.Errorf("Expected default limit 30, got %d", limit)
			}
			return &conversation.Window{Messages: []conversation.Message{}}, nil
		},
	}

	handler := handlers.NewConversationHandler(mockService, zerolog.Nop())
	router := setupConversationTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/conversations/conv_abc/messages?limit=bogus", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}
