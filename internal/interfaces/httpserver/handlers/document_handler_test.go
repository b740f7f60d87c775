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

	"parley/conversation-api/internal/domain/document"
	"parley/conversation-api/internal/infrastructure/auth"
	"parley/conversation-api/internal/interfaces/httpserver/handlers"
)

// MockDocumentService is a mock implementation of document.Service.
type MockDocumentService struct {
	CreateFunc        func(ctx context.Context, tenantID string, conversationPublicID *string, title, content, editorName string) (*document.SharedDocument, error)
	GetByPublicIDFunc func(ctx context.Context, tenantID, publicID string) (*document.SharedDocument, error)
	UpdateContentFunc func(ctx context.Context, tenantID, publicID string, baseRevision int, content, editorKind, editorName string) (*document.SharedDocument, error)
}

func (m *MockDocumentService) Create(ctx context.Context, tenantID string, conversationPublicID *string, title, content, editorName string) (*document.SharedDocument, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tenantID, conversationPublicID, title, content, editorName)
	}
	return nil, nil
}

func (m *MockDocumentService) GetByPublicID(ctx context.Context, tenantID, publicID string) (*document.SharedDocument, error) {
	if m.GetByPublicIDFunc != nil {
		return m.GetByPublicIDFunc(ctx, tenantID, publicID)
	}
	return nil, nil
}

func (m *MockDocumentService) UpdateContent(ctx context.Context, tenantID, publicID string, baseRevision int, content, editorKind, editorName string) (*document.SharedDocument, error) {
	if m.UpdateContentFunc != nil {
		return m.UpdateContentFunc(ctx, tenantID, publicID, baseRevision, content, editorKind, editorName)
	}
	return nil, nil
}

func setupDocumentTestRouter(handler *handlers.DocumentHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.TenantIDKey, "tenant-1")
		c.Next()
	})
	v1 := r.Group("/v1/documents")
	{
		v1.POST("", handler.Create)
		v1.GET("/:document_id", handler.Get)
		v1.PUT("/:document_id", handler.Update)
	}
	return r
}

func TestDocumentHandler_Create(t *testing.T) {
	mockService := &MockDocumentService{
		CreateFunc: func(ctx context.Context, tenantID string, conversationPublicID *string, title, content, editorName string) (*document.SharedDocument, error) {
			if conversationPublicID == nil || *conversationPublicID != "conv_abc" {
				t.Errorf("Expected conversation 'conv_abc', got %v", conversationPublicID)
			}
			return &document.SharedDocument{
				PublicID:       "doc_1",
				TenantID:       tenantID,
				Title:          title,
				Content:        content,
				Revision:       1,
				LastEditorKind: document.EditorUser,
				LastEditorName: editorName,
				CreatedAt:      time.Now(),
			}, nil
		},
	}

	handler := handlers.NewDocumentHandler(mockService, zerolog.Nop())
	router := setupDocumentTestRouter(handler)

	body := bytes.NewBufferString(`{"conversation_id": "conv_abc", "title": "Notes", "content": "v1", "editor_name": "dana"}`)
	req, _ := http.NewRequest("POST", "/v1/documents", body)
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
	if response["revision"] != 1.0 {
		t.Errorf("Expected revision 1, got %v", response["revision"])
	}
}

func TestDocumentHandler_Update(t *testing.T) {
	mockService := &MockDocumentService{
		UpdateContentFunc: func(ctx context.Context, tenantID, publicID string, baseRevision int, content, editorKind, editorName string) (*document.SharedDocument, error) {
			if baseRevision != 3 {
				t.Errorf("Expected base revision 3, got %d", baseRevision)
			}
			if editorKind != document.EditorUser {
				t.Errorf("Expected editor kind 'user', got %q", editorKind)
			}
			return &document.SharedDocument{
				PublicID: publicID,
				Content:  content,
				Revision: 4,
			}, nil
		},
	}

	handler := handlers.NewDocumentHandler(mockService, zerolog.Nop())
	router := setupDocumentTestRouter(handler)

	body := bytes.NewBufferString(`{"base_revision": 3, "content": "v4", "editor_name": "dana"}`)
	req, _ := http.NewRequest("PUT", "/v1/documents/doc_1", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["revision"] != 4.0 {
		t.Errorf("Expected revision 4, got %v", response["revision"])
	}
}

func TestDocumentHandler_UpdateConflict(t *testing.T) {
	mockService := &MockDocumentService{
		UpdateContentFunc: func(ctx context.Context, tenantID, publicID string, baseRevision int, content, editorKind, editorName string) (*document.SharedDocument, error) {
			return nil, &document.ConflictError{
				PublicID:        publicID,
				SubmittedRev:    baseRevision,
				CurrentRevision: 7,
			}
		},
	}

	handler := handlers.NewDocumentHandler(mockService, zerolog.Nop())
	router := setupDocumentTestRouter(handler)

	body := bytes.NewBufferString(`{"base_revision": 3, "content": "stale edit"}`)
	req, _ := http.NewRequest("PUT", "/v1/documents/doc_1", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["submitted"] != 3.0 {
		t.Errorf("Expected submitted 3, got %v", response["submitted"])
	}
	if response["current_revision"] != 7.0 {
		t.Errorf("Expected current_revision 7, got %v", response["current_revision"])
	}
}

func TestDocumentHandler_GetNotFound(t *testing.T) {
	mockService := &MockDocumentService{
		GetByPublicIDFunc: func(ctx context.Context, tenantID, publicID string) (*document.SharedDocument, error) {
			return nil, document.ErrDocumentNotFound
		},
	}

	handler := handlers.NewDocumentHandler(mockService, zerolog.Nop())
	router := setupDocumentTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/documents/doc_missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
