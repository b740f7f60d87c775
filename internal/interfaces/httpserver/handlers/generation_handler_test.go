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

	"parley/conversation-api/internal/domain/generation"
	"parley/conversation-api/internal/domain/status"
	"parley/conversation-api/internal/interfaces/httpserver/handlers"
)

// MockGenerationService is a mock implementation of generation.Service.
type MockGenerationService struct {
	RequestFunc           func(ctx context.Context, tenantID, conversationPublicID, agentPublicID string) (*generation.Generation, error)
	RetryFunc             func(ctx context.Context, tenantID, generationPublicID string) (*generation.Generation, error)
	GetByPublicIDFunc     func(ctx context.Context, tenantID, publicID string) (*generation.Generation, error)
	ExecuteBackgroundFunc func(ctx context.Context, publicID string) error
}

func (m *MockGenerationService) Request(ctx context.Context, tenantID, conversationPublicID, agentPublicID string) (*generation.Generation, error) {
	if m.RequestFunc != nil {
		return m.RequestFunc(ctx, tenantID, conversationPublicID, agentPublicID)
	}
	return nil, nil
}

func (m *MockGenerationService) Retry(ctx context.Context, tenantID, generationPublicID string) (*generation.Generation, error) {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, tenantID, generationPublicID)
	}
	return nil, nil
}

func (m *MockGenerationService) GetByPublicID(ctx context.Context, tenantID, publicID string) (*generation.Generation, error) {
	if m.GetByPublicIDFunc != nil {
		return m.GetByPublicIDFunc(ctx, tenantID, publicID)
	}
	return nil, nil
}

func (m *MockGenerationService) ExecuteBackground(ctx context.Context, publicID string) error {
	if m.ExecuteBackgroundFunc != nil {
		return m.ExecuteBackgroundFunc(ctx, publicID)
	}
	return nil
}

func setupGenerationTestRouter(handler *handlers.GenerationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v1 := r.Group("/v1")
	{
		v1.POST("/conversations/:conversation_id/generations", handler.Create)
		v1.GET("/generations/:generation_id", handler.Get)
		v1.POST("/generations/:generation_id/retry", handler.Retry)
	}
	return r
}

func TestGenerationHandler_Create(t *testing.T) {
	mockService := &MockGenerationService{
		RequestFunc: func(ctx context.Context, tenantID, conversationPublicID, agentPublicID string) (*generation.Generation, error) {
			if conversationPublicID != "conv_abc" {
				t.Errorf("Expected conversation 'conv_abc', got %q", conversationPublicID)
			}
			if agentPublicID != "agent_scribe" {
				t.Errorf("Expected agent 'agent_scribe', got %q", agentPublicID)
			}
			return &generation.Generation{
				PublicID: "gen_123",
				Model:    "swift-9",
				Status:   status.StatusPending,
				QueuedAt: time.Now(),
			}, nil
		},
	}

	handler := handlers.NewGenerationHandler(mockService, zerolog.Nop())
	router := setupGenerationTestRouter(handler)

	body := bytes.NewBufferString(`{"agent_id": "agent_scribe"}`)
	req, _ := http.NewRequest("POST", "/v1/conversations/conv_abc/generations", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["id"] != "gen_123" {
		t.Errorf("Expected generation id 'gen_123', got %v", response["id"])
	}
	if response["status"] != "pending" {
		t.Errorf("Expected status 'pending', got %v", response["status"])
	}
}

func TestGenerationHandler_CreateMissingAgent(t *testing.T) {
	mockService := &MockGenerationService{
		RequestFunc: func(ctx context.Context, tenantID, conversationPublicID, agentPublicID string) (*generation.Generation, error) {
			t.Error("service should not be called for an invalid payload")
			return nil, nil
		},
	}

	handler := handlers.NewGenerationHandler(mockService, zerolog.Nop())
	router := setupGenerationTestRouter(handler)

	body := bytes.NewBufferString(`{}`)
	req, _ := http.NewRequest("POST", "/v1/conversations/conv_abc/generations", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestGenerationHandler_CreateConcurrentConflict(t *testing.T) {
	mockService := &MockGenerationService{
		RequestFunc: func(ctx context.Context, tenantID, conversationPublicID, agentPublicID string) (*generation.Generation, error) {
			return nil, generation.ErrGenerationInProgress
		},
	}

	handler := handlers.NewGenerationHandler(mockService, zerolog.Nop())
	router := setupGenerationTestRouter(handler)

	body := bytes.NewBufferString(`{"agent_id": "agent_scribe"}`)
	req, _ := http.NewRequest("POST", "/v1/conversations/conv_abc/generations", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestGenerationHandler_CreateInsufficientCredits(t *testing.T) {
	mockService := &MockGenerationService{
		RequestFunc: func(ctx context.Context, tenantID, conversationPublicID, agentPublicID string) (*generation.Generation, error) {
			return nil, generation.ErrInsufficientCredits
		},
	}

	handler := handlers.NewGenerationHandler(mockService, zerolog.Nop())
	router := setupGenerationTestRouter(handler)

	body := bytes.NewBufferString(`{"agent_id": "agent_scribe"}`)
	req, _ := http.NewRequest("POST", "/v1/conversations/conv_abc/generations", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusPaymentRequired {
		t.Errorf("Expected status 402, got %d", w.Code)
	}
}

func TestGenerationHandler_Get(t *testing.T) {
	mockService := &MockGenerationService{
		GetByPublicIDFunc: func(ctx context.Context, tenantID, publicID string) (*generation.Generation, error) {
			return &generation.Generation{
				PublicID: publicID,
				Status:   status.StatusFailed,
				Error: &generation.ErrorDetails{
					Code:     "provider_unavailable",
					Message:  "upstream closed the stream",
					Severity: status.ErrorSeverityRetryable,
				},
			}, nil
		},
	}

	handler := handlers.NewGenerationHandler(mockService, zerolog.Nop())
	router := setupGenerationTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/generations/gen_123", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	errDetails, ok := response["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected error details, got %v", response["error"])
	}
	if errDetails["code"] != "provider_unavailable" {
		t.Errorf("Expected code 'provider_unavailable', got %v", errDetails["code"])
	}
}

func TestGenerationHandler_Retry(t *testing.T) {
	mockService := &MockGenerationService{
		RetryFunc: func(ctx context.Context, tenantID, generationPublicID string) (*generation.Generation, error) {
			return &generation.Generation{
				PublicID: "gen_456",
				Status:   status.StatusPending,
				Attempts: 2,
			}, nil
		},
	}

	handler := handlers.NewGenerationHandler(mockService, zerolog.Nop())
	router := setupGenerationTestRouter(handler)

	req, _ := http.NewRequest("POST", "/v1/generations/gen_123/retry", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["id"] != "gen_456" {
		t.Errorf("Expected fresh generation id 'gen_456', got %v", response["id"])
	}
}
