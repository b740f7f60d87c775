package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parley/conversation-api/internal/domain/conversation"
	"parley/conversation-api/internal/infrastructure/auth"
	"parley/conversation-api/internal/interfaces/httpserver/requests"
	"parley/conversation-api/internal/interfaces/httpserver/responses"
)

const defaultWindowLimit = 30

// ConversationHandler exposes HTTP entrypoints for conversations and their
// transcripts.
type ConversationHandler struct {
	service conversation.Service
	log     zerolog.Logger
}

// NewConversationHandler constructs the handler.
func NewConversationHandler(service conversation.Service, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		log:     log.With().Str("handler", "conversation").Logger(),
	}
}

// Create handles POST /v1/conversations
// @Summary Create a conversation
// @Description Starts a new active conversation for the caller's tenant
// @Tags Conversations
// @Accept json
// @Produce json
// @Param request body requests.CreateConversationRequest true "Conversation payload"
// @Success 201 {object} conversation.Conversation
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /v1/conversations [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	var req requests.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.service.Create(c.Request.Context(), auth.TenantID(c), conversation.Mode(req.Mode), req.Title, req.Metadata)
	if err != nil {
		responses.HandleError(c, err, "failed to create conversation")
		return
	}

	c.JSON(http.StatusCreated, conv)
}

// Get handles GET /v1/conversations/:conversation_id
// @Summary Get conversation by ID
// @Tags Conversations
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Success 200 {object} conversation.Conversation
// @Failure 404 {object} map[string]string
// @Router /v1/conversations/{conversation_id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	conv, err := h.service.GetByPublicID(c.Request.Context(), auth.TenantID(c), c.Param("conversation_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get conversation")
		return
	}

	c.JSON(http.StatusOK, conv)
}

// Archive handles POST /v1/conversations/:conversation_id/archive
// @Summary Archive a conversation
// @Description Archived conversations stay readable but reject new messages
// @Tags Conversations
// @Param conversation_id path string true "Conversation ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string
// @Router /v1/conversations/{conversation_id}/archive [post]
func (h *ConversationHandler) Archive(c *gin.Context) {
	if err := h.service.Archive(c.Request.Context(), auth.TenantID(c), c.Param("conversation_id")); err != nil {
		responses.HandleError(c, err, "failed to archive conversation")
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /v1/conversations/:conversation_id
// @Summary Soft-delete a conversation
// @Tags Conversations
// @Param conversation_id path string true "Conversation ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string
// @Router /v1/conversations/{conversation_id} [delete]
func (h *ConversationHandler) Delete(c *gin.Context) {
	if err := h.service.SoftDelete(c.Request.Context(), auth.TenantID(c), c.Param("conversation_id")); err != nil {
		responses.HandleError(c, err, "failed to delete conversation")
		return
	}

	c.Status(http.StatusNoContent)
}

// AppendMessage handles POST /v1/conversations/:conversation_id/messages
// @Summary Append a user message
// @Description Appends a user-authored message to an active conversation
// @Tags Conversations
// @Accept json
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param request body requests.AppendMessageRequest true "Message payload"
// @Success 201 {object} conversation.Message
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /v1/conversations/{conversation_id}/messages [post]
func (h *ConversationHandler) AppendMessage(c *gin.Context) {
	var req requests.AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, msg, err := h.service.AppendUserMessage(c.Request.Context(), auth.TenantID(c), c.Param("conversation_id"), req.AuthorName, req.Content)
	if err != nil {
		responses.HandleError(c, err, "failed to append message")
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// Window handles GET /v1/conversations/:conversation_id/messages
// @Summary Page through the transcript
// @Description Returns the newest messages before an optional cursor, oldest first
// @Tags Conversations
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param before_cursor query string false "Return messages older than this message ID"
// @Param limit query int false "Maximum number of messages" default(30)
// @Success 200 {object} conversation.Window
// @Failure 404 {object} map[string]string
// @Router /v1/conversations/{conversation_id}/messages [get]
func (h *ConversationHandler) Window(c *gin.Context) {
	limit := defaultWindowLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	window, err := h.service.Window(c.Request.Context(), auth.TenantID(c), c.Param("conversation_id"), c.Query("before_cursor"), limit)
	if err != nil {
		responses.HandleError(c, err, "failed to load messages")
		return
	}

	c.JSON(http.StatusOK, window)
}
