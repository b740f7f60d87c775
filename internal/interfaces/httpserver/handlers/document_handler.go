package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parley/conversation-api/internal/domain/document"
	"parley/conversation-api/internal/infrastructure/auth"
	"parley/conversation-api/internal/interfaces/httpserver/requests"
	"parley/conversation-api/internal/interfaces/httpserver/responses"
)

// DocumentHandler exposes HTTP entrypoints for shared documents.
type DocumentHandler struct {
	service document.Service
	log     zerolog.Logger
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service document.Service, log zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		log:     log.With().Str("handler", "document").Logger(),
	}
}

// Create handles POST /v1/documents
// @Summary Create a shared document
// @Description Creates a document, optionally attaching it to a conversation
// @Tags Documents
// @Accept json
// @Produce json
// @Param request body requests.CreateDocumentRequest true "Document payload"
// @Success 201 {object} document.SharedDocument
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /v1/documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	var req requests.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.service.Create(c.Request.Context(), auth.TenantID(c), req.ConversationID, req.Title, req.Content, req.EditorName)
	if err != nil {
		responses.HandleError(c, err, "failed to create document")
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// Get handles GET /v1/documents/:document_id
// @Summary Get document by ID
// @Tags Documents
// @Produce json
// @Param document_id path string true "Document ID"
// @Success 200 {object} document.SharedDocument
// @Failure 404 {object} map[string]string
// @Router /v1/documents/{document_id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.service.GetByPublicID(c.Request.Context(), auth.TenantID(c), c.Param("document_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get document")
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Update handles PUT /v1/documents/:document_id
// @Summary Replace document content
// @Description Applies an optimistic-concurrency edit; a stale base_revision yields 409 with the current revision
// @Tags Documents
// @Accept json
// @Produce json
// @Param document_id path string true "Document ID"
// @Param request body requests.UpdateDocumentRequest true "Edit payload"
// @Success 200 {object} document.SharedDocument
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /v1/documents/{document_id} [put]
func (h *DocumentHandler) Update(c *gin.Context) {
	var req requests.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.service.UpdateContent(c.Request.Context(), auth.TenantID(c), c.Param("document_id"), req.BaseRevision, req.Content, document.EditorUser, req.EditorName)
	if err != nil {
		responses.HandleError(c, err, "failed to update document")
		return
	}

	c.JSON(http.StatusOK, doc)
}
