package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parley/conversation-api/internal/domain/generation"
	"parley/conversation-api/internal/infrastructure/auth"
	"parley/conversation-api/internal/interfaces/httpserver/requests"
	"parley/conversation-api/internal/interfaces/httpserver/responses"
)

// GenerationHandler exposes HTTP entrypoints for scheduling and inspecting
// generation runs. Runs execute in the background worker pool; the handler
// only enqueues and reports.
type GenerationHandler struct {
	service generation.Service
	log     zerolog.Logger
}

// NewGenerationHandler constructs the handler.
func NewGenerationHandler(service generation.Service, log zerolog.Logger) *GenerationHandler {
	return &GenerationHandler{
		service: service,
		log:     log.With().Str("handler", "generation").Logger(),
	}
}

// Create handles POST /v1/conversations/:conversation_id/generations
// @Summary Request an agent reply
// @Description Schedules a background generation for the named agent; at most one generation runs per conversation
// @Tags Generations
// @Accept json
// @Produce json
// @Param conversation_id path string true "Conversation ID"
// @Param request body requests.CreateGenerationRequest true "Generation payload"
// @Success 202 {object} generation.Generation
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /v1/conversations/{conversation_id}/generations [post]
func (h *GenerationHandler) Create(c *gin.Context) {
	var req requests.CreateGenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gen, err := h.service.Request(c.Request.Context(), auth.TenantID(c), c.Param("conversation_id"), req.AgentID)
	if err != nil {
		responses.HandleError(c, err, "failed to request generation")
		return
	}

	c.JSON(http.StatusAccepted, gen)
}

// Get handles GET /v1/generations/:generation_id
// @Summary Get generation by ID
// @Tags Generations
// @Produce json
// @Param generation_id path string true "Generation ID"
// @Success 200 {object} generation.Generation
// @Failure 404 {object} map[string]string
// @Router /v1/generations/{generation_id} [get]
func (h *GenerationHandler) Get(c *gin.Context) {
	gen, err := h.service.GetByPublicID(c.Request.Context(), auth.TenantID(c), c.Param("generation_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get generation")
		return
	}

	c.JSON(http.StatusOK, gen)
}

// Retry handles POST /v1/generations/:generation_id/retry
// @Summary Retry a failed generation
// @Description Schedules a fresh run for a generation that ended in failure
// @Tags Generations
// @Produce json
// @Param generation_id path string true "Generation ID"
// @Success 202 {object} generation.Generation
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /v1/generations/{generation_id}/retry [post]
func (h *GenerationHandler) Retry(c *gin.Context) {
	gen, err := h.service.Retry(c.Request.Context(), auth.TenantID(c), c.Param("generation_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to retry generation")
		return
	}

	c.JSON(http.StatusAccepted, gen)
}
