package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parley/conversation-api/internal/domain/agent"
	"parley/conversation-api/internal/infrastructure/auth"
	"parley/conversation-api/internal/interfaces/httpserver/requests"
	"parley/conversation-api/internal/interfaces/httpserver/responses"
)

const defaultMemoryLimit = 20

// AgentHandler exposes HTTP entrypoints for agent management.
type AgentHandler struct {
	service agent.Service
	log     zerolog.Logger
}

// NewAgentHandler constructs the handler.
func NewAgentHandler(service agent.Service, log zerolog.Logger) *AgentHandler {
	return &AgentHandler{
		service: service,
		log:     log.With().Str("handler", "agent").Logger(),
	}
}

// Create handles POST /v1/agents
// @Summary Register an agent
// @Tags Agents
// @Accept json
// @Produce json
// @Param request body requests.CreateAgentRequest true "Agent payload"
// @Success 201 {object} agent.Agent
// @Failure 400 {object} map[string]string
// @Router /v1/agents [post]
func (h *AgentHandler) Create(c *gin.Context) {
	var req requests.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.service.Create(c.Request.Context(), auth.TenantID(c), req.Name, req.Persona, req.Model, req.Reasoning)
	if err != nil {
		responses.HandleError(c, err, "failed to create agent")
		return
	}

	c.JSON(http.StatusCreated, a)
}

// Get handles GET /v1/agents/:agent_id
// @Summary Get agent by ID
// @Tags Agents
// @Produce json
// @Param agent_id path string true "Agent ID"
// @Success 200 {object} agent.Agent
// @Failure 404 {object} map[string]string
// @Router /v1/agents/{agent_id} [get]
func (h *AgentHandler) Get(c *gin.Context) {
	a, err := h.service.GetByPublicID(c.Request.Context(), auth.TenantID(c), c.Param("agent_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get agent")
		return
	}

	c.JSON(http.StatusOK, a)
}

// Memories handles GET /v1/agents/:agent_id/memories
// @Summary List recent agent memories
// @Tags Agents
// @Produce json
// @Param agent_id path string true "Agent ID"
// @Param memory_type query string false "Memory type filter" Enums(journal, fact)
// @Param limit query int false "Maximum number of entries" default(20)
// @Success 200 {array} agent.MemoryEntry
// @Failure 404 {object} map[string]string
// @Router /v1/agents/{agent_id}/memories [get]
func (h *AgentHandler) Memories(c *gin.Context) {
	limit := defaultMemoryLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	kind := agent.MemoryKind(c.Query("memory_type"))
	if kind != "" && !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown memory_type"})
		return
	}

	entries, err := h.service.RecentMemories(c.Request.Context(), auth.TenantID(c), c.Param("agent_id"), kind, limit)
	if err != nil {
		responses.HandleError(c, err, "failed to list memories")
		return
	}

	c.JSON(http.StatusOK, entries)
}
