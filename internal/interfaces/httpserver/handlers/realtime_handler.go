package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parley/conversation-api/internal/infrastructure/auth"
	"parley/conversation-api/internal/interfaces/realtime"
)

// RealtimeHandler upgrades HTTP connections into realtime sync sessions.
type RealtimeHandler struct {
	hub *realtime.Hub
	log zerolog.Logger
}

// NewRealtimeHandler constructs the handler.
func NewRealtimeHandler(hub *realtime.Hub, log zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		log: log.With().Str("handler", "realtime").Logger(),
	}
}

// Connect handles GET /v1/ws
// @Summary Open a realtime sync socket
// @Description Upgrades to WebSocket; the client then sends sync frames mapping entity keys to local aliases
// @Tags Realtime
// @Success 101 "Switching Protocols"
// @Router /v1/ws [get]
func (h *RealtimeHandler) Connect(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request, auth.TenantID(c))
}
