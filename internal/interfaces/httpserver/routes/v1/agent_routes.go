package v1

import (
	"github.com/gin-gonic/gin"

	"parley/conversation-api/internal/interfaces/httpserver/handlers"
)

func registerAgentRoutes(router gin.IRoutes, handler *handlers.AgentHandler) {
	router.POST("/agents", handler.Create)
	router.GET("/agents/:agent_id", handler.Get)
	router.GET("/agents/:agent_id/memories", handler.Memories)
}
