package v1

import (
	"github.com/gin-gonic/gin"

	"parley/conversation-api/internal/interfaces/httpserver/handlers"
)

func registerGenerationRoutes(router gin.IRoutes, handler *handlers.GenerationHandler) {
	router.POST("/conversations/:conversation_id/generations", handler.Create)
	router.GET("/generations/:generation_id", handler.Get)
	router.POST("/generations/:generation_id/retry", handler.Retry)
}
