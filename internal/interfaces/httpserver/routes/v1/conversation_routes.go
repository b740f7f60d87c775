package v1

import (
	"github.com/gin-gonic/gin"

	"parley/conversation-api/internal/interfaces/httpserver/handlers"
)

func registerConversationRoutes(router gin.IRoutes, handler *handlers.ConversationHandler) {
	router.POST("/conversations", handler.Create)
	router.GET("/conversations/:conversation_id", handler.Get)
	router.POST("/conversations/:conversation_id/archive", handler.Archive)
	router.DELETE("/conversations/:conversation_id", handler.Delete)

	// Transcript routes
	router.POST("/conversations/:conversation_id/messages", handler.AppendMessage)
	router.GET("/conversations/:conversation_id/messages", handler.Window)
}
