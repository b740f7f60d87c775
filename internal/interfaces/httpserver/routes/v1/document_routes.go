package v1

import (
	"github.com/gin-gonic/gin"

	"parley/conversation-api/internal/interfaces/httpserver/handlers"
)

func registerDocumentRoutes(router gin.IRoutes, handler *handlers.DocumentHandler) {
	router.POST("/documents", handler.Create)
	router.GET("/documents/:document_id", handler.Get)
	router.PUT("/documents/:document_id", handler.Update)
}
