// Package responses maps domain errors and objects onto the HTTP surface.
package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parley/conversation-api/internal/domain/agent"
	"parley/conversation-api/internal/domain/conversation"
	"parley/conversation-api/internal/domain/document"
	"parley/conversation-api/internal/domain/generation"
)

// HandleError translates a domain error into a status code and JSON body.
func HandleError(c *gin.Context, err error, fallback string) {
	var conflict *document.ConflictError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":            "revision conflict",
			"submitted":        conflict.SubmittedRev,
			"current_revision": conflict.CurrentRevision,
		})
	case errors.Is(err, conversation.ErrConversationNotFound),
		errors.Is(err, conversation.ErrMessageNotFound),
		errors.Is(err, generation.ErrGenerationNotFound),
		errors.Is(err, agent.ErrAgentNotFound),
		errors.Is(err, document.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, conversation.ErrConversationNotActive),
		errors.Is(err, generation.ErrGenerationInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, generation.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
