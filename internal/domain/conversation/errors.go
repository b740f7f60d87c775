package conversation

import "errors"

var (
	// ErrConversationNotFound indicates the conversation does not exist.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrMessageNotFound indicates the message does not exist.
	ErrMessageNotFound = errors.New("message not found")
	// ErrConversationNotActive rejects writes to archived or deleted
	// conversations.
	ErrConversationNotActive = errors.New("conversation does not accept new messages")
)
