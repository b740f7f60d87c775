package llm

import "unicode/utf8"

const (
	// TokenEstimateRatio estimates ~4 characters per token (conservative estimate).
	TokenEstimateRatio = 4

	// MessageOverheadTokens accounts for role and structure per message.
	MessageOverheadTokens = 10
)

// EstimateTokenCount provides a rough estimate of token count for a text.
// Used as a fallback when the provider does not report usage.
func EstimateTokenCount(text string) int {
	if text == "" {
		return 0
	}
	return utf8.RuneCountInString(text) / TokenEstimateRatio
}

// EstimateMessagesTokenCount estimates total tokens across all messages.
func EstimateMessagesTokenCount(messages []ChatMessage) int {
	total := 0
	for _, msg := range messages {
		total += MessageOverheadTokens
		total += EstimateTokenCount(msg.Content)

		for _, tc := range msg.ToolCalls {
			total += 20 // Overhead for tool call structure
			total += EstimateTokenCount(tc.Function.Name)
			total += EstimateTokenCount(tc.Function.Arguments)
		}
	}
	return total
}
