package generation

import (
	"context"

	"parley/conversation-api/internal/domain/llm"
)

// ProviderSelector picks the provider client for a routed transport.
type ProviderSelector interface {
	For(transport llm.Transport) llm.Provider
}

// Biller is the billing collaborator. Quota is checked before a run starts
// and re-checked by the upstream mid-stream; consumption is reported after
// finalization.
type Biller interface {
	HasQuota(ctx context.Context, tenantID string, estimatedTokens int) (bool, error)
	Consume(ctx context.Context, tenantID string, tokens int) error
}

// Auditor records lifecycle events for the account owner's audit trail.
// Recording is best-effort and never fails a generation.
type Auditor interface {
	Record(ctx context.Context, tenantID, eventName, entityID string, metadata map[string]interface{})
}
