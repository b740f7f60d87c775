// Package audit ships lifecycle events to the audit trail service.
package audit

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"parley/conversation-api/internal/domain/generation"
)

// Client records audit events asynchronously. Delivery is best-effort: a
// failed or slow audit endpoint must never stall a generation, so Record
// fires and forgets with its own timeout.
type Client struct {
	httpClient *resty.Client
	log        zerolog.Logger
}

func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(5 * time.Second),
		log: log.With().Str("component", "audit_client").Logger(),
	}
}

func (c *Client) Record(ctx context.Context, tenantID, eventName, entityID string, metadata map[string]interface{}) {
	payload := map[string]interface{}{
		"tenant_id":   tenantID,
		"event":       eventName,
		"entity_id":   entityID,
		"metadata":    metadata,
		"recorded_at": time.Now().UTC(),
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		resp, err := c.httpClient.R().
			SetContext(sendCtx).
			SetBody(payload).
			Post("/v1/events")
		if err != nil {
			c.log.Warn().Err(err).Str("event", eventName).Msg("Audit delivery failed")
			return
		}
		if resp.IsError() {
			c.log.Warn().Str("event", eventName).Str("status", resp.Status()).Msg("Audit endpoint rejected event")
		}
	}()
}

var _ generation.Auditor = (*Client)(nil)

// NopAuditor discards events. Used when no audit endpoint is configured.
type NopAuditor struct{}

func (NopAuditor) Record(context.Context, string, string, string, map[string]interface{}) {}

var _ generation.Auditor = NopAuditor{}
