// Package billing is the client for the billing collaborator service.
package billing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"parley/conversation-api/internal/domain/generation"
)

// Client checks and reports token quota against the billing service.
type Client struct {
	httpClient *resty.Client
	log        zerolog.Logger
}

func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond),
		log: log.With().Str("component", "billing_client").Logger(),
	}
}

func (c *Client) HasQuota(ctx context.Context, tenantID string, estimatedTokens int) (bool, error) {
	var result struct {
		Allowed bool `json:"allowed"`
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"tenant_id":        tenantID,
			"estimated_tokens": estimatedTokens,
		}).
		SetResult(&result).
		Post("/v1/quota/check")
	if err != nil {
		return false, fmt.Errorf("quota check request: %w", err)
	}
	if resp.StatusCode() == http.StatusPaymentRequired {
		return false, nil
	}
	if resp.IsError() {
		return false, fmt.Errorf("quota check error: %s", resp.Status())
	}
	return result.Allowed, nil
}

func (c *Client) Consume(ctx context.Context, tenantID string, tokens int) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"tenant_id": tenantID,
			"tokens":    tokens,
		}).
		Post("/v1/quota/consume")
	if err != nil {
		return fmt.Errorf("consume request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("consume error: %s", resp.Status())
	}
	return nil
}

var _ generation.Biller = (*Client)(nil)

// UnlimitedBiller grants every request. Used when no billing endpoint is
// configured, e.g. local development.
type UnlimitedBiller struct{}

func (UnlimitedBiller) HasQuota(context.Context, string, int) (bool, error) { return true, nil }
func (UnlimitedBiller) Consume(context.Context, string, int) error          { return nil }

var _ generation.Biller = UnlimitedBiller{}
