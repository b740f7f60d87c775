// Package llmprovider implements the provider contract against an OpenAI
// compatible chat completion endpoint, for both the aggregator and the
// direct transport.
package llmprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"parley/conversation-api/internal/domain/llm"
)

// Client implements the llm.Provider interface for one upstream base URL.
type Client struct {
	httpClient   *resty.Client
	streamClient *http.Client
	baseURL      string
}

// NewClient creates a Resty-backed client. connectTimeout bounds dialing;
// readTimeout bounds waiting for response headers. The stream body itself
// has no overall deadline, long generations own their context.
func NewClient(baseURL string, connectTimeout, readTimeout time.Duration) *Client {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
		ResponseHeaderTimeout: readTimeout,
	}
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(readTimeout),
		streamClient: &http.Client{Transport: transport},
		baseURL:      baseURL,
	}
}

// StreamGeneration opens a streaming chat completion. HTTP failures are
// classified here: 404 means the model id is unknown upstream, 429 and 5xx
// are transient, everything else is permanent.
func (c *Client) StreamGeneration(ctx context.Context, req llm.GenerationRequest) (llm.Stream, error) {
	payload := chatCompletionRequest{
		Model:    req.ProviderModelID,
		Messages: req.Messages,
		Tools:    req.Tools,
		Stream:   true,
		StreamOptions: &streamOptions{
			IncludeUsage: true,
		},
	}
	if payload.Model == "" {
		payload.Model = req.Model
	}
	if req.Reasoning {
		payload.ReasoningEffort = "medium"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if token := llm.AuthToken(ctx); token != "" {
		httpReq.Header.Set("Authorization", token)
	}

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, llm.Transient(fmt.Errorf("execute request: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("provider rejected model: %w", llm.ErrModelNotFound)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return nil, llm.Transient(fmt.Errorf("provider error: %d %s", resp.StatusCode, string(respBody)))
		default:
			return nil, fmt.Errorf("provider error: %d %s", resp.StatusCode, string(respBody))
		}
	}

	return newSSEStream(resp), nil
}

var _ llm.Provider = (*Client)(nil)

// FetchModelCapabilities retrieves the upstream model table. Implements
// llm.CapabilitySource.
func (c *Client) FetchModelCapabilities(ctx context.Context) ([]llm.ModelCapability, error) {
	var listing struct {
		Data []struct {
			ID                string `json:"id"`
			ProviderModelID   string `json:"provider_model_id"`
			SupportsReasoning bool   `json:"supports_reasoning"`
			RequiresDirect    bool   `json:"requires_direct_transport"`
			ContextLength     int    `json:"context_length"`
		} `json:"data"`
	}

	request := c.httpClient.R().
		SetContext(ctx).
		SetResult(&listing)
	if token := llm.AuthToken(ctx); token != "" {
		request.SetHeader("Authorization", token)
	}

	resp, err := request.Get("/v1/models")
	if err != nil {
		return nil, fmt.Errorf("fetch models: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("models endpoint error: %s", resp.Status())
	}

	capabilities := make([]llm.ModelCapability, 0, len(listing.Data))
	for _, m := range listing.Data {
		capabilities = append(capabilities, llm.ModelCapability{
			ID:                      m.ID,
			ProviderModelID:         m.ProviderModelID,
			SupportsReasoning:       m.SupportsReasoning,
			RequiresDirectTransport: m.RequiresDirect,
			ContextLength:           m.ContextLength,
		})
	}
	return capabilities, nil
}

var _ llm.CapabilitySource = (*Client)(nil)

type chatCompletionRequest struct {
	Model           string               `json:"model"`
	Messages        []llm.ChatMessage    `json:"messages"`
	Tools           []llm.ToolDefinition `json:"tools,omitempty"`
	Stream          bool                 `json:"stream"`
	StreamOptions   *streamOptions       `json:"stream_options,omitempty"`
	ReasoningEffort string               `json:"reasoning_effort,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}
