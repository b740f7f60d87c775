package llmprovider

import (
	"parley/conversation-api/internal/domain/generation"
	"parley/conversation-api/internal/domain/llm"
)

// Selector maps a routed transport to its provider client. When no direct
// client is configured everything goes through the aggregator.
type Selector struct {
	aggregator *Client
	direct     *Client
}

func NewSelector(aggregator, direct *Client) *Selector {
	return &Selector{aggregator: aggregator, direct: direct}
}

func (s *Selector) For(transport llm.Transport) llm.Provider {
	if transport == llm.TransportDirect && s.direct != nil {
		return s.direct
	}
	return s.aggregator
}

var _ generation.ProviderSelector = (*Selector)(nil)
