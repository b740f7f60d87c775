package llm

// Transport identifies which upstream endpoint serves a request.
type Transport string

const (
	// TransportAggregator is the default OpenAI-compatible aggregator endpoint.
	TransportAggregator Transport = "aggregator"
	// TransportDirect is the provider-native endpoint, required by some
	// models for extended reasoning.
	TransportDirect Transport = "direct"
)

// RouteDecision is the outcome of routing one request.
type RouteDecision struct {
	Transport         Transport `json:"transport"`
	ProviderModelID   string    `json:"provider_model_id"`
	SupportsReasoning bool      `json:"supports_reasoning"`
	// FallbackApplied is set when a required direct transport was not
	// configured and the aggregator was used instead. The caller decides
	// whether to surface a warning.
	FallbackApplied bool `json:"fallback_applied"`
}

// Router derives routing decisions from the capability catalog.
type Router struct {
	catalog         *Catalog
	directAvailable bool
}

// NewRouter constructs a router. directAvailable reports whether the
// provider-native transport is configured.
func NewRouter(catalog *Catalog, directAvailable bool) *Router {
	return &Router{
		catalog:         catalog,
		directAvailable: directAvailable,
	}
}

// Route resolves the transport and provider model id for a request.
// Returns ErrModelNotFound when the model is absent from the catalog.
//
// The special cases form a small explicit cascade; if this grows past a
// handful of branches it should move to table-driven dispatch.
func (r *Router) Route(modelID string, wantsReasoning bool) (RouteDecision, error) {
	capability, ok := r.catalog.Lookup(modelID)
	if !ok {
		return RouteDecision{}, ErrModelNotFound
	}

	decision := RouteDecision{
		Transport:         TransportAggregator,
		ProviderModelID:   capability.ProviderModelID,
		SupportsReasoning: capability.SupportsReasoning,
	}
	if decision.ProviderModelID == "" {
		decision.ProviderModelID = capability.ID
	}

	if wantsReasoning && capability.SupportsReasoning && capability.RequiresDirectTransport {
		if r.directAvailable {
			decision.Transport = TransportDirect
		} else {
			decision.FallbackApplied = true
		}
		return decision, nil
	}

	if capability.RequiresDirectTransport && r.directAvailable {
		decision.Transport = TransportDirect
	}

	return decision, nil
}
