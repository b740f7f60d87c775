package llm

import (
	"context"
	"sort"
	"sync"
)

// ModelCapability is the declarative metadata record for one model. Routing
// decisions are derived from this table only; there are no parallel
// hand-maintained model lists.
type ModelCapability struct {
	ID                      string `json:"id"`
	ProviderModelID         string `json:"provider_model_id"`
	SupportsReasoning       bool   `json:"supports_reasoning"`
	RequiresDirectTransport bool   `json:"requires_direct_transport"`
	ContextLength           int    `json:"context_length"`
}

// CapabilitySource fetches the capability table from the upstream catalog.
type CapabilitySource interface {
	FetchModelCapabilities(ctx context.Context) ([]ModelCapability, error)
}

// Catalog is an in-memory snapshot of model capabilities, refreshable from
// a CapabilitySource.
type Catalog struct {
	mu     sync.RWMutex
	models map[string]ModelCapability
	source CapabilitySource
}

// NewCatalog builds a catalog with an optional initial table.
func NewCatalog(source CapabilitySource, seed []ModelCapability) *Catalog {
	models := make(map[string]ModelCapability, len(seed))
	for _, m := range seed {
		models[m.ID] = m
	}
	return &Catalog{
		models: models,
		source: source,
	}
}

// Lookup returns the capability record for the model id.
func (c *Catalog) Lookup(modelID string) (ModelCapability, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[modelID]
	return m, ok
}

// Refresh replaces the snapshot with a freshly fetched table. A fetch
// failure leaves the current snapshot untouched.
func (c *Catalog) Refresh(ctx context.Context) error {
	if c.source == nil {
		return nil
	}
	fetched, err := c.source.FetchModelCapabilities(ctx)
	if err != nil {
		return err
	}

	models := make(map[string]ModelCapability, len(fetched))
	for _, m := range fetched {
		models[m.ID] = m
	}

	c.mu.Lock()
	c.models = models
	c.mu.Unlock()
	return nil
}

// ModelIDs returns the known model ids, sorted.
func (c *Catalog) ModelIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.models))
	for id := range c.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of known models.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}
