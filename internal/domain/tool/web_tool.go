package tool

import (
	"context"
	"fmt"
)

// SearchResult is one hit returned by the web search backend.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// WebClient is the outbound web access surface used by the web tool.
type WebClient interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Fetch(ctx context.Context, url string) (string, error)
}

// WebTool exposes web search and page fetch to the model. It does not
// mutate conversation state, so no acting agent is required.
type WebTool struct {
	client WebClient
}

func NewWebTool(client WebClient) *WebTool {
	return &WebTool{client: client}
}

func (t *WebTool) Name() string              { return "web" }
func (t *WebTool) Description() string       { return "Search the web and fetch page content" }
func (t *WebTool) Actions() []string         { return []string{"web_search", "web_fetch"} }
func (t *WebTool) RequiresActingAgent() bool { return false }

func (t *WebTool) Execute(ctx context.Context, tc CallContext, action string, params map[string]interface{}) Result {
	switch action {
	case "web_search":
		return t.search(ctx, params)
	case "web_fetch":
		return t.fetch(ctx, params)
	default:
		return errorResult(fmt.Sprintf("action %q is not a web action", action), t.Actions())
	}
}

func (t *WebTool) search(ctx context.Context, params map[string]interface{}) Result {
	query, err := stringParam(params, "query")
	if err != nil {
		return errorResult(err.Error(), t.Actions())
	}
	limit := intParam(params, "limit", 5)
	results, err := t.client.Search(ctx, query, limit)
	if err != nil {
		return errorResult(fmt.Sprintf("web search failed: %v", err), t.Actions())
	}
	return Result{"type": "search_results", "query": query, "results": results}
}

func (t *WebTool) fetch(ctx context.Context, params map[string]interface{}) Result {
	url, err := stringParam(params, "url")
	if err != nil {
		return errorResult(err.Error(), t.Actions())
	}
	content, err := t.client.Fetch(ctx, url)
	if err != nil {
		return errorResult(fmt.Sprintf("fetch failed: %v", err), t.Actions())
	}
	return Result{"type": "page_content", "url": url, "content": content}
}

var _ DomainTool = (*WebTool)(nil)
