// Package web provides the outbound search and fetch client backing the
// web tool.
package web

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"parley/conversation-api/internal/domain/tool"
)

// Client talks to a SearXNG-compatible search endpoint and fetches pages
// directly.
type Client struct {
	search *resty.Client
	fetch  *resty.Client
}

func NewClient(searchBaseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		search: resty.New().
			SetBaseURL(searchBaseURL).
			SetTimeout(timeout),
		fetch: resty.New().
			SetTimeout(timeout).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)),
	}
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]tool.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	var listing struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}

	resp, err := c.search.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      query,
			"format": "json",
		}).
		SetResult(&listing).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search endpoint error: %s", resp.Status())
	}

	results := make([]tool.SearchResult, 0, limit)
	for _, r := range listing.Results {
		results = append(results, tool.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := c.fetch.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("fetch error: %s", resp.Status())
	}
	return resp.String(), nil
}

var _ tool.WebClient = (*Client)(nil)
