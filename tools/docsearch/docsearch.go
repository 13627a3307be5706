// Package docsearch exposes an external documentation-search API as the
// "searchDocs" MCP tool. The remote endpoint performs AI-assisted retrieval
// over published design-system documentation; this package only shapes the
// request and reformats the hits as text.
package docsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/uilens/storybook-mcp/registry"
)

const defaultLimit = 5

// Hit is one documentation search result.
type Hit struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Client calls the documentation search endpoint.
//
// Client is safe for concurrent use.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

type clientConfig struct {
	timeout    time.Duration
	httpClient *http.Client
}

// Option is a functional option for Client.
type Option func(*clientConfig)

// WithTimeout sets a per-request timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithHTTPClient replaces the HTTP client, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = hc }
}

// NewClient constructs a documentation search client. endpoint must not be
// empty; apiKey may be empty when the endpoint is unauthenticated.
func NewClient(endpoint, apiKey string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("docsearch: endpoint must not be empty")
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{}
		if cfg.timeout > 0 {
			hc.Timeout = cfg.timeout
		}
	}

	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: hc,
	}, nil
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Results []Hit `json:"results"`
}

// Search sends one query to the endpoint and returns its hits.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	body, err := json.Marshal(searchRequest{Query: query, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("docsearch: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("docsearch: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docsearch: http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docsearch: unexpected status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("docsearch: decode response: %w", err)
	}
	return result.Results, nil
}

// Register adds the "searchDocs" tool to the registry.
func Register(r *registry.Registry, c *Client) error {
	return r.RegisterLocalFunc(
		"searchDocs",
		"Search published design-system documentation for usage guidance, patterns, and accessibility notes. Returns the top matching pages with snippets.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Documentation search query.",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of pages to return. Default 5.",
				},
			},
			"required": []string{"query"},
		},
		func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
			query, _ := args["query"].(string)
			query = strings.TrimSpace(query)
			if query == "" {
				return nil, fmt.Errorf("docsearch: searchDocs: query must not be empty")
			}

			limit := 0
			if v, ok := args["limit"].(float64); ok {
				limit = int(v)
			}

			hits, err := c.Search(ctx, query, limit)
			if err != nil {
				return registry.ErrorResult(fmt.Sprintf("Documentation search failed: %v", err)), nil
			}
			if len(hits) == 0 {
				return registry.TextResult(fmt.Sprintf("No documentation found for %q.", query)), nil
			}
			return registry.TextResult(formatHits(query, hits)), nil
		},
		registry.WithTags("storybook", "docs", "search"),
	)
}

// formatHits renders hits as a readable numbered list.
func formatHits(query string, hits []Hit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Documentation results for %q:\n", query)
	for i, h := range hits {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n", i+1, h.Title, h.URL)
		if h.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", h.Snippet)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
