package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RemoteUnavailableError reports that the catalog endpoint could not be
// fetched: the transport failed, the response was non-2xx, or the body was
// not valid JSON. Status is zero when no HTTP status was received.
type RemoteUnavailableError struct {
	URL    string
	Status int
	Err    error
}

func (e *RemoteUnavailableError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog: fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("catalog: fetch %s: %v", e.URL, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error { return e.Err }

// Client fetches component catalogs over HTTP. It is safe for concurrent
// use. Every FetchDataset call issues exactly one GET; there is no caching,
// no retry, and no backoff — each call is independent.
type Client struct {
	url        string
	headers    map[string]string
	httpClient *http.Client
}

type clientConfig struct {
	timeout    time.Duration
	headers    map[string]string
	httpClient *http.Client
}

// ClientOption is a functional option for Client.
type ClientOption func(*clientConfig)

// WithTimeout sets a per-request timeout on the underlying HTTP client.
// Zero or negative means no client-side timeout (the default); a deadline on
// the caller's context is still honoured.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithHeaders adds static headers to every request, e.g. for catalogs behind
// an authenticating proxy.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *clientConfig) {
		c.headers = headers
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely. Useful in
// tests and when the host application owns transport configuration.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// NewClient constructs a Client for the catalog at url.
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("catalog: url must not be empty")
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
		url:        url,
		headers:    cfg.headers,
		httpClient: hc,
	}, nil
}

// URL returns the catalog endpoint this client fetches from.
func (c *Client) URL() string { return c.url }

// FetchDataset retrieves and decodes the catalog. A non-2xx status, a
// transport failure, or a malformed body all surface as a
// *RemoteUnavailableError; there is no partial dataset.
func (c *Client) FetchDataset(ctx context.Context) (*DataSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &RemoteUnavailableError{URL: c.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteUnavailableError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteUnavailableError{URL: c.url, Status: resp.StatusCode}
	}

	ds := &DataSet{}
	if err := json.NewDecoder(resp.Body).Decode(ds); err != nil {
		return nil, &RemoteUnavailableError{URL: c.url, Err: err}
	}
	return ds, nil
}
