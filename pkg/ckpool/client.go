// Package ckpool is a client for the read-only statistics API of a CKPool
// solo mining pool (e.g. solo.ckpool.org).
package ckpool

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// Client is the interface for reading user statistics from the pool.
type Client interface {
	// GetUserStats returns normalized statistics for a payout address or username.
	GetUserStats(ctx context.Context, identifier string) (*UserStats, error)

	// GetUserStatsRaw returns statistics with hashrates left in pool text form.
	GetUserStatsRaw(ctx context.Context, identifier string) (*RawUserStats, error)
}

// HTTPClient is the HTTP implementation of Client.
// It holds only immutable configuration and is safe for concurrent use.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	validate   IdentifierValidator
	userAgent  string
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithIdentifierValidator replaces the default path segment validator.
func WithIdentifierValidator(v IdentifierValidator) ClientOption {
	return func(c *HTTPClient) {
		if v != nil {
			c.validate = v
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// NewClient creates a client for baseURL using a pre-built HTTP client.
// A nil httpClient gets a client with DefaultTimeout.
func NewClient(baseURL *url.URL, httpClient *http.Client, opts ...ClientOption) *HTTPClient {
	base := *baseURL
	if base.Path == "" {
		base.Path = "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	c := &HTTPClient{
		baseURL:    &base,
		httpClient: httpClient,
		validate:   ValidatePathSegment,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the configured base location.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL.String()
}

// UserURL resolves the stats endpoint for identifier.
func (c *HTTPClient) UserURL(identifier string) (*url.URL, error) {
	if err := c.validate(identifier); err != nil {
		return nil, &EndpointError{Base: c.baseURL.String(), Identifier: identifier, Err: err}
	}
	return c.baseURL.JoinPath("users", url.PathEscape(identifier)), nil
}

// GetUserStats fetches and decodes /users/<identifier>.
func (c *HTTPClient) GetUserStats(ctx context.Context, identifier string) (*UserStats, error) {
	body, err := c.GetUserStatsBody(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return DecodeUserStats(body)
}

// GetUserStatsRaw fetches /users/<identifier> without normalizing hashrates.
func (c *HTTPClient) GetUserStatsRaw(ctx context.Context, identifier string) (*RawUserStats, error) {
	body, err := c.GetUserStatsBody(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return DecodeRawUserStats(body)
}

// GetUserStatsBody returns the undecoded response body (for debugging).
// Status classification is the same as GetUserStats.
func (c *HTTPClient) GetUserStatsBody(ctx context.Context, identifier string) ([]byte, error) {
	target, err := c.UserURL(identifier)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, target, identifier)
}

// get performs exactly one GET request and classifies the outcome.
func (c *HTTPClient) get(ctx context.Context, target *url.URL, identifier string) ([]byte, error) {
	endpoint := target.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &EndpointError{Base: c.baseURL.String(), Identifier: identifier, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if err := classifyResponse(resp, identifier, endpoint); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	return body, nil
}

// Ensure HTTPClient implements Client interface.
var _ Client = (*HTTPClient)(nil)
