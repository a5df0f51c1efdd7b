package core

import (
	"context"
	"net/http"
	"time"

	"github.com/saturnines/nexus-source/pkg/settings"
)

// Client is the method-specific front end over an Executor. Every call builds
// a fresh Request, so no state carries over between calls.
type Client struct {
	exec     *Executor
	resolver settings.BaseURLResolver

	retries    int
	retryDelay time.Duration
	useAuth    bool
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithBaseURL resolves relative URLs against r
func WithBaseURL(r settings.BaseURLResolver) ClientOption {
	return func(c *Client) { c.resolver = r }
}

// WithRetryPolicy sets the default retry count and delay for built requests
func WithRetryPolicy(retries int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.retries = retries
		c.retryDelay = delay
	}
}

// WithAuthByDefault makes built requests carry credentials unless overridden
func WithAuthByDefault(useAuth bool) ClientOption {
	return func(c *Client) { c.useAuth = useAuth }
}

// NewClient creates a new Client over exec
func NewClient(exec *Executor, opts ...ClientOption) *Client {
	c := &Client{
		exec:       exec,
		retries:    DefaultRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Executor returns the underlying executor
func (c *Client) Executor() *Executor {
	return c.exec
}

// Resolver returns the base URL resolver, or nil
func (c *Client) Resolver() settings.BaseURLResolver {
	return c.resolver
}

// Build constructs the Request a call would execute, without executing it.
// Relative URLs are resolved against the base URL.
func (c *Client) Build(method, url string, opts ...RequestOption) (*Request, error) {
	target, err := settings.Resolve(c.resolver, url)
	if err != nil {
		return nil, err
	}

	base := []RequestOption{
		WithRetries(c.retries),
		WithRetryDelay(c.retryDelay),
		WithAuth(c.useAuth),
	}
	return NewRequest(method, target, append(base, opts...)...), nil
}

// Request builds and executes a request with any method
func (c *Client) Request(ctx context.Context, method, url string, body any, opts ...RequestOption) (*Result, error) {
	return c.do(ctx, method, url, prepend(opts, WithBody(body)))
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*Result, error) {
	return c.do(ctx, http.MethodGet, url, opts)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, url string, body any, opts ...RequestOption) (*Result, error) {
	return c.do(ctx, http.MethodPost, url, prepend(opts, WithBody(body)))
}

// Put performs a PUT request
func (c *Client) Put(ctx context.Context, url string, body any, opts ...RequestOption) (*Result, error) {
	return c.do(ctx, http.MethodPut, url, prepend(opts, WithBody(body)))
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, url string, opts ...RequestOption) (*Result, error) {
	return c.do(ctx, http.MethodDelete, url, opts)
}

// GetJSON fetches and decodes JSON. Result.JSON holds the payload.
func (c *Client) GetJSON(ctx context.Context, url string, opts ...RequestOption) (*Result, error) {
	return c.do(ctx, http.MethodGet, url, prepend(opts,
		WithHeader("Accept", "application/json"),
		WithParseJSON(),
	))
}

// PostJSON sends body as JSON and decodes the JSON response
func (c *Client) PostJSON(ctx context.Context, url string, body any, opts ...RequestOption) (*Result, error) {
	return c.do(ctx, http.MethodPost, url, prepend(opts,
		WithBody(body),
		WithHeader("Content-Type", "application/json"),
		WithParseJSON(),
	))
}

// PutJSON sends body as JSON and decodes the JSON response
func (c *Client) PutJSON(ctx context.Context, url string, body any, opts ...RequestOption) (*Result, error) {
	return c.do(ctx, http.MethodPut, url, prepend(opts,
		WithBody(body),
		WithHeader("Content-Type", "application/json"),
		WithParseJSON(),
	))
}

// GetHTML fetches and parses an HTML page. Result.Document holds the document.
func (c *Client) GetHTML(ctx context.Context, url string, opts ...RequestOption) (*Result, error) {
	return c.do(ctx, http.MethodGet, url, prepend(opts, WithParseHTML()))
}

// RequestHTML is Request with HTML parsing
func (c *Client) RequestHTML(ctx context.Context, method, url string, body any, opts ...RequestOption) (*Result, error) {
	return c.do(ctx, method, url, prepend(opts, WithBody(body), WithParseHTML()))
}

func (c *Client) do(ctx context.Context, method, url string, opts []RequestOption) (*Result, error) {
	req, err := c.Build(method, url, opts...)
	if err != nil {
		return nil, err
	}
	return c.exec.Do(ctx, req)
}

// prepend puts presets ahead of the caller's options so the caller wins
func prepend(opts []RequestOption, presets ...RequestOption) []RequestOption {
	return append(presets, opts...)
}
