package graphql

import (
	"go.uber.org/zap"

	"github.com/saturnines/nexus-source/pkg/settings"
)

// ClientOption configures the Client
type ClientOption func(*Client)

// WithEndpoint overrides the default "/graphql" endpoint. Absolute URLs are used as is.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithBaseURL sets the resolver relative endpoints are joined to
func WithBaseURL(r settings.BaseURLResolver) ClientOption {
	return func(c *Client) { c.resolver = r }
}

// WithHeader adds a header to every GraphQL request
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithHeaders adds multiple headers to every GraphQL request
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l.Named("graphql")
		}
	}
}
