package transport

import (
	"context"
	"net/http"
)

// Outcome is what a transport reports for one HTTP exchange.
type Outcome struct {
	OK         bool // transport-defined success, 2xx and 3xx for HTTPTransport
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Transport executes single HTTP requests. GET and POST have dedicated entry
// points; every other method goes through Request. A returned error means the
// exchange could not complete at all; HTTP failures are reported via Outcome.OK.
type Transport interface {
	Get(ctx context.Context, url string, headers map[string]string, useAuth bool) (*Outcome, error)
	Post(ctx context.Context, url, body string, headers map[string]string, useAuth bool) (*Outcome, error)
	Request(ctx context.Context, method, url, body string, headers map[string]string, useAuth bool) (*Outcome, error)
}
