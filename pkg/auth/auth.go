package auth

import (
	"fmt"
	"net/http"
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrTokenRefresh       = fmt.Errorf("token refresh failed")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
)

// Handler decorates outgoing requests with credentials. The transport only
// calls it for requests made with useAuth set.
type Handler interface {
	ApplyAuth(req *http.Request) error
}

// HandlerFunc adapts a function into a Handler
type HandlerFunc func(req *http.Request) error

func (f HandlerFunc) ApplyAuth(req *http.Request) error { return f(req) }

// APIKeyAuth sends a static key as a header, a query parameter or both
type APIKeyAuth struct {
	HeaderName string // e.g. "X-API-Key"
	QueryParam string // e.g. "api_key"
	Value      string
}

// NewAPIKeyAuth creates a new API key authentication handler
func NewAPIKeyAuth(headerName, queryParam, value string) *APIKeyAuth {
	return &APIKeyAuth{
		HeaderName: headerName,
		QueryParam: queryParam,
		Value:      value,
	}
}

// ApplyAuth adds the API key to the request
func (a *APIKeyAuth) ApplyAuth(req *http.Request) error {
	if a.Value == "" {
		return fmt.Errorf("%w: API key value is required", ErrMissingCredentials)
	}
	if a.HeaderName == "" && a.QueryParam == "" {
		return fmt.Errorf("API key auth requires either header name or query parameter name")
	}

	if a.HeaderName != "" {
		req.Header.Set(a.HeaderName, a.Value)
	}
	if a.QueryParam != "" {
		query := req.URL.Query()
		query.Set(a.QueryParam, a.Value)
		req.URL.RawQuery = query.Encode()
	}

	return nil
}

func (a *APIKeyAuth) String() string {
	if a.HeaderName != "" {
		return fmt.Sprintf("APIKeyAuth(header: %s)", a.HeaderName)
	}
	return fmt.Sprintf("APIKeyAuth(query: %s)", a.QueryParam)
}
