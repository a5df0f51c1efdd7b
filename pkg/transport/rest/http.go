package rest

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/saturnines/nexus-source/pkg/auth"
	"github.com/saturnines/nexus-source/pkg/config"
	"github.com/saturnines/nexus-source/pkg/errors"
	"github.com/saturnines/nexus-source/pkg/transport"
)

// HTTPDoer is a minimal interface for HTTP clients
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPTransport implements transport.Transport over net/http
type HTTPTransport struct {
	doer    HTTPDoer
	auth    auth.Handler
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ transport.Transport = (*HTTPTransport)(nil)

// Option configures an HTTPTransport
type Option func(*HTTPTransport)

// WithHTTPDoer swaps the underlying client
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(t *HTTPTransport) { t.doer = doer }
}

// WithTimeout sets the timeout when the doer is an *http.Client
func WithTimeout(timeout time.Duration) Option {
	return func(t *HTTPTransport) {
		if c, ok := t.doer.(*http.Client); ok {
			c.Timeout = timeout
		}
	}
}

// WithAuthHandler sets the handler applied to requests made with useAuth
func WithAuthHandler(h auth.Handler) Option {
	return func(t *HTTPTransport) { t.auth = h }
}

// WithRateLimit limits outgoing requests to rps with the given burst
func WithRateLimit(rps float64, burst int) Option {
	return func(t *HTTPTransport) {
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(t *HTTPTransport) {
		if l != nil {
			t.logger = l.Named("transport")
		}
	}
}

// NewHTTPTransport creates a transport with a 30s client timeout
func NewHTTPTransport(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		doer:   &http.Client{Timeout: config.DefaultTimeoutSeconds * time.Second},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewFromConfig builds a transport from the plugin's http and auth sections.
// Extra options are applied last.
func NewFromConfig(p *config.Plugin, registry *auth.AuthRegistry, opts ...Option) (*HTTPTransport, error) {
	if registry == nil {
		registry = auth.NewAuthRegistry()
	}
	h, err := registry.Create(p.Auth)
	if err != nil {
		return nil, err
	}

	base := []Option{WithTimeout(p.Timeout())}
	if h != nil {
		base = append(base, WithAuthHandler(h))
	}
	if rl := p.HTTP.RateLimit; rl != nil {
		base = append(base, WithRateLimit(rl.RequestsPerSecond, rl.Burst))
	}
	return NewHTTPTransport(append(base, opts...)...), nil
}

// Get issues a GET request
func (t *HTTPTransport) Get(ctx context.Context, url string, headers map[string]string, useAuth bool) (*transport.Outcome, error) {
	return t.Request(ctx, http.MethodGet, url, "", headers, useAuth)
}

// Post issues a POST request
func (t *HTTPTransport) Post(ctx context.Context, url, body string, headers map[string]string, useAuth bool) (*transport.Outcome, error) {
	return t.Request(ctx, http.MethodPost, url, body, headers, useAuth)
}

// Request issues a request with any method
func (t *HTTPTransport) Request(
	ctx context.Context,
	method, url, body string,
	headers map[string]string,
	useAuth bool,
) (*transport.Outcome, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, errors.WrapError(err, errors.ErrNetwork, "rate limit wait")
		}
	}

	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrNetwork, "failed to create HTTP request")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	// If body is present and untyped, assume JSON
	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if useAuth && t.auth != nil {
		if err := t.auth.ApplyAuth(req); err != nil {
			return nil, errors.WrapError(err, errors.ErrAuthentication, "apply auth")
		}
	}

	t.logger.Debug("dispatch",
		zap.String("method", method),
		zap.String("url", url),
		zap.Bool("use_auth", useAuth),
	)

	resp, err := t.doer.Do(req)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrNetwork, "http do")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrNetwork, "failed to read response body")
	}

	return &transport.Outcome{
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 400,
		StatusCode: resp.StatusCode,
		Body:       data,
		Headers:    resp.Header,
	}, nil
}
