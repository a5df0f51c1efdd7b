package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saturnines/nexus-source/pkg/errors"
	"github.com/saturnines/nexus-source/pkg/transport"
)

// Executor runs Requests through a Transport with retries and response parsing.
// It holds read-only configuration and is safe for concurrent use.
type Executor struct {
	transport transport.Transport
	html      HTMLParser
	headers   map[string]string
	logger    *zap.Logger
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithDefaultHeaders sets headers sent with every request unless the caller overrides them
func WithDefaultHeaders(headers map[string]string) ExecutorOption {
	return func(e *Executor) {
		for k, v := range headers {
			e.headers[k] = v
		}
	}
}

// WithHTMLParser replaces the goquery parser
func WithHTMLParser(p HTMLParser) ExecutorOption {
	return func(e *Executor) { e.html = p }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.logger = l.Named("executor")
		}
	}
}

// NewExecutor creates an Executor over t
func NewExecutor(t transport.Transport, opts ...ExecutorOption) *Executor {
	e := &Executor{
		transport: t,
		html:      GoqueryParser{},
		headers:   make(map[string]string),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultHeaders returns a copy of the default header set
func (e *Executor) DefaultHeaders() map[string]string {
	return mergeHeaders(e.headers, nil)
}

// Do executes req. A nil result with a nil error means the request failed
// and req.ThrowOnError was false.
func (e *Executor) Do(ctx context.Context, req *Request) (*Result, error) {
	headers := mergeHeaders(e.headers, req.Headers)

	body, err := serializeBody(req.Body)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrValidation, "serialize request body")
	}

	retries := req.Retries
	if retries < 0 {
		retries = 0
	}
	maxAttempts := retries + 1

	log := e.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("method", req.Method),
		zap.String("url", req.URL),
	)

	var (
		attempts int
		lastErr  error
		noResult bool
	)

	operation := func() (*Result, error) {
		attempts++
		log.Debug("attempt", zap.Int("attempt", attempts), zap.Int("max_attempts", maxAttempts))

		out, err := e.dispatch(ctx, req.Method, req.URL, body, headers, req.UseAuth)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			lastErr = err
			if errors.Is(err, errors.ErrAuthentication) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}

		if !out.OK {
			if !req.ThrowOnError {
				noResult = true
				return nil, backoff.Permanent(errors.Network(req.URL, out.StatusCode))
			}
			lastErr = errors.Network(req.URL, out.StatusCode)
			return nil, lastErr
		}

		res, err := e.parse(req, out)
		if err != nil {
			lastErr = err
			return nil, err
		}
		return res, nil
	}

	res, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&backoff.ConstantBackOff{Interval: req.RetryDelay}),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Warn("retrying", zap.Error(err), zap.Int("attempt", attempts), zap.Duration("wait", wait))
		}),
	)
	if err == nil {
		return res, nil
	}

	if noResult {
		log.Debug("request failed, returning empty result", zap.Error(err))
		return nil, nil
	}
	if ctx.Err() != nil {
		return nil, errors.WrapError(ctx.Err(), errors.ErrNetwork, fmt.Sprintf("request to %s cancelled", req.URL))
	}
	if lastErr == nil {
		lastErr = err
	}

	log.Error("request failed", zap.Int("attempts", attempts), zap.Error(lastErr))
	if !req.ThrowOnError {
		return nil, nil
	}
	return nil, errors.Exhausted(req.URL, attempts, lastErr)
}

func (e *Executor) dispatch(
	ctx context.Context,
	method, url, body string,
	headers map[string]string,
	useAuth bool,
) (*transport.Outcome, error) {
	switch strings.ToUpper(method) {
	case "", http.MethodGet:
		return e.transport.Get(ctx, url, headers, useAuth)
	case http.MethodPost:
		return e.transport.Post(ctx, url, body, headers, useAuth)
	default:
		return e.transport.Request(ctx, strings.ToUpper(method), url, body, headers, useAuth)
	}
}

func (e *Executor) parse(req *Request, out *transport.Outcome) (*Result, error) {
	res := &Result{
		StatusCode: out.StatusCode,
		Body:       out.Body,
		Headers:    out.Headers,
	}

	switch {
	case req.ParseJSON:
		var payload any
		if err := json.Unmarshal(out.Body, &payload); err != nil {
			return nil, fmt.Errorf("parse JSON response from %s: %w", req.URL, err)
		}
		if obj, ok := payload.(map[string]any); ok {
			if apiErrs, ok := obj["errors"]; ok && apiErrs != nil {
				serialized, _ := json.Marshal(apiErrs)
				return nil, errors.API(req.URL, string(serialized))
			}
		}
		res.JSON = payload
	case req.ParseHTML:
		doc, err := e.html.Parse(string(out.Body))
		if err != nil {
			return nil, fmt.Errorf("parse HTML response from %s: %w", req.URL, err)
		}
		res.Document = doc
	}

	return res, nil
}

// mergeHeaders copies base and overlays over on top of it. Names compare case-insensitively.
func mergeHeaders(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		setHeader(out, k, v)
	}
	for k, v := range over {
		setHeader(out, k, v)
	}
	return out
}

// setHeader replaces any entry whose name differs from key only in case
func setHeader(headers map[string]string, key, value string) {
	for k := range headers {
		if k != key && strings.EqualFold(k, key) {
			delete(headers, k)
		}
	}
	headers[key] = value
}

func serializeBody(body any) (string, error) {
	switch b := body.(type) {
	case nil:
		return "", nil
	case string:
		return b, nil
	case []byte:
		return string(b), nil
	case json.RawMessage:
		return string(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
