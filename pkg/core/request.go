package core

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultRetries    = 3
	DefaultRetryDelay = 1000 * time.Millisecond
)

// Request describes one logical HTTP request and how to treat its response.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string // merged over the executor defaults, caller wins
	Body    any               // string and []byte are sent as is, nil as empty, anything else as JSON

	UseAuth      bool
	ParseJSON    bool // takes precedence over ParseHTML
	ParseHTML    bool
	ThrowOnError bool

	Retries    int // additional attempts after the first
	RetryDelay time.Duration
}

// RequestOption configures a Request
type RequestOption func(*Request)

// NewRequest returns a request with the default retry policy and ThrowOnError set.
func NewRequest(method, url string, opts ...RequestOption) *Request {
	r := &Request{
		Method:       method,
		URL:          url,
		Headers:      make(map[string]string),
		ThrowOnError: true,
		Retries:      DefaultRetries,
		RetryDelay:   DefaultRetryDelay,
	}
	r.Apply(opts...)
	return r
}

// Apply applies opts in order
func (r *Request) Apply(opts ...RequestOption) {
	for _, opt := range opts {
		opt(r)
	}
}

// WithHeader sets a single header
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		setHeader(r.Headers, key, value)
	}
}

// WithHeaders merges headers into the request
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		for k, v := range headers {
			setHeader(r.Headers, k, v)
		}
	}
}

// WithBody sets the body
func WithBody(body any) RequestOption {
	return func(r *Request) { r.Body = body }
}

// WithAuth toggles credential injection by the transport
func WithAuth(useAuth bool) RequestOption {
	return func(r *Request) { r.UseAuth = useAuth }
}

// WithRetries sets the number of additional attempts
func WithRetries(n int) RequestOption {
	return func(r *Request) {
		if n < 0 {
			n = 0
		}
		r.Retries = n
	}
}

// WithRetryDelay sets the fixed wait between attempts
func WithRetryDelay(d time.Duration) RequestOption {
	return func(r *Request) {
		if d < 0 {
			d = 0
		}
		r.RetryDelay = d
	}
}

// WithThrowOnError controls whether failures are returned as errors or as a nil result
func WithThrowOnError(throw bool) RequestOption {
	return func(r *Request) { r.ThrowOnError = throw }
}

// WithParseJSON requests JSON decoding of the response
func WithParseJSON() RequestOption {
	return func(r *Request) { r.ParseJSON = true }
}

// WithParseHTML requests HTML parsing of the response
func WithParseHTML() RequestOption {
	return func(r *Request) { r.ParseHTML = true }
}

// Result is a successful response
type Result struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	JSON       any               // set with ParseJSON
	Document   *goquery.Document // set with ParseHTML
}

// Text returns the raw body as a string
func (r *Result) Text() string {
	return string(r.Body)
}

// Decode unmarshals the raw body into v
func (r *Result) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}
