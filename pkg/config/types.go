package config

import "time"

// Plugin represents the full config for one content source
type Plugin struct {
	Manifest  Manifest  `yaml:"manifest"`          // Required: identity of the source
	Endpoints Endpoints `yaml:"endpoints"`         // Required: selectable base URLs
	HTTP      HTTP      `yaml:"http,omitempty"`    // Transport settings
	Retry     Retry     `yaml:"retry,omitempty"`   // Request retry policy
	GraphQL   GraphQL   `yaml:"graphql,omitempty"` // GraphQL endpoint settings
	Auth      *Auth     `yaml:"auth,omitempty"`    // Optional authentication
	Logging   Logging   `yaml:"logging,omitempty"` // Logger settings
}

// Manifest is the metadata the host reads before loading the script
type Manifest struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description,omitempty"`
	Author          string   `yaml:"author,omitempty"`
	AuthorURL       string   `yaml:"author_url,omitempty"`
	Version         int      `yaml:"version"`
	PlatformURL     string   `yaml:"platform_url,omitempty"`
	SourceURL       string   `yaml:"source_url,omitempty"`
	ScriptURL       string   `yaml:"script_url,omitempty"`
	IconURL         string   `yaml:"icon_url,omitempty"`
	ScriptSignature string   `yaml:"script_signature,omitempty"`  // base64 RSA-SHA512 signature
	ScriptPublicKey string   `yaml:"script_public_key,omitempty"` // base64 PKIX public key
	AllowURLs       []string `yaml:"allow_urls,omitempty"`
}

// Endpoints holds the named instances a user can pick from
type Endpoints struct {
	Selected string            `yaml:"selected"` // key into URLs
	URLs     map[string]string `yaml:"urls"`
}

// HTTP defines transport settings
type HTTP struct {
	Headers        map[string]string `yaml:"headers,omitempty"`         // Default headers for every request
	UserAgent      string            `yaml:"user_agent,omitempty"`      // Shortcut for the User-Agent header
	TimeoutSeconds int               `yaml:"timeout_seconds,omitempty"` // Per request transport timeout
	RateLimit      *RateLimit        `yaml:"rate_limit,omitempty"`      // Optional client side rate limit
}

// RateLimit is a token bucket configuration
type RateLimit struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst,omitempty"`
}

// Retry defines the default retry policy. Pointers distinguish "unset" from zero.
type Retry struct {
	Retries *int `yaml:"retries,omitempty"`
	DelayMS *int `yaml:"delay_ms,omitempty"`
}

// GraphQL defines where GraphQL queries are sent
type GraphQL struct {
	Path string `yaml:"path,omitempty"` // relative to the selected endpoint, or absolute
}

// Logging defines logger settings
type Logging struct {
	Level       string `yaml:"level,omitempty"`
	Development bool   `yaml:"development,omitempty"`
}

// Auth defines auth methods.
type Auth struct {
	Type   AuthType    `yaml:"type"`              // Required authentication type
	Basic  *BasicAuth  `yaml:"basic,omitempty"`   // Basic authentication
	APIKey *APIKeyAuth `yaml:"api_key,omitempty"` // API key authentication
	Bearer *BearerAuth `yaml:"bearer,omitempty"`  // Bearer token authentication
	OAuth2 *OAuth2Auth `yaml:"oauth2,omitempty"`  // OAuth2 authentication
}

// AuthType defines current supported authentication types
type AuthType string

const (
	AuthTypeBasic  AuthType = "basic"
	AuthTypeAPIKey AuthType = "api_key"
	AuthTypeBearer AuthType = "bearer"
	AuthTypeOAuth2 AuthType = "oauth2"
)

// BasicAuth contains auth credentials for the api
type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// APIKeyAuth contains API details
type APIKeyAuth struct {
	Header     string `yaml:"header,omitempty"`      // Header name
	QueryParam string `yaml:"query_param,omitempty"` // Query parameter name
	Value      string `yaml:"value"`                 // API key value
}

// BearerAuth contains a static token
type BearerAuth struct {
	Token string `yaml:"token"`
}

// OAuth2Auth contains OAuth2 client credentials details
type OAuth2Auth struct {
	TokenURL      string            `yaml:"token_url"`
	ClientID      string            `yaml:"client_id"`
	ClientSecret  string            `yaml:"client_secret"`
	Scope         string            `yaml:"scope,omitempty"`
	ExtraParams   map[string]string `yaml:"extra_params,omitempty"`
	RefreshBefore int               `yaml:"refresh_before,omitempty"` // seconds
}

const (
	DefaultRetries        = 3
	DefaultRetryDelayMS   = 1000
	DefaultGraphQLPath    = "/graphql"
	DefaultTimeoutSeconds = 30
)

// SelectedURL returns the base URL the user picked, or "" when unresolved.
func (p *Plugin) SelectedURL() string {
	if p == nil {
		return ""
	}
	return p.Endpoints.URLs[p.Endpoints.Selected]
}

// RetryPolicy returns the retry count and delay after defaults are applied.
func (p *Plugin) RetryPolicy() (int, time.Duration) {
	retries, delay := DefaultRetries, DefaultRetryDelayMS
	if p.Retry.Retries != nil {
		retries = *p.Retry.Retries
	}
	if p.Retry.DelayMS != nil {
		delay = *p.Retry.DelayMS
	}
	return retries, time.Duration(delay) * time.Millisecond
}

// Timeout returns the transport timeout.
func (p *Plugin) Timeout() time.Duration {
	if p.HTTP.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(p.HTTP.TimeoutSeconds) * time.Second
}

// DefaultHeaders returns the configured headers with the user agent folded in.
func (p *Plugin) DefaultHeaders() map[string]string {
	out := make(map[string]string, len(p.HTTP.Headers)+1)
	for k, v := range p.HTTP.Headers {
		out[k] = v
	}
	if p.HTTP.UserAgent != "" {
		out["User-Agent"] = p.HTTP.UserAgent
	}
	return out
}
