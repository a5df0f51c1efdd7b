package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultRefreshBefore = 60 * time.Second

// OAuth2Auth fetches and caches client-credentials tokens
type OAuth2Auth struct {
	TokenURL      string
	ClientID      string
	Scope         string
	RefreshBefore time.Duration

	source oauth2.TokenSource
}

// OAuth2Option configures an OAuth2Auth
type OAuth2Option func(*oauth2Settings)

type oauth2Settings struct {
	client *http.Client
}

// WithTokenHTTPClient sets the client used to talk to the token endpoint
func WithTokenHTTPClient(c *http.Client) OAuth2Option {
	return func(s *oauth2Settings) { s.client = c }
}

// NewOAuth2Auth creates a new OAuth2 auth handler. refreshBefore is in seconds;
// zero selects the default of one minute.
func NewOAuth2Auth(
	tokenURL, clientID, clientSecret, scope string,
	extraParams map[string]string,
	refreshBefore int,
	opts ...OAuth2Option,
) (*OAuth2Auth, error) {
	if tokenURL == "" {
		return nil, fmt.Errorf("token URL is required for OAuth2")
	}
	if clientID == "" {
		return nil, fmt.Errorf("client ID is required for OAuth2")
	}
	if clientSecret == "" {
		return nil, fmt.Errorf("client secret is required for OAuth2")
	}

	var s oauth2Settings
	for _, opt := range opts {
		opt(&s)
	}

	params := url.Values{}
	for k, v := range extraParams {
		params.Set(k, v)
	}

	cfg := &clientcredentials.Config{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		TokenURL:       tokenURL,
		Scopes:         strings.Fields(scope),
		EndpointParams: params,
		AuthStyle:      oauth2.AuthStyleInParams,
	}

	ctx := context.Background()
	if s.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	}

	early := defaultRefreshBefore
	if refreshBefore > 0 {
		early = time.Duration(refreshBefore) * time.Second
	}

	// cfg.Token bypasses the package's own cache so our expiry margin applies
	fetch := tokenSourceFunc(func() (*oauth2.Token, error) { return cfg.Token(ctx) })

	return &OAuth2Auth{
		TokenURL:      tokenURL,
		ClientID:      clientID,
		Scope:         scope,
		RefreshBefore: early,
		source:        oauth2.ReuseTokenSourceWithExpiry(nil, fetch, early),
	}, nil
}

// ApplyAuth adds a valid access token to the request, fetching one if needed
func (o *OAuth2Auth) ApplyAuth(req *http.Request) error {
	tok, err := o.source.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenRefresh, err)
	}
	tok.SetAuthHeader(req)
	return nil
}

// Token returns the current access token
func (o *OAuth2Auth) Token() (*oauth2.Token, error) {
	return o.source.Token()
}

func (o *OAuth2Auth) String() string {
	return fmt.Sprintf("OAuth2Auth(client_id: %s, token_url: %s)", o.ClientID, o.TokenURL)
}

type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) { return f() }
