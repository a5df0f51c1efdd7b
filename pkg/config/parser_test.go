package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/nexus-source/pkg/errors"
)

func TestPluginLoader_ValidMinimalConfig(t *testing.T) {
	yamlContent := `
manifest:
  id: 4a1c0f7e-2f43-4c1b-9a4e-1c7d5e0f9b21
  name: Example Tube
endpoints:
  urls:
    main: https://tube.example.com
`
	plugin, err := DefaultLoader().Parse([]byte(yamlContent))
	require.NoError(t, err)

	assert.Equal(t, "Example Tube", plugin.Manifest.Name)
	assert.Equal(t, 1, plugin.Manifest.Version)
	assert.Equal(t, "main", plugin.Endpoints.Selected)
	assert.Equal(t, "https://tube.example.com", plugin.SelectedURL())
	assert.Equal(t, DefaultGraphQLPath, plugin.GraphQL.Path)
	assert.Equal(t, 30*time.Second, plugin.Timeout())

	retries, delay := plugin.RetryPolicy()
	assert.Equal(t, 3, retries)
	assert.Equal(t, time.Second, delay)
}

func TestPluginLoader_ExplicitZeroRetries(t *testing.T) {
	yamlContent := `
manifest: {id: x, name: y}
endpoints:
  urls: {main: "https://tube.example.com"}
retry:
  retries: 0
  delay_ms: 0
`
	plugin, err := DefaultLoader().Parse([]byte(yamlContent))
	require.NoError(t, err)

	retries, delay := plugin.RetryPolicy()
	assert.Equal(t, 0, retries)
	assert.Equal(t, time.Duration(0), delay)
}

func TestPluginLoader_AggregatesValidationErrors(t *testing.T) {
	yamlContent := `
endpoints:
  selected: backup
  urls:
    main: /relative
retry:
  retries: -1
auth:
  type: bearer
`
	_, err := DefaultLoader().Parse([]byte(yamlContent))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	msg := err.Error()
	for _, field := range []string{
		"manifest.id",
		"manifest.name",
		"endpoints.selected",
		"endpoints.urls.main",
		"retry.retries",
		"auth.bearer.token",
	} {
		assert.Contains(t, msg, field)
	}
}

func TestPluginLoader_InvalidYAML(t *testing.T) {
	_, err := DefaultLoader().Parse([]byte("manifest: [unclosed"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestPluginLoader_EnvExpansion(t *testing.T) {
	t.Setenv("TUBE_TOKEN", "secret-token")

	yamlContent := `
manifest: {id: x, name: y}
endpoints:
  urls: {main: "https://tube.example.com"}
auth:
  type: bearer
  bearer:
    token: ${TUBE_TOKEN}
`
	plugin, err := DefaultLoader().Parse([]byte(yamlContent))
	require.NoError(t, err)
	require.NotNil(t, plugin.Auth)
	assert.Equal(t, "secret-token", plugin.Auth.Bearer.Token)
}

func TestDotEnvExpander(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("API_KEY=from-dotenv\n"), 0o600))
	t.Setenv("USER_AGENT", "from-env")

	e := &DotEnvExpander{Files: []string{envFile, filepath.Join(dir, "missing.env")}}
	out := e.Expand([]byte("${API_KEY} ${USER_AGENT}"))

	assert.Equal(t, "from-dotenv from-env", string(out))
}

func TestLoadAndSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plugin.yaml")

	retries := 2
	p := &Plugin{
		Manifest:  Manifest{ID: "id-1", Name: "Tube", Version: 4},
		Endpoints: Endpoints{Selected: "main", URLs: map[string]string{"main": "https://tube.example.com"}},
		Retry:     Retry{Retries: &retries},
		HTTP:      HTTP{UserAgent: "nexus/1.0", Headers: map[string]string{"Accept-Language": "en"}},
	}
	require.NoError(t, Save(path, p))

	loaded, err := DefaultLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Manifest.Version)
	assert.Equal(t, 2, *loaded.Retry.Retries)
	assert.Equal(t, map[string]string{
		"Accept-Language": "en",
		"User-Agent":      "nexus/1.0",
	}, loaded.DefaultHeaders())
}

func TestAuthValidator(t *testing.T) {
	tests := []struct {
		name    string
		auth    *Auth
		wantErr string
	}{
		{"no auth", nil, ""},
		{"basic ok", &Auth{Type: AuthTypeBasic, Basic: &BasicAuth{Username: "u"}}, ""},
		{"basic missing username", &Auth{Type: AuthTypeBasic, Basic: &BasicAuth{}}, "auth.basic.username"},
		{"api key without placement", &Auth{Type: AuthTypeAPIKey, APIKey: &APIKeyAuth{Value: "k"}}, "either header or query_param"},
		{"oauth2 missing secret", &Auth{Type: AuthTypeOAuth2, OAuth2: &OAuth2Auth{TokenURL: "https://t", ClientID: "c"}}, "auth.oauth2.client_secret"},
		{"unknown", &Auth{Type: "digest"}, "unknown auth type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := (&AuthValidator{}).Validate(&Plugin{Auth: tt.auth})
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			assert.Contains(t, errs[0].Error(), tt.wantErr)
		})
	}
}

func TestHTTPValidator_RateLimit(t *testing.T) {
	p := &Plugin{HTTP: HTTP{RateLimit: &RateLimit{RequestsPerSecond: 0, Burst: -1}}}
	errs := (&HTTPValidator{}).Validate(p)
	assert.Len(t, errs, 2)
}
