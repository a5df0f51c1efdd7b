package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/nexus-source/pkg/auth"
	"github.com/saturnines/nexus-source/pkg/config"
	"github.com/saturnines/nexus-source/pkg/errors"
)

func TestHTTPTransport_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "nexus/1.0", r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("X-Trace", "t1")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tr := NewHTTPTransport(WithAuthHandler(auth.NewBearerAuth("secret")))
	out, err := tr.Get(context.Background(), server.URL, map[string]string{"User-Agent": "nexus/1.0"}, false)
	require.NoError(t, err)

	assert.True(t, out.OK)
	assert.Equal(t, 200, out.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(out.Body))
	assert.Equal(t, "t1", out.Headers.Get("X-Trace"))
}

func TestHTTPTransport_AppliesAuthOnlyWhenAsked(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer server.Close()

	tr := NewHTTPTransport(WithAuthHandler(auth.NewBearerAuth("secret")))
	_, err := tr.Get(context.Background(), server.URL, nil, true)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", got)
}

func TestHTTPTransport_AuthFailure(t *testing.T) {
	tr := NewHTTPTransport(WithAuthHandler(auth.NewBearerAuth("")))
	_, err := tr.Get(context.Background(), "http://127.0.0.1:1", nil, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrAuthentication))
}

func TestHTTPTransport_PostAndRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, `{"a":1}`, string(body))
			w.WriteHeader(http.StatusCreated)
		case http.MethodPut:
			assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
			assert.Equal(t, "raw", string(body))
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	tr := NewHTTPTransport()

	out, err := tr.Post(context.Background(), server.URL, `{"a":1}`, nil, false)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, http.StatusCreated, out.StatusCode)

	out, err = tr.Request(context.Background(), http.MethodPut, server.URL, "raw",
		map[string]string{"Content-Type": "text/plain"}, false)
	require.NoError(t, err)
	assert.False(t, out.OK)
	assert.Equal(t, http.StatusInternalServerError, out.StatusCode)
}

func TestHTTPTransport_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewHTTPTransport().Get(context.Background(), url, nil, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNetwork))
}

func TestHTTPTransport_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer server.Close()

	tr := NewHTTPTransport(WithRateLimit(20, 1))
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := tr.Get(context.Background(), server.URL, nil, false)
		require.NoError(t, err)
	}
	// one token up front, then one every 50ms
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestHTTPTransport_RateLimitHonoursContext(t *testing.T) {
	tr := NewHTTPTransport(WithRateLimit(0.001, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Get(ctx, "http://127.0.0.1:1", nil, false)
	assert.True(t, errors.Is(err, errors.ErrNetwork))
}

func TestNewFromConfig(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("key")
	}))
	defer server.Close()

	p := &config.Plugin{
		HTTP: config.HTTP{TimeoutSeconds: 5},
		Auth: &config.Auth{Type: config.AuthTypeAPIKey, APIKey: &config.APIKeyAuth{QueryParam: "key", Value: "k1"}},
	}
	tr, err := NewFromConfig(p, nil)
	require.NoError(t, err)

	c, ok := tr.doer.(*http.Client)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, c.Timeout)

	_, err = tr.Get(context.Background(), server.URL, nil, true)
	require.NoError(t, err)
	assert.Equal(t, "k1", got)

	_, err = NewFromConfig(&config.Plugin{Auth: &config.Auth{Type: "digest"}}, nil)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}
