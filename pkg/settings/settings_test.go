package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/nexus-source/pkg/config"
	"github.com/saturnines/nexus-source/pkg/errors"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		endpoint string
		want     string
	}{
		{"relative with slash", "https://tube.example", "/graphql", "https://tube.example/graphql"},
		{"relative without slash", "https://tube.example/", "graphql", "https://tube.example/graphql"},
		{"absolute passes through", "https://tube.example", "https://other.example/gql", "https://other.example/gql"},
		{"absolute ignores empty base", "", "https://other.example/gql", "https://other.example/gql"},
		{"query only", "https://tube.example/graphql", "?a=1", "https://tube.example/graphql?a=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(Static(tt.base), tt.endpoint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveWithoutBaseURL(t *testing.T) {
	_, err := Resolve(Static(""), "/graphql")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))

	_, err = Resolve(nil, "/graphql")
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestPluginResolverSelect(t *testing.T) {
	p := &config.Plugin{Endpoints: config.Endpoints{
		Selected: "main",
		URLs: map[string]string{
			"main":   "https://main.example",
			"mirror": "https://mirror.example",
		},
	}}
	r := NewPluginResolver(p)
	assert.Equal(t, "https://main.example", r.BaseURL())

	require.NoError(t, r.Select("mirror"))
	assert.Equal(t, "https://mirror.example", r.BaseURL())
	assert.Equal(t, "mirror", r.Selected())

	err := r.Select("missing")
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
	assert.Equal(t, "mirror", r.Selected())

	// the resolver owns a copy of the table
	p.Endpoints.URLs["mirror"] = "https://changed.example"
	assert.Equal(t, "https://mirror.example", r.BaseURL())
}

func TestResolverFunc(t *testing.T) {
	calls := 0
	r := ResolverFunc(func() string {
		calls++
		return "https://tube.example"
	})
	_, _ = Resolve(r, "/a")
	_, _ = Resolve(r, "/b")
	assert.Equal(t, 2, calls)
}
