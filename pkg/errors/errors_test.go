package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkErrorMentionsURLAndStatus(t *testing.T) {
	err := Network("https://example.com/graphql", 500)

	assert.Contains(t, err.Error(), "https://example.com/graphql")
	assert.Contains(t, err.Error(), "500")
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.False(t, errors.Is(err, ErrAPI))
}

func TestExhaustedWrapsLastError(t *testing.T) {
	last := Network("https://example.com", 503)
	err := Exhausted("https://example.com", 4, last)

	assert.Equal(t, 4, err.Attempts)
	assert.Contains(t, err.Error(), "after 4 attempts")
	assert.Contains(t, err.Error(), "503")

	var inner *Error
	require.True(t, errors.As(err.Unwrap(), &inner))
	assert.Equal(t, 503, inner.StatusCode)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"api", API("u", `[{"message":"x"}]`), ErrAPI},
		{"graphql", GraphQL("boom"), ErrGraphQL},
		{"config", Config("no base url"), ErrConfiguration},
		{"wrapped", fmt.Errorf("outer: %w", Network("u", 404)), ErrNetwork},
		{"plain", errors.New("plain"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := WrapError(cause, ErrAuthentication, "apply auth")

	assert.True(t, Is(err, ErrAuthentication))
	assert.True(t, Is(err, cause))
	assert.Contains(t, err.Error(), "apply auth")
}
