package auth

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func TestNewStateReadsClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s := NewState(signedToken(t, "user-42", exp))

	assert.Equal(t, "user-42", s.UserID)
	assert.True(t, s.ExpiresAt.Equal(exp))
	assert.True(t, s.Valid(time.Now()))
	assert.False(t, s.Valid(exp.Add(time.Second)))
}

func TestNewStateOpaqueToken(t *testing.T) {
	s := NewState("opaque-session-cookie")

	assert.Equal(t, "opaque-session-cookie", s.Token)
	assert.True(t, s.ExpiresAt.IsZero())
	assert.True(t, s.Valid(time.Now()))
	assert.False(t, NewState("").Valid(time.Now()))
}

func TestStateRefresh(t *testing.T) {
	old := State{Token: "old", UserID: "u"}

	next, err := old.Refresh(context.Background(), RefresherFunc(func(_ context.Context, cur State) (State, error) {
		assert.Equal(t, "old", cur.Token)
		return State{Token: "new", UserID: cur.UserID}, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, "new", next.Token)
	assert.Equal(t, "old", old.Token)

	kept, err := old.Refresh(context.Background(), RefresherFunc(func(context.Context, State) (State, error) {
		return State{}, stderrors.New("upstream 500")
	}))
	assert.True(t, stderrors.Is(err, ErrTokenRefresh))
	assert.Equal(t, old, kept)

	_, err = old.Refresh(context.Background(), nil)
	assert.True(t, stderrors.Is(err, ErrTokenRefresh))
}

func TestStateClear(t *testing.T) {
	s := State{Token: "t", UserID: "u", ExpiresAt: time.Now()}
	assert.Equal(t, State{}, s.Clear())
	assert.Equal(t, "t", s.Token)
}

func TestStateAuth(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	h := NewStateAuth(State{Token: "abc", ExpiresAt: now.Add(time.Minute)})
	h.now = func() time.Time { return now }
	req, _ := http.NewRequest(http.MethodGet, "https://tube.example.com", nil)
	require.NoError(t, h.ApplyAuth(req))
	assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))

	h.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.True(t, stderrors.Is(h.ApplyAuth(req), ErrInvalidCredentials))

	empty := NewStateAuth(State{})
	assert.True(t, stderrors.Is(empty.ApplyAuth(req), ErrMissingCredentials))
}

func TestStateAuthLiteralUsesWallClock(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "https://tube.example", nil)

	h := &StateAuth{State: State{Token: "t", ExpiresAt: time.Now().Add(time.Hour)}}
	require.NoError(t, h.ApplyAuth(req))
	assert.Equal(t, "Bearer t", req.Header.Get("Authorization"))

	expired := &StateAuth{State: State{Token: "t", ExpiresAt: time.Now().Add(-time.Hour)}}
	assert.True(t, stderrors.Is(expired.ApplyAuth(req), ErrInvalidCredentials))
}
