package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// State is a session token held by the caller. Operations return a new
// State rather than mutating the receiver.
type State struct {
	Token     string
	ExpiresAt time.Time // zero when unknown
	UserID    string
}

// NewState builds a State from an access token. JWTs contribute their exp and
// sub claims; the signature is not checked since the server does that.
// Opaque tokens yield a State with only Token set.
func NewState(token string) State {
	s := State{Token: token}
	if token == "" {
		return s
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return s
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	s.UserID = claims.Subject
	return s
}

// Valid reports whether the state carries a token that has not expired at now.
func (s State) Valid(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Refresher obtains a new session from an existing one
type Refresher interface {
	Refresh(ctx context.Context, current State) (State, error)
}

// RefresherFunc adapts a function into a Refresher
type RefresherFunc func(ctx context.Context, current State) (State, error)

func (f RefresherFunc) Refresh(ctx context.Context, current State) (State, error) {
	return f(ctx, current)
}

// Refresh asks r for a new session. On failure the receiver is returned unchanged.
func (s State) Refresh(ctx context.Context, r Refresher) (State, error) {
	if r == nil {
		return s, fmt.Errorf("%w: no refresher configured", ErrTokenRefresh)
	}
	next, err := r.Refresh(ctx, s)
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrTokenRefresh, err)
	}
	if next.Token == "" {
		return s, fmt.Errorf("%w: refresher returned an empty token", ErrTokenRefresh)
	}
	return next, nil
}

// Clear returns the logged-out state.
func (s State) Clear() State {
	return State{}
}

// StateAuth applies a State as a bearer token
type StateAuth struct {
	State State
	now   func() time.Time
}

// NewStateAuth creates a handler for s
func NewStateAuth(s State) *StateAuth {
	return &StateAuth{State: s, now: time.Now}
}

// ApplyAuth sets the Authorization header, failing when the session is missing or expired
func (a *StateAuth) ApplyAuth(req *http.Request) error {
	if a.State.Token == "" {
		return fmt.Errorf("%w: not logged in", ErrMissingCredentials)
	}
	now := a.now
	if now == nil {
		now = time.Now
	}
	if !a.State.Valid(now()) {
		return fmt.Errorf("%w: session expired at %s", ErrInvalidCredentials, a.State.ExpiresAt.Format(time.RFC3339))
	}
	req.Header.Set("Authorization", "Bearer "+a.State.Token)
	return nil
}

func (a *StateAuth) String() string {
	return fmt.Sprintf("StateAuth(user: %s)", a.State.UserID)
}
