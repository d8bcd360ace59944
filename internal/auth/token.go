package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoToken = errors.New("no token configured")

// TokenSource holds the bearer token the agent presents upstream. Session
// establishment happens outside the agent; the token arrives via
// configuration. The agent never verifies the signature (it does not hold
// the signing key) but parses the claims so expiry can be surfaced in logs
// and health output instead of as opaque 401s.
type TokenSource struct {
	raw       string
	subject   string
	expiresAt *time.Time
}

// NewTokenSource wraps a raw bearer token. A non-JWT token is accepted as-is
// with no claim information.
func NewTokenSource(raw string) (*TokenSource, error) {
	if raw == "" {
		return nil, ErrNoToken
	}

	ts := &TokenSource{raw: raw}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		// Opaque (non-JWT) tokens are fine; the upstream decides validity.
		return ts, nil
	}

	if sub, err := claims.GetSubject(); err == nil {
		ts.subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		ts.expiresAt = &exp.Time
	}

	return ts, nil
}

// Token returns the raw bearer token.
func (ts *TokenSource) Token() string {
	return ts.raw
}

// Subject returns the token's subject claim, or "" when unknown.
func (ts *TokenSource) Subject() string {
	return ts.subject
}

// ExpiresAt returns the token's expiry, or ok=false when the token carries
// none.
func (ts *TokenSource) ExpiresAt() (time.Time, bool) {
	if ts.expiresAt == nil {
		return time.Time{}, false
	}
	return *ts.expiresAt, true
}

// Expired reports whether the token has expired as of now. Tokens without an
// expiry claim never report expired.
func (ts *TokenSource) Expired(now time.Time) bool {
	return ts.expiresAt != nil && now.After(*ts.expiresAt)
}
