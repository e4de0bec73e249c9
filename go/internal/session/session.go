// Package session holds the authenticated session handle issued by the
// scoring service and the provider that obtains and guards it.
package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Session is an authenticated handle. Its validity depends on the time it is
// checked at, so callers ask IsExpired with the current time instead of
// storing a flag.
type Session struct {
	Token        string
	RefreshToken string
	Created      bool
	UserID       string
	Username     string
	Vars         map[string]string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

type tokenClaims struct {
	UserID    string            `json:"uid"`
	Username  string            `json:"usn"`
	Vars      map[string]string `json:"vrs"`
	ExpiresAt int64             `json:"exp"`
	IssuedAt  int64             `json:"iat"`
}

// Parse builds a Session from a server-issued token. The signature is not
// checked; the server does that on every call.
func Parse(token, refreshToken string, created bool) (*Session, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, fmt.Errorf("%w: decode claims: %v", ErrMalformedToken, err)
	}

	var claims tokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: unmarshal claims: %v", ErrMalformedToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrMalformedToken)
	}
	if claims.ExpiresAt == 0 {
		return nil, fmt.Errorf("%w: missing expiry", ErrMalformedToken)
	}

	s := &Session{
		Token:        token,
		RefreshToken: refreshToken,
		Created:      created,
		UserID:       claims.UserID,
		Username:     claims.Username,
		Vars:         claims.Vars,
		ExpiresAt:    time.Unix(claims.ExpiresAt, 0).UTC(),
	}
	if claims.IssuedAt != 0 {
		s.IssuedAt = time.Unix(claims.IssuedAt, 0).UTC()
	}
	return s, nil
}

// IsExpired reports whether the session can no longer be used at now.
// A nil session is always expired.
func (s *Session) IsExpired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !now.Before(s.ExpiresAt)
}
