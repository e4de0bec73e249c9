package session

import "errors"

var (
	// ErrNotAuthenticated is returned when no session exists or it has expired.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoEmailCredentials is returned by Register when no email is configured.
	ErrNoEmailCredentials = errors.New("email and password are required")

	// ErrMalformedToken is returned when a session token cannot be decoded.
	ErrMalformedToken = errors.New("malformed session token")
)
