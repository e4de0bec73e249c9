package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/apexracer/go/internal/retry"
	"github.com/rs/zerolog/log"
)

// Authenticator exchanges credentials for a session.
type Authenticator interface {
	AuthenticateDevice(ctx context.Context, deviceID, username string, create bool) (*Session, error)
	AuthenticateEmail(ctx context.Context, email, password, username string, create bool) (*Session, error)
}

// Credentials select how the provider signs in. An email switches the
// provider to email login; otherwise the device id is used.
type Credentials struct {
	DeviceID string
	Email    string
	Password string
	Username string
}

func (c Credentials) UsesEmail() bool {
	return c.Email != ""
}

// Provider owns the current session. Readers get it through Session, which
// re-checks expiry on every call.
type Provider struct {
	auth     Authenticator
	executor *retry.Executor
	clock    clockwork.Clock
	creds    Credentials

	mu      sync.RWMutex
	current *Session
}

// NewProvider creates a provider that signs in with creds through executor.
// The executor's clock is used for expiry checks.
func NewProvider(auth Authenticator, executor *retry.Executor, creds Credentials) *Provider {
	return &Provider{
		auth:     auth,
		executor: executor,
		clock:    executor.Clock(),
		creds:    creds,
	}
}

// Authenticate signs in under the executor's retry policy and stores the
// resulting session. Device accounts are created on first use; email accounts
// must already exist (see Register). On failure the previous session, if any,
// is left untouched.
func (p *Provider) Authenticate(ctx context.Context) (*Session, error) {
	if p.creds.UsesEmail() {
		return p.authenticateEmail(ctx, "Email Login", false)
	}

	sess, err := retry.Do(ctx, p.executor, "Authentication", func(ctx context.Context) (*Session, error) {
		return p.auth.AuthenticateDevice(ctx, p.creds.DeviceID, p.creds.Username, true)
	})
	if err != nil {
		log.Error().Err(err).Str("device_id", p.creds.DeviceID).Msg("authentication failed")
		return nil, fmt.Errorf("authenticate device: %w", err)
	}

	p.store(sess)
	return sess, nil
}

// Register creates an email account under the configured username and signs
// in with it. Signing in to an existing account with the right password also
// succeeds; the session's Created flag tells the two apart.
func (p *Provider) Register(ctx context.Context) (*Session, error) {
	if p.creds.Email == "" || p.creds.Password == "" {
		return nil, ErrNoEmailCredentials
	}
	return p.authenticateEmail(ctx, "Email Registration", true)
}

func (p *Provider) authenticateEmail(ctx context.Context, label string, create bool) (*Session, error) {
	username := ""
	if create {
		username = p.creds.Username
	}

	sess, err := retry.Do(ctx, p.executor, label, func(ctx context.Context) (*Session, error) {
		return p.auth.AuthenticateEmail(ctx, p.creds.Email, p.creds.Password, username, create)
	})
	if err != nil {
		log.Error().Err(err).Str("email", p.creds.Email).Bool("create", create).Msg("email authentication failed")
		return nil, fmt.Errorf("authenticate email: %w", err)
	}

	p.store(sess)
	return sess, nil
}

func (p *Provider) store(sess *Session) {
	p.SetSession(sess)

	log.Info().
		Str("user_id", sess.UserID).
		Str("username", sess.Username).
		Bool("created", sess.Created).
		Time("expires_at", sess.ExpiresAt).
		Msg("successfully authenticated")
}

// SetSession replaces the current session, e.g. after an external re-authentication.
func (p *Provider) SetSession(s *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = s
}

func (p *Provider) Clear() {
	p.SetSession(nil)
}

// Session returns the current session, or ErrNotAuthenticated when there is
// none or it has expired.
func (p *Provider) Session() (*Session, error) {
	p.mu.RLock()
	s := p.current
	p.mu.RUnlock()

	if s.IsExpired(p.clock.Now()) {
		return nil, ErrNotAuthenticated
	}
	return s, nil
}

func (p *Provider) IsValid() bool {
	_, err := p.Session()
	return err == nil
}

// UserID returns the user id of the valid session, or "" if there is none.
func (p *Provider) UserID() string {
	s, err := p.Session()
	if err != nil {
		return ""
	}
	return s.UserID
}
