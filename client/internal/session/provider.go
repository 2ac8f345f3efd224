package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maynagashev/redactvault/models"
)

var (
	// ErrEmptyCredentials is returned when login is attempted without username or password.
	ErrEmptyCredentials = errors.New("username and password are required")
	// ErrNotAuthenticated is returned when refreshing an anonymous session.
	ErrNotAuthenticated = errors.New("session is not authenticated")
)

// Authenticator exchanges credentials for an access token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
}

// TokenRefresher exchanges the credential it is bound to for a new token.
type TokenRefresher interface {
	RefreshToken(ctx context.Context) (*models.LoginResponse, error)
}

// Provider bootstraps sessions: it rehydrates the persisted one at startup
// and produces new values on login and logout.
type Provider struct {
	auth  Authenticator
	store *Store
}

// NewProvider creates a provider. store may be nil to disable persistence.
func NewProvider(auth Authenticator, store *Store) *Provider {
	return &Provider{auth: auth, store: store}
}

// Restore returns the persisted session, or an anonymous one if there is none.
func (p *Provider) Restore() Session {
	if p.store == nil {
		return Anonymous()
	}
	sess, err := p.store.Load()
	if err != nil {
		slog.Warn("persisted session ignored", "path", p.store.Path(), "error", err)
		return Anonymous()
	}
	if sess.Authenticated() {
		slog.Info("session restored", "subject", sess.Subject())
	}
	return sess
}

// Login authenticates and returns a new session. The session is persisted
// when a store is configured; a persistence failure is logged and does not
// fail the login.
func (p *Provider) Login(ctx context.Context, username, password string) (Session, error) {
	if username == "" || password == "" {
		return Anonymous(), ErrEmptyCredentials
	}
	resp, err := p.auth.Login(ctx, username, password)
	if err != nil {
		return Anonymous(), fmt.Errorf("login: %w", err)
	}

	subject := resp.User.Username
	if subject == "" {
		subject = username
	}
	sess := New(subject, resp.AccessToken)
	p.persist(sess)
	return sess, nil
}

// Refresh trades the credential of sess for a new one through refresher,
// which must be bound to sess. It returns a new session and leaves sess
// untouched; on failure sess is returned as is together with the error.
func (p *Provider) Refresh(ctx context.Context, sess Session, refresher TokenRefresher) (Session, error) {
	if !sess.Authenticated() {
		return sess, ErrNotAuthenticated
	}
	resp, err := refresher.RefreshToken(ctx)
	if err != nil {
		return sess, fmt.Errorf("refresh session: %w", err)
	}

	subject := resp.User.Username
	if subject == "" {
		subject = sess.Subject()
	}
	fresh := New(subject, resp.AccessToken)
	p.persist(fresh)
	slog.Info("session refreshed", "subject", subject)
	return fresh, nil
}

func (p *Provider) persist(sess Session) {
	if p.store == nil {
		return
	}
	if err := p.store.Save(sess); err != nil {
		slog.Error("failed to persist session", "path", p.store.Path(), "error", err)
	}
}

// Logout forgets the persisted session and returns an anonymous one.
func (p *Provider) Logout() (Session, error) {
	if p.store != nil {
		if err := p.store.Clear(); err != nil {
			return Anonymous(), fmt.Errorf("logout: %w", err)
		}
	}
	return Anonymous(), nil
}
