package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"moviecatalog/proj/internal/domain/models"
	"moviecatalog/proj/internal/storage"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoSession = errors.New("not logged in")
	ErrForbidden = errors.New("admin role required")
)

// CredentialStore is opaque storage for the token and role strings.
type CredentialStore interface {
	Load(ctx context.Context) (token, role string, err error)
	Save(ctx context.Context, token, role string) error
	Clear(ctx context.Context) error
}

// Manager is the single source of truth for the logged-in session. Set and
// Clear are called by the login and logout flows only; everything else reads.
type Manager struct {
	log   *slog.Logger
	store CredentialStore
	now   func() time.Time

	mu      sync.RWMutex
	current models.Session
}

func New(log *slog.Logger, store CredentialStore) *Manager {
	return &Manager{
		log:   log,
		store: store,
		now:   time.Now,
	}
}

// Restore loads a previously saved credential. A credential with an unknown
// role is discarded.
func (m *Manager) Restore(ctx context.Context) error {
	const op = "session.Manager.Restore"
	log := m.log.With("op", op)
	token, rawRole, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Debug("no stored credential")
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	role, err := models.ParseRole(rawRole)
	if err != nil {
		log.Warn("discarding stored credential", "reason", err.Error())
		return m.store.Clear(ctx)
	}
	sess := models.Session{Token: token, Role: role}
	if m.expired(sess) {
		log.Info("stored credential expired")
		return m.store.Clear(ctx)
	}
	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
	log.Info("session restored", "role", role.String())
	return nil
}

// Current returns the live session. Sessions whose bearer token carries an
// exp claim in the past are dropped.
func (m *Manager) Current() (models.Session, bool) {
	m.mu.RLock()
	sess := m.current
	m.mu.RUnlock()
	if sess.IsZero() {
		return models.Session{}, false
	}
	if m.expired(sess) {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := m.clearIf(ctx, sess.Token); err != nil {
			m.log.Error("failed to clear expired session", "errMsg", err.Error())
		}
		return models.Session{}, false
	}
	return sess, true
}

func (m *Manager) Set(ctx context.Context, sess models.Session) error {
	if sess.IsZero() {
		return ErrNoSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(ctx, sess.Token, sess.Role.String()); err != nil {
		return fmt.Errorf("session.Manager.Set: %w", err)
	}
	m.current = sess
	return nil
}

func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = models.Session{}
	return m.store.Clear(ctx)
}

func (m *Manager) clearIf(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current.Token != token {
		return nil
	}
	m.current = models.Session{}
	return m.store.Clear(ctx)
}

func (m *Manager) expired(sess models.Session) bool {
	exp, ok := tokenExpiry(sess.Token)
	return ok && !m.now().Before(exp)
}

// tokenExpiry reads the exp claim without verifying the signature; the remote
// API stays the authority on validity. Opaque tokens report ok == false.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// RequireAdmin is the access gate for mutating actions.
func RequireAdmin(sess models.Session) error {
	if sess.IsZero() {
		return ErrNoSession
	}
	switch sess.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleUser:
		return ErrForbidden
	default:
		return fmt.Errorf("%w: %v", models.ErrUnknownRole, sess.Role)
	}
}
