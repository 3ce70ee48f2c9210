package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shop-auth-api/internal/domain"
	"github.com/shop-auth-api/internal/pkg/id"
)

// Default expiry policy per session kind. Long-lived standard sessions keep
// re-authentication friction low for a storefront; temporary sessions bound
// the blast radius of narrow-purpose tokens. Overridable per Manager via
// SESSION_LIFETIME / TEMP_SESSION_LIFETIME.
const (
	StandardLifetime  = 360 * 24 * time.Hour
	TemporaryLifetime = 10 * time.Minute
)

// SessionStore is the session row store the manager drives.
type SessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) (int, error)
	DeleteByPrincipal(ctx context.Context, principalID string) error
}

// Audit carries the optional device/ip annotation stored on a session row.
// Informational only; nothing validates it.
type Audit struct {
	Device string
	IP     string
}

// Manager owns the session lifecycle: minting, the "session is valid"
// predicate, and revocation. Expired rows are reaped lazily on validation,
// never by a background sweep.
type Manager struct {
	store             SessionStore
	standardLifetime  time.Duration
	temporaryLifetime time.Duration
	now               func() time.Time
}

// NewManager builds a manager with the given per-kind lifetimes. A zero
// duration keeps the default for that kind.
func NewManager(store SessionStore, standard, temporary time.Duration) *Manager {
	if standard <= 0 {
		standard = StandardLifetime
	}
	if temporary <= 0 {
		temporary = TemporaryLifetime
	}
	return &Manager{
		store:             store,
		standardLifetime:  standard,
		temporaryLifetime: temporary,
		now:               time.Now,
	}
}

// Create inserts a session row of the given kind and returns it.
func (m *Manager) Create(ctx context.Context, principalID, principalType, kind string, audit Audit) (*domain.Session, error) {
	if kind != domain.SessionKindStandard && kind != domain.SessionKindTemporary {
		return nil, fmt.Errorf("unknown session kind %q", kind)
	}
	sess := &domain.Session{
		SessionID:     id.New(),
		PrincipalID:   principalID,
		PrincipalType: principalType,
		Temp:          kind == domain.SessionKindTemporary,
		Device:        audit.Device,
		IP:            audit.IP,
		CreatedAt:     m.now().UTC(),
	}
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Validate looks up the row and applies the expiry policy for its kind.
// An expired row is deleted before the error is returned, so the next
// presentation of the same token short-circuits at not-found.
func (m *Manager) Validate(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
		}
		return nil, err
	}
	if m.now().Sub(sess.CreatedAt) > m.lifetimeFor(sess) {
		if _, err := m.store.Delete(ctx, sessionID); err != nil {
			slog.Warn("failed to delete expired session", "session_id", sessionID, "err", err)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionExpired, sessionID)
	}
	return sess, nil
}

// Revoke deletes the row. Idempotent: returns how many rows were removed.
func (m *Manager) Revoke(ctx context.Context, sessionID string) (int, error) {
	return m.store.Delete(ctx, sessionID)
}

// RevokeAllForPrincipal deletes every session row for the principal, making
// all previously issued tokens unusable immediately.
func (m *Manager) RevokeAllForPrincipal(ctx context.Context, principalID string) error {
	return m.store.DeleteByPrincipal(ctx, principalID)
}

func (m *Manager) lifetimeFor(s *domain.Session) time.Duration {
	if s.Temp {
		return m.temporaryLifetime
	}
	return m.standardLifetime
}
