package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

var ErrInactive = errors.New("session inactive")

// Manager issues signed session tokens backed by a server-side record. A token
// is only honoured while its record is present, unrevoked and unexpired.
type Manager struct {
	Store  Store
	Secret []byte
	TTL    time.Duration

	now func() time.Time
}

func NewManager(store Store, secret []byte, ttl time.Duration) *Manager {
	return &Manager{Store: store, Secret: secret, TTL: ttl, now: time.Now}
}

func (m *Manager) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

func (m *Manager) Issue(ctx context.Context, userID uint, isAdmin bool) (string, time.Time, error) {
	now := m.clock()
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		IsAdmin:   isAdmin,
		ExpiresAt: now.Add(m.TTL),
		CreatedAt: now,
	}
	if err := m.Store.Save(ctx, sess); err != nil {
		return "", time.Time{}, fmt.Errorf("save session: %w", err)
	}

	token, err := tokens.SignSession(m.Secret, sess.ID, userID, isAdmin, now, sess.ExpiresAt)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, sess.ExpiresAt, nil
}

// Resolve returns the active session named by token. Identity and the admin
// flag come from the stored record, not from the token claims.
func (m *Manager) Resolve(ctx context.Context, token string) (*models.Session, error) {
	claims, err := tokens.SessionClaimsFromToken(token, m.Secret, jwt.WithTimeFunc(m.clock))
	if err != nil {
		return nil, err
	}

	sess, err := m.Store.Find(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInactive
		}
		return nil, err
	}
	if !sess.Active(m.clock()) {
		return nil, ErrInactive
	}
	if uid, err := claims.UserID(); err != nil || uid != sess.UserID {
		return nil, ErrInactive
	}
	return sess, nil
}

// Revoke ends the session named by token. Expired or malformed tokens are
// ignored so that logging out is always safe to repeat.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := tokens.SessionClaimsFromToken(token, m.Secret, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil
	}
	return m.Store.Revoke(ctx, claims.ID)
}

// RunJanitor deletes expired sessions every interval until ctx is done.
func RunJanitor(ctx context.Context, store *GormStore, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpired(ctx, time.Now())
			if err != nil {
				log.Warn("session_janitor_failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("session_janitor_cleaned", "deleted", n)
			}
		}
	}
}
