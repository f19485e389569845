package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"timeClock/internal/apperr"
	"timeClock/internal/clock"
	"timeClock/models"
	"timeClock/repository"
)

// DefaultSessionTTL is how long a login stays valid when no TTL is configured.
const DefaultSessionTTL = time.Hour

// Sessions issues and revokes login sessions.
type Sessions struct {
	store repository.SessionStore
	users repository.UserDirectory
	clock clock.Clock
	ttl   time.Duration
}

func NewSessions(store repository.SessionStore, users repository.UserDirectory, c clock.Clock, ttl time.Duration) *Sessions {
	if c == nil {
		c = clock.System{}
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{store: store, users: users, clock: c, ttl: ttl}
}

// TTL reports the lifetime of sessions created by Login.
func (s *Sessions) TTL() time.Duration { return s.ttl }

// Login verifies the credentials and creates a new session.
func (s *Sessions) Login(ctx context.Context, username, password string) (models.Session, *models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Session{}, nil, apperr.Invalid("username and password are required")
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return models.Session{}, nil, apperr.Store("lookup user", err)
	}
	if u == nil || u.PasswordHash == "" || CheckPassword(u.PasswordHash, password) != nil {
		return models.Session{}, nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
	}
	sess := models.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: s.clock.Now().Add(s.ttl).UTC().Truncate(time.Second),
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return models.Session{}, nil, apperr.Store("create session", err)
	}
	return sess, u, nil
}

// Logout deletes the session. An empty token is a no-op.
func (s *Sessions) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Delete(ctx, token); err != nil {
		return apperr.Store("delete session", err)
	}
	return nil
}

// BootstrapAdmin makes sure an admin account named username exists with the
// given password. It is used at startup since registration is handled elsewhere.
func BootstrapAdmin(ctx context.Context, users *repository.UserRepository, username, password string) error {
	if username == "" || password == "" {
		return errors.New("bootstrap admin: username and password are required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	u, err := users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if u == nil {
		_, err = users.Create(ctx, username, hash, models.RoleAdmin)
		return err
	}
	if err := users.UpdatePasswordHash(ctx, u.ID, hash); err != nil {
		return err
	}
	return users.UpdateRoleByUsername(ctx, username, models.RoleAdmin)
}
