package auth

import (
	"context"
	"fmt"

	"timeClock/internal/apperr"
	"timeClock/internal/clock"
	"timeClock/internal/metrics"
	"timeClock/models"
	"timeClock/repository"
)

// AuthContext is the principal a session token resolves to. It is passed
// explicitly into every attendance operation.
type AuthContext struct {
	UserID   int64
	Username string
	Role     models.Role
}

// IsAdmin reports whether the caller holds the admin role.
func (a AuthContext) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// RequireAdmin fails with ErrForbidden unless the caller is an admin.
func (a AuthContext) RequireAdmin() error {
	if !a.IsAdmin() {
		metrics.AuthFailures.WithLabelValues("forbidden").Inc()
		return apperr.Forbidden("admin only")
	}
	return nil
}

// RequireSelfOrAdmin fails with ErrForbidden unless the caller is target or an admin.
func (a AuthContext) RequireSelfOrAdmin(target int64) error {
	if a.UserID == target || a.IsAdmin() {
		return nil
	}
	metrics.AuthFailures.WithLabelValues("forbidden").Inc()
	return apperr.Forbidden("can only access own records")
}

// Guard resolves session tokens against the session store and user directory.
// It never writes.
type Guard struct {
	sessions repository.SessionStore
	users    repository.UserDirectory
	clock    clock.Clock
}

func NewGuard(sessions repository.SessionStore, users repository.UserDirectory, c clock.Clock) *Guard {
	if c == nil {
		c = clock.System{}
	}
	return &Guard{sessions: sessions, users: users, clock: c}
}

// Resolve maps token to the caller's AuthContext.
func (g *Guard) Resolve(ctx context.Context, token string) (AuthContext, error) {
	if token == "" {
		metrics.AuthFailures.WithLabelValues("missing_token").Inc()
		return AuthContext{}, fmt.Errorf("%w: not logged in", apperr.ErrUnauthenticated)
	}
	s, err := g.sessions.Lookup(ctx, token)
	if err != nil {
		return AuthContext{}, apperr.Store("lookup session", err)
	}
	if s == nil {
		metrics.AuthFailures.WithLabelValues("unknown_session").Inc()
		return AuthContext{}, fmt.Errorf("%w: unknown session", apperr.ErrUnauthenticated)
	}
	if s.Expired(g.clock.Now()) {
		metrics.AuthFailures.WithLabelValues("expired_session").Inc()
		return AuthContext{}, apperr.ErrSessionExpired
	}
	u, err := g.users.GetByID(ctx, s.UserID)
	if err != nil {
		return AuthContext{}, apperr.Store("lookup user", err)
	}
	if u == nil {
		metrics.AuthFailures.WithLabelValues("unknown_user").Inc()
		return AuthContext{}, fmt.Errorf("%w: session user no longer exists", apperr.ErrUnauthenticated)
	}
	return AuthContext{UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}

type authContextKey struct{}

// WithAuthContext stores a resolved AuthContext in ctx.
func WithAuthContext(ctx context.Context, a AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, a)
}

// AuthFromContext returns the AuthContext stored by WithAuthContext.
func AuthFromContext(ctx context.Context) (AuthContext, bool) {
	a, ok := ctx.Value(authContextKey{}).(AuthContext)
	return a, ok
}
