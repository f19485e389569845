package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/metadata"

	"timeClock/internal/db"
	"timeClock/models"
	"timeClock/repository"
)

// Taipei is the fixed UTC+8 zone the service runs in by default.
var Taipei = time.FixedZone("UTC+8", 8*3600)

// OpenInMemoryDB opens an in-memory SQLite database and applies migrations.
// The database is closed via t.Cleanup.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	// Shared cache so every pooled connection sees the same database.
	d, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// SeedUser creates a user with the given role. An empty password leaves the
// account without a credential.
func SeedUser(t *testing.T, d *sql.DB, username, password string, role models.Role) *models.User {
	t.Helper()
	hash := ""
	if password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		hash = string(b)
	}
	u, err := repository.NewUserRepository(d).Create(context.Background(), username, hash, role)
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

// SeedSession stores a session for userID and returns its token.
func SeedSession(t *testing.T, d *sql.DB, token string, userID int64, expiresAt time.Time) string {
	t.Helper()
	err := repository.NewSessionRepository(d).Create(context.Background(), models.Session{Token: token, UserID: userID, ExpiresAt: expiresAt})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return token
}

// Local returns the instant for a wall-clock time in Taipei.
func Local(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, Taipei)
}

// GenerateJWTHS256 returns a signed JWT string with the claims the gRPC interceptor reads.
func GenerateJWTHS256(t *testing.T, secret, name, kind string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"name": name,
		"kind": kind,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// CtxWithBearer returns a context containing gRPC metadata Authorization header with the given token.
func CtxWithBearer(ctx context.Context, token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(ctx, md)
}

// CtxWithSession returns an incoming gRPC context carrying only the employee session token.
func CtxWithSession(ctx context.Context, session string) context.Context {
	return metadata.NewIncomingContext(ctx, metadata.Pairs("x-session-token", session))
}
