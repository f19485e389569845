package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"timeClock/models"
)

// sessionTimeLayout keeps expires_at lexically sortable in UTC.
const sessionTimeLayout = "2006-01-02 15:04:05"

// SessionRepository stores sessions in the sessions table.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s models.Session) error {
	if s.Token == "" || s.UserID == 0 {
		return errors.New("session: missing token or user_id")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)`,
		s.Token, s.UserID, s.ExpiresAt.UTC().Format(sessionTimeLayout))
	return err
}

// Lookup returns the session for token, or (nil, nil) if none exists.
// Expired rows are returned as-is; expiry is the caller's decision.
func (r *SessionRepository) Lookup(ctx context.Context, token string) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s models.Session
	var expires string
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, expires_at FROM sessions WHERE id = ?`, token).Scan(&s.Token, &s.UserID, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.ExpiresAt, err = time.ParseInLocation(sessionTimeLayout, expires, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("session: parse expires_at %q: %w", expires, err)
	}
	return &s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, token)
	return err
}

// DeleteExpired removes every session whose expiry is at or before now.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UTC().Format(sessionTimeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
