package models

import "time"

// Session maps an opaque token to a user until ExpiresAt.
type Session struct {
	Token     string    `db:"id" json:"token"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
// A session is treated as absent from the moment now reaches ExpiresAt.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
