package repository

import (
	"context"
	"time"

	"timeClock/models"
)

// SessionStore persists opaque session tokens. Lookup returns (nil, nil)
// when the token is unknown; expiry is judged by the caller.
type SessionStore interface {
	Create(ctx context.Context, s models.Session) error
	Lookup(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
}

// UserDirectory resolves users for role checks and login.
// Lookups return (nil, nil) when the user does not exist.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// AttendanceLedger is the contract the attendance core needs from storage.
type AttendanceLedger interface {
	FindByKey(ctx context.Context, userID int64, workDate, period string) (*models.AttendanceRecord, error)
	Upsert(ctx context.Context, w models.PunchWrite) (created bool, err error)
	RenamePeriod(ctx context.Context, userID int64, oldPeriod, newPeriod string) (int64, error)
	ListRange(ctx context.Context, userID int64, from, to string) ([]models.AttendanceRecord, error)
}

// SessionSweeper removes sessions that expired before now.
type SessionSweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
