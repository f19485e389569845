package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"timeClock/models"
)

// ErrPeriodConflict is returned by RenamePeriod when the new label already
// exists for one of the affected dates.
var ErrPeriodConflict = errors.New("period name already used on an affected date")

// AttendanceRepository is the SQLite attendance ledger. Timestamps are stored
// as wall-clock text in loc.
type AttendanceRepository struct {
	db  *sql.DB
	loc *time.Location
}

func NewAttendanceRepository(db *sql.DB, loc *time.Location) *AttendanceRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceRepository{db: db, loc: loc}
}

const attendanceColumns = `user_id, work_date, period, check_in_time, check_out_time, updated_at`

// FindByKey returns the record for the natural key, or (nil, nil).
func (r *AttendanceRepository) FindByKey(ctx context.Context, userID int64, workDate, period string) (*models.AttendanceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+attendanceColumns+` FROM attendance
		WHERE user_id = ? AND work_date = ? AND period = ?`, userID, workDate, period)
	rec, err := r.scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// Upsert writes w under its natural key. Nil timestamps in w keep whatever is
// stored. created reports whether the row did not exist before the write.
func (r *AttendanceRepository) Upsert(ctx context.Context, w models.PunchWrite) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance WHERE user_id = ? AND work_date = ? AND period = ?`,
		w.UserID, w.WorkDate, w.Period).Scan(&exists); err != nil {
		_ = tx.Rollback()
		return false, err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO attendance (`+attendanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, work_date, period) DO UPDATE SET
			check_in_time  = COALESCE(excluded.check_in_time, attendance.check_in_time),
			check_out_time = COALESCE(excluded.check_out_time, attendance.check_out_time),
			updated_at     = excluded.updated_at`,
		w.UserID, w.WorkDate, w.Period, r.nullable(w.CheckIn), r.nullable(w.CheckOut), r.format(w.UpdatedAt))
	if err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return exists == 0, nil
}

// RenamePeriod relabels every record of userID from oldPeriod to newPeriod in
// one statement and returns the number of rows changed.
func (r *AttendanceRepository) RenamePeriod(ctx context.Context, userID int64, oldPeriod, newPeriod string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE attendance SET period = ? WHERE user_id = ? AND period = ?`, newPeriod, userID, oldPeriod)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, ErrPeriodConflict
		}
		return 0, err
	}
	return res.RowsAffected()
}

// ListRange returns userID's records with from <= work_date < to, ordered by
// date then period.
func (r *AttendanceRepository) ListRange(ctx context.Context, userID int64, from, to string) ([]models.AttendanceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+attendanceColumns+` FROM attendance
		WHERE user_id = ? AND work_date >= ? AND work_date < ?
		ORDER BY work_date, period`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.AttendanceRecord
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *AttendanceRepository) scan(row rowScanner) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	var in, out sql.NullString
	var updated string
	if err := row.Scan(&rec.UserID, &rec.WorkDate, &rec.Period, &in, &out, &updated); err != nil {
		return nil, err
	}
	var err error
	if rec.CheckInTime, err = r.parseNullable(in); err != nil {
		return nil, err
	}
	if rec.CheckOutTime, err = r.parseNullable(out); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = time.ParseInLocation(models.TimestampLayout, updated, r.loc); err != nil {
		return nil, fmt.Errorf("attendance: parse updated_at %q: %w", updated, err)
	}
	return &rec, nil
}

func (r *AttendanceRepository) format(t time.Time) string {
	return t.In(r.loc).Format(models.TimestampLayout)
}

func (r *AttendanceRepository) nullable(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: r.format(*t), Valid: true}
}

func (r *AttendanceRepository) parseNullable(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(models.TimestampLayout, s.String, r.loc)
	if err != nil {
		return nil, fmt.Errorf("attendance: parse timestamp %q: %w", s.String, err)
	}
	return &t, nil
}
