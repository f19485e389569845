package models

import "time"

// DefaultPeriod is used when a punch does not name a period.
const DefaultPeriod = "period1"

// Layouts used for values persisted in the attendance table.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// AttendanceRecord is one row of the ledger. The natural key is
// (UserID, WorkDate, Period); there is no synthetic id.
// Nil CheckIn/CheckOut means that half of the punch has not happened.
type AttendanceRecord struct {
	UserID       int64      `db:"user_id" json:"user_id"`
	WorkDate     string     `db:"work_date" json:"work_date"`
	Period       string     `db:"period" json:"period"`
	CheckInTime  *time.Time `db:"check_in_time" json:"check_in_time"`
	CheckOutTime *time.Time `db:"check_out_time" json:"check_out_time"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Open reports whether the record has a check-in but no check-out.
func (r *AttendanceRecord) Open() bool {
	return r != nil && r.CheckInTime != nil && r.CheckOutTime == nil
}

// PunchWrite describes a single upsert against the ledger. Only non-nil
// timestamps are written; nil fields leave the stored value untouched.
type PunchWrite struct {
	UserID    int64
	WorkDate  string
	Period    string
	CheckIn   *time.Time
	CheckOut  *time.Time
	UpdatedAt time.Time
}
