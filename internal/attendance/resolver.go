// Package attendance turns punch events into ledger writes and projects the
// ledger into daily and monthly views.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"timeClock/internal/apperr"
	"timeClock/internal/auth"
	"timeClock/internal/clock"
	"timeClock/internal/metrics"
	"timeClock/models"
	"timeClock/repository"
)

// overnightCutoffHour ends the early-morning window in which a check-out may
// close the previous day's open record.
const overnightCutoffHour = 5

// Service is the attendance resolver and aggregator.
type Service struct {
	ledger repository.AttendanceLedger
	users  repository.UserDirectory
	clock  clock.Clock
	loc    *time.Location
}

func NewService(ledger repository.AttendanceLedger, users repository.UserDirectory, c clock.Clock, loc *time.Location) *Service {
	if c == nil {
		c = clock.System{}
	}
	if loc == nil {
		loc = clock.Zone(8)
	}
	return &Service{ledger: ledger, users: users, clock: c, loc: loc}
}

// PunchResult describes the row a punch landed on.
type PunchResult struct {
	WorkDate  string
	Period    string
	At        time.Time
	Created   bool
	Overnight bool
}

// Message is the human readable outcome returned to clients.
func (r PunchResult) Message(checkOut bool) string {
	switch {
	case checkOut && r.Overnight:
		return "overnight check-out recorded"
	case checkOut && r.Created:
		return "checked out"
	case checkOut:
		return "check-out updated"
	case r.Created:
		return "checked in"
	default:
		return "check-in updated"
	}
}

func (r PunchResult) outcome() string {
	switch {
	case r.Overnight:
		return "overnight"
	case r.Created:
		return "created"
	default:
		return "updated"
	}
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.loc).Truncate(time.Second)
}

func normalizePeriod(period string) string {
	period = strings.TrimSpace(period)
	if period == "" {
		return models.DefaultPeriod
	}
	return period
}

// CheckIn records a check-in for the caller on today's row for period.
// Repeated check-ins overwrite the stored time.
func (s *Service) CheckIn(ctx context.Context, ac auth.AuthContext, period string) (PunchResult, error) {
	now := s.now()
	res := PunchResult{WorkDate: now.Format(models.DateLayout), Period: normalizePeriod(period), At: now}
	created, err := s.ledger.Upsert(ctx, models.PunchWrite{
		UserID:    ac.UserID,
		WorkDate:  res.WorkDate,
		Period:    res.Period,
		CheckIn:   &now,
		UpdatedAt: now,
	})
	if err != nil {
		metrics.Punches.WithLabelValues("check_in", "error").Inc()
		return PunchResult{}, apperr.Store("upsert check-in", err)
	}
	res.Created = created
	metrics.Punches.WithLabelValues("check_in", res.outcome()).Inc()
	return res, nil
}

// CheckOut records a check-out for the caller. Between midnight and 05:00
// local time it closes yesterday's record for period if that record is still
// open; otherwise it targets today's row.
func (s *Service) CheckOut(ctx context.Context, ac auth.AuthContext, period string) (PunchResult, error) {
	now := s.now()
	res := PunchResult{WorkDate: now.Format(models.DateLayout), Period: normalizePeriod(period), At: now}

	if now.Hour() < overnightCutoffHour {
		yesterday := now.AddDate(0, 0, -1).Format(models.DateLayout)
		rec, err := s.ledger.FindByKey(ctx, ac.UserID, yesterday, res.Period)
		if err != nil {
			metrics.Punches.WithLabelValues("check_out", "error").Inc()
			return PunchResult{}, apperr.Store("find previous day", err)
		}
		if rec.Open() {
			res.WorkDate = yesterday
			res.Overnight = true
		}
	}

	created, err := s.ledger.Upsert(ctx, models.PunchWrite{
		UserID:    ac.UserID,
		WorkDate:  res.WorkDate,
		Period:    res.Period,
		CheckOut:  &now,
		UpdatedAt: now,
	})
	if err != nil {
		metrics.Punches.WithLabelValues("check_out", "error").Inc()
		return PunchResult{}, apperr.Store("upsert check-out", err)
	}
	res.Created = created
	metrics.Punches.WithLabelValues("check_out", res.outcome()).Inc()
	return res, nil
}

// PunchTimes holds wall-clock "HH:mm" values for a manual punch. Empty
// fields are left untouched in the ledger.
type PunchTimes struct {
	CheckIn  string `json:"check_in,omitempty"`
	CheckOut string `json:"check_out,omitempty"`
}

// ManualResult lists the periods a manual punch wrote, in processing order.
type ManualResult struct {
	EmployeeID int64
	Date       string
	Applied    []string
}

type manualWrite struct {
	period   string
	checkIn  *time.Time
	checkOut *time.Time
}

// ManualPunch lets an admin enter or correct punches for employeeID on date.
// All input is validated before the first write. Periods are then written in
// name order, each as its own upsert; a store failure stops the run and the
// periods already written stay written.
func (s *Service) ManualPunch(ctx context.Context, ac auth.AuthContext, employeeID int64, date string, periods map[string]PunchTimes) (ManualResult, error) {
	if err := ac.RequireAdmin(); err != nil {
		return ManualResult{}, err
	}
	if employeeID <= 0 {
		return ManualResult{}, apperr.Invalid("employee_id is required")
	}
	day, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(date), s.loc)
	if err != nil {
		return ManualResult{}, apperr.Invalid("date must be YYYY-MM-DD")
	}
	if len(periods) == 0 {
		return ManualResult{}, apperr.Invalid("periods are required")
	}

	names := make([]string, 0, len(periods))
	for name := range periods {
		names = append(names, name)
	}
	sort.Strings(names)

	writes := make([]manualWrite, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		period := strings.TrimSpace(name)
		if period == "" {
			return ManualResult{}, apperr.Invalid("period name must not be empty")
		}
		if seen[period] {
			return ManualResult{}, apperr.Invalid("period %s given more than once", period)
		}
		seen[period] = true
		times := periods[name]
		w := manualWrite{period: period}
		if w.checkIn, err = wallClock(day, times.CheckIn); err != nil {
			return ManualResult{}, apperr.Invalid("%s check_in: %v", period, err)
		}
		if w.checkOut, err = wallClock(day, times.CheckOut); err != nil {
			return ManualResult{}, apperr.Invalid("%s check_out: %v", period, err)
		}
		if w.checkIn == nil && w.checkOut == nil {
			return ManualResult{}, apperr.Invalid("%s: check_in or check_out is required", period)
		}
		writes = append(writes, w)
	}

	employee, err := s.users.GetByID(ctx, employeeID)
	if err != nil {
		return ManualResult{}, apperr.Store("lookup employee", err)
	}
	if employee == nil {
		return ManualResult{}, fmt.Errorf("%w: employee %d", apperr.ErrNotFound, employeeID)
	}

	res := ManualResult{EmployeeID: employeeID, Date: day.Format(models.DateLayout)}
	updatedAt := s.now()
	for _, w := range writes {
		created, err := s.ledger.Upsert(ctx, models.PunchWrite{
			UserID:    employeeID,
			WorkDate:  res.Date,
			Period:    w.period,
			CheckIn:   w.checkIn,
			CheckOut:  w.checkOut,
			UpdatedAt: updatedAt,
		})
		if err != nil {
			metrics.Punches.WithLabelValues("manual", "error").Inc()
			return res, apperr.Store("upsert period "+w.period, err)
		}
		metrics.Punches.WithLabelValues("manual", PunchResult{Created: created}.outcome()).Inc()
		res.Applied = append(res.Applied, w.period)
	}
	return res, nil
}

// wallClock combines day with an "HH:mm" value. An empty value yields nil.
func wallClock(day time.Time, hhmm string) (*time.Time, error) {
	hhmm = strings.TrimSpace(hhmm)
	if hhmm == "" {
		return nil, nil
	}
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return nil, errors.New("time must be HH:mm")
	}
	ts := time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location())
	return &ts, nil
}

// RenamePeriod relabels all of the caller's records from oldPeriod to
// newPeriod and returns how many rows changed. Other users are never touched.
func (s *Service) RenamePeriod(ctx context.Context, ac auth.AuthContext, oldPeriod, newPeriod string) (int64, error) {
	oldPeriod, newPeriod = strings.TrimSpace(oldPeriod), strings.TrimSpace(newPeriod)
	if oldPeriod == "" || newPeriod == "" {
		return 0, apperr.Invalid("oldPeriod and newPeriod are required")
	}
	if oldPeriod == newPeriod {
		return 0, apperr.Invalid("newPeriod must differ from oldPeriod")
	}
	n, err := s.ledger.RenamePeriod(ctx, ac.UserID, oldPeriod, newPeriod)
	if errors.Is(err, repository.ErrPeriodConflict) {
		return 0, apperr.Invalid("%s already exists on a date that also has %s", newPeriod, oldPeriod)
	}
	if err != nil {
		return 0, apperr.Store("rename period", err)
	}
	return n, nil
}
