package attendance

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"

	"timeClock/internal/apperr"
	"timeClock/internal/auth"
	"timeClock/models"
)

// PeriodPunch is one period's pair of punches. Nil means not punched.
type PeriodPunch struct {
	Period   string
	CheckIn  *time.Time
	CheckOut *time.Time
}

// Periods is an ordered list of period punches. It encodes as a flat object
// with "{period}_check_in_time" and "{period}_check_out_time" keys.
type Periods []PeriodPunch

func (p Periods) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := p.writeFields(&buf, true); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p Periods) writeFields(buf *bytes.Buffer, first bool) error {
	for _, pp := range p {
		for _, f := range []struct {
			suffix string
			at     *time.Time
		}{{"_check_in_time", pp.CheckIn}, {"_check_out_time", pp.CheckOut}} {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, err := json.Marshal(pp.Period + f.suffix)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if f.at == nil {
				buf.WriteString("null")
				continue
			}
			buf.WriteString(strconv.Quote(f.at.Format(models.TimestampLayout)))
		}
	}
	return nil
}

// DayAttendance is one day of a monthly sheet.
type DayAttendance struct {
	Day     int
	Periods Periods
}

func (d DayAttendance) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"day":`)
	buf.WriteString(strconv.Itoa(d.Day))
	if err := d.Periods.writeFields(&buf, false); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DaySheet is the caller's attendance for a single date.
type DaySheet struct {
	Date    string
	Periods Periods
}

// MonthSheet lists only the days of the month that have records, in order.
type MonthSheet struct {
	UserID int64
	Year   int
	Month  time.Month
	Days   []DayAttendance
}

func toPeriod(r models.AttendanceRecord) PeriodPunch {
	period := r.Period
	if period == "" {
		period = models.DefaultPeriod
	}
	return PeriodPunch{Period: period, CheckIn: r.CheckInTime, CheckOut: r.CheckOutTime}
}

// Today returns the caller's records for the current local date. Periods
// without a record are absent.
func (s *Service) Today(ctx context.Context, ac auth.AuthContext) (DaySheet, error) {
	today := s.now()
	date := today.Format(models.DateLayout)
	recs, err := s.ledger.ListRange(ctx, ac.UserID, date, today.AddDate(0, 0, 1).Format(models.DateLayout))
	if err != nil {
		return DaySheet{}, apperr.Store("list today", err)
	}
	sheet := DaySheet{Date: date, Periods: Periods{}}
	for _, r := range recs {
		sheet.Periods = append(sheet.Periods, toPeriod(r))
	}
	return sheet, nil
}

// Month returns target's records for the month grouped by day of month. Only
// target itself or an admin may read them.
func (s *Service) Month(ctx context.Context, ac auth.AuthContext, target int64, year, month int) (MonthSheet, error) {
	if err := ac.RequireSelfOrAdmin(target); err != nil {
		return MonthSheet{}, err
	}
	if month < 1 || month > 12 {
		return MonthSheet{}, apperr.Invalid("month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return MonthSheet{}, apperr.Invalid("year out of range")
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	next := first.AddDate(0, 1, 0)
	recs, err := s.ledger.ListRange(ctx, target, first.Format(models.DateLayout), next.Format(models.DateLayout))
	if err != nil {
		return MonthSheet{}, apperr.Store("list month", err)
	}

	sheet := MonthSheet{UserID: target, Year: year, Month: first.Month(), Days: []DayAttendance{}}
	for _, r := range recs {
		d, err := time.Parse(models.DateLayout, r.WorkDate)
		if err != nil {
			return MonthSheet{}, apperr.Store("parse work_date", err)
		}
		if n := len(sheet.Days); n > 0 && sheet.Days[n-1].Day == d.Day() {
			sheet.Days[n-1].Periods = append(sheet.Days[n-1].Periods, toPeriod(r))
			continue
		}
		sheet.Days = append(sheet.Days, DayAttendance{Day: d.Day(), Periods: Periods{toPeriod(r)}})
	}
	return sheet, nil
}
