// Package clock provides the time source used for punches and session expiry.
package clock

import (
	"fmt"
	"time"
)

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns T. Tests use it to pin "now".
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// Func adapts a function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// Zone returns the fixed-offset location used for work dates and stored
// timestamps, e.g. Zone(8) is UTC+8.
func Zone(offsetHours int) *time.Location {
	name := fmt.Sprintf("UTC%+d", offsetHours)
	if offsetHours == 0 {
		name = "UTC"
	}
	return time.FixedZone(name, offsetHours*3600)
}
