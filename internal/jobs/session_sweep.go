package jobs

import (
	"context"
	"log"
	"time"

	"timeClock/internal/clock"
	"timeClock/internal/metrics"
	"timeClock/repository"
)

// StartSessionSweepJob deletes expired sessions every interval until ctx is done.
// A non-positive interval disables the job.
func StartSessionSweepJob(ctx context.Context, interval time.Duration, sweeper repository.SessionSweeper, c clock.Clock) {
	if interval <= 0 {
		log.Printf("session sweep job disabled")
		return
	}
	if sweeper == nil {
		log.Printf("session sweep job disabled: no session store")
		return
	}
	if c == nil {
		c = clock.System{}
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				_, err := SweepSessions(tickCtx, sweeper, c.Now())
				cancel()
				if err != nil {
					log.Printf("session sweep job error: %v", err)
				}
			}
		}
	}()
}

// SweepSessions runs one sweep pass and returns how many sessions were removed.
func SweepSessions(ctx context.Context, sweeper repository.SessionSweeper, now time.Time) (int64, error) {
	n, err := sweeper.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.SessionsSwept.Add(float64(n))
		log.Printf("session sweep job removed %d sessions", n)
	}
	return n, nil
}
