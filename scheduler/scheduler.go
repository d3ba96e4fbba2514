// Package scheduler runs a job once a day at a wall-clock time.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"
	_ "time/tzdata"
)

// Daily fires at a fixed HH:MM in a time zone.
type Daily struct {
	hour, minute int
	loc          *time.Location
	logger       *log.Logger
	now          func() time.Time
	after        func(time.Duration) <-chan time.Time
}

// NewDaily parses at ("HH:MM") and tz (an IANA name, empty for UTC).
func NewDaily(at, tz string, logger *log.Logger) (*Daily, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("schedule time %q must be HH:MM: %w", at, err)
	}
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("schedule timezone %q: %w", tz, err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Daily{
		hour:   t.Hour(),
		minute: t.Minute(),
		loc:    loc,
		logger: logger,
		now:    time.Now,
		after:  time.After,
	}, nil
}

// Next returns the first scheduled instant strictly after from.
func (d *Daily) Next(from time.Time) time.Time {
	local := from.In(d.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, d.minute, 0, 0, d.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.hour, d.minute, 0, 0, d.loc)
	}
	return next
}

// Run calls job once immediately, then at every scheduled time until ctx is
// done. Jobs run inline, so a slow job delays rather than overlaps the next.
func (d *Daily) Run(ctx context.Context, job func(context.Context)) error {
	d.logger.Printf("[sched] running initial cycle")
	job(ctx)

	for {
		next := d.Next(d.now())
		d.logger.Printf("[sched] next cycle at %s", next.Format(time.RFC3339))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.after(time.Until(next)):
		}
		job(ctx)
	}
}
