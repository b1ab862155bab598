// Package schedule fires the pipeline once per day at a fixed UTC wall-clock
// time, replacing the cron entry that drove the original product.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Daily triggers a function every day at hour:minute UTC.
type Daily struct {
	hour   int
	minute int
	clock  clockwork.Clock
	logger *slog.Logger
}

// New creates a Daily trigger. Pass a fake clock in tests.
func New(hour, minute int, clock clockwork.Clock, logger *slog.Logger) *Daily {
	return &Daily{hour: hour, minute: minute, clock: clock, logger: logger}
}

// Run blocks until the context is cancelled, invoking fn at each daily fire
// time. A failed run is logged and the schedule continues; the next day's
// product should not be lost to yesterday's error.
func (d *Daily) Run(ctx context.Context, fn func(context.Context) error) error {
	for {
		now := d.clock.Now().UTC()
		next := NextFire(now, d.hour, d.minute)
		d.logger.Info("next product run scheduled", "at", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.clock.After(next.Sub(now)):
		}

		if err := fn(ctx); err != nil {
			d.logger.Error("scheduled run failed", "error", err)
		}
	}
}

// NextFire returns the first hour:minute UTC instant strictly after now.
func NextFire(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
