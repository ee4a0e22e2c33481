// Package scheduler drives the periodic work: the reconciliation tick
// and the daily broadcast slot. Drivers stop when their context is
// cancelled and survive job panics and errors.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/ingat-go-api/internal/timeutil"
)

// Job is one scheduled unit of work, invoked with the wall-clock time
// of its slot.
type Job func(ctx context.Context, now time.Time) error

// TickDriver invokes its job at a fixed interval.
type TickDriver struct {
	interval time.Duration
	job      Job
	logger   zerolog.Logger
}

func NewTickDriver(interval time.Duration, job Job, logger zerolog.Logger) *TickDriver {
	return &TickDriver{
		interval: interval,
		job:      job,
		logger:   logger.With().Str("component", "tick_driver").Logger(),
	}
}

// Run blocks until ctx is cancelled.
func (d *TickDriver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info().Dur("interval", d.interval).Msg("tick driver running")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("tick driver shutting down")
			return
		case now := <-ticker.C:
			runJob(ctx, d.job, now, d.logger)
		}
	}
}

// DailyDriver invokes its job once per day at a fixed local time in the
// display timezone. Jobs that only apply to certain weekdays do their
// own weekday check.
type DailyDriver struct {
	hour   int
	minute int
	job    Job
	logger zerolog.Logger
	now    func() time.Time
}

func NewDailyDriver(hour, minute int, job Job, logger zerolog.Logger) *DailyDriver {
	return &DailyDriver{
		hour:   hour,
		minute: minute,
		job:    job,
		logger: logger.With().Str("component", "daily_driver").Logger(),
		now:    time.Now,
	}
}

// Run blocks until ctx is cancelled.
func (d *DailyDriver) Run(ctx context.Context) {
	d.logger.Info().Int("hour", d.hour).Int("minute", d.minute).Msg("daily driver running")

	for {
		wait := d.untilNextSlot()
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			d.logger.Info().Msg("daily driver shutting down")
			return
		case now := <-timer.C:
			runJob(ctx, d.job, now, d.logger)
		}
	}
}

// untilNextSlot computes the wait until the next occurrence of the
// configured local time, at least one second away so a just-fired slot
// is not retriggered.
func (d *DailyDriver) untilNextSlot() time.Duration {
	loc := timeutil.DisplayTimezone()
	now := d.now().In(loc)

	next := time.Date(now.Year(), now.Month(), now.Day(), d.hour, d.minute, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	wait := next.Sub(now)
	if wait < time.Second {
		wait = time.Second
	}
	return wait
}

// runJob isolates one slot: a panic or error is logged and the driver
// keeps its schedule.
func runJob(ctx context.Context, job Job, now time.Time, logger zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("scheduled job panicked")
		}
	}()

	if err := job(ctx, now); err != nil {
		logger.Warn().Err(err).Msg("scheduled job failed")
	}
}
