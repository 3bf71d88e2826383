// Package schedule runs jobs once a day at a fixed wall-clock time.
package schedule

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Daily is a wall-clock time of day in a specific location.
type Daily struct {
	Hour     int
	Minute   int
	Location *time.Location
}

// ParseDaily parses "HH:MM" in the named IANA zone.
func ParseDaily(at, zone string) (Daily, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Daily{}, fmt.Errorf("load location %q: %w", zone, err)
	}
	t, err := time.Parse("15:04", at)
	if err != nil {
		return Daily{}, fmt.Errorf("parse time of day %q: %w", at, err)
	}
	return Daily{Hour: t.Hour(), Minute: t.Minute(), Location: loc}, nil
}

// Next returns the first occurrence strictly after now.
func (d Daily) Next(now time.Time) time.Time {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.Hour, d.Minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.Hour, d.Minute, 0, 0, loc)
	}
	return next
}

func (d Daily) String() string {
	return fmt.Sprintf("%02d:%02d %s", d.Hour, d.Minute, d.Location)
}

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Runner fires Job at every occurrence of When until the context ends.
// A failing run is logged; the schedule continues.
type Runner struct {
	Name string
	When Daily
	Job  Job
	Log  *zap.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func (r *Runner) Run(ctx context.Context) error {
	now, after := r.now, r.after
	if now == nil {
		now = time.Now
	}
	if after == nil {
		after = time.After
	}
	log := r.Log.With(zap.String("job", r.Name))

	for {
		at := now()
		next := r.When.Next(at)
		log.Debug("next run scheduled", zap.Time("at", next))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-after(next.Sub(at)):
		}
		start := now()
		if err := r.Job(ctx); err != nil {
			log.Error("scheduled run failed", zap.Error(err))
			continue
		}
		log.Info("scheduled run finished", zap.Duration("took", now().Sub(start)))
	}
}
