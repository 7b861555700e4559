// Package recurrence computes when a user becomes eligible for the next delivery.
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Clock returns the current instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock is the wall clock in UTC.
var SystemClock Clock = systemClock{}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Policy computes the next eligible instant from the previous one.
// A nil last means there was never an eligible instant: the result is now.
// Otherwise the result is strictly after now.
type Policy interface {
	Next(last *time.Time) time.Time
}

// Daily keeps the hour and minute of the previous eligible instant and
// moves it to the first day where it falls strictly after now.
type Daily struct {
	Clock Clock
}

func (p Daily) Next(last *time.Time) time.Time {
	now := p.Clock.Now().UTC()
	if last == nil {
		return now
	}
	anchor := last.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), anchor.Hour(), anchor.Minute(), 0, 0, time.UTC)
	for !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Every repeats at a fixed interval counted from the previous eligible instant.
type Every struct {
	Clock    Clock
	Interval time.Duration
}

func (p Every) Next(last *time.Time) time.Time {
	now := p.Clock.Now().UTC()
	if last == nil {
		return now
	}
	start := last.UTC()
	elapsed := now.Sub(start)
	if elapsed < 0 {
		return start.Add(p.Interval)
	}
	steps := elapsed/p.Interval + 1
	return start.Add(steps * p.Interval)
}

// Cron follows a standard cron schedule evaluated in UTC. The previous
// instant only matters to tell a first delivery apart.
type Cron struct {
	Clock    Clock
	Schedule cron.Schedule
}

func (p Cron) Next(last *time.Time) time.Time {
	now := p.Clock.Now().UTC()
	if last == nil {
		return now
	}
	return p.Schedule.Next(now).UTC()
}

// Parse builds a policy from a cadence string: "everyday" (or "daily"),
// "hourly", "weekly", "every <duration>" or a cron expression.
func Parse(cadence string, clock Clock) (Policy, error) {
	if clock == nil {
		clock = SystemClock
	}
	c := strings.ToLower(strings.TrimSpace(cadence))
	switch c {
	case "", "everyday", "every day", "daily":
		return Daily{Clock: clock}, nil
	case "hourly":
		return Every{Clock: clock, Interval: time.Hour}, nil
	case "weekly":
		return Every{Clock: clock, Interval: 7 * 24 * time.Hour}, nil
	}
	if rest, ok := strings.CutPrefix(c, "every "); ok {
		d, err := time.ParseDuration(strings.TrimSpace(rest))
		if err != nil {
			return nil, fmt.Errorf("parse cadence %q: %w", cadence, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("parse cadence %q: interval must be positive", cadence)
		}
		return Every{Clock: clock, Interval: d}, nil
	}
	sched, err := cron.ParseStandard(cadence)
	if err != nil {
		return nil, fmt.Errorf("parse cadence %q: %w", cadence, err)
	}
	return Cron{Clock: clock, Schedule: sched}, nil
}
