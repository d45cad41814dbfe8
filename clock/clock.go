// Package clock provides the time source for the guardian and the daily
// reset boundary math. Boundary functions are pure so that enforcement
// timing is fully deterministic under test.
package clock

import "time"

// Clock is the time source consumed by the guardian. Substitute Fixed in
// tests for deterministic runs.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed is a settable clock for tests.
type Fixed struct {
	t time.Time
}

func NewFixed(t time.Time) *Fixed { return &Fixed{t: t} }

func (f *Fixed) Now() time.Time { return f.t }

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) { f.t = t }

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.t = f.t.Add(d) }

// LastBoundary returns the most recent scheduled reset boundary at
// hour:minute in now's location. A boundary exactly equal to now counts as
// already past, so today's boundary is returned.
func LastBoundary(now time.Time, hour, minute int) time.Time {
	b := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.Before(b) {
		return b.AddDate(0, 0, -1)
	}
	return b
}

// NextBoundary returns the next scheduled reset boundary at hour:minute in
// now's location. If now is at or after today's boundary, tomorrow's is
// returned.
func NextBoundary(now time.Time, hour, minute int) time.Time {
	b := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !now.Before(b) {
		return b.AddDate(0, 0, 1)
	}
	return b
}
