// Package clock provides the time source used to decide "now" and "today".
//
// Calendar dates are plain YYYY-MM-DD strings evaluated in the clock's
// location, so a deployment serving one region pins TIMEZONE once and every
// component agrees on where a day starts.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// DateLayout is the layout of calendar date strings.
const DateLayout = "2006-01-02"

// Clock is a source of the current time.
type Clock interface {
	// Now returns the current time in the clock's location.
	Now() time.Time
}

// System is a Clock backed by the wall clock.
type System struct {
	loc *time.Location
}

// NewSystem creates a wall clock reporting times in loc. A nil loc means UTC.
func NewSystem(loc *time.Location) *System {
	if loc == nil {
		loc = time.UTC
	}
	return &System{loc: loc}
}

// NewSystemFromName creates a wall clock for an IANA zone name.
func NewSystemFromName(name string) (*System, error) {
	if name == "" {
		return NewSystem(time.UTC), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading location %q: %w", name, err)
	}
	return NewSystem(loc), nil
}

// Now returns the current time.
func (c *System) Now() time.Time {
	return time.Now().In(c.loc)
}

// Fixed is a settable Clock for tests and batch jobs.
type Fixed struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFixed creates a clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t}
}

// Now returns the frozen time.
func (c *Fixed) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set moves the clock to t.
func (c *Fixed) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *Fixed) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Today returns the calendar date of c.Now().
func Today(c Clock) string {
	return Date(c.Now())
}

// Date formats t as a calendar date in t's own location.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a calendar date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// AddDays shifts a calendar date by n days. Invalid input is returned unchanged.
func AddDays(date string, n int) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b string) (int, error) {
	ta, err := ParseDate(a)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDate(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}
