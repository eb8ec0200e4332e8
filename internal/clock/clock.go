// Package clock provides the organizational-time source used by the
// availability and synchronization services. Production code uses Real;
// tests use Fake and move time explicitly.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	// Now returns the current time in the organizational timezone.
	Now() time.Time
	Location() *time.Location
}

type realClock struct {
	loc *time.Location
}

func Real(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return realClock{loc: loc}
}

func (c realClock) Now() time.Time           { return time.Now().In(c.loc) }
func (c realClock) Location() *time.Location { return c.loc }

// FakeClock stands still until Set or Advance is called. Safe for
// concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *FakeClock) Location() *time.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Location()
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

// Weekday returns the day index used by operator schedules: Monday is 0,
// Sunday is 6.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// MinutesSinceMidnight ignores seconds, so 15:59:59 is minute 959.
func MinutesSinceMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
