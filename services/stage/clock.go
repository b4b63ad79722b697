package stage

import (
	"sync"
	"time"
)

// Clock is the time source used to measure stage and case durations.
// Implementations must be monotonic.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// SystemClock reads the process clock. time.Now carries a monotonic reading,
// so Since is unaffected by wall-clock adjustments.
type SystemClock struct{}

// Now implements Clock
func (SystemClock) Now() time.Time { return time.Now() }

// Since implements Clock
func (SystemClock) Since(t time.Time) time.Duration { return time.Since(t) }

// ManualClock is a deterministic clock. Every call to Now returns the current
// instant and then moves the clock forward by the configured step.
type ManualClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewManualClock creates a clock starting at start that advances by step on
// every Now call
func NewManualClock(start time.Time, step time.Duration) *ManualClock {
	return &ManualClock{now: start, step: step}
}

// Now implements Clock
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Since implements Clock
func (c *ManualClock) Since(t time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Sub(t)
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
