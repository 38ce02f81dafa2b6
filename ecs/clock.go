package ecs

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Clock measures the time elapsed between two Restart calls, in milliseconds.
type Clock struct {
	source clock.Clock
	last   time.Time
	delta  time.Duration
}

// NewClock creates a clock reading from source. A nil source uses the wall clock.
func NewClock(source clock.Clock) *Clock {
	if source == nil {
		source = clock.New()
	}
	return &Clock{
		source: source,
		last:   source.Now(),
	}
}

// Elapsed returns the interval measured by the latest Restart, in milliseconds.
func (c *Clock) Elapsed() float64 {
	return float64(c.delta) / float64(time.Millisecond)
}

// Since returns the time passed since the latest Restart without restarting.
func (c *Clock) Since() float64 {
	return float64(c.source.Since(c.last)) / float64(time.Millisecond)
}

// Restart records the time since the previous restart and returns it in milliseconds.
func (c *Clock) Restart() float64 {
	now := c.source.Now()
	c.delta = now.Sub(c.last)
	c.last = now
	return c.Elapsed()
}
