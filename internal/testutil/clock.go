package testutil

import (
	"sync"
	"time"
)

// Epoch is the start time used by deterministic test clocks.
var Epoch = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

// SteppingClock returns a strictly increasing sequence of instants.
//
// Unlike engine.FixedClock, successive calls differ, so runs stored in
// sequence get distinct start times. It can be reset for test reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SteppingClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	n     int
}

// NewSteppingClock creates a clock whose first reading is start.
func NewSteppingClock(start time.Time, step time.Duration) *SteppingClock {
	return &SteppingClock{start: start, step: step}
}

// Now returns the next instant.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Reset makes the next reading start again.
func (c *SteppingClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
