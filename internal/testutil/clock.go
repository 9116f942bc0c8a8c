package testutil

import "sync"

// DeterministicClock is a resettable monotonic logical clock for tests.
//
// Unlike engine.Clock it can be reset, so the same scenario can run
// repeatedly with identical seq values. The harness also uses it as a
// mirror of the engine's clock: ticking it alongside accepted mutations
// and comparing values catches any drift in the engine's seq discipline.
//
// Thread-safety: all methods are safe for concurrent use.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock starting at 0; the first Next()
// returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Advance moves the clock forward by n ticks and returns the new value.
// Used to fast-forward past bulk operations with a known tick count.
func (c *DeterministicClock) Advance(n int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq += n
	return c.seq
}

// Reset resets the clock to 0. After Reset the next Next() returns 1.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
