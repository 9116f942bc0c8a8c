package engine

import "sync/atomic"

// Clock is the per-project monotonic logical clock.
//
// Every accepted mutation is stamped with a strictly increasing seq from
// this clock, and component registration reuses its mutation's seq as the
// component's created-at ordering key. All deterministic tie-breaks in
// the solver trace back to these values.
//
// Thread-safety: atomic, safe for concurrent use. The coordinator's
// single-writer discipline means only one goroutine ticks it in practice.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first Next() returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming from a specific sequence number.
// Used by replay to continue where the journal left off.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// rewind moves the clock back to seq. The coordinator calls this under
// its write lock when a mutation is rolled back after a journal write
// failure: the consumed sequence number is returned to the clock so
// journaled seqs stay contiguous.
func (c *Clock) rewind(seq int64) {
	c.seq.Store(seq)
}
