package flow

import "sync/atomic"

// Clock is a monotonic logical clock for transition ordering.
//
// Every transition is stamped with a strictly increasing seq number, so
// transcripts are deterministic and comparable without wall-clock races.
//
// Safe for concurrent use, though the machine's mutex means only one
// goroutine stamps transitions at a time.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0; the first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Transition is one observed state change.
type Transition struct {
	Seq  int64
	From State
	To   State
	Note string
}

// Observer receives every transition as it happens.
// Called with the machine's mutex held: observers must be fast and must
// not call back into the machine.
type Observer func(Transition)
