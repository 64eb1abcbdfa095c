package harness

import "sync/atomic"

// SeqSource hands out strictly increasing sequence numbers.
// testutil.DeterministicClock satisfies it.
type SeqSource interface {
	Next() int64
}

// Clock is a monotonic logical clock for event ordering.
//
// Events are stamped with seq numbers instead of wall-clock time, so their
// order is exact even when two events land in the same nanosecond. Clock is
// safe for concurrent use: the stress worker stamps its exit event from its
// own goroutine.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
