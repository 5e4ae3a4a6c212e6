package journal

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Sequencer hands out the sequence numbers that order journal entries.
type Sequencer interface {
	Next() int64
}

// IDGenerator hands out journal entry ids.
type IDGenerator interface {
	NewID() string
}

// Clock is a monotonic logical clock. It is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClockAt creates a clock whose next value is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// UUIDv7 generates time-sortable entry ids.
type UUIDv7 struct{}

// NewID returns a hyphenated UUIDv7. It panics if the system random
// source fails.
func (UUIDv7) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
