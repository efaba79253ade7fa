package loc

import "math"

// ClockInterval is one segment of a location's piecewise-linear clock
// correction function: local timestamps in [Begin, End] are corrected by
// Offset + round(Slope * (t - Begin)).
type ClockInterval struct {
	Begin, End uint64
	Slope      float64
	Offset     int64
	Next       *ClockInterval
}

// ClockCursor walks a ClockInterval chain monotonically: timestamps are
// presented to Correct in non-decreasing order during a forward read, so
// the cursor only ever advances, except when Reset is called (on seek) to
// relocate lazily on the following call.
type ClockCursor struct {
	head, cur *ClockInterval
}

// NewClockCursor returns a cursor over the interval chain starting at head.
// A nil head means "no correction available"; Correct then returns its
// input unchanged.
func NewClockCursor(head *ClockInterval) *ClockCursor {
	return &ClockCursor{head: head}
}

// Reset forces the cursor to relocate to the correct interval on the next
// Correct call, used after a seek since the next timestamp presented may
// precede the interval the cursor was last parked on.
func (c *ClockCursor) Reset() { c.cur = nil }

// Correct maps local timestamp t to global time using the interval the
// cursor is parked on, advancing the cursor forward first while t has moved
// past the current interval's end.
func (c *ClockCursor) Correct(t uint64) uint64 {
	if c.head == nil {
		return t
	}
	if c.cur == nil {
		c.cur = c.head
	}
	for t > c.cur.End && c.cur.Next != nil {
		c.cur = c.cur.Next
	}
	diff := int64(t) - int64(c.cur.Begin)
	interpolated := c.cur.Slope * float64(diff)
	offset := c.cur.Offset + int64(math.RoundToEven(interpolated))
	return t + uint64(offset)
}
