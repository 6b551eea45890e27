package layer

import "time"

// Clock is the engine's monotonic time source. Real dispatch is driven
// by the "now" the caller passes to OnInputEvent and Tick; Clock only
// matters for the convenience entry point OnKeyEvent, which needs "now"
// without one being passed in.
type Clock interface {
	Now() time.Duration
}

// MonotonicClock reports elapsed time since it was created.
type MonotonicClock struct{ start time.Time }

func NewMonotonicClock() *MonotonicClock { return &MonotonicClock{start: time.Now()} }

func (c *MonotonicClock) Now() time.Duration { return time.Since(c.start) }

// ManualClock is a settable clock for deterministic tests of tap/hold
// timing.
type ManualClock struct{ now time.Duration }

func NewManualClock() *ManualClock { return &ManualClock{} }

func (c *ManualClock) Now() time.Duration { return c.now }
func (c *ManualClock) Set(d time.Duration)   { c.now = d }
func (c *ManualClock) Advance(d time.Duration) { c.now += d }
