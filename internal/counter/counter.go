// Package counter provides a periodic down-counter shared by the APU
// (frame sequencer and sampling) and the MBC3 real-time clock.
package counter

import "github.com/pellucid-systems/goboy/internal/savestate"

// Counter is a periodic counter that reports how many periods elapsed
// across a tick. A Counter with period 0 never fires.
type Counter struct {
	ticks  uint32
	period uint32
}

// New returns a Counter with the given period, in whatever unit the
// caller ticks it with (dots or m-cycles).
func New(period uint32) *Counter {
	return &Counter{period: period, ticks: period}
}

// Period returns the counter's configured period.
func (c *Counter) Period() uint32 {
	return c.period
}

// SetPeriod changes the period without resetting the accumulated
// remainder.
func (c *Counter) SetPeriod(period uint32) {
	c.period = period
}

// Tick advances the counter by elapsed units and returns the number of
// completed periods. The sub-period remainder is preserved so repeated
// calls aggregate exactly: summed overflow counts equal
// floor(sum(elapsed)/period) starting from a fresh counter.
func (c *Counter) Tick(elapsed uint32) uint32 {
	if c.period == 0 {
		return 0
	}

	if elapsed < c.ticks {
		c.ticks -= elapsed
		return 0
	}

	excess := elapsed - c.ticks
	c.ticks = c.period - excess%c.period
	return excess/c.period + 1
}

// Reset zeroes the accumulated remainder without changing the period.
func (c *Counter) Reset() {
	c.ticks = c.period
}

// Save writes the counter's full state, including the period, so a
// resumed Counter need not be reconstructed with the right period by
// its caller.
func (c *Counter) Save(s *savestate.State) {
	s.Write32(c.ticks)
	s.Write32(c.period)
}

// Load restores state written by Save.
func (c *Counter) Load(s *savestate.State) {
	c.ticks = s.Read32()
	c.period = s.Read32()
}
