package sim

import "time"

const (
	DefaultTimeScale = 0.001
	DefaultMaxDt     = 0.1
)

// Clock turns wall-clock frame intervals into model time steps: dt is the
// elapsed milliseconds times Scale, capped at MaxDt when MaxDt > 0.
type Clock struct {
	Scale float64
	MaxDt float64
	last  time.Time
}

func NewClock(scale, maxDt float64) *Clock {
	return &Clock{Scale: scale, MaxDt: maxDt}
}

// Tick returns the step for a frame drawn at now. The first tick after
// construction or Reset returns 0.
func (c *Clock) Tick(now time.Time) float64 {
	if c.last.IsZero() || now.Before(c.last) {
		c.last = now
		return 0
	}
	ms := float64(now.Sub(c.last)) / float64(time.Millisecond)
	c.last = now

	dt := ms * c.Scale
	if dt < 0 {
		dt = 0
	}
	if c.MaxDt > 0 && dt > c.MaxDt {
		dt = c.MaxDt
	}
	return dt
}

func (c *Clock) Reset() { c.last = time.Time{} }
