package game

import "time"

// Clock is a pair of countdowns advanced lazily from wall-clock deltas.
// Nothing ticks in the background: callers advance it whenever they read or
// mutate the owning room.
type Clock struct {
	white   time.Duration
	black   time.Duration
	anchor  time.Time
	running bool
}

// NewClock gives each side the same budget. The clock starts stopped.
func NewClock(budget time.Duration) Clock {
	if budget < 0 {
		budget = 0
	}
	return Clock{white: budget, black: budget}
}

// Start anchors the clock at now.
func (c *Clock) Start(now time.Time) {
	c.anchor = now
	c.running = true
}

// Stop freezes both remaining values.
func (c *Clock) Stop() {
	c.running = false
}

// Advance charges the time since the anchor to side, floors it at zero and
// moves the anchor to now. Repeat calls at the same instant charge nothing.
// It reports whether side has run out.
func (c *Clock) Advance(side Color, now time.Time) bool {
	if !c.running {
		return false
	}
	elapsed := now.Sub(c.anchor)
	if elapsed < 0 {
		// never hand time back; keep the later anchor
		elapsed = 0
		now = c.anchor
	}
	rem := c.remaining(side)
	if rem == nil {
		return false
	}
	*rem -= elapsed
	if *rem < 0 {
		*rem = 0
	}
	c.anchor = now
	return *rem == 0
}

// Remaining returns the time left for side.
func (c *Clock) Remaining(side Color) time.Duration {
	if rem := c.remaining(side); rem != nil {
		return *rem
	}
	return 0
}

func (c *Clock) remaining(side Color) *time.Duration {
	switch side {
	case White:
		return &c.white
	case Black:
		return &c.black
	default:
		return nil
	}
}
