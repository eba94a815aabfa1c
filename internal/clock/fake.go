package clock

import "time"

// FakeClock sits at a fixed instant, keeping a whole test inside one
// billing month.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the fake time forward, e.g. across a due date.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
