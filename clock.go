package imageview

import "time"

// Clock is the scheduling trait design note §9 calls for: the engine calls
// through it instead of time.Now/time.AfterFunc directly, so tests can plug
// a deterministic fake. No third-party scheduling library appears anywhere
// in the example corpus and time.AfterFunc already matches the shape asked
// for, so this is intentionally stdlib-only.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer cancels a scheduled callback.
type Timer interface {
	Stop() bool
}

// realClock is the production Clock, a thin wrapper over the time package.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// fakeTimer is the Timer returned by fakeClock.AfterFunc.
type fakeTimer struct {
	fire   time.Time
	fn     func()
	fired  bool
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasPending := !t.fired && !t.stopped
	t.stopped = true
	return wasPending
}

// fakeClock is a deterministic Clock for tests: Advance moves the clock
// forward and fires any timer whose deadline has passed, in deadline order.
type fakeClock struct {
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{fire: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d, firing any due, non-stopped timers
// in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	target := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.fired || t.stopped {
				continue
			}
			if t.fire.After(target) {
				continue
			}
			if next == nil || t.fire.Before(next.fire) {
				next = t
			}
		}
		if next == nil {
			break
		}
		next.fired = true
		c.now = next.fire
		next.fn()
	}
	c.now = target
}
