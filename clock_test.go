package imageview

import (
	"testing"
	"time"
)

func TestFakeClockFiresTimersInDeadlineOrder(t *testing.T) {
	c := newFakeClock(time.Unix(0, 0))
	var order []int
	c.AfterFunc(300*time.Millisecond, func() { order = append(order, 3) })
	c.AfterFunc(100*time.Millisecond, func() { order = append(order, 1) })
	c.AfterFunc(200*time.Millisecond, func() { order = append(order, 2) })

	c.Advance(250 * time.Millisecond)

	want := []int{1, 2}
	if len(order) != len(want) {
		t.Fatalf("fired %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("fired %v, want %v", order, want)
		}
	}
}

func TestFakeClockStoppedTimerDoesNotFire(t *testing.T) {
	c := newFakeClock(time.Unix(0, 0))
	fired := false
	timer := c.AfterFunc(100*time.Millisecond, func() { fired = true })
	timer.Stop()
	c.Advance(200 * time.Millisecond)
	if fired {
		t.Fatal("expected stopped timer not to fire")
	}
}

func TestFakeClockAdvanceMovesNow(t *testing.T) {
	start := time.Unix(0, 0)
	c := newFakeClock(start)
	c.Advance(500 * time.Millisecond)
	if !c.Now().Equal(start.Add(500 * time.Millisecond)) {
		t.Fatalf("Now() = %v, want %v", c.Now(), start.Add(500*time.Millisecond))
	}
}

func TestRealClockAfterFuncStopReturnsFalseAfterFiring(t *testing.T) {
	c := realClock{}
	done := make(chan struct{})
	timer := c.AfterFunc(1*time.Millisecond, func() { close(done) })
	<-done
	time.Sleep(5 * time.Millisecond)
	if timer.Stop() {
		t.Fatal("expected Stop to report false once the timer already fired")
	}
}
