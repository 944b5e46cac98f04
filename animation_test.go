package imageview

import "testing"

func TestAnimationSchedulerReachesTarget(t *testing.T) {
	var a AnimationScheduler
	current := Transform{Scale: 1, TranslateX: 0, TranslateY: 0}
	a.StartAnimation(current, 2, 100, 50, 300)

	if !a.Active() {
		t.Fatal("expected animation to be active immediately after start")
	}
	if !a.Suspended() {
		t.Fatal("expected scheduler to be suspended while animating")
	}

	t_ := current
	for i := 0; i < 100; i++ {
		t_ = a.Tick(t_, 1.0/60)
		if !a.Active() {
			break
		}
	}

	if a.Active() {
		t.Fatal("expected animation to finish within 100 ticks at 60fps for a 300ms duration")
	}
	if a.Suspended() {
		t.Fatal("expected suspended to clear once the animation completes")
	}
	assertNear(t, "Scale", t_.Scale, 2)
	assertNear(t, "TranslateX", t_.TranslateX, 100)
	assertNear(t, "TranslateY", t_.TranslateY, 50)
}

func TestAnimationSchedulerOnCompleteFiresOnce(t *testing.T) {
	var a AnimationScheduler
	calls := 0
	a.onComplete = func() { calls++ }
	a.StartAnimation(Transform{}, 1, 0, 0, 50)

	t_ := Transform{}
	for i := 0; i < 30 && a.Active(); i++ {
		t_ = a.Tick(t_, 1.0/60)
	}
	if calls != 1 {
		t.Fatalf("onComplete called %d times, want 1", calls)
	}
}

func TestAnimationSchedulerCancelStopsImmediately(t *testing.T) {
	var a AnimationScheduler
	a.StartAnimation(Transform{}, 1, 0, 0, 300)
	a.Cancel()
	if a.Active() || a.Suspended() {
		t.Fatal("expected Cancel to clear both active and suspended immediately")
	}
}

func TestAnimationSchedulerRestartIsIdempotent(t *testing.T) {
	var a AnimationScheduler
	a.StartAnimation(Transform{Scale: 1}, 2, 0, 0, 300)
	a.Tick(Transform{Scale: 1}, 1.0/60)
	// Starting a new animation mid-flight should simply replace the tween
	// state rather than erroring or requiring an explicit cancel first.
	a.StartAnimation(Transform{Scale: 1.1}, 3, 0, 0, 300)
	if !a.Active() {
		t.Fatal("expected restarted animation to be active")
	}
}
