package imageview

import (
	"image"
	"testing"
	"time"
)

// newTestEngine builds a minimally-wired Engine for interaction/transform
// unit tests: small-image strategy, a fake clock, and no resample worker
// (tests never advance the clock far enough to trigger a debounced LOD
// request), following the teacher's style of constructing test fixtures
// directly via struct literals rather than the full public constructor.
func newTestEngine(srcW, srcH, viewportW, viewportH int) (*Engine, *fakeClock) {
	clk := newFakeClock(time.Unix(0, 0))
	accountant := NewMemoryAccountant(256 * mib)
	pool := newTexturePool(accountant)
	cfg := applyDefaults(EngineConfig{})

	e := &Engine{
		cfg:        cfg,
		image:      &Image{Width: srcW, Height: srcH, pixels: image.NewNRGBA(image.Rect(0, 0, srcW, srcH))},
		pool:       pool,
		accountant: accountant,
		clock:      clk,
		renderer:   newRenderer(clk),
		mainThread: make(chan func(), 8),
	}
	e.lod = LODPyramid{
		levels:            cfg.LODLevels,
		currentLevel:      -1,
		pixelArtThreshold: cfg.PixelArtThreshold,
		pool:              pool,
		accountant:        accountant,
		clock:             clk,
		suspended:         e.animSuspended,
	}
	e.anim.onComplete = e.onAnimationComplete
	e.SetViewportSize(viewportW, viewportH)
	e.ResetView()
	return e, clk
}

func TestResetViewCentersAndFitsImage(t *testing.T) {
	e, _ := newTestEngine(2000, 1000, 800, 800)
	assertNear(t, "fitScale", e.fitScale, 0.4)
	assertNear(t, "Scale", e.transform.Scale, 0.4)
	// Centering is the zero-translate position in this engine's transform
	// model (see transform.go's viewportToSource/sourceToViewport).
	assertNear(t, "TranslateX", e.transform.TranslateX, 0)
	assertNear(t, "TranslateY", e.transform.TranslateY, 0)
}

func TestZoomInIncreasesScale(t *testing.T) {
	e, _ := newTestEngine(1000, 1000, 800, 800)
	before := e.transform.Scale
	e.cfg.Smooth = boolPtr(false)
	e.ZoomIn()
	if e.transform.Scale <= before {
		t.Fatalf("expected ZoomIn to increase scale, before=%v after=%v", before, e.transform.Scale)
	}
}

func TestZoomOutDecreasesScale(t *testing.T) {
	e, _ := newTestEngine(1000, 1000, 800, 800)
	e.cfg.Smooth = boolPtr(false)
	e.ZoomIn()
	mid := e.transform.Scale
	e.ZoomOut()
	if e.transform.Scale >= mid {
		t.Fatalf("expected ZoomOut to decrease scale, mid=%v after=%v", mid, e.transform.Scale)
	}
}

func TestClampScaleRespectsConfiguredBounds(t *testing.T) {
	e, _ := newTestEngine(1000, 1000, 800, 800)
	e.cfg.MinScale = 0.5
	e.cfg.MaxScale = 2
	got := e.clampScale(100)
	want := e.fitScale * 2
	assertNear(t, "clampScale upper", got, want)

	got = e.clampScale(0.0001)
	want = e.fitScale * 0.5
	assertNear(t, "clampScale lower", got, want)
}

func TestClampScaleAlwaysAllows1to1(t *testing.T) {
	e, _ := newTestEngine(1000, 1000, 8000, 8000)
	// fitScale here is >1 (image smaller than viewport); MaxScale default
	// relative to fit could exceed 1.0 trivially, but the rule guarantees
	// 1:1 is reachable even when fit * MaxScale would otherwise fall short.
	e.cfg.MaxScale = 0.1
	got := e.clampScale(1.0)
	assertNear(t, "clampScale", got, 1.0)
}

func TestOnWheelZoomsAboutPointer(t *testing.T) {
	e, _ := newTestEngine(1000, 1000, 800, 800)
	e.cfg.Smooth = boolPtr(false)
	before := e.transform.Scale
	e.onWheel(400, 400, -1) // scroll up: zoom in
	if e.transform.Scale <= before {
		t.Fatalf("expected wheel-up to zoom in, before=%v after=%v", before, e.transform.Scale)
	}
}

func TestOnWheelDisabledIsNoOp(t *testing.T) {
	e, _ := newTestEngine(1000, 1000, 800, 800)
	e.cfg.WheelDisabled = true
	before := e.transform
	e.onWheel(400, 400, -1)
	if e.transform != before {
		t.Fatal("expected WheelDisabled to suppress the wheel handler entirely")
	}
}

func TestOnDoubleTapTogglesFitAnd1to1(t *testing.T) {
	e, _ := newTestEngine(1000, 1000, 800, 800)
	e.cfg.Smooth = boolPtr(false)
	e.cfg.DoubleClickAnimationTime = 0
	e.interaction.is1to1 = false // start from "not yet at 1:1" so toggling targets 1.0

	e.onDoubleTap(400, 400) // first tap: just records
	e.onDoubleTap(400, 400) // second tap within window: toggles to 1:1

	assertNear(t, "Scale after double-tap", e.transform.Scale, 1.0)
}

func TestDragPastDeadZonePansImage(t *testing.T) {
	e, _ := newTestEngine(2000, 2000, 800, 800)
	// Zoom past fit first: at fit scale the bounds clamp forces translation
	// to zero, leaving no room to pan.
	e.transform.Scale = 1
	start := e.transform

	e.onPointerDown(100, 100, false)
	e.onPointerMove(100+dragDeadZone+10, 100)

	if e.transform.TranslateX == start.TranslateX {
		t.Fatal("expected a drag past the dead zone to move the transform")
	}
}

func TestDragWithinDeadZoneDoesNotPan(t *testing.T) {
	e, _ := newTestEngine(2000, 2000, 800, 800)
	startX, startY := e.transform.TranslateX, e.transform.TranslateY

	e.onPointerDown(100, 100, false)
	e.onPointerMove(100+dragDeadZone/2, 100)

	if e.transform.TranslateX != startX || e.transform.TranslateY != startY {
		t.Fatal("expected movement within the dead zone to be ignored")
	}
}

func TestPanningDisabledSuppressesDrag(t *testing.T) {
	e, _ := newTestEngine(2000, 2000, 800, 800)
	e.cfg.PanningDisabled = true
	start := e.transform

	e.onPointerDown(100, 100, false)
	e.onPointerMove(100+dragDeadZone+50, 100+50)

	if e.transform != start {
		t.Fatal("expected PanningDisabled to suppress drag-driven translation")
	}
}

func TestPostMainThreadRunsOnlyOnDrain(t *testing.T) {
	e, _ := newTestEngine(1000, 1000, 800, 800)
	ran := false
	e.postMainThread(func() { ran = true })
	if ran {
		t.Fatal("expected postMainThread to defer execution until drainMainThread runs")
	}
	e.drainMainThread()
	if !ran {
		t.Fatal("expected drainMainThread to run the queued callback")
	}
}

func TestDrainMainThreadRunsEveryQueuedCallbackInOrder(t *testing.T) {
	e, _ := newTestEngine(1000, 1000, 800, 800)
	var order []int
	e.postMainThread(func() { order = append(order, 1) })
	e.postMainThread(func() { order = append(order, 2) })
	e.drainMainThread()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order = %v, want [1 2]", order)
	}
}
