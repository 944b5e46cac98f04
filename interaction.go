package imageview

import (
	"math"
	"time"
)

// Interaction thresholds, grounded on the teacher's input.go pointer
// dead-zone and pinch handling, generalized from per-node hit-testing to a
// single full-viewport image transform target.
const (
	dragDeadZone           = 4.0 // pixels
	mouseDragGraceMillis   = 100
	touchDragGraceMillis   = 50
	doubleTapWindowMillis  = 300
	doubleTapMoveTolerance = 50.0 // pixels
	dragThrottleMillis     = 50
	dragSettleMillis       = 50
)

// dragState tracks an in-progress single-pointer drag, grounded on the
// teacher's pointerState.
type dragState struct {
	active        bool
	dragging      bool // past the dead-zone
	startX, startY float64
	lastX, lastY   float64
	startTime      time.Time
	dragOptimized  bool
	lastTileUpdate time.Time
	isTouch        bool
}

// pinchTrack tracks an active two-finger gesture, grounded on the teacher's
// pinchState.
type pinchTrack struct {
	active   bool
	prevDist float64
	centerX  float64
	centerY  float64
}

// tapState tracks double-tap/double-click detection.
type tapState struct {
	lastTapTime time.Time
	lastTapX    float64
	lastTapY    float64
	haveLastTap bool
}

// interactionState bundles all input-derived state the data model calls
// "Input State" in spec.md §3: drag state, double-tap tracking, pinch
// state, and the current 1:1-toggle state.
type interactionState struct {
	drag  dragState
	pinch pinchTrack
	tap   tapState

	// is1to1 records whether the transform currently equals the 1:1
	// toggle state, so a second double-tap toggles back to fit.
	is1to1 bool
}

// PointerEvent is a single-pointer input sample (mouse, or one touch slot).
// No Engine method accepts it, and Update does not poll Ebitengine's input:
// the drag handlers below are reached only through the InjectPress,
// InjectMove and InjectRelease queue in debug.go, and the wheel, double-tap
// and pinch handlers have no exported entry point.
type PointerEvent struct {
	X, Y    float64
	Pressed bool
	IsTouch bool
}

// onPointerDown handles a press: interrupts any in-flight animation, clears
// suspension, enters dragging state, records start time, and begins the
// drag-optimized grace timer.
func (e *Engine) onPointerDown(x, y float64, isTouch bool) {
	e.anim.Cancel()
	e.interaction.drag = dragState{
		active:    true,
		startX:    x,
		startY:    y,
		lastX:     x,
		lastY:     y,
		startTime: e.clock.Now(),
		isTouch:   isTouch,
	}
	grace := time.Duration(mouseDragGraceMillis) * time.Millisecond
	if isTouch {
		grace = time.Duration(touchDragGraceMillis) * time.Millisecond
	}
	d := &e.interaction.drag
	e.clock.AfterFunc(grace, func() {
		if d.active {
			d.dragOptimized = true
		}
	})
}

// onPointerMove handles a move while a pointer is down: translates by
// pointer delta, clamps position, renders immediately, and in tile mode
// calls the tile engine's update via a throttled (>=50ms) path.
func (e *Engine) onPointerMove(x, y float64) {
	d := &e.interaction.drag
	if !d.active {
		return
	}
	dx := x - d.lastX
	dy := y - d.lastY
	if !d.dragging {
		if math.Hypot(x-d.startX, y-d.startY) > dragDeadZone {
			d.dragging = true
		} else {
			return
		}
	}
	d.lastX = x
	d.lastY = y

	if e.cfg.PanningDisabled {
		return
	}
	t := e.transform
	t.TranslateX += dx
	t.TranslateY += dy
	e.setTransform(clampTransform(t, float64(e.image.Width), float64(e.image.Height),
		e.viewportW, e.viewportH, e.cfg.limitToBounds(), e.fitScale))

	if e.tileModeActive() {
		now := e.clock.Now()
		if now.Sub(d.lastTileUpdate) >= time.Duration(dragThrottleMillis)*time.Millisecond {
			d.lastTileUpdate = now
			e.tiles.Update(e.viewportRectInSource(), e.lodLevelForScale(e.transform.Scale), d.dragOptimized)
		}
	}
}

// onPointerUp handles a release after a drag: clears drag flags, then after
// a short settle performs one unconditional tile update to guarantee full
// coverage.
func (e *Engine) onPointerUp() {
	d := &e.interaction.drag
	if !d.active {
		return
	}
	d.active = false
	d.dragging = false
	d.dragOptimized = false
	if e.tileModeActive() {
		e.clock.AfterFunc(time.Duration(dragSettleMillis)*time.Millisecond, func() {
			e.tiles.Update(e.viewportRectInSource(), e.lodLevelForScale(e.transform.Scale), false)
		})
	}
}

// onWheel handles a wheel tick: aborts any animation, zooms about the
// pointer by 1 +/- step.
func (e *Engine) onWheel(x, y, deltaY float64) {
	if e.cfg.WheelDisabled {
		return
	}
	e.anim.Cancel()
	factor := 1 + e.cfg.WheelStep
	if deltaY > 0 {
		factor = 1 / factor
	}
	e.zoomAbout(x, y, e.transform.Scale*factor, 0)
}

// onDoubleTap handles a double-tap/double-click: toggles between
// fitToScreenScale and 1.0, centered at the pointer, via an animated
// transition. A movement > 50px or elapsed > 300ms disqualifies the second
// tap (re-entrancy guard).
func (e *Engine) onDoubleTap(x, y float64) {
	if e.cfg.DoubleClickDisabled {
		return
	}
	now := e.clock.Now()
	tap := &e.interaction.tap
	isDouble := tap.haveLastTap &&
		now.Sub(tap.lastTapTime) <= time.Duration(doubleTapWindowMillis)*time.Millisecond &&
		math.Hypot(x-tap.lastTapX, y-tap.lastTapY) <= doubleTapMoveTolerance
	tap.lastTapTime = now
	tap.lastTapX = x
	tap.lastTapY = y
	tap.haveLastTap = true
	if !isDouble {
		return
	}
	tap.haveLastTap = false

	switch e.cfg.DoubleClickMode {
	case DoubleClickZoom:
		e.zoomAbout(x, y, e.transform.Scale*(1+e.cfg.DoubleClickStep), e.cfg.DoubleClickAnimationTime)
	default:
		target := e.fitScale
		if !e.interaction.is1to1 {
			target = 1.0
		}
		e.interaction.is1to1 = !e.interaction.is1to1
		e.zoomAbout(x, y, target, e.cfg.DoubleClickAnimationTime)
	}
}

// zoomAbout animates (or, if durationMs==0, immediately applies) a zoom to
// targetScale anchored so the source pixel under (vx, vy) stays under
// (vx, vy) after the change.
func (e *Engine) zoomAbout(vx, vy, targetScale float64, durationMs int) {
	targetScale = e.clampScale(targetScale)
	sx, sy := viewportToSource(e.transform, float64(e.image.Width), float64(e.image.Height), e.viewportW, e.viewportH, vx, vy)

	target := Transform{Scale: targetScale}
	nvx, nvy := sourceToViewport(target, float64(e.image.Width), float64(e.image.Height), e.viewportW, e.viewportH, sx, sy)
	target.TranslateX = e.transform.TranslateX + (vx - nvx)
	target.TranslateY = e.transform.TranslateY + (vy - nvy)

	// Clamp the target before the animation starts, per spec.md §4.B, so no
	// frame ever lands outside bounds.
	target = clampTransform(target, float64(e.image.Width), float64(e.image.Height), e.viewportW, e.viewportH, e.cfg.limitToBounds(), e.fitScale)

	if durationMs <= 0 || !e.cfg.smooth() {
		e.setTransform(target)
		return
	}
	e.anim.onComplete = e.onAnimationComplete
	e.anim.StartAnimation(e.transform, target.Scale, target.TranslateX, target.TranslateY, durationMs)
}

// onPinch handles a two-finger pinch sample: scale factor is the ratio of
// current to previous finger distance, anchored at the two-finger midpoint.
func (e *Engine) onPinch(x0, y0, x1, y1 float64) {
	if e.cfg.PinchDisabled {
		return
	}
	dist := math.Hypot(x1-x0, y1-y0)
	cx, cy := (x0+x1)/2, (y0+y1)/2
	p := &e.interaction.pinch
	if !p.active {
		p.active = true
		p.prevDist = dist
		p.centerX = cx
		p.centerY = cy
		return
	}
	if p.prevDist <= 0 {
		p.prevDist = dist
		return
	}
	ratio := dist / p.prevDist
	p.prevDist = dist
	e.anim.Cancel()
	e.zoomAbout(cx, cy, e.transform.Scale*math.Pow(ratio, e.cfg.PinchStep), 0)
}

// endPinch clears pinch tracking when fewer than two touches remain active.
func (e *Engine) endPinch() {
	e.interaction.pinch = pinchTrack{}
}

// clampScale enforces: absoluteMin = fitToScreen * MinScale; effective max
// = max(fitToScreen * MaxScale, 1.0) so 1:1 is always reachable.
func (e *Engine) clampScale(scale float64) float64 {
	min := e.fitScale * e.cfg.MinScale
	max := math.Max(e.fitScale*e.cfg.MaxScale, 1.0)
	if scale < min {
		return min
	}
	if scale > max {
		return max
	}
	return scale
}
