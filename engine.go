package imageview

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Engine is the top-level object a host creates once per loaded image. It
// owns the source image, the current view transform, and every subsystem
// needed to render it: the animation scheduler, the LOD pyramid or tile
// engine (whichever strategy applies), the resample worker, the shared
// texture pool and memory accountant, and the render layer.
//
// Grounded on the teacher's Scene (scene.go): a single top-level object
// wired together in a constructor, driven by an ebiten.Game shell, exposing
// a small set of public methods plus optional callbacks — here specialized
// from an arbitrary node graph to exactly one image target.
type Engine struct {
	cfg EngineConfig

	image *Image

	transform Transform
	fitScale  float64
	viewportW float64
	viewportH float64

	anim        AnimationScheduler
	interaction interactionState

	lod   LODPyramid
	tiles *TileEngine

	resample *ResampleWorker
	renderer *Renderer

	pool       *texturePool
	accountant *MemoryAccountant

	clock     Clock
	observers Observers

	// Logger overrides the package default *slog.Logger. Optional.
	Logger *slog.Logger

	tileMode bool

	// ScreenshotDir is where Screenshot-queued captures are written.
	// Defaults to "screenshots".
	ScreenshotDir   string
	screenshotQueue []string
	injectQueue     []syntheticPointerEvent
	testRunner      *TestRunner

	// mainThread receives completions from the resample worker's background
	// goroutine. Update drains it every tick so GPU-touching work (texture
	// pool acquisition, LODPyramid field mutation) only ever runs on the
	// render goroutine, per spec.md §5's "no GPU call off the render
	// thread" rule.
	mainThread chan func()
}

// NewEngine validates cfg, fills in documented defaults, and constructs an
// Engine ready to receive Load. GPU-context failures surface later, from
// Run, not here — matching the teacher's "fatal raises to caller" stance
// for ebiten.RunGame.
func NewEngine(cfg EngineConfig, observers Observers) (*Engine, error) {
	cfg = applyDefaults(cfg)
	validateLODLevels(cfg.LODLevels)

	accountant := NewMemoryAccountant(cfg.MemoryBudgetBytes)
	pool := newTexturePool(accountant)
	clock := Clock(realClock{})

	e := &Engine{
		cfg:        cfg,
		pool:       pool,
		accountant: accountant,
		clock:      clock,
		observers:  observers,
		renderer:   newRenderer(clock),
		mainThread: make(chan func(), 8),
	}
	e.lod = LODPyramid{
		levels:            cfg.LODLevels,
		currentLevel:      -1,
		pixelArtThreshold: cfg.PixelArtThreshold,
		pool:              pool,
		accountant:        accountant,
		clock:             clock,
		suspended:         e.animSuspended,
	}
	e.anim.onComplete = e.onAnimationComplete
	return e, nil
}

// Load decodes an image from r, selects the small-image or large-image
// strategy per spec.md §4.D's entry rule, and resets the view to the
// configured initial scale.
func (e *Engine) Load(r io.Reader) error {
	img, err := decodeImage(r)
	if err != nil {
		return fmt.Errorf("imageview: load: %w", err)
	}
	e.teardownSubsystems()
	e.image = img
	e.resample = newResampleWorker(img)
	e.lod.requestResample = func(level, targetW, targetH int, quality Quality, onDone func(pixels *image.NRGBA, w, h int, err error)) {
		e.observers.loadingStateChange(true, "creating LOD texture", quality)
		e.resample.RequestLOD(level, targetW, targetH, quality, func(pixels *image.NRGBA, w, h int, err error) {
			e.postMainThread(func() {
				onDone(pixels, w, h, err)
				e.observers.loadingStateChange(false, "", quality)
			})
		})
	}

	peakLODBytes := estimatePeakLODBytes(img.Width, img.Height, e.cfg.LODLevels)
	e.tileMode = ShouldEnterTileMode(img.Width, img.Height, peakLODBytes, e.cfg.MemoryBudgetBytes)

	if e.tileMode {
		e.tiles = newTileEngine(e.cfg, e.pool, e.accountant, e.resample)
		e.tiles.onTileReady = func() {
			if e.cfg.Debug {
				e.observers.debugUpdate(e.snapshot())
			}
		}
		e.tiles.CreateBackground(img.Width, img.Height, e.cfg.Mobile, func(w, h int) (*image.NRGBA, error) {
			return resamplePixels(img.pixels, img.pixels.Bounds(), w, h, QualityMedium)
		})
	}

	e.ResetView()
	return nil
}

// estimatePeakLODBytes sums the byte cost of every LOD level at or above
// 1x scale, an upper bound on concurrently-resident LOD textures used only
// to decide strategy at Load time.
func estimatePeakLODBytes(srcW, srcH int, levels []LODLevel) int64 {
	var total int64
	for _, lvl := range levels {
		if lvl.Scale < 1 {
			continue
		}
		w := int64(float64(srcW) * lvl.Scale)
		h := int64(float64(srcH) * lvl.Scale)
		total += w * h * 4
	}
	return total
}

// ResetView restores the transform to the configured initial scale,
// optionally centered, clamped to bounds.
func (e *Engine) ResetView() {
	if e.image == nil {
		return
	}
	e.fitScale = fitToScreenScale(float64(e.image.Width), float64(e.image.Height), e.viewportW, e.viewportH)
	scale := e.fitScale * e.cfg.InitialScale
	// Translate is an offset from the centered position (see transform.go),
	// so centering is the zero translate; top-left alignment places the
	// source image's top-left corner at the viewport's top-left.
	t := Transform{Scale: scale}
	if !e.cfg.centerOnInit() {
		t.TranslateX = float64(e.image.Width)*scale/2 - e.viewportW/2
		t.TranslateY = float64(e.image.Height)*scale/2 - e.viewportH/2
	}
	e.interaction.is1to1 = scale == 1
	e.setTransform(clampTransform(t, float64(e.image.Width), float64(e.image.Height), e.viewportW, e.viewportH, e.cfg.limitToBounds(), e.fitScale))
}

// ZoomIn animates one WheelStep increment centered on the viewport.
func (e *Engine) ZoomIn() {
	e.zoomAbout(e.viewportW/2, e.viewportH/2, e.transform.Scale*(1+e.cfg.WheelStep), e.cfg.DoubleClickAnimationTime)
}

// ZoomOut animates one WheelStep decrement centered on the viewport.
func (e *Engine) ZoomOut() {
	e.zoomAbout(e.viewportW/2, e.viewportH/2, e.transform.Scale/(1+e.cfg.WheelStep), e.cfg.DoubleClickAnimationTime)
}

// Scale returns the current absolute scale factor.
func (e *Engine) Scale() float64 {
	return e.transform.Scale
}

// SetViewportSize updates the known viewport dimensions, used directly by
// Layout and available to hosts that manage their own ebiten.Game loop.
func (e *Engine) SetViewportSize(w, h int) {
	e.viewportW = float64(w)
	e.viewportH = float64(h)
	if e.image != nil {
		e.fitScale = fitToScreenScale(float64(e.image.Width), float64(e.image.Height), e.viewportW, e.viewportH)
	}
}

// setTransform installs t, fires OnZoomChange, and, in the LOD strategy,
// schedules a debounced LOD update.
func (e *Engine) setTransform(t Transform) {
	e.transform = t
	relative := relativeScale(t.Scale, e.fitScale)
	e.observers.zoomChange(t.Scale, relative)
	if !e.tileMode {
		e.lod.DebouncedUpdate(t.Scale, e.fitScale, e.image.Width, e.image.Height, QualityMedium)
	}
}

// animSuspended reports whether LOD/tile background work should be
// suspended: true while an animation is in flight.
func (e *Engine) animSuspended() bool {
	return e.anim.Suspended()
}

// onAnimationComplete forces one full LOD/tile refresh once an animation
// settles, per spec.md §4.B's "forced full refresh" rule. In tile mode a
// second tile update follows dragSettleMillis later, queued onto the render
// goroutine.
func (e *Engine) onAnimationComplete() {
	if e.tileMode {
		e.tiles.Update(e.viewportRectInSource(), e.lodLevelForScale(e.transform.Scale), false)
		e.clock.AfterFunc(time.Duration(dragSettleMillis)*time.Millisecond, func() {
			e.postMainThread(func() {
				if e.tileMode && e.tiles != nil {
					e.tiles.Update(e.viewportRectInSource(), e.lodLevelForScale(e.transform.Scale), false)
				}
			})
		})
		return
	}
	level := e.lod.SelectOptimalLOD(e.transform.Scale, e.fitScale)
	e.lod.CreateAndSetLOD(level, e.image.Width, e.image.Height, QualityMedium)
}

// tileModeActive reports whether the large-image (tile) strategy is in
// effect for the loaded image.
func (e *Engine) tileModeActive() bool {
	return e.tileMode
}

// viewportRectInSource converts the full viewport rectangle to source
// pixel coordinates under the current transform.
func (e *Engine) viewportRectInSource() Rect {
	x0, y0 := viewportToSource(e.transform, float64(e.image.Width), float64(e.image.Height), e.viewportW, e.viewportH, 0, 0)
	x1, y1 := viewportToSource(e.transform, float64(e.image.Width), float64(e.image.Height), e.viewportW, e.viewportH, e.viewportW, e.viewportH)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// lodLevelForScale maps the current absolute scale to a tile-grid LOD
// level via the dedicated tile-LOD table (spec.md §4.D step 2). Only
// meaningful in tile mode; the small-image strategy uses
// LODPyramid.SelectOptimalLOD instead.
func (e *Engine) lodLevelForScale(scale float64) int {
	return lodLevelForAbsoluteScale(scale, e.cfg.Mobile)
}

// postMainThread queues fn to run on the next Update call, from whatever
// goroutine a background subsystem (the resample worker) completes on.
func (e *Engine) postMainThread(fn func()) {
	e.mainThread <- fn
}

// drainMainThread runs every queued completion callback synchronously,
// on the caller's goroutine — called from Update, so this is always the
// render goroutine in a running ebiten.Game.
func (e *Engine) drainMainThread() {
	for {
		select {
		case fn := <-e.mainThread:
			fn()
		default:
			return
		}
	}
}

// Update runs queued worker completions, steps an attached TestRunner,
// consumes one injected pointer event, and advances the animation scheduler
// by one tick. Implements ebiten.Game.
func (e *Engine) Update() error {
	e.drainMainThread()
	if e.testRunner != nil {
		e.testRunner.step(e)
	}
	e.drainInjectedInput()

	dt := float32(1.0 / float64(ebiten.TPS()))
	if e.anim.Active() {
		e.setTransform(e.anim.Tick(e.transform, dt))
	}
	return nil
}

// Draw renders the image, throttled to roughly 60fps: in tile mode the
// background and then the active tile set, otherwise the retained LOD
// texture. Implements ebiten.Game.
func (e *Engine) Draw(screen *ebiten.Image) {
	if e.image == nil || e.renderer.shouldThrottle() {
		return
	}
	screen.Clear()
	if e.tileMode {
		e.renderer.DrawBackground(screen, e.tiles.Background(), e.image.Width, e.image.Height, e.transform, e.viewportW, e.viewportH)
		level := e.lodLevelForScale(e.transform.Scale)
		tiles := e.tiles.ActiveTiles(level, e.viewportRectInSource())
		e.renderer.DrawTiles(screen, tiles, e.cfg.TileSize, e.image.Width, e.image.Height, e.transform, e.viewportW, e.viewportH)
	} else {
		e.renderer.DrawLOD(screen, e.lod.currentTexture, e.image.Width, e.image.Height, e.transform, e.viewportW, e.viewportH)
	}
	if e.cfg.Debug {
		e.observers.debugUpdate(e.snapshot())
	}
	e.flushScreenshots(screen)
}

// Layout reports the engine's known viewport size, following the teacher's
// gameShell.Layout.
func (e *Engine) Layout(outsideWidth, outsideHeight int) (int, int) {
	if e.viewportW == 0 || e.viewportH == 0 {
		e.SetViewportSize(outsideWidth, outsideHeight)
	}
	return int(e.viewportW), int(e.viewportH)
}

// RunConfig configures the convenience Run entry point, following the
// teacher's scene.go RunConfig.
type RunConfig struct {
	Title         string
	Width, Height int
}

// Run is a convenience entry point that configures an Ebitengine window and
// drives the Engine directly as the ebiten.Game. Hosts wanting a custom
// game loop can instead call Update/Draw/Layout themselves.
func Run(e *Engine, cfg RunConfig) error {
	w, h := cfg.Width, cfg.Height
	if w == 0 {
		w = 640
	}
	if h == 0 {
		h = 480
	}
	e.SetViewportSize(w, h)
	ebiten.SetWindowSize(w, h)
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if err := ebiten.RunGame(e); err != nil {
		return fmt.Errorf("imageview: run: %w", err)
	}
	return nil
}

// snapshot builds the DebugSnapshot delivered to OnDebugUpdate.
func (e *Engine) snapshot() DebugSnapshot {
	s := DebugSnapshot{
		Scale:             e.transform.Scale,
		TranslateX:        e.transform.TranslateX,
		TranslateY:        e.transform.TranslateY,
		LODLevel:          e.lod.currentLevel,
		CanvasWidth:       int(e.viewportW),
		CanvasHeight:      int(e.viewportH),
		FitToScreenScale:  e.fitScale,
		EffectiveMinScale: e.fitScale * e.cfg.MinScale,
		EffectiveMaxScale: maxFloat(e.fitScale*e.cfg.MaxScale, 1.0),
		TextureBytes:      e.accountant.Bytes(),
		MemoryBudgetBytes: e.accountant.Budget(),
		PressureRatio:     e.accountant.PressureRatio(),
		TileMode:          e.tileMode,
	}
	if e.image != nil {
		s.ImageWidth = e.image.Width
		s.ImageHeight = e.image.Height
	}
	if e.tileMode && e.tiles != nil {
		s.CachedTileCount = e.tiles.cache.Len()
		s.LoadingTileCount = e.tiles.LoadingCount()
		s.ActiveTileCount = len(e.tiles.ActiveTiles(e.lodLevelForScale(e.transform.Scale), e.viewportRectInSource()))
	}
	if !e.tileMode && e.lod.currentTexture != nil {
		s.ActiveLODCount = 1
	}
	return s
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// teardownSubsystems releases every subsystem tied to a previously loaded
// image, so a host can call Load a second time to display a new image.
func (e *Engine) teardownSubsystems() {
	e.anim.Cancel()
	e.lod.Teardown()
	if e.tiles != nil {
		e.tiles.Teardown()
		e.tiles = nil
	}
	if e.resample != nil {
		e.resample.Close()
		e.resample = nil
	}
	e.tileMode = false
}

// Close releases every GPU resource the engine retains. The Engine must
// not be used after Close.
func (e *Engine) Close() {
	e.teardownSubsystems()
	e.image = nil
}
