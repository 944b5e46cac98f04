package imageview

import (
	"image"
	"time"
)

// LODPyramid implements the small-image strategy (spec.md §4.C):
// single-LOD-on-demand. At most one LOD texture is GPU-resident at a time.
//
// Grounded on the teacher's rendertarget.go single-resource lazy acquire/
// release lifecycle (generalized from a transient per-frame pooled render
// target to one long-lived retained texture) and on the duplicate-
// suppression idiom in tilemap.go's boundary-crossing rebuildBuffer guard,
// here guarding LOD creation instead of tile-buffer rebuilds.
type LODPyramid struct {
	levels []LODLevel

	currentLevel     int
	currentTexture   *pooledTexture
	currentlyCreating bool
	creatingLevel    int

	pixelArtThreshold int
	pool              *texturePool
	accountant        *MemoryAccountant

	debounceTimer Timer
	clock         Clock

	// requestResample is supplied by the Engine; it asks the resample
	// worker (or its synchronous fallback) to produce pixels for a target
	// LOD level and calls back with the result.
	requestResample func(level, targetW, targetH int, quality Quality, onDone func(pixels *image.NRGBA, w, h int, err error))

	suspended func() bool
}

// SelectOptimalLOD implements the selection rule from spec.md §4.C: for
// scale >= 1 it returns levels 4/5/6/7 at thresholds 1/2/4/8 (indices into
// the default 8-entry table); for scale < 1 it scans ascending and returns
// the first level whose MaxViewportScale >= relativeScale, else the last
// level.
func (p *LODPyramid) SelectOptimalLOD(scale, fitScale float64) int {
	if scale >= 1 {
		thresholds := []struct {
			min   float64
			level int
		}{
			{8, 7}, {4, 6}, {2, 5}, {1, 4},
		}
		for _, th := range thresholds {
			if scale >= th.min && th.level < len(p.levels) {
				return th.level
			}
		}
		return min(4, len(p.levels)-1)
	}
	relative := relativeScale(scale, fitScale)
	for i, lvl := range p.levels {
		if lvl.MaxViewportScale >= relative {
			return i
		}
	}
	return len(p.levels) - 1
}

// usesNearestFilter reports whether the "pixel art" heuristic applies: the
// source is smaller than pixelArtThreshold on its longest side and the
// target LOD level's scale is >= 1.
func (p *LODPyramid) usesNearestFilter(level int, srcW, srcH int) bool {
	longest := srcW
	if srcH > longest {
		longest = srcH
	}
	return longest < p.pixelArtThreshold && p.levels[level].Scale >= 1
}

// CreateAndSetLOD requests pixels for targetLevel, guarded by
// currentlyCreating to prevent duplicate requests. On completion, every
// previously live LOD texture is deleted before the new one installs; if
// the scheduler was suspended before the result arrived, the new texture
// is discarded instead. A completion for a level other than the most
// recently requested one is dropped as stale.
func (p *LODPyramid) CreateAndSetLOD(targetLevel int, srcW, srcH int, quality Quality) {
	if p.currentlyCreating && p.creatingLevel == targetLevel {
		return
	}
	p.currentlyCreating = true
	p.creatingLevel = targetLevel

	lvl := p.levels[targetLevel]
	w := int(float64(srcW) * lvl.Scale)
	h := int(float64(srcH) * lvl.Scale)

	p.requestResample(targetLevel, w, h, quality, func(pixels *image.NRGBA, rw, rh int, err error) {
		if targetLevel != p.creatingLevel {
			return // stale: a different level was requested after this one.
		}
		p.currentlyCreating = false
		if err != nil {
			return // per-LOD create failure: locally recovered, draw loop keeps previous LOD.
		}
		if p.suspended != nil && p.suspended() {
			return // discard: engine entered a suspended phase before arrival.
		}
		tex := p.pool.acquireFromPixels(pixels, rw, rh)
		p.releaseCurrent()
		p.currentTexture = tex
		p.currentLevel = targetLevel
	})
}

// releaseCurrent frees the currently retained LOD texture, if any, and
// updates the memory accounting counter.
func (p *LODPyramid) releaseCurrent() {
	if p.currentTexture != nil {
		p.pool.release(p.currentTexture)
		p.currentTexture = nil
	}
}

// DebouncedUpdate schedules a 200ms trailing-edge call to SelectOptimalLOD
// then CreateAndSetLOD. Suspension short-circuits both the schedule and
// the fire.
func (p *LODPyramid) DebouncedUpdate(scale, fitScale float64, srcW, srcH int, quality Quality) {
	if p.suspended != nil && p.suspended() {
		return
	}
	if p.debounceTimer != nil {
		p.debounceTimer.Stop()
	}
	p.debounceTimer = p.clock.AfterFunc(200*time.Millisecond, func() {
		if p.suspended != nil && p.suspended() {
			return
		}
		level := p.SelectOptimalLOD(scale, fitScale)
		p.CreateAndSetLOD(level, srcW, srcH, quality)
	})
}

// Teardown releases the retained LOD texture and cancels any pending
// debounce timer.
func (p *LODPyramid) Teardown() {
	if p.debounceTimer != nil {
		p.debounceTimer.Stop()
	}
	p.releaseCurrent()
}
