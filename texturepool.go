package imageview

import (
	"image"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
)

// MemoryAccountant is the running byte count of all live GPU texture
// allocations (4 bytes/pixel RGBA), mutated only on the render goroutine.
// Grounded on the corpus's sync/atomic stats counters in
// geotiff2pmtiles/generator.go (tileCount/totalBytes); atomics are used
// here for the same ready-made overflow-safe counter idiom, not because
// this engine is actually multi-writer (see DESIGN.md/SPEC_FULL.md §4.F).
type MemoryAccountant struct {
	bytes  atomic.Int64
	budget int64
}

// NewMemoryAccountant creates an accountant with the given byte budget.
func NewMemoryAccountant(budget int64) *MemoryAccountant {
	return &MemoryAccountant{budget: budget}
}

// Add records w*h*4 bytes for a newly created texture.
func (a *MemoryAccountant) Add(w, h int) {
	a.bytes.Add(int64(w) * int64(h) * 4)
}

// Sub records the deletion of a texture of the given dimensions.
func (a *MemoryAccountant) Sub(w, h int) {
	a.bytes.Add(-int64(w) * int64(h) * 4)
}

// Bytes returns the current accounted byte count.
func (a *MemoryAccountant) Bytes() int64 { return a.bytes.Load() }

// Budget returns the configured byte budget.
func (a *MemoryAccountant) Budget() int64 { return a.budget }

// PressureRatio returns Bytes()/Budget().
func (a *MemoryAccountant) PressureRatio() float64 {
	if a.budget == 0 {
		return 0
	}
	return float64(a.bytes.Load()) / float64(a.budget)
}

// pooledTexture is a GPU texture checked out of a texturePool, tracking the
// dimensions the accountant charged it for.
type pooledTexture struct {
	image *ebiten.Image
	w, h  int
}

// texturePool buckets idle *ebiten.Image targets by power-of-two dimensions
// for reuse, and drives MemoryAccountant on every allocation/release.
// Grounded directly on the teacher's rendertarget.go renderTexturePool,
// generalized from ephemeral per-frame mask/cache/filter compositing
// targets to the LOD/tile GPU texture lifetime this engine needs.
type texturePool struct {
	buckets    map[uint64][]*ebiten.Image
	accountant *MemoryAccountant
}

func newTexturePool(accountant *MemoryAccountant) *texturePool {
	return &texturePool{
		buckets:    make(map[uint64][]*ebiten.Image),
		accountant: accountant,
	}
}

func poolKey(w, h int) uint64 {
	return uint64(uint32(nextPowerOfTwo(w)))<<32 | uint64(uint32(nextPowerOfTwo(h)))
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// acquire checks out an *ebiten.Image at least w x h, reusing a pooled one
// if a same-bucket image is idle, and charges the accountant for exactly
// w x h bytes (the logical size, not the bucket's padded size).
func (p *texturePool) acquire(w, h int) *pooledTexture {
	key := poolKey(w, h)
	var img *ebiten.Image
	if bucket := p.buckets[key]; len(bucket) > 0 {
		img = bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
	} else {
		img = ebiten.NewImage(nextPowerOfTwo(w), nextPowerOfTwo(h))
	}
	p.accountant.Add(w, h)
	return &pooledTexture{image: img.SubImage(image.Rect(0, 0, w, h)).(*ebiten.Image), w: w, h: h}
}

// acquireFromPixels acquires a texture sized w x h and uploads pixels into
// it via WritePixels.
func (p *texturePool) acquireFromPixels(pixels *image.NRGBA, w, h int) *pooledTexture {
	tex := p.acquire(w, h)
	tex.image.WritePixels(pixels.Pix)
	return tex
}

// release returns a pooled texture's backing image to its bucket and
// credits the accountant back for its logical size.
func (p *texturePool) release(t *pooledTexture) {
	if t == nil {
		return
	}
	p.accountant.Sub(t.w, t.h)
	key := poolKey(t.w, t.h)
	p.buckets[key] = append(p.buckets[key], t.image)
}

// dispose permanently frees a pooled texture's backing image rather than
// returning it to the pool (used on teardown).
func (p *texturePool) dispose(t *pooledTexture) {
	if t == nil {
		return
	}
	p.accountant.Sub(t.w, t.h)
	t.image.Deallocate()
}
