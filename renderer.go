package imageview

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// renderThrottleInterval caps redraw rate to roughly 60fps, per spec.md
// §4.F's 16ms throttle note — ebiten already paces Draw to the display's
// refresh rate, so this is a defensive floor against back-to-back
// SetTransform calls triggering redundant work within a single frame.
const renderThrottleInterval = 16 * time.Millisecond

// Renderer draws the current Transform's view of the background, the
// active LOD texture (small-image strategy), and the active tile set
// (large-image strategy) onto the screen, in that back-to-front order.
//
// Grounded on the teacher's RenderTexture.DrawImageColored /
// applyDrawOpts (GeoM + ColorScale construction from a flat transform)
// and scene.go's per-frame draw-order walk, generalized from a node-graph
// walk to this engine's fixed three-layer order.
type Renderer struct {
	lastDraw time.Time
	clock    Clock
}

func newRenderer(clock Clock) *Renderer {
	return &Renderer{clock: clock}
}

// shouldThrottle reports whether the caller should skip this draw because
// the previous one happened under renderThrottleInterval ago.
func (r *Renderer) shouldThrottle() bool {
	now := r.clock.Now()
	if now.Sub(r.lastDraw) < renderThrottleInterval {
		return true
	}
	r.lastDraw = now
	return false
}

// geoMFor builds the ebiten.GeoM mapping a texture representing the source
// region (originX, originY)-(originX+srcW, originY+srcH) onto the viewport
// under the given transform. imgW/imgH are the full source image's
// dimensions — Transform.Translate is an offset from the position that
// centers the image (see transform.go's sourceToViewport), so every draw
// has to go through the image center the same way the pointer/wheel math
// does, not a naive texture-origin-at-screen-origin placement.
//
// texW/texH are the backing texture's own pixel size, which can differ from
// srcW/srcH (an LOD or tile texture is typically downsampled relative to
// the source region it stands in for).
func geoMFor(t Transform, originX, originY, srcW, srcH, texW, texH, imgW, imgH, viewportW, viewportH float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.Scale(srcW/texW, srcH/texH)
	g.Translate(originX, originY)
	g.Translate(-imgW/2, -imgH/2)
	g.Scale(t.Scale, t.Scale)
	g.Translate(viewportW/2+t.TranslateX, viewportH/2+t.TranslateY)
	return g
}

// DrawBackground draws the single low-resolution background texture,
// scaled up to the full source footprint, as the bottom-most layer.
func (r *Renderer) DrawBackground(screen *ebiten.Image, bg *pooledTexture, srcW, srcH int, t Transform, viewportW, viewportH float64) {
	if bg == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoMFor(t, 0, 0, float64(srcW), float64(srcH), float64(bg.w), float64(bg.h), float64(srcW), float64(srcH), viewportW, viewportH)
	op.Blend = ebiten.BlendCopy
	screen.DrawImage(bg.image, op)
}

// DrawLOD draws the single retained LOD texture (small-image strategy) at
// its own resolution scaled to match the source footprint.
func (r *Renderer) DrawLOD(screen *ebiten.Image, lod *pooledTexture, srcW, srcH int, t Transform, viewportW, viewportH float64) {
	if lod == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoMFor(t, 0, 0, float64(srcW), float64(srcH), float64(lod.w), float64(lod.h), float64(srcW), float64(srcH), viewportW, viewportH)
	op.Blend = ebiten.BlendSourceOver
	screen.DrawImage(lod.image, op)
}

// DrawTiles draws every active tile (large-image strategy) as an
// individually-positioned quad, in arbitrary order — tiles never overlap,
// so draw order within this layer does not affect the result.
func (r *Renderer) DrawTiles(screen *ebiten.Image, tiles []*Tile, tileSize, srcW, srcH int, t Transform, viewportW, viewportH float64) {
	for _, tile := range tiles {
		if tile.texture == nil {
			continue
		}
		originX := float64(tile.Key.X * tileSize)
		originY := float64(tile.Key.Y * tileSize)
		op := &ebiten.DrawImageOptions{}
		op.GeoM = geoMFor(t, originX, originY, float64(tileSize), float64(tileSize), float64(tile.texture.w), float64(tile.texture.h), float64(srcW), float64(srcH), viewportW, viewportH)
		op.Blend = ebiten.BlendSourceOver
		screen.DrawImage(tile.texture.image, op)
	}
}
