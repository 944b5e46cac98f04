package imageview

import "testing"

func TestGeoMForCentersImageAtViewportCenterWhenUntranslated(t *testing.T) {
	t1 := Transform{Scale: 0.5}
	g := geoMFor(t1, 0, 0, 1000, 800, 1000, 800, 1000, 800, 400, 400)
	x, y := g.Apply(500, 400) // source image center
	assertNear(t, "screen x at source center", x, 200)
	assertNear(t, "screen y at source center", y, 200)
}

func TestGeoMForHonorsTranslateOffset(t *testing.T) {
	t1 := Transform{Scale: 1, TranslateX: 50, TranslateY: -20}
	g := geoMFor(t1, 0, 0, 1000, 800, 1000, 800, 1000, 800, 400, 400)
	x, y := g.Apply(500, 400)
	assertNear(t, "screen x with translate", x, 250)
	assertNear(t, "screen y with translate", y, 180)
}

func TestGeoMForAgreesWithSourceToViewport(t *testing.T) {
	tr := Transform{Scale: 0.7, TranslateX: 30, TranslateY: -15}
	imgW, imgH := 2000.0, 1500.0
	viewportW, viewportH := 900.0, 700.0

	g := geoMFor(tr, 0, 0, imgW, imgH, imgW, imgH, imgW, imgH, viewportW, viewportH)
	gotX, gotY := g.Apply(640, 480)
	wantX, wantY := sourceToViewport(tr, imgW, imgH, viewportW, viewportH, 640, 480)
	assertNear(t, "geoMFor x vs sourceToViewport", gotX, wantX)
	assertNear(t, "geoMFor y vs sourceToViewport", gotY, wantY)
}

func TestGeoMForTileOriginOffsetsWithinImage(t *testing.T) {
	tr := Transform{Scale: 1}
	imgW, imgH := 4096.0, 4096.0
	viewportW, viewportH := 800.0, 800.0
	tileSize := 256.0

	// A tile at grid (1,2) covers source (256,512)-(512,768).
	g := geoMFor(tr, 256, 512, tileSize, tileSize, tileSize, tileSize, imgW, imgH, viewportW, viewportH)
	gotX, gotY := g.Apply(0, 0) // tile's own top-left texel
	wantX, wantY := sourceToViewport(tr, imgW, imgH, viewportW, viewportH, 256, 512)
	assertNear(t, "tile origin x", gotX, wantX)
	assertNear(t, "tile origin y", gotY, wantY)
}
