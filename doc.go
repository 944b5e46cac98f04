// Package imageview is a GPU-accelerated interactive viewer for very large
// raster images, built on [Ebitengine].
//
// imageview displays a single decoded image inside a fixed viewport with
// pan, zoom (wheel, pinch, double-tap), and smooth animated transitions. For
// images that comfortably fit in texture memory at every zoom level it
// keeps a single LOD (level-of-detail) texture, resampled on demand for the
// current zoom level; for images too large to ever hold fully in GPU memory
// it falls back to a tiled strategy, streaming only the visible region at
// the resolution the current zoom level needs.
//
// Engine.Update does not poll Ebitengine's mouse, wheel or touch state.
// Drags reach the engine through InjectPress, InjectMove and InjectRelease;
// the wheel, pinch and double-tap handlers have no exported entry point,
// and ZoomIn, ZoomOut and ResetView are the exported zoom controls.
//
// # Quick start
//
//	engine, err := imageview.NewEngine(imageview.DefaultEngineConfig(), imageview.Observers{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	f, _ := os.Open("photo.jpg")
//	defer f.Close()
//	if err := engine.Load(f); err != nil {
//		log.Fatal(err)
//	}
//	imageview.Run(engine, imageview.RunConfig{Title: "Viewer", Width: 1024, Height: 768})
//
// For full control over the game loop, skip Run and implement [ebiten.Game]
// yourself, calling Engine.Update, Engine.Draw and Engine.Layout directly.
//
// # Strategy selection
//
// Load decides once, at image-load time, whether the image fits the
// small-image LOD-pyramid strategy or requires the large-image tile
// strategy, based on estimated peak GPU memory, total megapixels, and
// maximum side length. Both strategies share the same texture pool and
// memory accountant.
//
// [Ebitengine]: https://ebitengine.org
package imageview
