package imageview

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"
)

func newUniformSource(w, h int, c color.NRGBA) *Image {
	pixels := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pixels.SetNRGBA(x, y, c)
		}
	}
	return &Image{Width: w, Height: h, pixels: pixels}
}

func TestResamplePixelsUniformFastPath(t *testing.T) {
	src := newUniformSource(100, 100, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	dst, err := resamplePixels(src.pixels, src.pixels.Bounds(), 25, 25, QualityHigh)
	if err != nil {
		t.Fatalf("resamplePixels: %v", err)
	}
	if dst.Bounds().Dx() != 25 || dst.Bounds().Dy() != 25 {
		t.Fatalf("dst bounds = %v, want 25x25", dst.Bounds())
	}
	if got := dst.NRGBAAt(0, 0); got != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Fatalf("dst pixel = %+v, want uniform source color", got)
	}
}

func TestResamplePixelsRejectsInvalidTarget(t *testing.T) {
	src := newUniformSource(10, 10, color.NRGBA{A: 255})
	if _, err := resamplePixels(src.pixels, src.pixels.Bounds(), 0, 10, QualityHigh); err == nil {
		t.Fatal("expected an error for a zero-width target")
	}
}

func TestResamplePixelsRejectsOutOfBoundsRect(t *testing.T) {
	src := newUniformSource(10, 10, color.NRGBA{A: 255})
	outOfBounds := image.Rect(100, 100, 120, 120)
	if _, err := resamplePixels(src.pixels, outOfBounds, 10, 10, QualityHigh); err == nil {
		t.Fatal("expected an error for a source rect outside the image bounds")
	}
}

func TestRequestLODInvokesCallbackAsynchronously(t *testing.T) {
	src := newUniformSource(64, 64, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	w := newResampleWorker(src)
	defer w.Close()

	done := make(chan struct{})
	var gotW, gotH int
	var gotErr error
	w.RequestLOD(1, 16, 16, QualityHigh, func(pixels *image.NRGBA, wOut, hOut int, err error) {
		gotW, gotH, gotErr = wOut, hOut, err
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RequestLOD callback did not fire in time")
	}
	if gotErr != nil {
		t.Fatalf("unexpected error: %v", gotErr)
	}
	if gotW != 16 || gotH != 16 {
		t.Fatalf("callback dims = %dx%d, want 16x16", gotW, gotH)
	}
}

func TestResampleRegionHonorsContextCancellation(t *testing.T) {
	src := newUniformSource(64, 64, color.NRGBA{A: 255})
	w := newResampleWorker(src)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.ResampleRegion(ctx, src.pixels.Bounds(), 8, 8, QualityHigh); err == nil {
		t.Fatal("expected ResampleRegion to report the cancellation error")
	}
}

func TestResampleRegionReturnsScaledPixels(t *testing.T) {
	src := newUniformSource(32, 32, color.NRGBA{R: 9, G: 8, B: 7, A: 255})
	w := newResampleWorker(src)
	defer w.Close()

	pixels, err := w.ResampleRegion(context.Background(), src.pixels.Bounds(), 8, 8, QualityHigh)
	if err != nil {
		t.Fatalf("ResampleRegion: %v", err)
	}
	if pixels.Bounds().Dx() != 8 || pixels.Bounds().Dy() != 8 {
		t.Fatalf("pixels bounds = %v, want 8x8", pixels.Bounds())
	}
}
