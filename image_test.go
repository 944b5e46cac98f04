package imageview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodeTestPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeImageReportsDimensions(t *testing.T) {
	data := encodeTestPNG(t, 40, 20, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img, err := decodeImage(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decodeImage: %v", err)
	}
	if img.Width != 40 || img.Height != 20 {
		t.Fatalf("dimensions = %dx%d, want 40x20", img.Width, img.Height)
	}
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	if _, err := decodeImage(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Fatal("expected an error decoding non-image bytes")
	}
}

func TestEncodePNGRoundTrips(t *testing.T) {
	data := encodeTestPNG(t, 8, 8, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	img, err := decodeImage(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decodeImage: %v", err)
	}
	out, err := encodePNG(img)
	if err != nil {
		t.Fatalf("encodePNG: %v", err)
	}
	roundTripped, err := decodeImage(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decodeImage(encodePNG(...)): %v", err)
	}
	if roundTripped.Width != img.Width || roundTripped.Height != img.Height {
		t.Fatalf("round-tripped dimensions = %dx%d, want %dx%d",
			roundTripped.Width, roundTripped.Height, img.Width, img.Height)
	}
}
