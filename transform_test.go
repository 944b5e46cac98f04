package imageview

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestFitToScreenScaleLetterbox(t *testing.T) {
	// A wide image in a taller viewport should be constrained by width.
	got := fitToScreenScale(2000, 1000, 800, 800)
	assertNear(t, "fitToScreenScale", got, 0.4)
}

func TestFitToScreenScaleTallImage(t *testing.T) {
	got := fitToScreenScale(1000, 2000, 800, 800)
	assertNear(t, "fitToScreenScale", got, 0.4)
}

func TestRelativeScale(t *testing.T) {
	assertNear(t, "relativeScale", relativeScale(2.0, 0.5), 4.0)
}

func TestClampTransformWithinBounds(t *testing.T) {
	tr := Transform{Scale: 1, TranslateX: -10, TranslateY: -10}
	got := clampTransform(tr, 800, 600, 800, 600, true, 1)
	if got.TranslateX > 0 || got.TranslateY > 0 {
		t.Fatalf("expected non-positive translate, got %+v", got)
	}
}

func TestClampTransformUnboundedWhenLimitDisabled(t *testing.T) {
	tr := Transform{Scale: 1, TranslateX: -5000, TranslateY: -5000}
	got := clampTransform(tr, 800, 600, 800, 600, false, 1)
	assertNear(t, "TranslateX", got.TranslateX, -5000)
	assertNear(t, "TranslateY", got.TranslateY, -5000)
}

func TestViewportSourceRoundTrip(t *testing.T) {
	tr := Transform{Scale: 2, TranslateX: 50, TranslateY: -20}
	sx, sy := viewportToSource(tr, 1000, 1000, 800, 600, 300, 150)
	vx, vy := sourceToViewport(tr, 1000, 1000, 800, 600, sx, sy)
	assertNear(t, "vx", vx, 300)
	assertNear(t, "vy", vy, 150)
}

func TestMultiplyAndInvertAffine(t *testing.T) {
	a := identityTransform
	a[4] = 10
	a[5] = 5
	inv := invertAffine(a)
	product := multiplyAffine(a, inv)
	for i, want := range identityTransform {
		assertNear(t, "product", product[i], want)
	}
}
