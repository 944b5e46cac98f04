package imageview

import "math"

// identityTransform is the identity affine matrix [a, b, c, d, tx, ty].
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular (determinant ~ 0).
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Transform is the current view: an absolute scale (image pixels per
// viewport pixel) and a viewport-pixel translation from the centered
// position.
type Transform struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// clampTransform enforces the bounds invariant: if limitToBounds and
// scale > fitScale, translation is clamped so the image edges cannot cross
// past the viewport center by more than (scaledDim-viewportDim)/2; if
// scale <= fitScale, translation is forced to zero.
func clampTransform(t Transform, imgW, imgH, viewportW, viewportH float64, limitToBounds bool, fitScale float64) Transform {
	if !limitToBounds {
		return t
	}
	if t.Scale <= fitScale {
		t.TranslateX = 0
		t.TranslateY = 0
		return t
	}
	maxTx := math.Max(0, (imgW*t.Scale-viewportW)/2)
	maxTy := math.Max(0, (imgH*t.Scale-viewportH)/2)
	t.TranslateX = clampAbs(t.TranslateX, maxTx)
	t.TranslateY = clampAbs(t.TranslateY, maxTy)
	return t
}

// clampAbs restricts v to [-limit, limit].
func clampAbs(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// fitToScreenScale returns the absolute scale at which the image exactly
// fits the viewport along its limiting axis.
func fitToScreenScale(imgW, imgH, viewportW, viewportH float64) float64 {
	if imgW <= 0 || imgH <= 0 {
		return 1
	}
	sx := viewportW / imgW
	sy := viewportH / imgH
	return math.Min(sx, sy)
}

// relativeScale returns the absolute scale divided by the fit-to-screen
// scale; 1.0 means "fits the viewport."
func relativeScale(absolute, fit float64) float64 {
	if fit == 0 {
		return absolute
	}
	return absolute / fit
}

// viewportToSource converts a point in viewport pixels to source-image
// pixels given the current transform and image/viewport dimensions.
func viewportToSource(t Transform, imgW, imgH, viewportW, viewportH, vx, vy float64) (sx, sy float64) {
	cx := viewportW/2 + t.TranslateX
	cy := viewportH/2 + t.TranslateY
	sx = imgW/2 + (vx-cx)/t.Scale
	sy = imgH/2 + (vy-cy)/t.Scale
	return
}

// sourceToViewport converts a point in source-image pixels to viewport
// pixels given the current transform and image/viewport dimensions.
func sourceToViewport(t Transform, imgW, imgH, viewportW, viewportH, sx, sy float64) (vx, vy float64) {
	cx := viewportW/2 + t.TranslateX
	cy := viewportH/2 + t.TranslateY
	vx = cx + (sx-imgW/2)*t.Scale
	vy = cy + (sy-imgH/2)*t.Scale
	return
}
