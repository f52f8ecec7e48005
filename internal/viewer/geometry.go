package viewer

import "math"

// Size is a width/height pair in screen pixels
type Size struct {
	W float64
	H float64
}

// Empty reports whether either dimension is unusable
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// Rect is an on-screen rectangle in viewport coordinates
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

func (r Rect) Right() float64   { return r.Left + r.Width }
func (r Rect) Bottom() float64  { return r.Top + r.Height }
func (r Rect) CenterX() float64 { return r.Left + r.Width/2 }
func (r Rect) CenterY() float64 { return r.Top + r.Height/2 }

// Usable reports whether the rectangle is large enough to animate from or to
func (r Rect) Usable() bool {
	return r.Width > 1 && r.Height > 1
}

// Contains reports whether the point lies inside the rectangle
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x < r.Right() && y >= r.Top && y < r.Bottom()
}

// Lerp interpolates every edge of the rectangle towards to by t
func (r Rect) Lerp(to Rect, t float64) Rect {
	return Rect{
		Left:   lerp(r.Left, to.Left, t),
		Top:    lerp(r.Top, to.Top, t),
		Width:  lerp(r.Width, to.Width, t),
		Height: lerp(r.Height, to.Height, t),
	}
}

// CenteredRect returns the viewport-fit rectangle for an image of the given
// natural size: scaled down (never up) into 90% of the viewport and centered.
func CenteredRect(natural, viewport Size) Rect {
	w := math.Max(1, natural.W)
	h := math.Max(1, natural.H)
	scale := math.Min(math.Min(viewport.W*fitRatio/w, viewport.H*fitRatio/h), 1)
	finalW := math.Max(1, w*scale)
	finalH := math.Max(1, h*scale)
	return Rect{
		Left:   (viewport.W - finalW) / 2,
		Top:    (viewport.H - finalH) / 2,
		Width:  finalW,
		Height: finalH,
	}
}

// OnScreen reports whether a thumbnail rectangle can be used as a flip origin:
// it must have area and intersect the viewport.
func OnScreen(r Rect, viewport Size) bool {
	if r.Width < 1 || r.Height < 1 {
		return false
	}
	if r.Bottom() < 0 || r.Top > viewport.H {
		return false
	}
	if r.Right() < 0 || r.Left > viewport.W {
		return false
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
