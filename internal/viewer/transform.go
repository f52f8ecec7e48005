package viewer

import "math"

// Zoom limits and steps
const (
	MinZoom    = 1.0
	MaxZoom    = 16.0
	ZoomFactor = 1.2

	// fitRatio is the share of the viewport an unzoomed image may occupy
	fitRatio = 0.9

	// zoomedEpsilon separates "zoomed" from float noise around 1
	zoomedEpsilon = 1.001

	// originalSnap is how close to original scale counts as "at original"
	originalSnap = 0.04
)

// Transform is the affine state of the image in the primary slot.
// The image is first laid out at Fit inside the viewport; the composed
// transform translate(pan + swipe) -> rotate(Rotation) -> scale(Zoom) is
// applied on top of that layout.
type Transform struct {
	Natural  Size // decoded image size, zero until known
	Viewport Size

	Zoom     float64
	Fit      float64
	Rotation int // degrees clockwise, one of 0, 90, 180, 270

	TranslateX   float64
	TranslateY   float64
	SwipeOffsetX float64
}

// Composite is the resolved transform handed to the renderer
type Composite struct {
	TX       float64
	TY       float64
	Rotation int
	Scale    float64
	Fit      float64
}

// NewTransform returns the default transform for the given viewport
func NewTransform(viewport Size) Transform {
	return Transform{Viewport: viewport, Zoom: 1, Fit: 1}
}

// Zoomed reports whether the image is scaled beyond fit
func (t *Transform) Zoomed() bool {
	return t.Zoom > zoomedEpsilon
}

// EffectiveSize is the natural size with width and height swapped when the
// image is turned on its side. Unknown dimensions count as 1.
func (t *Transform) EffectiveSize() Size {
	w, h := t.Natural.W, t.Natural.H
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	if t.Rotation == 90 || t.Rotation == 270 {
		return Size{W: h, H: w}
	}
	return Size{W: w, H: h}
}

// ComputeFitScale picks the largest scale no greater than 1 that fits the
// rotation-adjusted natural size into 90% of the viewport.
func (t *Transform) ComputeFitScale() {
	if t.Natural.Empty() || t.Viewport.Empty() {
		t.Fit = 1
		return
	}
	eff := t.EffectiveSize()
	t.Fit = math.Min(math.Min(t.Viewport.W*fitRatio/eff.W, t.Viewport.H*fitRatio/eff.H), 1)
}

// RenderedSize is the on-screen size at the current fit and zoom
func (t *Transform) RenderedSize() Size {
	eff := t.EffectiveSize()
	return Size{W: eff.W * t.Fit * t.Zoom, H: eff.H * t.Fit * t.Zoom}
}

// PanBounds returns the largest allowed |TranslateX| and |TranslateY|
func (t *Transform) PanBounds() (float64, float64) {
	if !t.Zoomed() {
		return 0, 0
	}
	r := t.RenderedSize()
	return math.Max(0, (r.W-t.Viewport.W)/2), math.Max(0, (r.H-t.Viewport.H)/2)
}

// ClampPan keeps the zoomed image from panning fully off-screen and forces
// the pan to zero whenever the image is not zoomed.
func (t *Transform) ClampPan() {
	maxX, maxY := t.PanBounds()
	t.TranslateX = clamp(t.TranslateX, -maxX, maxX)
	t.TranslateY = clamp(t.TranslateY, -maxY, maxY)
}

// SetZoom clamps z into [MinZoom, MaxZoom] and re-clamps the pan
func (t *Transform) SetZoom(z float64) {
	t.Zoom = clamp(z, MinZoom, MaxZoom)
	t.ClampPan()
}

// DisplayPercent is the zoom label: natural pixels shown per screen pixel, in percent
func (t *Transform) DisplayPercent() int {
	return int(math.Round(math.Max(1, t.Zoom*t.Fit*100)))
}

// Composite resolves the current state for drawing
func (t *Transform) Composite() Composite {
	return Composite{
		TX:       t.TranslateX + t.SwipeOffsetX,
		TY:       t.TranslateY,
		Rotation: t.Rotation,
		Scale:    t.Zoom,
		Fit:      t.Fit,
	}
}

// OriginalScale is the zoom at which one natural pixel maps to one screen pixel
func (t *Transform) OriginalScale() float64 {
	t.ComputeFitScale()
	if t.Fit >= 1 {
		return 1
	}
	return clamp(1/t.Fit, MinZoom, MaxZoom)
}

// ZoomAtPoint changes the zoom to next while keeping the image point under
// (px, py) fixed on screen. It reports whether anything changed.
func (t *Transform) ZoomAtPoint(next, px, py float64) bool {
	next = clamp(next, MinZoom, MaxZoom)
	if math.Abs(next-t.Zoom) < 0.001 {
		return false
	}
	old := t.Zoom
	relX := px - t.Viewport.W/2 - t.TranslateX
	relY := py - t.Viewport.H/2 - t.TranslateY

	t.Zoom = next
	t.TranslateX -= relX * (next/old - 1)
	t.TranslateY -= relY * (next/old - 1)
	t.ClampPan()
	return true
}

// ZoomToFit returns to the fit layout
func (t *Transform) ZoomToFit() {
	t.Zoom = 1
	t.TranslateX = 0
	t.TranslateY = 0
	t.SwipeOffsetX = 0
	t.ComputeFitScale()
}

// ToggleOriginal switches between fit and original scale around the
// viewport center. Near original it goes back to fit.
func (t *Transform) ToggleOriginal() {
	original := t.OriginalScale()
	if math.Abs(t.Zoom-original) < originalSnap {
		t.ZoomToFit()
		return
	}
	t.Zoom = original
	t.TranslateX = 0
	t.TranslateY = 0
	t.SwipeOffsetX = 0
	t.ClampPan()
}

// ToggleOriginalAt switches between fit and original scale centered at the
// given point. Images that already fit at natural size go back to fit.
func (t *Transform) ToggleOriginalAt(px, py float64) {
	original := t.OriginalScale()
	if original <= zoomedEpsilon || math.Abs(t.Zoom-original) < originalSnap {
		t.ZoomToFit()
		return
	}
	t.ZoomAtPoint(original, px, py)
}

// RotateCW turns the image a quarter clockwise, keeping its absolute
// on-screen scale where the zoom limits allow and dropping any pan.
func (t *Transform) RotateCW() {
	abs := t.Zoom * t.Fit
	t.Rotation = (t.Rotation + 90) % 360
	t.ComputeFitScale()
	if t.Fit > 0 {
		t.Zoom = clamp(abs/t.Fit, MinZoom, MaxZoom)
	}
	t.TranslateX = 0
	t.TranslateY = 0
	t.SwipeOffsetX = 0
	t.ClampPan()
}

// Reset returns zoom, pan and swipe offset to defaults, optionally rotation too
func (t *Transform) Reset(rotation bool) {
	t.Zoom = 1
	t.TranslateX = 0
	t.TranslateY = 0
	t.SwipeOffsetX = 0
	if rotation {
		t.Rotation = 0
	}
	t.ComputeFitScale()
}

// FitRect is the on-screen rectangle of the unzoomed, untranslated image
func (t *Transform) FitRect() Rect {
	eff := t.EffectiveSize()
	w := eff.W * t.Fit
	h := eff.H * t.Fit
	return Rect{
		Left:   (t.Viewport.W - w) / 2,
		Top:    (t.Viewport.H - h) / 2,
		Width:  w,
		Height: h,
	}
}
