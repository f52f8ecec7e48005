package viewer

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestComputeFitScale(t *testing.T) {
	tests := []struct {
		name     string
		natural  Size
		rotation int
		expected float64
	}{
		{"Landscape larger than viewport", Size{W: 2000, H: 1000}, 0, 0.45},
		{"Portrait larger than viewport", Size{W: 1000, H: 2000}, 0, 0.36},
		{"Small image is never enlarged", Size{W: 300, H: 200}, 0, 1},
		{"Rotated landscape swaps axes", Size{W: 2000, H: 1000}, 90, 0.36},
		{"Upside down keeps axes", Size{W: 2000, H: 1000}, 180, 0.45},
		{"Unknown size", Size{}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tf := NewTransform(Size{W: 1000, H: 800})
			tf.Natural = tt.natural
			tf.Rotation = tt.rotation
			tf.ComputeFitScale()
			if !near(tf.Fit, tt.expected) {
				t.Errorf("Fit = %v, want %v", tf.Fit, tt.expected)
			}
		})
	}
}

func TestClampPan(t *testing.T) {
	tf := NewTransform(Size{W: 1000, H: 800})
	tf.Natural = Size{W: 2000, H: 1000}
	tf.ComputeFitScale()

	// not zoomed: pan is always dropped
	tf.TranslateX, tf.TranslateY = 120, -40
	tf.ClampPan()
	if tf.TranslateX != 0 || tf.TranslateY != 0 {
		t.Errorf("unzoomed pan = (%v,%v), want (0,0)", tf.TranslateX, tf.TranslateY)
	}

	// zoom 4: rendered 3600x1800, so |x| <= 1300 and |y| <= 500
	tf.Zoom = 4
	tf.TranslateX, tf.TranslateY = 5000, -5000
	tf.ClampPan()
	if !near(tf.TranslateX, 1300) || !near(tf.TranslateY, -500) {
		t.Errorf("clamped pan = (%v,%v), want (1300,-500)", tf.TranslateX, tf.TranslateY)
	}

	tf.TranslateX, tf.TranslateY = 100, 50
	tf.ClampPan()
	if tf.TranslateX != 100 || tf.TranslateY != 50 {
		t.Errorf("in-bounds pan changed to (%v,%v)", tf.TranslateX, tf.TranslateY)
	}
}

func TestDisplayPercent(t *testing.T) {
	tf := NewTransform(Size{W: 1000, H: 800})
	tf.Natural = Size{W: 2000, H: 1000}
	tf.ComputeFitScale()
	if got := tf.DisplayPercent(); got != 45 {
		t.Errorf("DisplayPercent() = %d, want 45", got)
	}
	tf.SetZoom(2)
	if got := tf.DisplayPercent(); got != 90 {
		t.Errorf("DisplayPercent() at zoom 2 = %d, want 90", got)
	}
}

func TestZoomAtPointKeepsPointFixed(t *testing.T) {
	tf := NewTransform(Size{W: 1000, H: 800})
	tf.Natural = Size{W: 4000, H: 3000}
	tf.ComputeFitScale()

	px, py := 620.0, 330.0
	localX := (px - 500 - tf.TranslateX) / tf.Zoom
	localY := (py - 400 - tf.TranslateY) / tf.Zoom

	if !tf.ZoomAtPoint(3, px, py) {
		t.Fatal("ZoomAtPoint reported no change")
	}
	gotX := 500 + tf.TranslateX + localX*tf.Zoom
	gotY := 400 + tf.TranslateY + localY*tf.Zoom
	if !near(gotX, px) || !near(gotY, py) {
		t.Errorf("point moved to (%v,%v), want (%v,%v)", gotX, gotY, px, py)
	}

	if tf.ZoomAtPoint(3, px, py) {
		t.Error("ZoomAtPoint to the same scale should be a no-op")
	}
}

func TestZoomLimits(t *testing.T) {
	tf := NewTransform(Size{W: 1000, H: 800})
	tf.Natural = Size{W: 4000, H: 3000}
	tf.ComputeFitScale()

	for i := 0; i < 40; i++ {
		tf.ZoomAtPoint(tf.Zoom*ZoomFactor, 900, 700)
	}
	if tf.Zoom != MaxZoom {
		t.Errorf("Zoom = %v, want %v", tf.Zoom, MaxZoom)
	}
	for i := 0; i < 40; i++ {
		tf.ZoomAtPoint(tf.Zoom/ZoomFactor, 10, 10)
	}
	if tf.Zoom != MinZoom {
		t.Errorf("Zoom = %v, want %v", tf.Zoom, MinZoom)
	}
	if tf.TranslateX != 0 || tf.TranslateY != 0 {
		t.Errorf("pan at min zoom = (%v,%v), want (0,0)", tf.TranslateX, tf.TranslateY)
	}
}

func TestOriginalScale(t *testing.T) {
	tests := []struct {
		name     string
		natural  Size
		expected float64
	}{
		{"Large image", Size{W: 2000, H: 1000}, 1 / 0.45},
		{"Small image", Size{W: 300, H: 200}, 1},
		{"Huge image is capped", Size{W: 40000, H: 100}, MaxZoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tf := NewTransform(Size{W: 1000, H: 800})
			tf.Natural = tt.natural
			if got := tf.OriginalScale(); !near(got, tt.expected) {
				t.Errorf("OriginalScale() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestToggleOriginal(t *testing.T) {
	tf := NewTransform(Size{W: 1000, H: 800})
	tf.Natural = Size{W: 2000, H: 1000}
	tf.ComputeFitScale()

	tf.ToggleOriginal()
	if !near(tf.Zoom, 1/0.45) {
		t.Fatalf("Zoom = %v, want original %v", tf.Zoom, 1/0.45)
	}
	tf.Zoom += 0.03
	tf.ToggleOriginal()
	if tf.Zoom != 1 {
		t.Errorf("toggle near original should return to fit, got zoom %v", tf.Zoom)
	}

	small := NewTransform(Size{W: 1000, H: 800})
	small.Natural = Size{W: 300, H: 200}
	small.ToggleOriginalAt(200, 200)
	if small.Zoom != 1 || small.Zoomed() {
		t.Errorf("image that fits at natural size zoomed to %v", small.Zoom)
	}
}

func TestRotateFourTimes(t *testing.T) {
	for _, zoom := range []float64{1, 2.5} {
		tf := NewTransform(Size{W: 1000, H: 800})
		tf.Natural = Size{W: 2000, H: 1000}
		tf.ComputeFitScale()
		tf.SetZoom(zoom)
		tf.TranslateX, tf.TranslateY = 80, 40
		tf.ClampPan()
		fit := tf.Fit

		seen := map[int]bool{}
		for i := 0; i < 4; i++ {
			tf.RotateCW()
			if tf.Rotation%90 != 0 || tf.Rotation < 0 || tf.Rotation >= 360 {
				t.Fatalf("rotation %d out of range", tf.Rotation)
			}
			if tf.TranslateX != 0 || tf.TranslateY != 0 {
				t.Errorf("rotation kept pan (%v,%v)", tf.TranslateX, tf.TranslateY)
			}
			seen[tf.Rotation] = true
		}
		if tf.Rotation != 0 || len(seen) != 4 {
			t.Errorf("rotations visited %v, ended at %d", seen, tf.Rotation)
		}
		if !near(tf.Fit, fit) {
			t.Errorf("Fit after four rotations = %v, want %v", tf.Fit, fit)
		}
	}
}

func TestRotatePreservesAbsoluteScale(t *testing.T) {
	tf := NewTransform(Size{W: 1000, H: 800})
	tf.Natural = Size{W: 2000, H: 1000}
	tf.ComputeFitScale()
	tf.SetZoom(2)
	abs := tf.Zoom * tf.Fit

	tf.RotateCW()
	if got := tf.Zoom * tf.Fit; math.Abs(got-abs) > eps {
		t.Errorf("absolute scale %v after rotation, want %v", got, abs)
	}
}

func TestRectHelpers(t *testing.T) {
	r := Rect{Left: 10, Top: 20, Width: 100, Height: 50}
	if !r.Contains(10, 20) || r.Contains(110, 20) {
		t.Error("Contains should include the top-left edge and exclude the right edge")
	}
	mid := r.Lerp(Rect{Left: 110, Top: 20, Width: 200, Height: 150}, 0.5)
	if mid != (Rect{Left: 60, Top: 20, Width: 150, Height: 100}) {
		t.Errorf("Lerp = %+v", mid)
	}

	vp := Size{W: 1000, H: 800}
	if OnScreen(Rect{Left: 0, Top: 900, Width: 100, Height: 100}, vp) {
		t.Error("rect below the viewport reported on screen")
	}
	if OnScreen(Rect{Left: 0, Top: 0, Width: 0.5, Height: 100}, vp) {
		t.Error("zero-width rect reported on screen")
	}
	if !OnScreen(Rect{Left: -50, Top: -50, Width: 100, Height: 100}, vp) {
		t.Error("partially visible rect reported off screen")
	}

	c := CenteredRect(Size{W: 2000, H: 1000}, vp)
	if !near(c.Width, 900) || !near(c.Height, 450) || !near(c.Left, 50) || !near(c.Top, 175) {
		t.Errorf("CenteredRect = %+v", c)
	}
}
