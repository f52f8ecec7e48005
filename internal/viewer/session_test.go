package viewer

import (
	"testing"
	"time"
)

type fakeGallery struct {
	n     int
	rects map[int]Rect
	meta  map[int]Metadata
}

func (g *fakeGallery) Len() int { return g.n }

func (g *fakeGallery) Item(i int) Item {
	return Item{Source: "img", Alt: "image", Meta: g.meta[i]}
}

func (g *fakeGallery) ThumbnailRect(i int) (Rect, bool) {
	r, ok := g.rects[i]
	return r, ok
}

func (g *fakeGallery) ThumbnailStyle(i int) ThumbStyle {
	return ThumbStyle{Radius: 8, Cover: true}
}

// fakeLoader knows every size in sizes. Entries in pending have not been
// decoded at all; entries in thumbOnly have a known size but no full image.
type fakeLoader struct {
	sizes     map[int]Size
	pending   map[int]bool
	thumbOnly map[int]bool
	requested []int
}

func (l *fakeLoader) NaturalSize(i int) (Size, bool) {
	if l.pending[i] {
		return Size{}, false
	}
	s, ok := l.sizes[i]
	return s, ok
}

func (l *fakeLoader) Loaded(i int) bool {
	_, ok := l.NaturalSize(i)
	return ok && !l.thumbOnly[i]
}

func (l *fakeLoader) Request(i int)  { l.requested = append(l.requested, i) }
func (l *fakeLoader) Prefetch(i int) {}

type fakeScroll struct {
	locks   int
	unlocks int
}

func (f *fakeScroll) LockScroll()   { f.locks++ }
func (f *fakeScroll) UnlockScroll() { f.unlocks++ }

type fakeEnv struct {
	reduced bool
	coarse  bool
}

func (e *fakeEnv) ReducedMotion() bool { return e.reduced }
func (e *fakeEnv) CoarsePointer() bool { return e.coarse }

type harness struct {
	t       *testing.T
	s       *Session
	now     time.Time
	gallery *fakeGallery
	loader  *fakeLoader
	scroll  *fakeScroll
	env     *fakeEnv
}

// newHarness builds an n-image gallery of 4000x3000 images in a 1000x800
// viewport; every thumbnail is a visible 200x200 square.
func newHarness(t *testing.T, n int) *harness {
	t.Helper()
	g := &fakeGallery{n: n, rects: map[int]Rect{}, meta: map[int]Metadata{}}
	l := &fakeLoader{sizes: map[int]Size{}, pending: map[int]bool{}, thumbOnly: map[int]bool{}}
	for i := 0; i < n; i++ {
		g.rects[i] = Rect{Left: 20 + float64(i%4)*220, Top: 100, Width: 200, Height: 200}
		l.sizes[i] = Size{W: 4000, H: 3000}
	}
	h := &harness{
		t:       t,
		now:     epoch,
		gallery: g,
		loader:  l,
		scroll:  &fakeScroll{},
		env:     &fakeEnv{},
	}
	h.s = NewSession(Options{
		Gallery:  g,
		Loader:   l,
		Scroll:   h.scroll,
		Env:      h.env,
		Motion:   DefaultMotion(),
		Viewport: Size{W: 1000, H: 800},
		Now:      epoch,
	})
	return h
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
	h.s.Update(h.now)
}

// settle lets every pending transition and timer run out
func (h *harness) settle() {
	for i := 0; i < 10; i++ {
		h.advance(100 * time.Millisecond)
	}
}

func (h *harness) openSettled(i int) {
	h.t.Helper()
	h.s.Open(i)
	h.settle()
	if !h.s.IsOpen() || h.s.Busy() {
		h.t.Fatalf("viewer not ready after open: open=%v busy=%v", h.s.IsOpen(), h.s.Busy())
	}
}

func (h *harness) tap(x, y float64) {
	h.s.TouchStart([]Touch{{X: x, Y: y}})
	h.s.TouchEnd(Touch{X: x, Y: y})
}

func (h *harness) drag(x0, y0, x1, y1 float64) {
	h.s.TouchStart([]Touch{{X: x0, Y: y0}})
	h.s.TouchMove([]Touch{{X: x1, Y: y1}})
	h.s.TouchEnd(Touch{X: x1, Y: y1})
}

func (h *harness) assertDefaultTransform() {
	h.t.Helper()
	tf := h.s.Transform()
	if tf.Zoom != 1 || tf.Rotation != 0 || tf.TranslateX != 0 || tf.TranslateY != 0 || tf.SwipeOffsetX != 0 {
		h.t.Errorf("transform not default: %+v", tf)
	}
}

func TestOpenWithFlip(t *testing.T) {
	h := newHarness(t, 3)
	h.s.Open(1)

	if !h.s.IsOpen() || h.s.CurrentIndex() != 1 {
		t.Fatalf("open=%v index=%d", h.s.IsOpen(), h.s.CurrentIndex())
	}
	if h.scroll.locks != 1 {
		t.Errorf("scroll locked %d times, want 1", h.scroll.locks)
	}
	f := h.s.Frame()
	if !f.Ghost.Visible || f.Ghost.Rect != h.gallery.rects[1] {
		t.Errorf("ghost should start at the thumbnail, got %+v", f.Ghost)
	}
	if f.Main.Opacity != 0 {
		t.Errorf("main image visible during flight: opacity %v", f.Main.Opacity)
	}
	if !h.s.Busy() {
		t.Error("flip in flight should make the viewer busy")
	}

	h.settle()
	f = h.s.Frame()
	if f.Ghost.Visible {
		t.Error("ghost still visible after open finished")
	}
	if f.Main.Opacity != 1 || f.Overlay != 1 {
		t.Errorf("after open: main opacity %v overlay %v, want 1 and 1", f.Main.Opacity, f.Overlay)
	}
	if f.Counter != "2 / 3" {
		t.Errorf("Counter = %q", f.Counter)
	}
}

func TestOpenWaitsForImage(t *testing.T) {
	h := newHarness(t, 3)
	h.loader.pending[0] = true
	h.s.Open(0)
	h.settle()

	if h.s.Busy() {
		t.Error("a stalled load must not keep the viewer busy")
	}
	f := h.s.Frame()
	if !f.Ghost.Visible || f.Main.Opacity != 0 {
		t.Fatalf("open finalized before the image loaded: ghost=%v opacity=%v", f.Ghost.Visible, f.Main.Opacity)
	}

	delete(h.loader.pending, 0)
	h.s.NotifyLoaded(0)
	h.settle()
	f = h.s.Frame()
	if f.Ghost.Visible || f.Main.Opacity != 1 {
		t.Errorf("open not finalized after load: ghost=%v opacity=%v", f.Ghost.Visible, f.Main.Opacity)
	}
}

func TestOpenWaitsForFullImage(t *testing.T) {
	tests := []struct {
		name   string
		coarse bool
	}{
		{"With flip", false},
		{"Without flip", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 3)
			h.env.coarse = tt.coarse
			h.loader.thumbOnly[0] = true
			h.s.Open(0)
			h.settle()

			if f := h.s.Frame(); f.Main.Visible && f.Main.Opacity > 0 {
				t.Fatalf("main layer shown from the thumbnail: visible=%v opacity=%v", f.Main.Visible, f.Main.Opacity)
			}
			if len(h.loader.requested) == 0 || h.loader.requested[0] != 0 {
				t.Errorf("full image not requested: %v", h.loader.requested)
			}

			// a thumbnail finishing for the open image is not a full load
			h.s.NotifyLoaded(0)
			h.settle()
			if f := h.s.Frame(); f.Main.Visible && f.Main.Opacity > 0 {
				t.Fatalf("thumbnail decode revealed the main layer")
			}

			delete(h.loader.thumbOnly, 0)
			h.s.NotifyLoaded(0)
			h.settle()
			f := h.s.Frame()
			if !f.Main.Visible || f.Main.Opacity != 1 || f.Ghost.Visible {
				t.Errorf("open not finalized after the full load: visible=%v opacity=%v ghost=%v", f.Main.Visible, f.Main.Opacity, f.Ghost.Visible)
			}
		})
	}
}

func TestOpenSkipsFlip(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
	}{
		{"Reduced motion", func(h *harness) { h.env.reduced = true }},
		{"Coarse pointer", func(h *harness) { h.env.coarse = true }},
		{"Thumbnail off screen", func(h *harness) { h.gallery.rects[0] = Rect{Left: 0, Top: 2000, Width: 200, Height: 200} }},
		{"Thumbnail not laid out", func(h *harness) { delete(h.gallery.rects, 0) }},
		{"Zero sized thumbnail", func(h *harness) { h.gallery.rects[0] = Rect{Left: 10, Top: 10} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 3)
			tt.setup(h)
			h.s.Open(0)
			f := h.s.Frame()
			if f.Ghost.Visible {
				t.Error("ghost shown although the flip should be skipped")
			}
			if f.Main.Opacity != 1 {
				t.Errorf("main opacity = %v, want 1 without a flip", f.Main.Opacity)
			}
			if h.s.Busy() {
				t.Error("plain fade should not block input")
			}
			h.settle()
			if h.s.Frame().Overlay != 1 {
				t.Error("overlay did not fade in")
			}
		})
	}
}

func TestOpenThenImmediateClose(t *testing.T) {
	h := newHarness(t, 3)
	h.s.Open(0)
	h.advance(16 * time.Millisecond)
	h.s.Close()

	if n := h.s.Animations().Active(KindFlip); n != 1 {
		t.Fatalf("%d flip animations running after close, want exactly 1", n)
	}
	for i := 0; i < 5; i++ {
		h.advance(50 * time.Millisecond)
		if n := h.s.Animations().Active(KindFlip); n > 1 {
			t.Fatalf("%d overlapping flip animations", n)
		}
		if h.s.IsOpen() && h.s.Frame().Main.Opacity > 0.5 {
			t.Fatal("cancelled open revealed the main image during close")
		}
	}
	h.settle()

	if h.s.IsOpen() {
		t.Fatal("viewer still open")
	}
	if h.scroll.locks != 1 || h.scroll.unlocks != 1 {
		t.Errorf("scroll locks=%d unlocks=%d, want 1 and 1", h.scroll.locks, h.scroll.unlocks)
	}
	if h.s.Animations().Len() != 0 {
		t.Errorf("%d animations left after close", h.s.Animations().Len())
	}
}

func TestCloseFliesBack(t *testing.T) {
	h := newHarness(t, 3)
	h.openSettled(2)
	h.s.Close()
	h.s.Close()

	f := h.s.Frame()
	if !f.Ghost.Visible || !h.s.Closing() || f.Chrome {
		t.Fatalf("close should fly a ghost with chrome hidden: %+v", f)
	}
	if !f.Ghost.Cover || f.Ghost.Radius != 8 {
		t.Errorf("ghost should take the thumbnail's presentation, got %+v", f.Ghost)
	}
	h.advance(150 * time.Millisecond)
	if !h.s.IsOpen() {
		t.Fatal("closed before the animation finished")
	}
	h.settle()
	if h.s.IsOpen() || h.scroll.unlocks != 1 {
		t.Errorf("open=%v unlocks=%d after close", h.s.IsOpen(), h.scroll.unlocks)
	}
	if h.s.Panel().Visible() {
		t.Error("panel content leaked past close")
	}
}

func TestCloseWhileZoomedFades(t *testing.T) {
	h := newHarness(t, 3)
	h.openSettled(0)
	h.s.ZoomIn()
	h.s.Close()
	if h.s.Frame().Ghost.Visible {
		t.Error("zoomed image should fade out instead of flying back")
	}
	h.settle()
	if h.s.IsOpen() {
		t.Error("viewer still open")
	}
	h.assertDefaultTransform()
}

func TestReopenDuringClose(t *testing.T) {
	h := newHarness(t, 3)
	h.openSettled(0)
	h.s.Close()
	h.advance(50 * time.Millisecond)
	h.s.Open(1)

	if !h.s.IsOpen() || h.s.Closing() || h.s.CurrentIndex() != 1 {
		t.Fatalf("reopen failed: open=%v closing=%v index=%d", h.s.IsOpen(), h.s.Closing(), h.s.CurrentIndex())
	}
	h.settle()
	if !h.s.IsOpen() {
		t.Error("stale close tore down the reopened viewer")
	}
	if h.scroll.locks-h.scroll.unlocks != 1 {
		t.Errorf("scroll locks=%d unlocks=%d", h.scroll.locks, h.scroll.unlocks)
	}
}

func TestNextCyclesBackToStart(t *testing.T) {
	h := newHarness(t, 4)
	h.openSettled(2)
	h.s.Rotate()
	h.s.Rotate()
	h.settle()

	for i := 0; i < 4; i++ {
		h.s.Next()
		if !h.s.Busy() {
			t.Fatalf("step %d: swipe not animating", i)
		}
		h.settle()
		if want := (2 + i + 1) % 4; h.s.CurrentIndex() != want {
			t.Fatalf("step %d: index %d, want %d", i, h.s.CurrentIndex(), want)
		}
	}
	if h.s.CurrentIndex() != 2 {
		t.Errorf("index = %d, want 2", h.s.CurrentIndex())
	}
	h.assertDefaultTransform()
	if h.s.Frame().Buffer.Visible {
		t.Error("buffer visible with no swipe in flight")
	}
}

func TestPrevWraps(t *testing.T) {
	h := newHarness(t, 3)
	h.openSettled(0)
	h.s.Prev()
	h.s.Prev()
	h.settle()
	if h.s.CurrentIndex() != 2 {
		t.Errorf("index = %d, want 2 (second Prev during the animation is ignored)", h.s.CurrentIndex())
	}
}

func TestNextWhileZoomedJumps(t *testing.T) {
	h := newHarness(t, 3)
	h.openSettled(0)
	h.s.ZoomIn()
	h.s.Next()
	if h.s.CurrentIndex() != 1 || h.s.Busy() {
		t.Errorf("zoomed next should switch immediately, index %d busy %v", h.s.CurrentIndex(), h.s.Busy())
	}
	h.assertDefaultTransform()
}

func TestSwipeFinalizesByFallbackTimer(t *testing.T) {
	h := newHarness(t, 3)
	h.openSettled(0)
	h.s.Next()
	// a single long frame: the fallback timer and the transition end race
	h.advance(2 * time.Second)
	if h.s.CurrentIndex() != 1 || h.s.Busy() {
		t.Errorf("index %d busy %v after the swipe", h.s.CurrentIndex(), h.s.Busy())
	}
}

func TestResizeRecomputesFit(t *testing.T) {
	h := newHarness(t, 3)
	h.openSettled(0)
	before := h.s.Transform().Fit
	h.s.Resize(Size{W: 2000, H: 1600})
	after := h.s.Transform()
	if after.Fit <= before || after.Viewport.W != 2000 {
		t.Errorf("fit %v -> %v after resize", before, after.Fit)
	}
	if got := h.s.Frame().Main.Bounds(); !near(got.Width, 4000*after.Fit) {
		t.Errorf("main width %v not applied immediately", got.Width)
	}
}

func TestPageHiddenKeepsViewerOpen(t *testing.T) {
	h := newHarness(t, 3)
	h.openSettled(0)
	h.s.SetPageVisible(false)
	h.settle()
	h.s.SetPageVisible(true)
	if !h.s.IsOpen() {
		t.Error("hiding the page closed the viewer")
	}
}

func TestPanelFollowsImage(t *testing.T) {
	h := newHarness(t, 3)
	h.gallery.meta[0] = Metadata{Camera: "X100V", ISO: "200"}
	h.gallery.meta[1] = Metadata{Lens: "23mm"}
	h.openSettled(0)

	f := h.s.Frame()
	if !f.Panel.Visible || len(f.Panel.Fields) != 2 {
		t.Fatalf("panel not shown: %+v", f.Panel)
	}
	img := f.Main.Bounds()
	if f.Panel.Rect.Bottom() > img.Top || f.Panel.Rect.Width != 920 {
		t.Errorf("panel %+v should sit above image %+v", f.Panel.Rect, img)
	}

	h.s.ZoomIn()
	if h.s.Frame().Panel.Visible {
		t.Error("panel drawn while zoomed")
	}
	h.s.ZoomOut()
	h.s.Rotate()
	h.settle()
	if h.s.Frame().Panel.Visible {
		t.Error("panel drawn while rotated")
	}

	h.s.Rotate()
	h.s.Rotate()
	h.s.Rotate()
	h.settle()
	h.s.Next()
	h.settle()
	f = h.s.Frame()
	if !f.Panel.Visible || len(f.Panel.Fields) != 1 || f.Panel.Fields[0].Value != "23mm" {
		t.Errorf("panel content not swapped to the new image: %+v", f.Panel)
	}
}

func TestLateMetadataReachesOpenViewer(t *testing.T) {
	h := newHarness(t, 3)
	h.openSettled(0)
	if h.s.Frame().Panel.Visible {
		t.Fatal("panel shown without metadata")
	}

	h.gallery.meta[1] = Metadata{ISO: "ISO 800"}
	h.s.RefreshMetadata(1)
	h.settle()
	if h.s.Frame().Panel.Visible {
		t.Error("metadata of another image reached the panel")
	}

	h.gallery.meta[0] = Metadata{Camera: "X100V"}
	h.s.RefreshMetadata(0)
	h.settle()
	f := h.s.Frame()
	if !f.Panel.Visible || len(f.Panel.Fields) != 1 || f.Panel.Fields[0].Value != "X100V" {
		t.Errorf("late metadata not shown: %+v", f.Panel)
	}

	h.s.Close()
	h.settle()
	h.s.RefreshMetadata(0)
	if h.s.Panel().Visible() {
		t.Error("refresh after close brought the panel back")
	}
}
