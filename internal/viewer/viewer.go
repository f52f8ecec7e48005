// Package viewer implements the immersive image viewer: the transform
// engine, the gesture router, the swipe animator, the flip open/close
// transition and the metadata panel, all driven from a single UI goroutine
// through Session.Update.
package viewer

import (
	"fmt"
	"math"
	"time"

	"k8s.io/klog/v2"
)

const (
	settleDuration      = 240 * time.Millisecond
	swipeSettleDuration = 220 * time.Millisecond
)

type applyMode int

const (
	applySettle applyMode = iota
	applySwipe
	applyImmediate
)

// Layer is one image slot on the overlay: its offset from the centered
// layout, rotation in degrees, scale and opacity, each animatable.
type Layer struct {
	Index   int
	Visible bool

	X        Value
	Y        Value
	Rotation Value
	Scale    Value
	Opacity  Value
}

func (l *Layer) reset(index int) {
	l.Index = index
	l.X.Set(0)
	l.Y.Set(0)
	l.Rotation.Set(0)
	l.Scale.Set(1)
	l.Opacity.Set(1)
}

func (l *Layer) settled(now time.Time) bool {
	return l.X.Settled(now) && l.Y.Settled(now) && l.Rotation.Settled(now) && l.Scale.Settled(now)
}

// LayerFrame is a layer resolved at one instant. Base is the unrotated
// rectangle the image occupies at fit scale; the renderer applies
// Scale and Rotation around Base's center and then offsets by (X, Y).
type LayerFrame struct {
	Index    int
	Visible  bool
	Base     Rect
	X        float64
	Y        float64
	Rotation float64
	Scale    float64
	Opacity  float64
}

// Bounds is the axis-aligned on-screen rectangle of the transformed image
func (f LayerFrame) Bounds() Rect {
	rad := f.Rotation * math.Pi / 180
	c, s := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
	w := (f.Base.Width*c + f.Base.Height*s) * f.Scale
	h := (f.Base.Width*s + f.Base.Height*c) * f.Scale
	cx := f.Base.CenterX() + f.X
	cy := f.Base.CenterY() + f.Y
	return Rect{Left: cx - w/2, Top: cy - h/2, Width: w, Height: h}
}

// Frame is everything the renderer needs to draw the viewer at one instant
type Frame struct {
	Open        bool
	Overlay     float64
	Main        LayerFrame
	Buffer      LayerFrame
	Ghost       GhostFrame
	Panel       PanelFrame
	Chrome      bool
	Counter     string
	ZoomPercent int
	Zoomed      bool
	Dragging    bool
}

// Options wires a Session to its collaborators
type Options struct {
	Gallery  Gallery
	Loader   ImageLoader
	Scroll   ScrollLocker
	Env      Environment
	Measure  PanelMeasurer
	Motion   Motion
	Viewport Size
	Now      time.Time
}

// Session is the single viewer instance. It owns the transform state, the
// gesture router, the animation registry and the visual layers; nothing in
// it is safe for use from more than one goroutine.
type Session struct {
	gallery Gallery
	loader  ImageLoader
	scroll  ScrollLocker
	env     Environment
	motion  Motion

	sched *Scheduler
	anims Registry
	now   time.Time

	current  int
	open     bool
	closing  bool
	uiHidden bool
	gen      int

	tf       Transform
	rotAngle float64
	dragging bool
	pinching bool

	overlay Value
	main    Layer
	buffer  Layer
	ghost   ghost
	panel   *Panel

	router  Router
	swipe   swipeState
	flip    flipState
	pending func()

	pageHidden bool
}

// NewSession creates a closed viewer
func NewSession(opts Options) *Session {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Motion.OpenEasing == nil || opts.Motion.CloseEasing == nil {
		opts.Motion = DefaultMotion()
	}
	sched := NewScheduler(opts.Now)
	s := &Session{
		gallery: opts.Gallery,
		loader:  opts.Loader,
		scroll:  opts.Scroll,
		env:     opts.Env,
		motion:  opts.Motion,
		sched:   sched,
		now:     opts.Now,
		tf:      NewTransform(opts.Viewport),
		panel:   newPanel(sched, opts.Measure),
	}
	s.main.reset(0)
	s.buffer.reset(0)
	return s
}

// Update advances the viewer to now: due timers fire, finished transitions
// resolve, and the panel follows the image once it has come to rest.
func (s *Session) Update(now time.Time) {
	if now.After(s.now) {
		s.now = now
	}
	s.sched.Advance(s.now)
	s.anims.Tick(s.now)

	if s.open && !s.closing && s.main.settled(s.now) && !s.panelSuppressed() {
		if r := s.mainFrame().Bounds(); s.panel.Stale(r) && s.imageKnown() {
			s.panel.Position(r, s.tf.Viewport)
		}
	}
}

// Now returns the time of the last Update
func (s *Session) Now() time.Time {
	return s.now
}

// SetMotion replaces the open/close motion for subsequent transitions
func (s *Session) SetMotion(m Motion) {
	s.motion = m
}

// IsOpen reports whether the viewer is showing, including while it closes
func (s *Session) IsOpen() bool {
	return s.open
}

// Closing reports whether a close transition is running
func (s *Session) Closing() bool {
	return s.closing
}

// CurrentIndex returns the gallery index in the primary slot
func (s *Session) CurrentIndex() int {
	return s.current
}

// UIHidden reports whether the chrome is hidden
func (s *Session) UIHidden() bool {
	return s.uiHidden
}

// Transform returns a copy of the transform state
func (s *Session) Transform() Transform {
	return s.tf
}

// Zoomed reports whether the image is magnified beyond fit
func (s *Session) Zoomed() bool {
	return s.tf.Zoomed()
}

// Mode returns the active gesture mode
func (s *Session) Mode() Mode {
	return s.router.mode
}

// Busy reports whether a swipe or flip animation owns the shared layers
func (s *Session) Busy() bool {
	return s.swipe.busy || s.flip.busy
}

// Animations exposes the registry of in-flight transitions
func (s *Session) Animations() *Registry {
	return &s.anims
}

// Panel exposes the metadata panel
func (s *Session) Panel() *Panel {
	return s.panel
}

// Resize applies a new viewport size immediately, without animation
func (s *Session) Resize(viewport Size) {
	if viewport == s.tf.Viewport {
		return
	}
	s.tf.Viewport = viewport
	if !s.open {
		return
	}
	s.tf.ComputeFitScale()
	s.applyTransform(applyImmediate)
	if !s.panelSuppressed() && s.imageKnown() {
		s.panel.Position(s.mainFrame().Bounds(), viewport)
	}
}

// SetPageVisible records page visibility. Hiding the page leaves the viewer
// open so the user returns to where they were.
func (s *Session) SetPageVisible(visible bool) {
	if s.pageHidden == !visible {
		return
	}
	s.pageHidden = !visible
	klog.V(2).Infof("page visible=%v, viewer open=%v", visible, s.open)
}

// NotifyLoaded tells the session that image i finished decoding, whether
// it succeeded or was replaced by a placeholder.
func (s *Session) NotifyLoaded(i int) {
	if !s.open || i != s.main.Index || !s.loader.Loaded(i) {
		return
	}
	if size, ok := s.loader.NaturalSize(i); ok {
		s.tf.Natural = size
	}
	if s.pending != nil {
		ready := s.pending
		s.pending = nil
		ready()
	}
}

// whenReady runs fn once the primary image has fully loaded. Knowing
// its size from a thumbnail is not enough.
func (s *Session) whenReady(fn func()) {
	s.pending = nil
	if s.loader.Loaded(s.main.Index) {
		if size, ok := s.loader.NaturalSize(s.main.Index); ok {
			s.tf.Natural = size
			fn()
			return
		}
	}
	s.tf.Natural = Size{}
	s.pending = fn
	s.loader.Request(s.main.Index)
}

func (s *Session) imageKnown() bool {
	return !s.tf.Natural.Empty()
}

func (s *Session) panelSuppressed() bool {
	return s.tf.Zoomed() || s.tf.Rotation != 0
}

// applyTransform clamps the pan and moves the main layer to the transform,
// easing unless the change is immediate or a finger is down.
func (s *Session) applyTransform(mode applyMode) {
	s.tf.ClampPan()

	d := settleDuration
	if mode == applySwipe {
		d = swipeSettleDuration
	}
	if mode == applyImmediate || s.dragging || s.pinching {
		d = 0
	}
	now := s.now
	s.main.X.AnimateTo(now, s.tf.TranslateX+s.tf.SwipeOffsetX, d, 0, EaseSettle)
	s.main.Y.AnimateTo(now, s.tf.TranslateY, d, 0, EaseSettle)
	s.main.Rotation.AnimateTo(now, s.rotAngle, d, 0, EaseSettle)
	s.main.Scale.AnimateTo(now, s.tf.Zoom, d, 0, EaseSettle)
}

// resetView returns the transform and gesture state to defaults
func (s *Session) resetView(rotation bool) {
	s.tf.Reset(rotation)
	if rotation {
		s.rotAngle = 0
	}
	s.dragging = false
	s.pinching = false
	s.router.reset()
	s.swipe.clearInteractive()
	s.applyTransform(applyImmediate)
}

func (s *Session) setUIHidden(hidden bool) {
	s.uiHidden = hidden
}

func (s *Session) wrap(i int) int {
	n := s.gallery.Len()
	if n == 0 {
		return 0
	}
	return ((i % n) + n) % n
}

// showItem loads gallery entry index into the primary slot with a default
// transform. The chrome keeps the given visibility.
func (s *Session) showItem(index int, immersive bool) {
	s.swipe.stop(s.sched)
	s.current = index
	s.resetView(true)
	s.hideBuffer()
	s.setUIHidden(immersive)
	s.main.reset(index)
	s.loader.Prefetch(index)
	s.whenReady(func() {
		s.tf.ComputeFitScale()
		s.applyTransform(applyImmediate)
		s.placePanel()
	})
	s.panel.Update(s.gallery.Item(index).Meta.Fields(), s.now, s.placePanel)
}

// RefreshMetadata picks up capture details that arrived for entry i after
// it was shown
func (s *Session) RefreshMetadata(i int) {
	if !s.open || s.closing || i != s.current {
		return
	}
	s.panel.Update(s.gallery.Item(i).Meta.Fields(), s.now, s.placePanel)
}

func (s *Session) placePanel() {
	if s.panelSuppressed() || !s.imageKnown() {
		return
	}
	s.panel.Position(s.mainFrame().Bounds(), s.tf.Viewport)
}

// Next shows the following entry, wrapping at the end
func (s *Session) Next() {
	s.animateSwipe(1)
}

// Prev shows the preceding entry, wrapping at the start
func (s *Session) Prev() {
	s.animateSwipe(-1)
}

func (s *Session) acceptsTransformInput() bool {
	return s.open && !s.closing && !s.Busy()
}

// ZoomIn magnifies one step around the viewport center
func (s *Session) ZoomIn() {
	s.zoomAtPoint(s.tf.Zoom*ZoomFactor, s.tf.Viewport.W/2, s.tf.Viewport.H/2)
}

// ZoomOut reduces one step around the viewport center
func (s *Session) ZoomOut() {
	s.zoomAtPoint(s.tf.Zoom/ZoomFactor, s.tf.Viewport.W/2, s.tf.Viewport.H/2)
}

func (s *Session) zoomAtPoint(next, x, y float64) {
	if !s.acceptsTransformInput() {
		return
	}
	if s.tf.ZoomAtPoint(next, x, y) {
		s.applyTransform(applySettle)
		s.afterTransform()
	}
}

// ZoomOriginal toggles between fit and natural pixel size
func (s *Session) ZoomOriginal() {
	if !s.acceptsTransformInput() {
		return
	}
	s.tf.ToggleOriginal()
	s.applyTransform(applySettle)
	s.afterTransform()
}

func (s *Session) toggleOriginalAt(x, y float64) {
	if !s.acceptsTransformInput() {
		return
	}
	s.tf.ToggleOriginalAt(x, y)
	s.applyTransform(applySettle)
	s.afterTransform()
}

// Rotate turns the image a quarter clockwise
func (s *Session) Rotate() {
	if !s.acceptsTransformInput() {
		return
	}
	s.tf.RotateCW()
	s.rotAngle += 90
	s.applyTransform(applySettle)

	if s.tf.Rotation != 0 {
		s.panel.FadeOut(s.now)
	} else {
		s.panel.FadeIn(s.now)
		s.afterTransform()
	}
}

// afterTransform re-anchors the panel once the eased transform has landed
func (s *Session) afterTransform() {
	s.panel.ScheduleSettle(s.placePanel)
}

// ToggleChrome shows or hides the buttons and counter
func (s *Session) ToggleChrome() {
	if !s.open || s.closing {
		return
	}
	s.setUIHidden(!s.uiHidden)
}

// HitImage reports whether (x, y) is on the primary image
func (s *Session) HitImage(x, y float64) bool {
	if !s.open {
		return false
	}
	return s.mainFrame().Bounds().Contains(x, y)
}

func (s *Session) mainFrame() LayerFrame {
	return s.layerFrame(&s.main, s.baseRect(), true)
}

func (s *Session) layerFrame(l *Layer, base Rect, visible bool) LayerFrame {
	now := s.now
	return LayerFrame{
		Index:    l.Index,
		Visible:  visible,
		Base:     base,
		X:        l.X.At(now),
		Y:        l.Y.At(now),
		Rotation: l.Rotation.At(now),
		Scale:    l.Scale.At(now),
		Opacity:  l.Opacity.At(now),
	}
}

// baseRect is the unrotated fit-scale rectangle of the main layer
func (s *Session) baseRect() Rect {
	n := s.tf.Natural
	if n.Empty() {
		n = Size{W: 1, H: 1}
	}
	w, h := n.W*s.tf.Fit, n.H*s.tf.Fit
	return Rect{
		Left:   (s.tf.Viewport.W - w) / 2,
		Top:    (s.tf.Viewport.H - h) / 2,
		Width:  w,
		Height: h,
	}
}

// Frame resolves the whole viewer for drawing at the last Update time
func (s *Session) Frame() Frame {
	if !s.open {
		return Frame{}
	}
	f := Frame{
		Open:        true,
		Overlay:     s.overlay.At(s.now),
		Main:        s.layerFrame(&s.main, s.baseRect(), s.imageKnown()),
		Ghost:       s.ghost.frame(s.now),
		Panel:       s.panel.Frame(s.now, s.panelSuppressed()),
		Chrome:      !s.uiHidden,
		Counter:     fmt.Sprintf("%d / %d", s.current+1, s.gallery.Len()),
		ZoomPercent: s.tf.DisplayPercent(),
		Zoomed:      s.tf.Zoomed(),
		Dragging:    s.dragging,
	}
	if s.buffer.Visible {
		var base Rect
		if size, ok := s.loader.NaturalSize(s.buffer.Index); ok {
			base = CenteredRect(size, s.tf.Viewport)
		}
		f.Buffer = s.layerFrame(&s.buffer, base, base.Usable())
	}
	return f
}

func (s *Session) hideBuffer() {
	s.buffer.Visible = false
	s.buffer.reset(s.buffer.Index)
	s.buffer.Opacity.Set(0)
}
