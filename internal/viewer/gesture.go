package viewer

import (
	"math"
	"time"

	"k8s.io/klog/v2"
)

// Mode is the gesture currently owning pointer input
type Mode int

const (
	ModeNone Mode = iota
	ModePan
	ModePinch
	ModeSwipe
	ModeDismiss
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModePan:
		return "pan"
	case ModePinch:
		return "pinch"
	case ModeSwipe:
		return "swipe"
	case ModeDismiss:
		return "dismiss"
	default:
		return "unknown"
	}
}

// transitions lists the modes reachable from each mode. Anything else is
// rejected; in particular a gesture must return to none before another
// one can begin.
var transitions = map[Mode][]Mode{
	ModeNone:    {ModePan, ModePinch, ModeSwipe},
	ModePan:     {ModeNone},
	ModePinch:   {ModeNone},
	ModeSwipe:   {ModeNone, ModeDismiss},
	ModeDismiss: {ModeNone},
}

const (
	tapWindow       = 280 * time.Millisecond
	singleTapDelay  = 220 * time.Millisecond
	dragClickGuard  = 20 * time.Millisecond
	moveSlop        = 4.0
	tapSlop         = 8.0
	dismissStart    = 10.0
	dismissDominant = 1.2
	swipeArm        = 6.0
	swipeCommit     = 56.0
	swipeDominant   = 1.1
)

// Touch is one active contact point in viewport coordinates
type Touch struct {
	ID int
	X  float64
	Y  float64
}

// Router classifies touch and pointer sequences into gesture modes
type Router struct {
	mode  Mode
	mouse bool // the pan is driven by a mouse drag

	startX  float64
	startY  float64
	startTX float64
	startTY float64
	moved   bool

	pinchDist  float64
	pinchScale float64

	lastTap   time.Time
	tapTimer  TimerID
	dragMoved bool
	dragTimer TimerID
}

// enter switches modes when the transition is defined for the current mode
func (r *Router) enter(m Mode) bool {
	if r.mode == m {
		return true
	}
	for _, next := range transitions[r.mode] {
		if next == m {
			klog.V(1).Infof("gesture %v -> %v", r.mode, m)
			r.mode = m
			if m == ModeNone {
				r.mouse = false
			}
			return true
		}
	}
	klog.V(2).Infof("gesture %v -> %v rejected", r.mode, m)
	return false
}

func (r *Router) reset() {
	r.mode = ModeNone
	r.mouse = false
}

// cancelTap forgets any pending tap so the next one starts fresh
func (r *Router) cancelTap(sched *Scheduler) {
	sched.Cancel(r.tapTimer)
	r.tapTimer = 0
	r.lastTap = time.Time{}
}

func distance(a, b Touch) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func (s *Session) coarse() bool {
	return s.env != nil && s.env.CoarsePointer()
}

// TouchStart receives every active touch after a new contact landed
func (s *Session) TouchStart(touches []Touch) {
	if !s.open || s.closing || s.Busy() {
		return
	}
	r := &s.router

	if len(touches) == 2 {
		switch r.mode {
		case ModePan:
			if r.mouse {
				return
			}
			s.dragging = false
			r.enter(ModeNone)
		case ModeSwipe:
			if s.swipe.interactive {
				return
			}
			s.tf.SwipeOffsetX = 0
			r.enter(ModeNone)
		case ModePinch, ModeDismiss:
			return
		}
		s.sched.Cancel(r.tapTimer)
		r.tapTimer = 0
		if !r.enter(ModePinch) {
			return
		}
		s.pinching = true
		r.pinchDist = distance(touches[0], touches[1])
		r.pinchScale = s.tf.Zoom
		return
	}

	if len(touches) != 1 || r.mode != ModeNone {
		return
	}
	t := touches[0]
	r.startX, r.startY = t.X, t.Y
	r.moved = false

	if s.tf.Zoomed() {
		r.enter(ModePan)
		s.dragging = true
		r.startTX, r.startTY = s.tf.TranslateX, s.tf.TranslateY
		return
	}
	r.enter(ModeSwipe)
	s.tf.SwipeOffsetX = 0
	s.swipe.clearInteractive()
}

// TouchMove receives every active touch after any of them moved
func (s *Session) TouchMove(touches []Touch) {
	if !s.open || s.closing || s.swipe.busy {
		return
	}
	r := &s.router

	if r.mode == ModePinch && len(touches) == 2 {
		d := distance(touches[0], touches[1])
		s.tf.Zoom = clamp(r.pinchScale*(d/math.Max(1, r.pinchDist)), MinZoom, MaxZoom)
		r.moved = true
		s.applyTransform(applyImmediate)
		return
	}
	if len(touches) != 1 {
		return
	}

	t := touches[0]
	dx := t.X - r.startX
	dy := t.Y - r.startY
	if math.Abs(dx) > moveSlop || math.Abs(dy) > moveSlop {
		r.moved = true
	}

	switch r.mode {
	case ModePan:
		if r.mouse || !s.tf.Zoomed() {
			return
		}
		s.tf.TranslateX = r.startTX + dx
		s.tf.TranslateY = r.startTY + dy
		s.applyTransform(applyImmediate)

	case ModeDismiss:
		r.moved = true
		s.applyDismissDrag(dy)

	case ModeSwipe:
		if s.tf.Zoomed() {
			return
		}
		if !s.swipe.interactive && math.Abs(dy) > dismissStart && math.Abs(dy) > math.Abs(dx)*dismissDominant {
			r.moved = true
			r.enter(ModeDismiss)
			s.sched.Cancel(s.swipe.hide)
			s.swipe.hide = 0
			s.hideBuffer()
			s.swipe.clearInteractive()
			s.tf.SwipeOffsetX = 0
			s.applyDismissDrag(dy)
			return
		}
		if math.Abs(dx) < math.Abs(dy) && !s.swipe.interactive {
			return
		}
		r.moved = true

		if math.Abs(dx) > swipeArm {
			dir := -1
			if dx < 0 {
				dir = 1
			}
			if !s.swipe.interactive || dir != s.swipe.dir {
				next := s.wrap(s.current + dir)
				s.swipe.dir = dir
				s.swipe.next = next
				s.swipe.interactive = true
				s.showBuffer(next)
				s.panel.FadeOut(s.now)
			}
		}

		s.tf.SwipeOffsetX = dx
		s.main.X.Set(dx)
		s.main.Y.Set(0)
		if s.swipe.interactive {
			s.buffer.X.Set(dx + float64(s.swipe.dir)*s.swipeTravel())
		}
	}
}

// TouchEnd receives the contact that lifted
func (s *Session) TouchEnd(changed Touch) {
	if !s.open || s.closing || s.swipe.busy {
		return
	}
	r := &s.router

	switch r.mode {
	case ModePinch:
		s.pinching = false
		r.enter(ModeNone)
		s.applyTransform(applySettle)
		s.afterTransform()

	case ModePan:
		if r.mouse {
			return
		}
		s.dragging = false
		r.enter(ModeNone)
		s.applyTransform(applySettle)
		if !r.moved {
			s.processTap(changed.X, changed.Y)
		}

	case ModeDismiss:
		r.enter(ModeNone)
		dy := math.Abs(changed.Y - r.startY)
		if dy > DismissThreshold(s.tf.Viewport.H) {
			klog.V(1).Infof("dismiss drag %.0fpx closes", dy)
			s.Close()
			return
		}
		s.resetDismissDrag()

	case ModeSwipe:
		r.enter(ModeNone)
		dx := changed.X - r.startX
		dy := math.Abs(changed.Y - r.startY)
		commit := math.Abs(dx) > swipeCommit && math.Abs(dx) > dy*swipeDominant
		tap := !r.moved && math.Abs(dx) < tapSlop && dy < tapSlop

		if s.swipe.interactive && commit {
			s.startSwipeAnimation(s.swipe.dir, s.swipe.next, dx)
			return
		}
		if s.swipe.interactive {
			s.cancelInteractiveSwipe()
			if tap {
				s.processTap(changed.X, changed.Y)
			}
			return
		}
		s.overlay.Set(1)
		s.tf.SwipeOffsetX = 0
		s.applyTransform(applySwipe)
		if tap {
			s.processTap(changed.X, changed.Y)
		}
	}
}

// TouchCancel abandons the current touch gesture
func (s *Session) TouchCancel() {
	if r := &s.router; r.mouse {
		return
	}
	s.router.reset()
	s.pinching = false
	s.dragging = false
	if !s.open || s.closing {
		return
	}
	s.overlay.Set(1)
	s.tf.SwipeOffsetX = 0
	if s.swipe.interactive {
		s.swipe.clearInteractive()
		s.hideBuffer()
	}
	s.applyTransform(applySettle)
}

// processTap tells single taps from double taps. A tap within the tap
// window of the previous one toggles original scale at the tap point and
// consumes both; otherwise the chrome toggles once the single-tap delay
// passes without a second tap.
func (s *Session) processTap(x, y float64) {
	r := &s.router
	if !r.lastTap.IsZero() && s.now.Sub(r.lastTap) < tapWindow {
		s.sched.Cancel(r.tapTimer)
		r.tapTimer = 0
		klog.V(1).Infof("double tap at %.0f,%.0f", x, y)
		s.toggleOriginalAt(x, y)
		r.lastTap = time.Time{}
		return
	}
	r.lastTap = s.now
	s.sched.Cancel(r.tapTimer)
	r.tapTimer = s.sched.After(singleTapDelay, func() {
		r.tapTimer = 0
		s.setUIHidden(!s.uiHidden)
	})
}

// MouseDown starts a drag-pan when the zoomed image is pressed
func (s *Session) MouseDown(x, y float64) {
	r := &s.router
	if !s.open || s.closing || s.Busy() || r.mode != ModeNone {
		return
	}
	if !s.tf.Zoomed() || !s.HitImage(x, y) {
		return
	}
	if !r.enter(ModePan) {
		return
	}
	r.mouse = true
	r.dragMoved = false
	r.startX, r.startY = x, y
	r.startTX, r.startTY = s.tf.TranslateX, s.tf.TranslateY
	s.dragging = true
}

// MouseMove follows a drag-pan
func (s *Session) MouseMove(x, y float64) {
	r := &s.router
	if r.mode != ModePan || !r.mouse {
		return
	}
	r.dragMoved = true
	s.tf.TranslateX = r.startTX + (x - r.startX)
	s.tf.TranslateY = r.startTY + (y - r.startY)
	s.applyTransform(applyImmediate)
}

// MouseUp ends a drag-pan. A click that immediately follows a real drag is
// swallowed.
func (s *Session) MouseUp() {
	r := &s.router
	if r.mode != ModePan || !r.mouse {
		return
	}
	s.dragging = false
	r.enter(ModeNone)
	s.applyTransform(applySettle)
	s.afterTransform()
	if r.dragMoved {
		s.sched.Cancel(r.dragTimer)
		r.dragTimer = s.sched.After(dragClickGuard, func() {
			r.dragTimer = 0
			r.dragMoved = false
		})
	}
}

// Click handles a pointer click: on the image it toggles the chrome, on
// the backdrop it closes the viewer unless zoomed.
func (s *Session) Click(x, y float64) {
	if !s.open || s.closing {
		return
	}
	if s.HitImage(x, y) {
		if s.router.dragMoved || s.coarse() {
			return
		}
		s.setUIHidden(!s.uiHidden)
		return
	}
	if s.tf.Zoomed() {
		return
	}
	s.Close()
}

// DoubleClick toggles original scale at the cursor
func (s *Session) DoubleClick(x, y float64) {
	if !s.open || s.closing || s.coarse() || !s.HitImage(x, y) {
		return
	}
	s.toggleOriginalAt(x, y)
}

// Wheel zooms one step around the cursor
func (s *Session) Wheel(x, y float64, in bool) {
	if !s.open {
		return
	}
	next := s.tf.Zoom / ZoomFactor
	if in {
		next = s.tf.Zoom * ZoomFactor
	}
	s.zoomAtPoint(next, x, y)
}
