package viewer

import (
	"math"
	"time"

	"k8s.io/klog/v2"
)

const (
	swipeMinDuration   = 0.18
	swipeMaxDuration   = 0.34
	swipeMinViewport   = 320.0
	swipeSlack         = 80 * time.Millisecond
	snapBackDuration   = 250 * time.Millisecond
	bufferHideDelay    = 280 * time.Millisecond
	dismissSnapBack    = 220 * time.Millisecond
	dismissMaxShift    = 0.78
	dismissFullTravel  = 0.72
	dismissScaleDrop   = 0.16
	dismissOverlayDrop = 0.62
	dismissMinOverlay  = 0.35
)

// swipeState tracks the navigation animator and the interactive swipe that
// may precede it. The buffer layer belongs to whichever of them is active.
type swipeState struct {
	busy   bool
	handle *Handle
	hide   TimerID

	interactive bool
	dir         int
	next        int
}

func (w *swipeState) clearInteractive() {
	w.interactive = false
	w.dir = 0
	w.next = -1
}

// stop abandons an in-flight navigation without advancing the index
func (w *swipeState) stop(sched *Scheduler) {
	sched.Cancel(w.hide)
	w.hide = 0
	w.busy = false
	if h := w.handle; h != nil {
		w.handle = nil
		h.Cancel()
	}
}

// swipeDuration scales with the distance left to travel
func swipeDuration(startDx, vw float64) time.Duration {
	remaining := vw - math.Abs(startDx)
	secs := clamp(remaining/vw*swipeMaxDuration, swipeMinDuration, swipeMaxDuration)
	return time.Duration(secs * float64(time.Second))
}

// swipeTravel is how far apart the current and adjacent images sit
func (s *Session) swipeTravel() float64 {
	return math.Max(s.tf.Viewport.W, swipeMinViewport)
}

func (s *Session) showBuffer(index int) {
	s.sched.Cancel(s.swipe.hide)
	s.swipe.hide = 0
	s.buffer.reset(index)
	s.buffer.Visible = true
	s.loader.Request(index)
}

// animateSwipe is the button and keyboard entry point
func (s *Session) animateSwipe(dir int) {
	if !s.open || s.closing || s.flip.busy || s.swipe.busy {
		return
	}
	if s.router.mode != ModeNone {
		return
	}
	next := s.wrap(s.current + dir)
	if s.tf.Zoomed() {
		s.showItem(next, s.uiHidden)
		return
	}
	s.startSwipeAnimation(dir, next, 0)
}

// startSwipeAnimation slides the current image out and the buffer in from
// startDx, which is the finger offset for a released swipe and 0 otherwise.
func (s *Session) startSwipeAnimation(dir, next int, startDx float64) {
	s.sched.Cancel(s.swipe.hide)
	s.swipe.hide = 0
	s.swipe.busy = true
	s.panel.FadeOut(s.now)

	vw := s.swipeTravel()
	if !s.buffer.Visible || s.buffer.Index != next {
		s.showBuffer(next)
	}
	s.buffer.Opacity.Set(1)

	s.main.X.Set(startDx)
	s.main.Y.Set(0)
	s.buffer.X.Set(startDx + float64(dir)*vw)

	d := swipeDuration(startDx, vw)
	s.main.X.AnimateTo(s.now, -float64(dir)*vw, d, 0, EaseSwipe)
	s.buffer.X.AnimateTo(s.now, 0, d, 0, EaseSwipe)

	h := s.track(newHandle(KindSwipe, s.buffer.X.Settled), d.Round(time.Millisecond)+swipeSlack)
	s.swipe.handle = h
	h.Then(func() { s.finalizeSwipe(h, next) })
	klog.V(1).Infof("swipe %+d to %d from dx=%.0f over %v", dir, next, startDx, d)
}

// finalizeSwipe swaps the buffer into the primary slot with a default
// transform. A cancelled swipe only releases the buffer.
func (s *Session) finalizeSwipe(h *Handle, next int) {
	if s.swipe.handle == h {
		s.swipe.handle = nil
	}
	s.swipe.busy = false
	s.swipe.clearInteractive()
	if h.Cancelled() {
		s.hideBuffer()
		return
	}

	s.current = next
	s.main.reset(next)
	s.hideBuffer()
	s.tf.Reset(true)
	s.rotAngle = 0
	s.dragging = false
	s.applyTransform(applyImmediate)

	s.loader.Prefetch(next)
	s.whenReady(func() {
		s.tf.ComputeFitScale()
		s.applyTransform(applyImmediate)
		s.placePanel()
	})
	s.panel.Update(s.gallery.Item(next).Meta.Fields(), s.now, s.placePanel)
}

// cancelInteractiveSwipe snaps both images back to where the gesture began
func (s *Session) cancelInteractiveSwipe() {
	vw := s.swipeTravel()
	s.main.X.AnimateTo(s.now, 0, snapBackDuration, 0, EaseSwipe)
	s.buffer.X.AnimateTo(s.now, float64(s.swipe.dir)*vw, snapBackDuration, 0, EaseSwipe)
	s.sched.Cancel(s.swipe.hide)
	s.swipe.hide = s.sched.After(bufferHideDelay, func() {
		s.swipe.hide = 0
		s.hideBuffer()
	})
	s.panel.FadeIn(s.now)
	klog.V(1).Infof("swipe cancelled at %d", s.current)

	s.swipe.clearInteractive()
	s.tf.SwipeOffsetX = 0
}

// applyDismissDrag follows a vertical drag: the image moves with the
// finger and shrinks slightly while the backdrop fades.
func (s *Session) applyDismissDrag(dy float64) {
	vh := s.tf.Viewport.H
	maxShift := math.Max(vh*dismissMaxShift, 1)
	safe := clamp(dy, -maxShift, maxShift)
	progress := math.Min(1, math.Abs(safe)/math.Max(vh*dismissFullTravel, 1))

	s.overlay.Set(clamp(1-progress*dismissOverlayDrop, dismissMinOverlay, 1))
	s.main.X.Set(0)
	s.main.Y.Set(safe)
	s.main.Scale.Set(1 - progress*dismissScaleDrop)
}

func (s *Session) resetDismissDrag() {
	s.main.X.AnimateTo(s.now, s.tf.TranslateX, dismissSnapBack, 0, EaseSettle)
	s.main.Y.AnimateTo(s.now, s.tf.TranslateY, dismissSnapBack, 0, EaseSettle)
	s.main.Scale.AnimateTo(s.now, s.tf.Zoom, dismissSnapBack, 0, EaseSettle)
	s.overlay.AnimateTo(s.now, 1, dismissSnapBack, 0, EaseDefault)
}

// DismissThreshold is how far a vertical drag must travel to close
func DismissThreshold(viewportH float64) float64 {
	return math.Max(92, math.Min(viewportH*0.15, 160))
}
