package viewer

import (
	"time"

	"k8s.io/klog/v2"
)

const (
	ghostSlack   = 90 * time.Millisecond
	overlaySlack = 100 * time.Millisecond

	revealAfterFlip = 140 * time.Millisecond
	revealPlain     = 90 * time.Millisecond
	hideOnClose     = 120 * time.Millisecond
)

// ghost is the single proxy image that travels between a thumbnail and
// the centered full-size position.
type ghost struct {
	active   bool
	index    int
	from     Rect
	to       Rect
	style    ThumbStyle
	progress Value
}

// GhostFrame is the flip proxy resolved at one instant
type GhostFrame struct {
	Visible bool
	Index   int
	Rect    Rect
	Radius  float64
	Cover   bool
}

func (g *ghost) show(index int, from, to Rect, style ThumbStyle) bool {
	if !from.Usable() || !to.Usable() {
		return false
	}
	g.active = true
	g.index = index
	g.from = from
	g.to = to
	g.style = style
	g.progress.Set(0)
	return true
}

func (g *ghost) hide() {
	g.active = false
	g.progress.Set(0)
}

func (g *ghost) frame(now time.Time) GhostFrame {
	if !g.active {
		return GhostFrame{}
	}
	return GhostFrame{
		Visible: true,
		Index:   g.index,
		Rect:    g.from.Lerp(g.to, g.progress.At(now)),
		Radius:  g.style.Radius,
		Cover:   g.style.Cover,
	}
}

type flipState struct {
	busy   bool
	locked bool
}

// track registers h and arms a fallback timer so it resolves even if the
// end of its transition is never observed.
func (s *Session) track(h *Handle, fallback time.Duration) *Handle {
	id := s.sched.After(fallback, h.finish)
	h.onCleanup(func() { s.sched.Cancel(id) })
	return s.anims.Track(h)
}

func (s *Session) playFlipGhost(seg Segment) *Handle {
	if !s.ghost.active {
		return nil
	}
	p := &s.ghost.progress
	p.Set(0)
	p.AnimateTo(s.now, 1, seg.Duration, 0, seg.Ease)
	return s.track(newHandle(KindFlip, p.Settled), seg.Duration+ghostSlack)
}

func (s *Session) playOverlayFade(from, to float64, seg Segment) *Handle {
	s.overlay.Set(from)
	s.overlay.AnimateTo(s.now, to, seg.Duration, seg.Delay, seg.Ease)
	return s.track(newHandle(KindOverlay, s.overlay.Settled), seg.Duration+seg.Delay+overlaySlack)
}

func (s *Session) flipAllowed() bool {
	if s.env == nil {
		return true
	}
	return !s.env.CoarsePointer() && !s.env.ReducedMotion()
}

// thumbRect returns the thumbnail rectangle when it is usable as a flip end point
func (s *Session) thumbRect(i int) (Rect, bool) {
	r, ok := s.gallery.ThumbnailRect(i)
	if !ok || !r.Usable() || !OnScreen(r, s.tf.Viewport) {
		return Rect{}, false
	}
	return r, true
}

// targetRect is where image i rests when opened, falling back to the
// thumbnail's proportions while its natural size is unknown
func (s *Session) targetRect(i int, thumb Rect) Rect {
	size, ok := s.loader.NaturalSize(i)
	if !ok {
		size = Size{W: thumb.Width, H: thumb.Height}
	}
	return CenteredRect(size, s.tf.Viewport)
}

type openState struct {
	armed      bool
	imageReady bool
	flipReady  bool
	done       bool
}

// Open shows gallery entry index. When the thumbnail is on screen the
// image flies out of it; otherwise the backdrop simply fades in. The full
// image stays transparent until both the flight and its decode finish.
func (s *Session) Open(index int) {
	if s.gallery.Len() == 0 {
		return
	}
	if s.open && !s.closing {
		return
	}
	if s.closing {
		// resolves the running close, which tears the old session down
		s.anims.CancelAll()
	}

	index = s.wrap(index)
	s.router.cancelTap(s.sched)
	s.anims.CancelAll()
	s.gen++
	gen := s.gen
	s.flip.busy = false
	s.current = index

	thumb, ok := s.thumbRect(index)
	canFlip := ok && s.flipAllowed()
	st := &openState{flipReady: !canFlip}

	s.main.reset(index)
	s.resetView(true)
	s.hideBuffer()
	s.ghost.hide()
	s.setUIHidden(false)
	s.loader.Prefetch(index)

	finalize := func() {
		if st.done || !st.armed || !st.imageReady || !st.flipReady || gen != s.gen {
			return
		}
		st.done = true
		d := revealPlain
		if canFlip {
			d = revealAfterFlip
		}
		s.main.Opacity.AnimateTo(s.now, 1, d, 0, EaseOpen)
		s.ghost.hide()
		s.tf.ComputeFitScale()
		s.applyTransform(applyImmediate)
		s.placePanel()
		klog.V(1).Infof("open finalized at index %d", index)
	}

	s.whenReady(func() {
		if gen != s.gen {
			return
		}
		st.imageReady = true
		s.tf.ComputeFitScale()
		s.applyTransform(applyImmediate)
		finalize()
	})
	s.panel.Update(s.gallery.Item(index).Meta.Fields(), s.now, s.placePanel)

	if !s.flip.locked {
		s.scroll.LockScroll()
		s.flip.locked = true
	}
	s.open = true
	if canFlip {
		s.main.Opacity.Set(0)
	} else {
		s.main.Opacity.Set(1)
	}

	tr := s.motion.OpenTransition()
	s.playOverlayFade(0, 1, tr.Overlay)

	if canFlip {
		style := s.gallery.ThumbnailStyle(index)
		if s.ghost.show(index, thumb, s.targetRect(index, thumb), style) {
			s.flip.busy = true
			s.playFlipGhost(tr.Ghost).Then(func() {
				if gen != s.gen {
					return
				}
				s.flip.busy = false
				st.flipReady = true
				finalize()
			})
		} else {
			st.flipReady = true
		}
	}

	st.armed = true
	finalize()
	klog.Infof("viewer opened at %d/%d (flip=%v)", index+1, s.gallery.Len(), canFlip)
}

// Close tears the viewer down. When the thumbnail is on screen and the
// image is at rest the image flies back into it; otherwise the backdrop
// fades out. Teardown runs exactly once, after every close animation has
// resolved or been cancelled.
func (s *Session) Close() {
	if !s.open || s.closing {
		return
	}
	s.router.cancelTap(s.sched)
	s.swipe.stop(s.sched)
	s.gen++
	s.anims.CancelAll()
	s.closing = true
	s.flip.busy = true
	s.pending = nil
	s.dragging = false
	s.pinching = false
	s.router.reset()

	closed := false
	finish := func() {
		if closed {
			return
		}
		closed = true
		s.finishClose()
	}

	thumb, ok := s.thumbRect(s.current)
	canFlip := ok && !s.tf.Zoomed() && s.tf.Rotation == 0 && s.flipAllowed()

	s.setUIHidden(true)
	s.panel.FadeOut(s.now)

	tr := s.motion.CloseTransition()
	from := s.overlay.At(s.now)
	fadeOnly := func() {
		s.playOverlayFade(from, 0, tr.Overlay).Then(finish)
	}
	if !canFlip {
		klog.V(1).Info("close without flip")
		fadeOnly()
		return
	}

	rect := s.mainFrame().Bounds()
	if !rect.Usable() {
		rect = s.targetRect(s.current, thumb)
	}
	if !s.ghost.show(s.current, rect, thumb, s.gallery.ThumbnailStyle(s.current)) {
		fadeOnly()
		return
	}

	s.main.Opacity.AnimateTo(s.now, 0, hideOnClose, 0, EaseFadeOut)
	g := s.playFlipGhost(tr.Ghost)
	o := s.playOverlayFade(from, 0, tr.Overlay)
	All(KindFlip, g, o).Then(finish)
}

func (s *Session) finishClose() {
	s.anims.CancelAll()
	s.ghost.hide()
	s.overlay.Set(0)
	s.open = false
	s.closing = false
	s.flip.busy = false
	s.swipe.stop(s.sched)
	if s.flip.locked {
		s.scroll.UnlockScroll()
		s.flip.locked = false
	}
	s.resetView(true)
	s.hideBuffer()
	s.setUIHidden(false)
	s.main.Opacity.Set(1)
	s.pending = nil
	s.panel.Clear()
	klog.Info("viewer closed")
}
