package viewer

import "time"

// Value is a scalar visual property that either holds still or eases from
// one value to another over a time window, the way a CSS transition would.
type Value struct {
	from      float64
	to        float64
	start     time.Time
	delay     time.Duration
	duration  time.Duration
	ease      Easing
	animating bool
}

// Set jumps to x with no transition
func (v *Value) Set(x float64) {
	v.from = x
	v.to = x
	v.animating = false
}

// AnimateTo starts a transition from the value visible at now towards x.
// A non-positive duration behaves like Set.
func (v *Value) AnimateTo(now time.Time, x float64, duration, delay time.Duration, ease Easing) {
	if duration <= 0 {
		v.Set(x)
		return
	}
	if ease == nil {
		ease = EaseDefault
	}
	v.from = v.At(now)
	v.to = x
	v.start = now
	v.delay = delay
	v.duration = duration
	v.ease = ease
	v.animating = true
}

// At returns the value visible at now
func (v *Value) At(now time.Time) float64 {
	if !v.animating {
		return v.to
	}
	elapsed := now.Sub(v.start) - v.delay
	if elapsed <= 0 {
		return v.from
	}
	if elapsed >= v.duration {
		return v.to
	}
	p := v.ease(float64(elapsed) / float64(v.duration))
	return lerp(v.from, v.to, p)
}

// Target returns the resting value the property is heading to
func (v *Value) Target() float64 {
	return v.to
}

// Settled reports whether the transition, if any, has reached its end at now
func (v *Value) Settled(now time.Time) bool {
	if !v.animating {
		return true
	}
	return !now.Before(v.start.Add(v.delay + v.duration))
}

// Kind tags an in-flight transition so that conflicting ones can be found
type Kind int

const (
	KindOverlay Kind = iota
	KindFlip
	KindSwipe
	KindFade
)

func (k Kind) String() string {
	switch k {
	case KindOverlay:
		return "overlay"
	case KindFlip:
		return "flip"
	case KindSwipe:
		return "swipe"
	case KindFade:
		return "fade"
	default:
		return "unknown"
	}
}

// Handle represents one in-flight visual transition. It resolves exactly
// once, either when its transition ends, when its fallback timer fires, or
// when it is cancelled; cancellation resolves rather than rejects so that
// continuations always run.
type Handle struct {
	kind      Kind
	resolved  bool
	cancelled bool
	ended     func(now time.Time) bool
	cleanup   []func()
	waiters   []func()
}

func newHandle(kind Kind, ended func(now time.Time) bool) *Handle {
	return &Handle{kind: kind, ended: ended}
}

// Kind returns the transition kind
func (h *Handle) Kind() Kind {
	return h.kind
}

// Done reports whether the handle has resolved
func (h *Handle) Done() bool {
	return h.resolved
}

// Cancelled reports whether the handle was resolved by Cancel
func (h *Handle) Cancelled() bool {
	return h.cancelled
}

// Then runs fn once the handle resolves; immediately if it already has
func (h *Handle) Then(fn func()) {
	if h.resolved {
		fn()
		return
	}
	h.waiters = append(h.waiters, fn)
}

// Cancel stops the transition where it is, clears its pending timers and
// resolves it. Cancelling a resolved handle does nothing.
func (h *Handle) Cancel() {
	h.resolve(true)
}

func (h *Handle) onCleanup(fn func()) {
	h.cleanup = append(h.cleanup, fn)
}

func (h *Handle) finish() {
	h.resolve(false)
}

func (h *Handle) resolve(cancelled bool) {
	if h.resolved {
		return
	}
	h.resolved = true
	h.cancelled = cancelled
	for _, fn := range h.cleanup {
		fn()
	}
	h.cleanup = nil
	waiters := h.waiters
	h.waiters = nil
	for _, fn := range waiters {
		fn()
	}
}

// All returns a handle that resolves once every given handle has resolved.
// Nil handles count as already resolved.
func All(kind Kind, hs ...*Handle) *Handle {
	joined := newHandle(kind, nil)
	remaining := 0
	for _, h := range hs {
		if h != nil && !h.Done() {
			remaining++
		}
	}
	if remaining == 0 {
		joined.finish()
		return joined
	}
	for _, h := range hs {
		if h == nil || h.Done() {
			continue
		}
		h.Then(func() {
			remaining--
			if remaining == 0 {
				joined.finish()
			}
		})
	}
	return joined
}

// Registry holds the handles of every transition currently in flight
type Registry struct {
	handles []*Handle
}

// Track adds h to the registry and returns it
func (r *Registry) Track(h *Handle) *Handle {
	r.handles = append(r.handles, h)
	return h
}

// CancelAll cancels every tracked handle. Handles started by continuations
// of the cancelled ones survive.
func (r *Registry) CancelAll() {
	hs := r.handles
	r.handles = nil
	for _, h := range hs {
		h.Cancel()
	}
}

// CancelKind cancels the tracked handles of the given kinds
func (r *Registry) CancelKind(kinds ...Kind) {
	var cancel, keep []*Handle
	for _, h := range r.handles {
		if kindIn(h.kind, kinds) {
			cancel = append(cancel, h)
		} else {
			keep = append(keep, h)
		}
	}
	r.handles = keep
	for _, h := range cancel {
		h.Cancel()
	}
}

// Active counts unresolved handles of a kind
func (r *Registry) Active(kind Kind) int {
	n := 0
	for _, h := range r.handles {
		if h.kind == kind && !h.Done() {
			n++
		}
	}
	return n
}

// Len counts all unresolved handles
func (r *Registry) Len() int {
	n := 0
	for _, h := range r.handles {
		if !h.Done() {
			n++
		}
	}
	return n
}

// Tick delivers transition-end to every handle whose transition finished by now
func (r *Registry) Tick(now time.Time) {
	hs := make([]*Handle, len(r.handles))
	copy(hs, r.handles)
	for _, h := range hs {
		if !h.Done() && h.ended != nil && h.ended(now) {
			h.finish()
		}
	}
	r.prune()
}

func (r *Registry) prune() {
	keep := r.handles[:0]
	for _, h := range r.handles {
		if !h.Done() {
			keep = append(keep, h)
		}
	}
	r.handles = keep
}

func kindIn(k Kind, kinds []Kind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}
