package viewer

import (
	"math"
	"time"
)

const (
	panelMinWidth   = 240.0
	panelMargin     = 14.0
	panelPadding    = 20.0
	panelGap        = 6.0
	panelEdge       = 4.0
	panelMinHeight  = 18.0
	panelSwapDelay  = 280 * time.Millisecond
	panelFade       = 240 * time.Millisecond
	panelSettleWait = 280 * time.Millisecond
)

// Panel keeps the metadata overlay anchored to the image and cross-fades
// its content between gallery entries.
type Panel struct {
	sched   *Scheduler
	measure PanelMeasurer

	fields  []MetaField
	visible bool
	fading  bool
	alpha   Value

	rect     Rect
	anchor   Rect
	placed   bool
	swap     TimerID
	settle   TimerID
}

// PanelFrame is the panel as it should be drawn at a given time
type PanelFrame struct {
	Visible bool
	Rect    Rect
	Alpha   float64
	Fields  []MetaField
}

func newPanel(sched *Scheduler, measure PanelMeasurer) *Panel {
	return &Panel{sched: sched, measure: measure}
}

// Visible reports whether the panel holds content
func (p *Panel) Visible() bool {
	return p.visible
}

// Fading reports whether the panel is faded out while keeping its content
func (p *Panel) Fading() bool {
	return p.fading
}

// Fields returns the content currently shown
func (p *Panel) Fields() []MetaField {
	return p.fields
}

// Update replaces the content. A visible panel fades out, swaps and fades
// back in; an empty update fades it out and then clears it.
func (p *Panel) Update(fields []MetaField, now time.Time, place func()) {
	p.sched.Cancel(p.swap)
	p.swap = 0

	if len(fields) == 0 {
		if !p.visible {
			p.clearContent()
			return
		}
		p.FadeOut(now)
		p.swap = p.sched.After(panelSwapDelay, func() {
			p.swap = 0
			p.clearContent()
		})
		return
	}

	switch {
	case p.visible && p.fading:
		p.fields = fields
		p.placed = false
		place()
		p.fading = false
		p.alpha.AnimateTo(now, 1, panelFade, 0, EaseDefault)
	case p.visible:
		p.FadeOut(now)
		p.swap = p.sched.After(panelSwapDelay, func() {
			p.swap = 0
			p.fields = fields
			p.placed = false
			place()
			p.fading = false
			p.alpha.AnimateTo(p.sched.Now(), 1, panelFade, 0, EaseDefault)
		})
	default:
		p.fields = fields
		p.visible = true
		p.fading = false
		p.placed = false
		p.alpha.Set(0)
		place()
		p.alpha.AnimateTo(now, 1, panelFade, 0, EaseDefault)
	}
}

// FadeOut hides the panel but keeps its content
func (p *Panel) FadeOut(now time.Time) {
	if !p.visible || p.fading {
		return
	}
	p.fading = true
	p.alpha.AnimateTo(now, 0, panelFade, 0, EaseDefault)
}

// FadeIn restores a faded panel
func (p *Panel) FadeIn(now time.Time) {
	if !p.visible || !p.fading {
		return
	}
	p.fading = false
	p.alpha.AnimateTo(now, 1, panelFade, 0, EaseDefault)
}

// Clear drops the content and any pending swap immediately
func (p *Panel) Clear() {
	p.sched.Cancel(p.swap)
	p.sched.Cancel(p.settle)
	p.swap = 0
	p.settle = 0
	p.clearContent()
}

func (p *Panel) clearContent() {
	p.fields = nil
	p.visible = false
	p.fading = false
	p.placed = false
	p.alpha.Set(0)
}

// Position anchors the panel to the image rectangle: centered horizontally
// on the image, above it when there is room, otherwise below it, and as a
// last resort just inside the image's top edge.
func (p *Panel) Position(image Rect, viewport Size) {
	if !p.visible || !image.Usable() {
		return
	}
	w := math.Max(panelMinWidth, math.Min(viewport.W-panelMargin, image.Width+panelPadding))
	h := panelMinHeight
	if p.measure != nil {
		h = math.Max(h, p.measure(p.fields, w))
	}

	top := image.Top - h - panelGap
	if top < panelEdge {
		below := image.Bottom() + panelGap
		if below+h <= viewport.H-panelEdge {
			top = below
		} else {
			top = image.Top + panelGap
		}
	}

	p.rect = Rect{
		Left:   math.Round(image.CenterX() - w/2),
		Top:    math.Round(top),
		Width:  math.Round(w),
		Height: h,
	}
	p.anchor = image
	p.placed = true
}

// Stale reports whether the image has moved since the panel was placed
func (p *Panel) Stale(image Rect) bool {
	return p.visible && (!p.placed || p.anchor != image)
}

// ScheduleSettle runs fn once the current transform animation has had time
// to finish. A newer request replaces an older one.
func (p *Panel) ScheduleSettle(fn func()) {
	if !p.visible {
		return
	}
	p.sched.Cancel(p.settle)
	p.settle = p.sched.After(panelSettleWait, func() {
		p.settle = 0
		fn()
	})
}

// Rect returns the last computed placement
func (p *Panel) Rect() Rect {
	return p.rect
}

// Frame resolves the panel for drawing. Suppressed panels are never drawn.
func (p *Panel) Frame(now time.Time, suppressed bool) PanelFrame {
	a := p.alpha.At(now)
	if !p.visible || suppressed || !p.placed || a <= 0 {
		return PanelFrame{}
	}
	return PanelFrame{Visible: true, Rect: p.rect, Alpha: a, Fields: p.fields}
}
