package main

import (
	"math"

	"k8s.io/klog/v2"

	"lightbox/internal/viewer"
)

// Page layout constants
const (
	scrollbarWidth = 10.0
	pageHeader     = 52.0
	pagePadding    = 24.0
)

// scrollSnapshot is the page state LockScroll found
type scrollSnapshot struct {
	scrollY float64
	gutter  float64
}

// Page is the thumbnail grid the viewer opens from. It lays out one square
// cell per gallery item, scrolls vertically and can be frozen while the
// viewer is showing.
type Page struct {
	items    []viewer.Item
	thumb    float64
	gap      float64
	style    viewer.ThumbStyle
	viewport viewer.Size

	scrollY float64
	gutter  float64 // right padding standing in for a hidden scrollbar
	lock    *scrollSnapshot
}

// NewPage lays out items using the thumbnail settings in cfg
func NewPage(items []viewer.Item, cfg Config, viewport viewer.Size) *Page {
	return &Page{
		items:    items,
		thumb:    float64(cfg.ThumbnailSize),
		gap:      float64(cfg.GridGap),
		style:    viewer.ThumbStyle{Radius: float64(cfg.CornerRadius), Cover: cfg.ThumbnailFit == "cover"},
		viewport: viewport,
	}
}

// Len returns the number of gallery items
func (p *Page) Len() int {
	return len(p.items)
}

// Item returns gallery item i
func (p *Page) Item(i int) viewer.Item {
	return p.items[i]
}

// SetMetadata attaches capture details to item i
func (p *Page) SetMetadata(i int, meta viewer.Metadata) {
	if i >= 0 && i < len(p.items) {
		p.items[i].Meta = meta
	}
}

// ThumbnailStyle returns how item i is presented in the grid
func (p *Page) ThumbnailStyle(int) viewer.ThumbStyle {
	return p.style
}

// ThumbnailRect returns the on-screen cell of item i. Cells scrolled
// entirely out of view are not laid out.
func (p *Page) ThumbnailRect(i int) (viewer.Rect, bool) {
	r, ok := p.cellRect(i)
	if !ok {
		return viewer.Rect{}, false
	}
	if r.Bottom() <= 0 || r.Top >= p.viewport.H {
		return viewer.Rect{}, false
	}
	return r, true
}

// Resize updates the viewport and keeps the scroll offset in range
func (p *Page) Resize(viewport viewer.Size) {
	p.viewport = viewport
	if p.lock != nil {
		p.gutter = p.lock.gutter
		if p.overflows() {
			p.gutter += scrollbarWidth
		}
	}
	p.scrollY = p.clampScroll(p.scrollY)
}

// Viewport returns the current page size
func (p *Page) Viewport() viewer.Size {
	return p.viewport
}

// ScrollY returns the current scroll offset
func (p *Page) ScrollY() float64 {
	return p.scrollY
}

// Locked reports whether the viewer has frozen the page
func (p *Page) Locked() bool {
	return p.lock != nil
}

// ScrollBy scrolls the page by dy pixels. A locked page does not move.
func (p *Page) ScrollBy(dy float64) {
	if p.lock != nil {
		return
	}
	p.scrollY = p.clampScroll(p.scrollY + dy)
}

// ScrollTo brings item i fully into view with as little movement as
// possible
func (p *Page) ScrollTo(i int) {
	if p.lock != nil {
		return
	}
	r, ok := p.cellRect(i)
	if !ok {
		return
	}
	switch {
	case r.Top < pageHeader:
		p.scrollY = p.clampScroll(p.scrollY + r.Top - pageHeader)
	case r.Bottom() > p.viewport.H-p.gap:
		p.scrollY = p.clampScroll(p.scrollY + r.Bottom() - (p.viewport.H - p.gap))
	}
}

// LockScroll hides the scrollbar and stops scrolling. The width the
// scrollbar occupied is kept as padding so the grid does not reflow.
// Locking twice keeps the first snapshot.
func (p *Page) LockScroll() {
	if p.lock != nil {
		return
	}
	overflowing := p.overflows()
	p.lock = &scrollSnapshot{scrollY: p.scrollY, gutter: p.gutter}
	if overflowing {
		p.gutter += scrollbarWidth
	}
	klog.V(2).Infof("page scroll locked at %.0f", p.scrollY)
}

// UnlockScroll restores the state LockScroll found. The offset is only
// clamped when a resize while locked made it unreachable.
func (p *Page) UnlockScroll() {
	if p.lock == nil {
		return
	}
	snap := p.lock
	p.gutter = snap.gutter
	p.lock = nil
	p.scrollY = p.clampScroll(snap.scrollY)
	klog.V(2).Infof("page scroll restored to %.0f", p.scrollY)
}

// ScrollbarVisible reports whether the page draws its scrollbar
func (p *Page) ScrollbarVisible() bool {
	return p.lock == nil && p.overflows()
}

// Scrollbar returns the scrollbar thumb rectangle
func (p *Page) Scrollbar() (viewer.Rect, bool) {
	if !p.ScrollbarVisible() {
		return viewer.Rect{}, false
	}
	total := p.contentHeight(p.columns())
	h := math.Max(24, p.viewport.H*p.viewport.H/total)
	top := 0.0
	if m := p.maxScroll(); m > 0 {
		top = (p.viewport.H - h) * p.scrollY / m
	}
	return viewer.Rect{Left: p.viewport.W - scrollbarWidth, Top: top, Width: scrollbarWidth, Height: h}, true
}

// ThumbnailAt returns the item whose cell contains the page point
func (p *Page) ThumbnailAt(x, y float64) (int, bool) {
	first, last := p.VisibleRange()
	for i := first; i <= last; i++ {
		if r, ok := p.ThumbnailRect(i); ok && r.Contains(x, y) {
			return i, true
		}
	}
	return -1, false
}

// VisibleRange returns the first and last index with a cell at least
// partly on screen. last < first when nothing is visible.
func (p *Page) VisibleRange() (first, last int) {
	n := len(p.items)
	if n == 0 {
		return 0, -1
	}
	cols := p.columns()
	row := p.thumb + p.gap
	firstRow := int(math.Floor((p.scrollY - pageHeader) / row))
	lastRow := int(math.Floor((p.scrollY + p.viewport.H - pageHeader) / row))
	first = max(0, firstRow*cols)
	last = min(n-1, (lastRow+1)*cols-1)
	return first, last
}

// reserved is the width on the right not available to the grid
func (p *Page) reserved() float64 {
	if p.lock != nil {
		return p.gutter
	}
	if p.overflows() {
		return p.gutter + scrollbarWidth
	}
	return p.gutter
}

func (p *Page) columnsFor(width float64) int {
	usable := width - 2*pagePadding + p.gap
	return max(1, int(usable/(p.thumb+p.gap)))
}

func (p *Page) columns() int {
	return p.columnsFor(p.viewport.W - p.reserved())
}

func (p *Page) contentHeight(cols int) float64 {
	rows := (len(p.items) + cols - 1) / cols
	if rows == 0 {
		return pageHeader
	}
	return pageHeader + float64(rows)*p.thumb + float64(rows-1)*p.gap + pagePadding
}

// overflows decides scrollbar visibility against the narrower layout so
// the answer does not depend on itself
func (p *Page) overflows() bool {
	cols := p.columnsFor(p.viewport.W - p.gutter - scrollbarWidth)
	return p.contentHeight(cols) > p.viewport.H
}

func (p *Page) maxScroll() float64 {
	return math.Max(0, p.contentHeight(p.columns())-p.viewport.H)
}

func (p *Page) clampScroll(y float64) float64 {
	return math.Max(0, math.Min(p.maxScroll(), y))
}

// cellRect is the cell of item i in screen coordinates, visible or not
func (p *Page) cellRect(i int) (viewer.Rect, bool) {
	if i < 0 || i >= len(p.items) {
		return viewer.Rect{}, false
	}
	cols := p.columns()
	gridW := float64(cols)*p.thumb + float64(cols-1)*p.gap
	left := math.Round((p.viewport.W - p.reserved() - gridW) / 2)
	col, row := i%cols, i/cols
	return viewer.Rect{
		Left:   left + float64(col)*(p.thumb+p.gap),
		Top:    pageHeader + float64(row)*(p.thumb+p.gap) - p.scrollY,
		Width:  p.thumb,
		Height: p.thumb,
	}, true
}
