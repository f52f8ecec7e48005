package main

import (
	"math"

	"lightbox/internal/viewer"
)

// Viewer control layout
const (
	chromeButtonSize = 44.0
	chromeMargin     = 16.0
	chromeGap        = 8.0
)

// Metadata panel layout
const (
	panelPadX       = 12.0
	panelPadY       = 8.0
	panelLineHeight = 18.0
	panelChipGap    = 14.0
	panelRowGap     = 4.0
)

// chromeButton is one on-screen viewer control
type chromeButton struct {
	Action string
	Label  string
	Rect   viewer.Rect
}

// chromeButtons lays out the viewer controls for a viewport: close in the
// top right corner, previous and next on the side edges and the zoom and
// rotate tools centered along the bottom
func chromeButtons(vp viewer.Size) []chromeButton {
	square := func(left, top float64) viewer.Rect {
		return viewer.Rect{Left: left, Top: top, Width: chromeButtonSize, Height: chromeButtonSize}
	}
	mid := vp.H/2 - chromeButtonSize/2
	buttons := []chromeButton{
		{"close", "X", square(vp.W-chromeMargin-chromeButtonSize, chromeMargin)},
		{"previous", "<", square(chromeMargin, mid)},
		{"next", ">", square(vp.W-chromeMargin-chromeButtonSize, mid)},
	}

	tools := []struct{ action, label string }{
		{"zoom_out", "-"},
		{"zoom_original", "1:1"},
		{"zoom_in", "+"},
		{"rotate", "R"},
	}
	total := float64(len(tools))*chromeButtonSize + float64(len(tools)-1)*chromeGap
	left := math.Round((vp.W - total) / 2)
	top := vp.H - chromeMargin - chromeButtonSize
	for i, t := range tools {
		buttons = append(buttons, chromeButton{t.action, t.label, square(left+float64(i)*(chromeButtonSize+chromeGap), top)})
	}
	return buttons
}

// chromeActionAt returns the action of the control containing (x, y)
func chromeActionAt(vp viewer.Size, x, y float64) (string, bool) {
	for _, b := range chromeButtons(vp) {
		if b.Rect.Contains(x, y) {
			return b.Action, true
		}
	}
	return "", false
}

// panelChip is one metadata entry placed inside the panel, relative to
// the panel's top left corner
type panelChip struct {
	Text string
	X, Y float64
}

func panelChipText(f viewer.MetaField) string {
	if f.Key == "location" {
		return "@ " + f.Value
	}
	return f.Value
}

// layoutPanel flows the metadata entries into centered rows that fit
// width and returns them with the panel height they need
func layoutPanel(fields []viewer.MetaField, width float64, textWidth func(string) float64) ([]panelChip, float64) {
	if len(fields) == 0 {
		return nil, 0
	}
	inner := width - 2*panelPadX

	type placed struct {
		text string
		w    float64
	}
	var rows [][]placed
	var row []placed
	used := 0.0
	for _, f := range fields {
		s := panelChipText(f)
		w := textWidth(s)
		need := w
		if len(row) > 0 {
			need += panelChipGap
		}
		if len(row) > 0 && used+need > inner {
			rows = append(rows, row)
			row, used, need = nil, 0, w
		}
		row = append(row, placed{s, w})
		used += need
	}
	rows = append(rows, row)

	var chips []panelChip
	for r, items := range rows {
		rowW := -panelChipGap
		for _, it := range items {
			rowW += it.w + panelChipGap
		}
		x := panelPadX + math.Max(0, (inner-rowW)/2)
		y := panelPadY + float64(r)*(panelLineHeight+panelRowGap)
		for _, it := range items {
			chips = append(chips, panelChip{Text: it.text, X: x, Y: y})
			x += it.w + panelChipGap
		}
	}
	height := 2*panelPadY + float64(len(rows))*panelLineHeight + float64(len(rows)-1)*panelRowGap
	return chips, height
}

// panelMeasurer adapts layoutPanel to the viewer's measuring callback
func panelMeasurer(textWidth func(string) float64) viewer.PanelMeasurer {
	return func(fields []viewer.MetaField, width float64) float64 {
		_, h := layoutPanel(fields, width, textWidth)
		return h
	}
}
