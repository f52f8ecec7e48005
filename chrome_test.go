package main

import (
	"testing"

	"lightbox/internal/viewer"
)

func TestChromeActionAt(t *testing.T) {
	vp := viewer.Size{W: 800, H: 600}

	tests := []struct {
		name   string
		x, y   float64
		want   string
		wantOK bool
	}{
		{"Close", 760, 30, "close", true},
		{"Previous", 30, 300, "previous", true},
		{"Next", 770, 300, "next", true},
		{"Zoom out", 320, 560, "zoom_out", true},
		{"Original size", 370, 560, "zoom_original", true},
		{"Zoom in", 420, 560, "zoom_in", true},
		{"Rotate", 470, 560, "rotate", true},
		{"Image area", 400, 300, "", false},
		{"Between tools", 348, 560, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := chromeActionAt(vp, tt.x, tt.y)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("chromeActionAt(%v, %v) = %q, %v, want %q, %v", tt.x, tt.y, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestChromeButtonsHaveActions(t *testing.T) {
	descriptions := GetActionDescriptions()
	for _, b := range chromeButtons(viewer.Size{W: 1024, H: 768}) {
		if _, ok := descriptions[b.Action]; !ok {
			t.Errorf("button %q runs unknown action %q", b.Label, b.Action)
		}
	}
}

func fixedWidth(s string) float64 {
	return float64(len(s)) * 7
}

func TestLayoutPanel(t *testing.T) {
	fields := viewer.Metadata{Camera: "Canon EOS R5", ISO: "ISO 400", Location: "Kyoto"}.Fields()

	tests := []struct {
		name       string
		width      float64
		wantHeight float64
		wantChips  []panelChip
	}{
		{
			name:       "One row",
			width:      400,
			wantHeight: 34,
			wantChips: []panelChip{
				{Text: "Canon EOS R5", X: 95, Y: 8},
				{Text: "ISO 400", X: 193, Y: 8},
				{Text: "@ Kyoto", X: 256, Y: 8},
			},
		},
		{
			name:       "Wraps",
			width:      150,
			wantHeight: 56,
			wantChips: []panelChip{
				{Text: "Canon EOS R5", X: 33, Y: 8},
				{Text: "ISO 400", X: 19, Y: 30},
				{Text: "@ Kyoto", X: 82, Y: 30},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chips, h := layoutPanel(fields, tt.width, fixedWidth)
			if h != tt.wantHeight {
				t.Errorf("height = %v, want %v", h, tt.wantHeight)
			}
			if len(chips) != len(tt.wantChips) {
				t.Fatalf("chips = %+v, want %+v", chips, tt.wantChips)
			}
			for i := range chips {
				if chips[i] != tt.wantChips[i] {
					t.Errorf("chip %d = %+v, want %+v", i, chips[i], tt.wantChips[i])
				}
			}
			if got := panelMeasurer(fixedWidth)(fields, tt.width); got != tt.wantHeight {
				t.Errorf("panelMeasurer = %v, want %v", got, tt.wantHeight)
			}
		})
	}

	if chips, h := layoutPanel(nil, 400, fixedWidth); chips != nil || h != 0 {
		t.Errorf("layoutPanel(nil) = %v, %v, want nil, 0", chips, h)
	}
}
