package main

import (
	"testing"
	"time"
)

type clickStep struct {
	pressX, pressY     float64
	releaseX, releaseY float64
	after              time.Duration
	wantClick          bool
	wantDouble         bool
}

func TestClickTracker(t *testing.T) {
	tests := []struct {
		name  string
		steps []clickStep
	}{
		{
			name: "Single click",
			steps: []clickStep{
				{10, 10, 10, 10, 0, true, false},
			},
		},
		{
			name: "Double click",
			steps: []clickStep{
				{10, 10, 10, 10, 0, true, false},
				{12, 11, 12, 11, 200 * time.Millisecond, true, true},
			},
		},
		{
			name: "Third click starts over",
			steps: []clickStep{
				{10, 10, 10, 10, 0, true, false},
				{10, 10, 10, 10, 100 * time.Millisecond, true, true},
				{10, 10, 10, 10, 100 * time.Millisecond, true, false},
			},
		},
		{
			name: "Too slow",
			steps: []clickStep{
				{10, 10, 10, 10, 0, true, false},
				{10, 10, 10, 10, 400 * time.Millisecond, true, false},
			},
		},
		{
			name: "Too far apart",
			steps: []clickStep{
				{10, 10, 10, 10, 0, true, false},
				{40, 10, 40, 10, 100 * time.Millisecond, true, false},
			},
		},
		{
			name: "Drag is not a click",
			steps: []clickStep{
				{10, 10, 10, 10, 0, true, false},
				{10, 10, 30, 10, 100 * time.Millisecond, false, false},
				{30, 10, 30, 10, 100 * time.Millisecond, true, false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClickTracker(GetDefaultMouseSettings())
			now := time.Unix(1000, 0)
			for i, s := range tt.steps {
				now = now.Add(s.after)
				c.Press(s.pressX, s.pressY)
				click, double := c.Release(s.releaseX, s.releaseY, now)
				if click != s.wantClick || double != s.wantDouble {
					t.Errorf("step %d: Release() = %v, %v, want %v, %v", i, click, double, s.wantClick, s.wantDouble)
				}
			}
		})
	}
}

func TestClickTrackerDragging(t *testing.T) {
	c := NewClickTracker(GetDefaultMouseSettings())

	if c.Move(50, 50) {
		t.Errorf("Move() without a press reported a drag")
	}
	if click, _ := c.Release(0, 0, time.Now()); click {
		t.Errorf("Release() without a press reported a click")
	}

	c.Press(0, 0)
	if c.Move(3, 4) {
		t.Errorf("Move(3, 4) is within the threshold but reported a drag")
	}
	if !c.Move(6, 0) {
		t.Errorf("Move(6, 0) past the threshold did not report a drag")
	}
	if !c.Move(0, 0) || !c.Dragging() {
		t.Errorf("moving back did not keep the drag")
	}
	c.Release(0, 0, time.Now())
	if c.Dragging() {
		t.Errorf("Dragging() after release = true")
	}
}

func TestWheelDelta(t *testing.T) {
	tests := []struct {
		name     string
		settings MouseSettings
		dy       float64
		want     float64
	}{
		{"Default", MouseSettings{WheelSensitivity: 1}, 1, 1},
		{"Sensitive", MouseSettings{WheelSensitivity: 2.5}, -2, -5},
		{"Inverted", MouseSettings{WheelSensitivity: 1, WheelInverted: true}, 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.settings.WheelDelta(tt.dy); got != tt.want {
				t.Errorf("WheelDelta(%v) = %v, want %v", tt.dy, got, tt.want)
			}
		})
	}
}

func TestValidateMouseSettings(t *testing.T) {
	def := GetDefaultMouseSettings()

	tests := []struct {
		name  string
		input MouseSettings
		want  MouseSettings
	}{
		{
			name:  "Valid",
			input: MouseSettings{WheelSensitivity: 2, DoubleClickTime: 500, DragThreshold: 10, WheelInverted: true, ScrollStep: 80},
			want:  MouseSettings{WheelSensitivity: 2, DoubleClickTime: 500, DragThreshold: 10, WheelInverted: true, ScrollStep: 80},
		},
		{
			name:  "Zero values",
			input: MouseSettings{},
			want:  def,
		},
		{
			name:  "Out of range",
			input: MouseSettings{WheelSensitivity: 11, DoubleClickTime: 5000, DragThreshold: 100, ScrollStep: -1},
			want:  def,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.input
			validateMouseSettings(&got)
			if got != tt.want {
				t.Errorf("validateMouseSettings(%+v) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}
