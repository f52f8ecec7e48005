package main

import (
	"math"
	"time"
)

// MouseSettings contains mouse-specific configuration
type MouseSettings struct {
	WheelSensitivity float64 `koanf:"wheel_sensitivity" yaml:"wheel_sensitivity"`
	DoubleClickTime  int     `koanf:"double_click_time" yaml:"double_click_time"` // milliseconds
	DragThreshold    int     `koanf:"drag_threshold" yaml:"drag_threshold"`       // pixels
	WheelInverted    bool    `koanf:"wheel_inverted" yaml:"wheel_inverted"`
	ScrollStep       float64 `koanf:"scroll_step" yaml:"scroll_step"` // page pixels per wheel notch
}

// GetDefaultMouseSettings returns the default mouse settings
func GetDefaultMouseSettings() MouseSettings {
	return MouseSettings{
		WheelSensitivity: 1.0,
		DoubleClickTime:  300,
		DragThreshold:    5,
		WheelInverted:    false,
		ScrollStep:       60,
	}
}

func validateMouseSettings(s *MouseSettings) {
	def := GetDefaultMouseSettings()
	if s.WheelSensitivity <= 0 || s.WheelSensitivity > 10 {
		s.WheelSensitivity = def.WheelSensitivity
	}
	if s.DoubleClickTime < 100 || s.DoubleClickTime > 1000 {
		s.DoubleClickTime = def.DoubleClickTime
	}
	if s.DragThreshold < 1 || s.DragThreshold > 50 {
		s.DragThreshold = def.DragThreshold
	}
	if s.ScrollStep <= 0 {
		s.ScrollStep = def.ScrollStep
	}
}

// WheelDelta applies inversion and sensitivity to a raw vertical wheel
// delta. Positive means away from the user.
func (s MouseSettings) WheelDelta(dy float64) float64 {
	if s.WheelInverted {
		dy = -dy
	}
	return dy * s.WheelSensitivity
}

// ClickTracker turns left-button presses and releases into clicks and
// double clicks. A press that travels further than the drag threshold
// before release is a drag, not a click.
type ClickTracker struct {
	settings MouseSettings

	pressed        bool
	dragged        bool
	pressX, pressY float64

	lastClickTime time.Time
	lastX, lastY  float64
	clickCount    int
}

// NewClickTracker creates a tracker using the given settings
func NewClickTracker(settings MouseSettings) *ClickTracker {
	return &ClickTracker{settings: settings}
}

// UpdateSettings replaces the thresholds for subsequent clicks
func (c *ClickTracker) UpdateSettings(settings MouseSettings) {
	c.settings = settings
}

// Press records a button press at (x, y)
func (c *ClickTracker) Press(x, y float64) {
	c.pressed = true
	c.dragged = false
	c.pressX, c.pressY = x, y
}

// Move records pointer movement and reports whether the current press has
// become a drag
func (c *ClickTracker) Move(x, y float64) bool {
	if !c.pressed {
		return false
	}
	if !c.dragged && math.Hypot(x-c.pressX, y-c.pressY) > float64(c.settings.DragThreshold) {
		c.dragged = true
	}
	return c.dragged
}

// Release ends the press. click is true when the press did not become a
// drag; double is true when it is the second click in quick succession
// near the first.
func (c *ClickTracker) Release(x, y float64, now time.Time) (click, double bool) {
	if !c.pressed {
		return false, false
	}
	c.Move(x, y)
	c.pressed = false
	if c.dragged {
		c.clickCount = 0
		return false, false
	}

	window := time.Duration(c.settings.DoubleClickTime) * time.Millisecond
	near := math.Hypot(x-c.lastX, y-c.lastY) <= float64(c.settings.DragThreshold)*2
	if c.clickCount == 1 && near && now.Sub(c.lastClickTime) <= window {
		c.clickCount = 0
		c.lastClickTime = now
		return true, true
	}

	c.clickCount = 1
	c.lastClickTime = now
	c.lastX, c.lastY = x, y
	return true, false
}

// Dragging reports whether the button is held and has moved past the
// threshold
func (c *ClickTracker) Dragging() bool {
	return c.pressed && c.dragged
}
