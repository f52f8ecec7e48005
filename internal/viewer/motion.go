package viewer

import (
	"fmt"
	"math"
	"time"
)

// MotionSettings is the user-facing description of the open/close motion.
// Durations and delays are in milliseconds.
type MotionSettings struct {
	OpenDuration         float64
	CloseDuration        float64
	OverlayOpenDuration  float64
	OverlayCloseDuration float64
	OverlayOpenDelay     float64
	OverlayCloseDelay    float64
	OpenEasing           string
	CloseEasing          string
}

// Motion is the resolved open/close motion
type Motion struct {
	OpenDuration         time.Duration
	CloseDuration        time.Duration
	OverlayOpenDuration  time.Duration
	OverlayCloseDuration time.Duration
	OverlayOpenDelay     time.Duration
	OverlayCloseDelay    time.Duration
	OpenEasing           Easing
	CloseEasing          Easing
}

const (
	defaultOpenEasing  = "cubic-bezier(0.2, 0.8, 0.2, 1)"
	defaultCloseEasing = "cubic-bezier(0.4, 0, 0.2, 1)"
)

// DefaultMotionSettings returns the stock motion
func DefaultMotionSettings() MotionSettings {
	return MotionSettings{
		OpenDuration:         380,
		CloseDuration:        300,
		OverlayOpenDuration:  240,
		OverlayCloseDuration: 200,
		OverlayOpenDelay:     0,
		OverlayCloseDelay:    0,
		OpenEasing:           defaultOpenEasing,
		CloseEasing:          defaultCloseEasing,
	}
}

// DefaultMotion returns DefaultMotionSettings resolved
func DefaultMotion() Motion {
	m, _ := DefaultMotionSettings().Resolve()
	return m
}

// ClampMillis clamps a millisecond value into [lo, hi]. Values that are not
// finite numbers yield fallback.
func ClampMillis(v, lo, hi, fallback float64) time.Duration {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = fallback
	}
	v = clamp(v, lo, hi)
	return time.Duration(v * float64(time.Millisecond))
}

// Resolve clamps every duration into its allowed range and parses the
// easing curves. Unparseable curves fall back to the defaults and are
// reported as warnings.
func (ms MotionSettings) Resolve() (Motion, []string) {
	var warnings []string
	m := Motion{
		OpenDuration:         ClampMillis(ms.OpenDuration, 260, 560, 380),
		CloseDuration:        ClampMillis(ms.CloseDuration, 220, 480, 300),
		OverlayOpenDuration:  ClampMillis(ms.OverlayOpenDuration, 160, 360, 240),
		OverlayCloseDuration: ClampMillis(ms.OverlayCloseDuration, 140, 320, 200),
		OverlayOpenDelay:     ClampMillis(ms.OverlayOpenDelay, 0, 80, 0),
		OverlayCloseDelay:    ClampMillis(ms.OverlayCloseDelay, 0, 80, 0),
	}

	parse := func(name, expr, fallback string) Easing {
		if expr == "" {
			expr = fallback
		}
		e, err := ParseEasing(expr)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v, using %s", name, err, fallback))
			e, _ = ParseEasing(fallback)
		}
		return e
	}
	m.OpenEasing = parse("open_easing", ms.OpenEasing, defaultOpenEasing)
	m.CloseEasing = parse("close_easing", ms.CloseEasing, defaultCloseEasing)
	return m, warnings
}

// Segment is the timing of one sub-animation
type Segment struct {
	Duration time.Duration
	Delay    time.Duration
	Ease     Easing
}

// Transition carries the timing of both halves of an open or close: the
// flip ghost and the backdrop fade are always driven from one descriptor.
type Transition struct {
	Ghost   Segment
	Overlay Segment
}

// OpenTransition describes the thumbnail-to-fullscreen motion
func (m Motion) OpenTransition() Transition {
	return Transition{
		Ghost:   Segment{Duration: m.OpenDuration, Ease: m.OpenEasing},
		Overlay: Segment{Duration: m.OverlayOpenDuration, Delay: m.OverlayOpenDelay, Ease: m.OpenEasing},
	}
}

// CloseTransition describes the fullscreen-to-thumbnail motion
func (m Motion) CloseTransition() Transition {
	return Transition{
		Ghost:   Segment{Duration: m.CloseDuration, Ease: m.CloseEasing},
		Overlay: Segment{Duration: m.OverlayCloseDuration, Delay: m.OverlayCloseDelay, Ease: m.CloseEasing},
	}
}
