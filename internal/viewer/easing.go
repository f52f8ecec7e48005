package viewer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Easing maps linear progress in [0,1] to eased progress
type Easing func(t float64) float64

// Curves used by the viewer's transitions
var (
	EaseOpen    = CubicBezier(0.2, 0.8, 0.2, 1)
	EaseClose   = CubicBezier(0.4, 0, 0.2, 1)
	EaseSwipe   = CubicBezier(0.25, 0.1, 0.25, 1)
	EaseSettle  = CubicBezier(0.22, 0.61, 0.36, 1)
	EaseFadeOut = CubicBezier(0.4, 0, 1, 1)
	EaseDefault = CubicBezier(0.25, 0.1, 0.25, 1)
	Linear      = Easing(func(t float64) float64 { return t })
)

// CubicBezier builds a CSS-style timing function with control points
// (x1,y1) and (x2,y2); the end points are fixed at (0,0) and (1,1).
func CubicBezier(x1, y1, x2, y2 float64) Easing {
	x1 = clamp(x1, 0, 1)
	x2 = clamp(x2, 0, 1)

	cx := 3 * x1
	bx := 3*(x2-x1) - cx
	ax := 1 - cx - bx
	cy := 3 * y1
	by := 3*(y2-y1) - cy
	ay := 1 - cy - by

	sampleX := func(s float64) float64 { return ((ax*s+bx)*s + cx) * s }
	sampleY := func(s float64) float64 { return ((ay*s+by)*s + cy) * s }
	slopeX := func(s float64) float64 { return (3*ax*s+2*bx)*s + cx }

	return func(t float64) float64 {
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}

		// Newton-Raphson first, bisection when the slope flattens out
		s := t
		for i := 0; i < 8; i++ {
			x := sampleX(s) - t
			if math.Abs(x) < 1e-6 {
				return sampleY(s)
			}
			d := slopeX(s)
			if math.Abs(d) < 1e-6 {
				break
			}
			s -= x / d
		}

		lo, hi := 0.0, 1.0
		s = t
		for i := 0; i < 32; i++ {
			x := sampleX(s)
			if math.Abs(x-t) < 1e-6 {
				break
			}
			if x < t {
				lo = s
			} else {
				hi = s
			}
			s = (lo + hi) / 2
		}
		return sampleY(s)
	}
}

// ParseEasing understands the keyword curves and cubic-bezier(a, b, c, d)
func ParseEasing(expr string) (Easing, error) {
	s := strings.TrimSpace(strings.ToLower(expr))
	switch s {
	case "linear":
		return Linear, nil
	case "ease", "":
		return EaseDefault, nil
	case "ease-in":
		return CubicBezier(0.42, 0, 1, 1), nil
	case "ease-out":
		return CubicBezier(0, 0, 0.58, 1), nil
	case "ease-in-out":
		return CubicBezier(0.42, 0, 0.58, 1), nil
	}

	if !strings.HasPrefix(s, "cubic-bezier(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("unknown easing %q", expr)
	}
	args := strings.Split(strings.TrimSuffix(strings.TrimPrefix(s, "cubic-bezier("), ")"), ",")
	if len(args) != 4 {
		return nil, fmt.Errorf("cubic-bezier needs 4 arguments, got %d", len(args))
	}
	var p [4]float64
	for i, a := range args {
		v, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
		if err != nil {
			return nil, fmt.Errorf("cubic-bezier argument %d: %w", i+1, err)
		}
		p[i] = v
	}
	if p[0] < 0 || p[0] > 1 || p[2] < 0 || p[2] > 1 {
		return nil, fmt.Errorf("cubic-bezier x values must be within [0,1]: %q", expr)
	}
	return CubicBezier(p[0], p[1], p[2], p[3]), nil
}
