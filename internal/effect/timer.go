package effect

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Interpolation maps linear progress in [0, 1] onto eased progress.
type Interpolation func(t float64) float64

// interpolations holds the easing curves addressable by name from effect
// sources.
var interpolations = map[string]Interpolation{
	"linear":      func(t float64) float64 { return t },
	"quad_in":     func(t float64) float64 { return t * t },
	"quad_out":    func(t float64) float64 { return t * (2 - t) },
	"quad_in_out": quadInOut,
	"cubic_in":    func(t float64) float64 { return t * t * t },
	"cubic_out": func(t float64) float64 {
		u := t - 1
		return u*u*u + 1
	},
	"cubic_in_out": cubicInOut,
	"sine_in":      func(t float64) float64 { return 1 - math.Cos(t*math.Pi/2) },
	"sine_out":     func(t float64) float64 { return math.Sin(t * math.Pi / 2) },
	"sine_in_out":  func(t float64) float64 { return -(math.Cos(math.Pi*t) - 1) / 2 },
	"expo_in": func(t float64) float64 {
		if t == 0 {
			return 0
		}
		return math.Pow(2, 10*t-10)
	},
	"expo_out": func(t float64) float64 {
		if t == 1 {
			return 1
		}
		return 1 - math.Pow(2, -10*t)
	},
	"circ_in":    func(t float64) float64 { return 1 - math.Sqrt(1-t*t) },
	"circ_out":   func(t float64) float64 { return math.Sqrt(1 - (t-1)*(t-1)) },
	"back_out":   backOut,
	"bounce_out": bounceOut,
}

func quadInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

func cubicInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

func backOut(t float64) float64 {
	const c1 = 1.70158
	const c3 = c1 + 1
	return 1 + c3*math.Pow(t-1, 3) + c1*math.Pow(t-1, 2)
}

func bounceOut(t float64) float64 {
	const n1, d1 = 7.5625, 2.75
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

// Linear is the identity interpolation.
func Linear(t float64) float64 { return t }

// LookupInterpolation returns the easing curve registered under name.
func LookupInterpolation(name string) (Interpolation, error) {
	fn, ok := interpolations[name]
	if !ok {
		return nil, fmt.Errorf("unknown interpolation %q", name)
	}
	return fn, nil
}

// Interpolations returns the sorted names of all easing curves.
func Interpolations() []string {
	names := make([]string, 0, len(interpolations))
	for name := range interpolations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Timer tracks progress through a fixed duration.
type Timer struct {
	duration time.Duration
	elapsed  time.Duration
	interp   Interpolation
}

// NewTimer creates a timer. A nil interpolation means Linear.
func NewTimer(d time.Duration, interp Interpolation) Timer {
	if d < 0 {
		d = 0
	}
	if interp == nil {
		interp = Linear
	}
	return Timer{duration: d, interp: interp}
}

// Millis creates a linear timer of ms milliseconds.
func Millis(ms int) Timer {
	return NewTimer(time.Duration(ms)*time.Millisecond, Linear)
}

// Duration returns the total duration.
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Advance moves the timer forward by d and returns the time left over
// past the end of the duration.
func (t *Timer) Advance(d time.Duration) time.Duration {
	if d < 0 {
		d = 0
	}
	t.elapsed += d
	if t.elapsed > t.duration {
		overflow := t.elapsed - t.duration
		t.elapsed = t.duration
		return overflow
	}
	return 0
}

// Done reports whether the full duration has elapsed.
func (t *Timer) Done() bool {
	return t.elapsed >= t.duration
}

// Alpha returns eased progress in [0, 1].
func (t *Timer) Alpha() float64 {
	if t.duration <= 0 {
		return 1
	}
	p := float64(t.elapsed) / float64(t.duration)
	return clamp01(t.interp(clamp01(p)))
}

// Reset rewinds the timer to the start.
func (t *Timer) Reset() {
	t.elapsed = 0
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
