package effect

import (
	"fmt"
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/fxplay/internal/renderer/core"
)

// Colors that default terminal colors resolve to when blending.
var (
	fallbackFg = core.ColorFromRGB(229, 229, 229)
	fallbackBg = core.ColorBlack
)

// blend mixes from toward to in Lab space. The endpoints are returned
// unchanged so default colors survive a finished transition.
func blend(from, to core.Color, t float64, fallback core.Color) core.Color {
	switch {
	case t <= 0:
		return from
	case t >= 1:
		return to
	}
	a := from.Colorful(fallback)
	b := to.Colorful(fallback)
	return core.ColorFromColorful(a.BlendLab(b, t))
}

// Direction is the travel direction of sweeps and slides.
type Direction int

// Travel directions.
const (
	LeftToRight Direction = iota
	RightToLeft
	UpToDown
	DownToUp
)

var directionNames = map[string]Direction{
	"left_to_right": LeftToRight,
	"right_to_left": RightToLeft,
	"up_to_down":    UpToDown,
	"down_to_up":    DownToUp,
}

// ParseDirection converts a direction name such as "left_to_right".
func ParseDirection(s string) (Direction, error) {
	d, ok := directionNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown direction %q", s)
	}
	return d, nil
}

func (d Direction) String() string {
	for name, v := range directionNames {
		if v == d {
			return name
		}
	}
	return "unknown"
}

// distance returns how far (x, y) lies along d inside area, and the span
// of area along d.
func (d Direction) distance(x, y int, area core.ScreenRect) (dist, span int) {
	switch d {
	case RightToLeft:
		return area.Right - 1 - x, area.Width()
	case UpToDown:
		return y - area.Top, area.Height()
	case DownToUp:
		return area.Bottom - 1 - y, area.Height()
	default:
		return x - area.Left, area.Width()
	}
}

// shader paints one cell given the effect's eased progress.
type shader func(c *core.Cell, x, y int, area core.ScreenRect, alpha float64)

// cellEffect applies a shader to every cell of the area on each frame.
type cellEffect struct {
	timer  Timer
	shader shader
}

func (e *cellEffect) Process(elapsed time.Duration, buf *core.Buffer, area core.ScreenRect) time.Duration {
	overflow := e.timer.Advance(elapsed)
	alpha := e.timer.Alpha()
	region := area.Intersection(buf.Area())
	for y := region.Top; y < region.Bottom; y++ {
		for x := region.Left; x < region.Right; x++ {
			c := buf.CellAt(x, y)
			if c == nil || c.IsContinuation() {
				continue
			}
			e.shader(c, x, y, area, alpha)
		}
	}
	return overflow
}

func (e *cellEffect) Done() bool { return e.timer.Done() }
func (e *cellEffect) Reset()     { e.timer.Reset() }

// FadeFromFg fades foreground colors in from color.
func FadeFromFg(color core.Color, timer Timer) Effect {
	return &cellEffect{timer: timer, shader: func(c *core.Cell, _, _ int, _ core.ScreenRect, a float64) {
		c.Style.Foreground = blend(color, c.Style.Foreground, a, fallbackFg)
	}}
}

// FadeToFg fades foreground colors out to color.
func FadeToFg(color core.Color, timer Timer) Effect {
	return &cellEffect{timer: timer, shader: func(c *core.Cell, _, _ int, _ core.ScreenRect, a float64) {
		c.Style.Foreground = blend(c.Style.Foreground, color, a, fallbackFg)
	}}
}

// FadeFrom fades both foreground and background in from the given colors.
func FadeFrom(fg, bg core.Color, timer Timer) Effect {
	return &cellEffect{timer: timer, shader: func(c *core.Cell, _, _ int, _ core.ScreenRect, a float64) {
		c.Style.Foreground = blend(fg, c.Style.Foreground, a, fallbackFg)
		c.Style.Background = blend(bg, c.Style.Background, a, fallbackBg)
	}}
}

// FadeTo fades both foreground and background out to the given colors.
func FadeTo(fg, bg core.Color, timer Timer) Effect {
	return &cellEffect{timer: timer, shader: func(c *core.Cell, _, _ int, _ core.ScreenRect, a float64) {
		c.Style.Foreground = blend(c.Style.Foreground, fg, a, fallbackFg)
		c.Style.Background = blend(c.Style.Background, bg, a, fallbackBg)
	}}
}

// sweepReveal returns how far the cell at (x, y) has been revealed by a
// sweep front with a gradient of length gradient cells.
func sweepReveal(dir Direction, gradient, x, y int, area core.ScreenRect, alpha float64) float64 {
	g := float64(max(gradient, 1))
	dist, span := dir.distance(x, y, area)
	front := alpha * (float64(span) + g)
	return clamp01((front - float64(dist)) / g)
}

// cover blends a cell toward a solid color, hiding its glyph at reveal 0.
func cover(c *core.Cell, color core.Color, reveal float64) {
	c.Style.Foreground = blend(color, c.Style.Foreground, reveal, fallbackFg)
	c.Style.Background = blend(color, c.Style.Background, reveal, fallbackBg)
}

// SweepIn reveals the content behind a solid color, traveling in dir.
func SweepIn(dir Direction, gradient int, color core.Color, timer Timer) Effect {
	return &cellEffect{timer: timer, shader: func(c *core.Cell, x, y int, area core.ScreenRect, a float64) {
		cover(c, color, sweepReveal(dir, gradient, x, y, area, a))
	}}
}

// SweepOut hides the content behind a solid color, traveling in dir.
func SweepOut(dir Direction, gradient int, color core.Color, timer Timer) Effect {
	return &cellEffect{timer: timer, shader: func(c *core.Cell, x, y int, area core.ScreenRect, a float64) {
		cover(c, color, 1-sweepReveal(dir, gradient, x, y, area, a))
	}}
}

// slideEffect moves the content into place from outside the area.
type slideEffect struct {
	timer Timer
	dir   Direction
	color core.Color
}

// SlideIn slides the content in, traveling in dir. Uncovered cells are
// filled with color.
func SlideIn(dir Direction, color core.Color, timer Timer) Effect {
	return &slideEffect{timer: timer, dir: dir, color: color}
}

func (e *slideEffect) Process(elapsed time.Duration, buf *core.Buffer, area core.ScreenRect) time.Duration {
	overflow := e.timer.Advance(elapsed)
	region := area.Intersection(buf.Area())
	if region.IsEmpty() {
		return overflow
	}
	_, span := e.dir.distance(region.Left, region.Top, region)
	offset := int(math.Round((1 - e.timer.Alpha()) * float64(span)))
	if offset == 0 {
		return overflow
	}

	snap := buf.Clone()
	blank := core.EmptyCell()
	blank.Style = core.DefaultStyle().WithBackground(e.color).WithForeground(e.color)
	for y := region.Top; y < region.Bottom; y++ {
		for x := region.Left; x < region.Right; x++ {
			sx, sy := x, y
			switch e.dir {
			case LeftToRight:
				sx = x + offset
			case RightToLeft:
				sx = x - offset
			case UpToDown:
				sy = y + offset
			case DownToUp:
				sy = y - offset
			}
			if region.Contains(sx, sy) {
				buf.SetCell(x, y, snap.Cell(sx, sy))
			} else {
				buf.SetCell(x, y, blank)
			}
		}
	}
	return overflow
}

func (e *slideEffect) Done() bool { return e.timer.Done() }
func (e *slideEffect) Reset()     { e.timer.Reset() }

// threshold returns a stable pseudo-random value in [0, 1) for a cell.
func threshold(x, y int, seed uint32) float64 {
	h := uint32(x)*73856093 ^ uint32(y)*19349663 ^ seed*83492791
	h ^= h >> 13
	h *= 0x5bd1e995
	h ^= h >> 15
	return float64(h%1000) / 1000
}

// hide makes the glyph of a cell invisible by matching its background.
func hide(c *core.Cell) {
	c.Style.Foreground = c.Style.Background.Resolve(fallbackBg)
}

// Dissolve hides cells one by one in a stable random order.
func Dissolve(seed uint32, timer Timer) Effect {
	return &cellEffect{timer: timer, shader: func(c *core.Cell, x, y int, area core.ScreenRect, a float64) {
		if a > 0 && threshold(x-area.Left, y-area.Top, seed) < a {
			hide(c)
		}
	}}
}

// Coalesce reveals cells one by one in a stable random order.
func Coalesce(seed uint32, timer Timer) Effect {
	return &cellEffect{timer: timer, shader: func(c *core.Cell, x, y int, area core.ScreenRect, a float64) {
		if a < 1 && threshold(x-area.Left, y-area.Top, seed) >= a {
			hide(c)
		}
	}}
}

// HSL is a hue, saturation and lightness delta. Hue is in degrees,
// saturation and lightness in [-1, 1].
type HSL struct {
	H, S, L float64
}

// IsZero reports whether the delta changes nothing.
func (h HSL) IsZero() bool {
	return h.H == 0 && h.S == 0 && h.L == 0
}

func (h HSL) shift(c, fallback core.Color, alpha float64) core.Color {
	hue, sat, light := c.Colorful(fallback).Hsl()
	hue = math.Mod(hue+h.H*alpha, 360)
	if hue < 0 {
		hue += 360
	}
	sat = clamp01(sat + h.S*alpha)
	light = clamp01(light + h.L*alpha)
	return core.ColorFromColorful(colorful.Hsl(hue, sat, light))
}

// HSLShift rotates foreground and background colors through HSL space.
func HSLShift(fg, bg HSL, timer Timer) Effect {
	return &cellEffect{timer: timer, shader: func(c *core.Cell, _, _ int, _ core.ScreenRect, a float64) {
		if a <= 0 {
			return
		}
		if !fg.IsZero() {
			c.Style.Foreground = fg.shift(c.Style.Foreground, fallbackFg, a)
		}
		if !bg.IsZero() {
			c.Style.Background = bg.shift(c.Style.Background, fallbackBg, a)
		}
	}}
}

// sleepEffect does nothing for its duration.
type sleepEffect struct {
	timer Timer
}

// Sleep waits for the timer without painting.
func Sleep(timer Timer) Effect {
	return &sleepEffect{timer: timer}
}

func (e *sleepEffect) Process(elapsed time.Duration, _ *core.Buffer, _ core.ScreenRect) time.Duration {
	return e.timer.Advance(elapsed)
}

func (e *sleepEffect) Done() bool { return e.timer.Done() }
func (e *sleepEffect) Reset()     { e.timer.Reset() }
