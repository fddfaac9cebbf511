// Package ansi converts text containing ANSI SGR escape sequences into
// styled lines that can be rendered onto a cell buffer.
package ansi

import (
	"strings"

	"github.com/dshills/fxplay/internal/renderer/core"
)

// Span is a run of text sharing one style.
type Span struct {
	Text  string
	Style core.Style
}

// Line is one row of styled text.
type Line struct {
	Spans []Span
}

// Width returns the display width of the line.
func (l Line) Width() int {
	w := 0
	for _, s := range l.Spans {
		w += core.StringWidth(s.Text)
	}
	return w
}

// String returns the unstyled text of the line.
func (l Line) String() string {
	var sb strings.Builder
	for _, s := range l.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Text is parsed ANSI content.
type Text struct {
	Lines []Line
}

// Height returns the number of lines.
func (t *Text) Height() int {
	return len(t.Lines)
}

// Width returns the display width of the widest line.
func (t *Text) Width() int {
	w := 0
	for _, l := range t.Lines {
		w = max(w, l.Width())
	}
	return w
}

// Bounds returns the minimal grid that holds the text, anchored at the origin.
func (t *Text) Bounds() core.ScreenRect {
	return core.RectFromSize(0, 0, t.Height(), t.Width())
}

// Render writes the text into buf starting at the top-left of the buffer
// area. Cells falling outside the buffer are dropped.
func (t *Text) Render(buf *core.Buffer) {
	area := buf.Area()
	for i, line := range t.Lines {
		y := area.Top + i
		if y >= area.Bottom {
			return
		}
		x := area.Left
		for _, span := range line.Spans {
			x = buf.SetString(x, y, span.Text, span.Style)
		}
	}
}
