package ansi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dshills/fxplay/internal/renderer/core"
)

// ErrMalformed is wrapped by every ParseError.
var ErrMalformed = errors.New("malformed ANSI input")

// ParseError describes where and why parsing failed.
type ParseError struct {
	Offset int    // Byte offset into the input
	Reason string // Human-readable cause
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ansi: %s at byte %d", e.Reason, e.Offset)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformed
}

// DefaultTabWidth is the tab stop interval used by NewParser.
const DefaultTabWidth = 8

// Parser converts ANSI text into styled lines.
// The zero value is not usable; use NewParser.
type Parser struct {
	tabWidth int
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithTabWidth sets the tab stop interval. Values below 1 are ignored.
func WithTabWidth(n int) ParserOption {
	return func(p *Parser) {
		if n > 0 {
			p.tabWidth = n
		}
	}
}

// NewParser creates a parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{tabWidth: DefaultTabWidth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses s with a default parser.
func Parse(s string) (*Text, error) {
	return NewParser().Parse(s)
}

// parseState accumulates output while scanning.
type parseState struct {
	lines []Line
	cur   Line
	text  strings.Builder
	style core.Style
	col   int
}

func (st *parseState) flushSpan() {
	if st.text.Len() == 0 {
		return
	}
	st.cur.Spans = append(st.cur.Spans, Span{Text: st.text.String(), Style: st.style})
	st.text.Reset()
}

func (st *parseState) newline() {
	st.flushSpan()
	st.lines = append(st.lines, st.cur)
	st.cur = Line{}
	st.col = 0
}

// Parse converts s into styled lines. Styles carry across line breaks.
// A single trailing newline does not start an extra line.
func (p *Parser) Parse(s string) (*Text, error) {
	if !utf8.ValidString(s) {
		return nil, &ParseError{Offset: invalidUTF8Offset(s), Reason: "invalid UTF-8"}
	}

	st := &parseState{style: core.DefaultStyle()}
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == 0x1B:
			next, err := p.escape(s, i, st)
			if err != nil {
				return nil, err
			}
			i = next
			continue
		case c == '\n':
			st.newline()
		case c == '\t':
			n := p.tabWidth - st.col%p.tabWidth
			st.text.WriteString(strings.Repeat(" ", n))
			st.col += n
		case c < 0x20 || c == 0x7F:
			// Other control characters carry no glyph.
		default:
			r, size := utf8.DecodeRuneInString(s[i:])
			st.text.WriteRune(r)
			st.col += core.RuneWidth(r)
			i += size
			continue
		}
		i++
	}

	if st.text.Len() > 0 || len(st.cur.Spans) > 0 {
		st.newline()
	}
	return &Text{Lines: st.lines}, nil
}

// escape consumes one escape sequence starting at s[i] and returns the
// offset after it.
func (p *Parser) escape(s string, i int, st *parseState) (int, error) {
	if i+1 >= len(s) {
		return 0, &ParseError{Offset: i, Reason: "dangling escape"}
	}
	switch s[i+1] {
	case '[':
		return p.csi(s, i, st)
	case ']':
		return osc(s, i)
	case '(', ')', '*', '+':
		// Character set designation: ESC ( B
		if i+2 >= len(s) {
			return 0, &ParseError{Offset: i, Reason: "unterminated charset designation"}
		}
		return i + 3, nil
	default:
		if b := s[i+1]; b >= 0x30 && b <= 0x7E {
			return i + 2, nil
		}
		return 0, &ParseError{Offset: i, Reason: fmt.Sprintf("unexpected byte %#x after escape", s[i+1])}
	}
}

// csi consumes a control sequence. Only SGR (final byte 'm') affects output.
func (p *Parser) csi(s string, start int, st *parseState) (int, error) {
	j := start + 2
	paramsStart := j
	for j < len(s) && s[j] >= 0x30 && s[j] <= 0x3F {
		j++
	}
	paramsEnd := j
	for j < len(s) && s[j] >= 0x20 && s[j] <= 0x2F {
		j++
	}
	if j >= len(s) {
		return 0, &ParseError{Offset: start, Reason: "unterminated control sequence"}
	}
	final := s[j]
	if final < 0x40 || final > 0x7E {
		return 0, &ParseError{Offset: j, Reason: fmt.Sprintf("invalid control sequence byte %#x", final)}
	}
	if final == 'm' {
		style, err := applySGR(st.style, s[paramsStart:paramsEnd])
		if err != nil {
			return 0, &ParseError{Offset: start, Reason: err.Error()}
		}
		if !style.Equals(st.style) {
			st.flushSpan()
			st.style = style
		}
	}
	return j + 1, nil
}

// osc consumes an operating system command terminated by BEL or ST.
func osc(s string, start int) (int, error) {
	for j := start + 2; j < len(s); j++ {
		switch s[j] {
		case 0x07:
			return j + 1, nil
		case 0x1B:
			if j+1 < len(s) && s[j+1] == '\\' {
				return j + 2, nil
			}
		}
	}
	return 0, &ParseError{Offset: start, Reason: "unterminated operating system command"}
}

// applySGR folds the SGR parameter string over style.
func applySGR(style core.Style, params string) (core.Style, error) {
	if params == "" {
		return core.DefaultStyle(), nil
	}
	if strings.ContainsAny(params, "<=>?") {
		// Private-mode parameters do not set graphic rendition.
		return style, nil
	}

	// Colon sub-parameters are treated like semicolons; empty means 0.
	fields := strings.Split(strings.ReplaceAll(params, ":", ";"), ";")
	codes := make([]int, len(fields))
	for k, f := range fields {
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n > 65535 {
			return style, fmt.Errorf("invalid SGR parameter %q", f)
		}
		codes[k] = n
	}

	for k := 0; k < len(codes); k++ {
		code := codes[k]
		switch {
		case code == 0:
			style = core.DefaultStyle()
		case code == 1:
			style.Attributes = style.Attributes.With(core.AttrBold)
		case code == 2:
			style.Attributes = style.Attributes.With(core.AttrDim)
		case code == 3:
			style.Attributes = style.Attributes.With(core.AttrItalic)
		case code == 4:
			style.Attributes = style.Attributes.With(core.AttrUnderline)
		case code == 5 || code == 6:
			style.Attributes = style.Attributes.With(core.AttrBlink)
		case code == 7:
			style.Attributes = style.Attributes.With(core.AttrReverse)
		case code == 8:
			style.Attributes = style.Attributes.With(core.AttrHidden)
		case code == 9:
			style.Attributes = style.Attributes.With(core.AttrStrikethrough)
		case code == 21 || code == 22:
			style.Attributes = style.Attributes.Without(core.AttrBold).Without(core.AttrDim)
		case code == 23:
			style.Attributes = style.Attributes.Without(core.AttrItalic)
		case code == 24:
			style.Attributes = style.Attributes.Without(core.AttrUnderline)
		case code == 25:
			style.Attributes = style.Attributes.Without(core.AttrBlink)
		case code == 27:
			style.Attributes = style.Attributes.Without(core.AttrReverse)
		case code == 28:
			style.Attributes = style.Attributes.Without(core.AttrHidden)
		case code == 29:
			style.Attributes = style.Attributes.Without(core.AttrStrikethrough)
		case code >= 30 && code <= 37:
			style.Foreground = core.ColorFromIndex(uint8(code - 30))
		case code == 38:
			c, used, err := extendedColor(codes[k+1:])
			if err != nil {
				return style, err
			}
			style.Foreground = c
			k += used
		case code == 39:
			style.Foreground = core.ColorDefault
		case code >= 40 && code <= 47:
			style.Background = core.ColorFromIndex(uint8(code - 40))
		case code == 48:
			c, used, err := extendedColor(codes[k+1:])
			if err != nil {
				return style, err
			}
			style.Background = c
			k += used
		case code == 49:
			style.Background = core.ColorDefault
		case code >= 90 && code <= 97:
			style.Foreground = core.ColorFromIndex(uint8(code - 90 + 8))
		case code >= 100 && code <= 107:
			style.Background = core.ColorFromIndex(uint8(code - 100 + 8))
		default:
			// Unsupported renditions (fonts, frames, overline) are ignored.
		}
	}
	return style, nil
}

// extendedColor decodes the arguments following 38 or 48 and returns the
// number of parameters consumed.
func extendedColor(args []int) (core.Color, int, error) {
	if len(args) == 0 {
		return core.Color{}, 0, errors.New("missing extended color mode")
	}
	switch args[0] {
	case 5:
		if len(args) < 2 || args[1] > 255 {
			return core.Color{}, 0, errors.New("malformed 256-color parameter")
		}
		return core.ColorFromIndex(uint8(args[1])), 2, nil
	case 2:
		if len(args) < 4 || args[1] > 255 || args[2] > 255 || args[3] > 255 {
			return core.Color{}, 0, errors.New("malformed true-color parameter")
		}
		return core.ColorFromRGB(uint8(args[1]), uint8(args[2]), uint8(args[3])), 4, nil
	default:
		return core.Color{}, 0, fmt.Errorf("unknown extended color mode %d", args[0])
	}
}

func invalidUTF8Offset(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(s)
}
