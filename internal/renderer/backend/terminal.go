package backend

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/fxplay/internal/renderer/core"
)

// Terminal draws on a tcell screen.
type Terminal struct {
	mu       sync.Mutex
	screen   tcell.Screen
	onResize func(width, height int)
}

// NewTerminal opens the controlling terminal.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

// NewTerminalWithScreen wraps an existing tcell screen, such as a
// simulation screen.
func NewTerminalWithScreen(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.HideCursor()
	return nil
}

func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Fini()
}

func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen.Size()
}

func (t *Terminal) OnResize(callback func(width, height int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onResize = callback
}

func (t *Terminal) SetCell(x, y int, cell core.Cell) {
	// tcell fills the second column of a wide rune itself.
	if cell.IsContinuation() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.SetContent(x, y, cell.Rune, cell.Combining, toTcellStyle(cell.Style))
}

func (t *Terminal) GetCell(x, y int) core.Cell {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, comb, style, width := t.screen.GetContent(x, y) //nolint:staticcheck // GetContent is the correct API
	return core.Cell{Rune: r, Combining: comb, Width: width, Style: fromTcellStyle(style)}
}

func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Clear()
}

func (t *Terminal) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Show()
}

// PollEvent returns EventInterrupt once the screen has been shut down.
func (t *Terminal) PollEvent() Event {
	switch ev := t.screen.PollEvent().(type) {
	case nil:
		return Event{Type: EventInterrupt}
	case *tcell.EventKey:
		return Event{Type: EventKey, Key: fromTcellKey(ev.Key()), Rune: ev.Rune()}
	case *tcell.EventResize:
		w, h := ev.Size()
		t.mu.Lock()
		fn := t.onResize
		t.mu.Unlock()
		if fn != nil {
			fn(w, h)
		}
		return Event{Type: EventResize, Width: w, Height: h}
	case *tcell.EventInterrupt:
		return Event{Type: EventInterrupt}
	default:
		return Event{Type: EventNone}
	}
}

func (t *Terminal) PostEvent(event Event) {
	var ev tcell.Event
	switch event.Type {
	case EventKey:
		ev = tcell.NewEventKey(toTcellKey(event.Key), event.Rune, tcell.ModNone)
	case EventResize:
		ev = tcell.NewEventResize(event.Width, event.Height)
	case EventInterrupt:
		ev = tcell.NewEventInterrupt(nil)
	default:
		return
	}
	_ = t.screen.PostEvent(ev) // full queue drops the event
}

var attrTable = []struct {
	ours  core.Attribute
	tcell tcell.AttrMask
}{
	{core.AttrBold, tcell.AttrBold},
	{core.AttrDim, tcell.AttrDim},
	{core.AttrItalic, tcell.AttrItalic},
	{core.AttrUnderline, tcell.AttrUnderline},
	{core.AttrBlink, tcell.AttrBlink},
	{core.AttrReverse, tcell.AttrReverse},
	{core.AttrStrikethrough, tcell.AttrStrikeThrough},
}

var keyTable = []struct {
	ours  Key
	tcell tcell.Key
}{
	{KeyRune, tcell.KeyRune},
	{KeyEscape, tcell.KeyEscape},
	{KeyEnter, tcell.KeyEnter},
	{KeyCtrlC, tcell.KeyCtrlC},
}

func toTcellStyle(s core.Style) tcell.Style {
	var mask tcell.AttrMask
	for _, a := range attrTable {
		if s.Attributes.Has(a.ours) {
			mask |= a.tcell
		}
	}
	style := tcell.StyleDefault.Attributes(mask)
	if !s.Foreground.IsDefault() {
		style = style.Foreground(toTcellColor(s.Foreground))
	}
	if !s.Background.IsDefault() {
		style = style.Background(toTcellColor(s.Background))
	}
	return style
}

func fromTcellStyle(ts tcell.Style) core.Style {
	fg, bg, mask := ts.Decompose()
	s := core.Style{
		Foreground: fromTcellColor(fg),
		Background: fromTcellColor(bg),
	}
	for _, a := range attrTable {
		if mask&a.tcell != 0 {
			s.Attributes |= a.ours
		}
	}
	return s
}

// Effects blend in RGB. tcell downsamples to the terminal's palette.
func toTcellColor(c core.Color) tcell.Color {
	if c.Indexed {
		return tcell.PaletteColor(int(c.R))
	}
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func fromTcellColor(tc tcell.Color) core.Color {
	switch {
	case tc == tcell.ColorDefault:
		return core.ColorDefault
	case tc >= tcell.ColorValid && tc < tcell.ColorIsRGB:
		return core.ColorFromIndex(uint8(tc - tcell.ColorValid))
	}
	r, g, b := tc.RGB()
	return core.ColorFromRGB(uint8(r), uint8(g), uint8(b))
}

func fromTcellKey(k tcell.Key) Key {
	for _, e := range keyTable {
		if e.tcell == k {
			return e.ours
		}
	}
	return KeyNone
}

func toTcellKey(k Key) tcell.Key {
	for _, e := range keyTable {
		if e.ours == k {
			return e.tcell
		}
	}
	return tcell.KeyNUL
}
