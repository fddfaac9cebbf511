// Package backend provides the terminal backends and the frame driver that
// hosts renderer surfaces.
package backend

import (
	"sync"

	"github.com/dshills/fxplay/internal/renderer/core"
)

// EventType identifies the type of terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventResize
	// EventInterrupt wakes a blocked PollEvent. Backends also return it
	// once they have been shut down.
	EventInterrupt
)

// Event is a key press, a resize or an interrupt.
type Event struct {
	Type EventType

	Key  Key
	Rune rune // set when Key is KeyRune

	Width, Height int // set for EventResize
}

// Key is a keyboard key the playground reacts to.
type Key int

const (
	KeyNone Key = iota
	KeyRune
	KeyEscape
	KeyEnter
	KeyCtrlC
)

// Backend is a display the driver draws frames onto.
type Backend interface {
	// Init prepares the display. Must be called before any other method.
	Init() error

	// Shutdown releases the display and restores the terminal.
	Shutdown()

	// Size returns the display size in cells.
	Size() (width, height int)

	// OnResize registers the callback invoked when the display size changes.
	OnResize(callback func(width, height int))

	// SetCell and GetCell ignore positions outside the display.
	SetCell(x, y int, cell core.Cell)
	GetCell(x, y int) core.Cell

	// Clear blanks the display.
	Clear()

	// Show presents everything drawn since the previous Show.
	Show()

	// PollEvent blocks until the next event.
	PollEvent() Event

	// PostEvent queues a synthetic event, dropping it if the queue is full.
	PostEvent(event Event)
}

// NullBackend keeps the screen in memory. Headless runs draw on it and tests
// read it back with Lines and GetCell. It is safe for concurrent use.
type NullBackend struct {
	mu       sync.Mutex
	screen   *core.Buffer
	onResize func(width, height int)
	shows    int
	events   chan Event
}

// NewNullBackend creates an in-memory screen of the given size. Events
// posted before Init are kept.
func NewNullBackend(width, height int) *NullBackend {
	return &NullBackend{
		screen: core.NewBufferSize(width, height),
		events: make(chan Event, 100),
	}
}

func (b *NullBackend) Init() error {
	b.Clear()
	return nil
}

func (b *NullBackend) Shutdown() {}

func (b *NullBackend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.screen.Size()
}

func (b *NullBackend) OnResize(callback func(width, height int)) {
	b.mu.Lock()
	b.onResize = callback
	b.mu.Unlock()
}

func (b *NullBackend) SetCell(x, y int, cell core.Cell) {
	b.mu.Lock()
	b.screen.SetCell(x, y, cell)
	b.mu.Unlock()
}

func (b *NullBackend) GetCell(x, y int) core.Cell {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.screen.Cell(x, y)
}

func (b *NullBackend) Clear() {
	b.mu.Lock()
	b.screen.Reset()
	b.mu.Unlock()
}

func (b *NullBackend) Show() {
	b.mu.Lock()
	b.shows++
	b.mu.Unlock()
}

func (b *NullBackend) PollEvent() Event {
	return <-b.events
}

func (b *NullBackend) PostEvent(event Event) {
	select {
	case b.events <- event:
	default:
	}
}

// ShowCount returns how many frames have been presented.
func (b *NullBackend) ShowCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shows
}

// Lines returns the screen as plain text, one string per row.
func (b *NullBackend) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.screen.Lines()
}

// Resize changes the screen size, clears it and notifies the resize
// callback the way a terminal would.
func (b *NullBackend) Resize(width, height int) {
	b.mu.Lock()
	b.screen.Resize(core.RectFromSize(0, 0, height, width))
	fn := b.onResize
	b.mu.Unlock()

	if fn != nil {
		fn(width, height)
	}
}
