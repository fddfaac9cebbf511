package backend

import (
	"github.com/dshills/fxplay/internal/renderer/core"
)

// ScreenBuffer holds what is on the display (front) and what the next
// frame will show (back). Surfaces draw into the back buffer; ComputeDiff
// reports the cells that differ.
type ScreenBuffer struct {
	front, back *core.Buffer
	invalid     bool
	changes     []DiffChange
}

// NewScreenBuffer creates a screen buffer. The first diff covers every cell.
func NewScreenBuffer(width, height int) *ScreenBuffer {
	return &ScreenBuffer{
		front:   core.NewBufferSize(width, height),
		back:    core.NewBufferSize(width, height),
		invalid: true,
	}
}

// Resize keeps the back buffer's content inside the new bounds and forces a
// full redraw.
func (sb *ScreenBuffer) Resize(width, height int) {
	if w, h := sb.back.Size(); w == width && h == height {
		return
	}
	prev := sb.back
	sb.back = core.NewBufferSize(width, height)
	sb.front = core.NewBufferSize(width, height)
	core.Blit(prev, sb.back, 0, 0)
	sb.invalid = true
}

func (sb *ScreenBuffer) Size() (width, height int) {
	return sb.back.Size()
}

// Back returns the buffer the next frame is drawn into.
func (sb *ScreenBuffer) Back() *core.Buffer {
	return sb.back
}

// DiffChange is one cell to write to the display.
type DiffChange struct {
	X, Y int
	Cell core.Cell
}

// ComputeDiff returns the cells that changed since the last Sync. The
// returned slice is reused by the next call.
func (sb *ScreenBuffer) ComputeDiff() []DiffChange {
	sb.changes = sb.changes[:0]
	area := sb.back.Area()
	for y := area.Top; y < area.Bottom; y++ {
		for x := area.Left; x < area.Right; x++ {
			c := sb.back.Cell(x, y)
			if sb.invalid || !c.Equals(sb.front.Cell(x, y)) {
				sb.changes = append(sb.changes, DiffChange{X: x, Y: y, Cell: c})
			}
		}
	}
	return sb.changes
}

// Sync records the back buffer as displayed.
func (sb *ScreenBuffer) Sync() {
	core.Blit(sb.back, sb.front, 0, 0)
	sb.invalid = false
}

// MarkFullRedraw makes the next diff cover every cell.
func (sb *ScreenBuffer) MarkFullRedraw() {
	sb.invalid = true
}

// BufferedBackend draws into a ScreenBuffer and forwards only changed cells
// to the wrapped backend on Show. Drawing methods must be called from one
// goroutine; events pass straight through.
type BufferedBackend struct {
	Backend
	buffer *ScreenBuffer
}

// NewBufferedBackend wraps b.
func NewBufferedBackend(b Backend) *BufferedBackend {
	width, height := b.Size()
	return &BufferedBackend{Backend: b, buffer: NewScreenBuffer(width, height)}
}

func (b *BufferedBackend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	b.buffer.Resize(b.Backend.Size())
	b.buffer.MarkFullRedraw()
	return nil
}

// Resize resizes the drawing buffers. Resize notifications arrive on the
// event goroutine, so the driver hands them over at the next frame.
func (b *BufferedBackend) Resize(width, height int) {
	b.buffer.Resize(width, height)
}

func (b *BufferedBackend) Size() (int, int) {
	return b.buffer.Size()
}

func (b *BufferedBackend) SetCell(x, y int, cell core.Cell) {
	b.buffer.back.SetCell(x, y, cell)
}

func (b *BufferedBackend) GetCell(x, y int) core.Cell {
	return b.buffer.back.Cell(x, y)
}

func (b *BufferedBackend) Clear() {
	b.buffer.back.Reset()
}

// Show writes the changed cells and presents them.
func (b *BufferedBackend) Show() {
	for _, ch := range b.buffer.ComputeDiff() {
		b.Backend.SetCell(ch.X, ch.Y, ch.Cell)
	}
	b.buffer.Sync()
	b.Backend.Show()
}

// Buffer returns the screen buffer frames are drawn into.
func (b *BufferedBackend) Buffer() *ScreenBuffer {
	return b.buffer
}
