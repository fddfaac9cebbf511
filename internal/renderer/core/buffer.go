package core

import "strings"

// Buffer is a rectangular grid of cells covering Area.
// Coordinates passed to Buffer methods are absolute, not relative to Area.
type Buffer struct {
	area  ScreenRect
	cells []Cell
}

// NewBuffer creates a buffer filled with empty cells.
func NewBuffer(area ScreenRect) *Buffer {
	b := &Buffer{}
	b.Resize(area)
	return b
}

// NewBufferSize creates a buffer of the given size anchored at the origin.
func NewBufferSize(width, height int) *Buffer {
	return NewBuffer(RectFromSize(0, 0, max(height, 0), max(width, 0)))
}

// Area returns the region the buffer covers.
func (b *Buffer) Area() ScreenRect {
	return b.area
}

// Size returns the buffer dimensions.
func (b *Buffer) Size() (width, height int) {
	return b.area.Size()
}

// Resize reallocates the buffer to cover area, discarding its contents.
func (b *Buffer) Resize(area ScreenRect) {
	if area.IsEmpty() {
		area = ScreenRect{Top: area.Top, Left: area.Left, Bottom: area.Top, Right: area.Left}
	}
	b.area = area
	n := area.Width() * area.Height()
	if cap(b.cells) >= n {
		b.cells = b.cells[:n]
	} else {
		b.cells = make([]Cell, n)
	}
	b.Reset()
}

// Reset fills every cell with an empty cell.
func (b *Buffer) Reset() {
	empty := EmptyCell()
	for i := range b.cells {
		b.cells[i] = empty
	}
}

func (b *Buffer) index(x, y int) (int, bool) {
	if !b.area.Contains(x, y) {
		return 0, false
	}
	return (y-b.area.Top)*b.area.Width() + (x - b.area.Left), true
}

// Cell returns the cell at (x, y). Positions outside the area return an empty cell.
func (b *Buffer) Cell(x, y int) Cell {
	if i, ok := b.index(x, y); ok {
		return b.cells[i]
	}
	return EmptyCell()
}

// CellAt returns a pointer to the cell at (x, y) for in-place mutation,
// or nil when the position is outside the area.
func (b *Buffer) CellAt(x, y int) *Cell {
	if i, ok := b.index(x, y); ok {
		return &b.cells[i]
	}
	return nil
}

// SetCell sets the cell at (x, y). Positions outside the area are ignored.
func (b *Buffer) SetCell(x, y int, c Cell) {
	if i, ok := b.index(x, y); ok {
		b.cells[i] = c
	}
}

// Fill sets every cell of rect (clipped to the area) to c.
func (b *Buffer) Fill(rect ScreenRect, c Cell) {
	rect = rect.Intersection(b.area)
	for y := rect.Top; y < rect.Bottom; y++ {
		for x := rect.Left; x < rect.Right; x++ {
			b.SetCell(x, y, c)
		}
	}
}

// SetString writes s starting at (x, y) one grapheme cluster per cell,
// adding continuation cells after wide clusters. Returns the column after
// the last written cell.
func (b *Buffer) SetString(x, y int, s string, style Style) int {
	col := x
	EachCluster(s, func(cluster string) {
		cell := ClusterCell(cluster, style)
		b.SetCell(col, y, cell)
		col++
		if cell.Width == 2 {
			cont := ContinuationCell()
			cont.Style = style
			b.SetCell(col, y, cont)
			col++
		}
	})
	return col
}

// Equals reports whether two buffers cover the same area with identical cells.
func (b *Buffer) Equals(other *Buffer) bool {
	if b.area != other.area || len(b.cells) != len(other.cells) {
		return false
	}
	for i := range b.cells {
		if !b.cells[i].Equals(other.cells[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{area: b.area, cells: make([]Cell, len(b.cells))}
	copy(out.cells, b.cells)
	return out
}

// Lines returns the buffer contents as plain text, one string per row,
// skipping continuation cells.
func (b *Buffer) Lines() []string {
	lines := make([]string, 0, b.area.Height())
	var sb strings.Builder
	for y := b.area.Top; y < b.area.Bottom; y++ {
		sb.Reset()
		for x := b.area.Left; x < b.area.Right; x++ {
			c := b.Cell(x, y)
			if c.IsContinuation() {
				continue
			}
			sb.WriteString(c.Symbol())
		}
		lines = append(lines, sb.String())
	}
	return lines
}

// Blit copies every cell of src into dst, offset by (dx, dy).
// Cells that land outside dst's area are not copied.
func Blit(src, dst *Buffer, dx, dy int) {
	area := src.area
	for y := area.Top; y < area.Bottom; y++ {
		for x := area.Left; x < area.Right; x++ {
			dst.SetCell(x+dx, y+dy, src.Cell(x, y))
		}
	}
}
