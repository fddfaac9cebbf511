package backend

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/dshills/fxplay/internal/renderer/core"
)

// Surface errors.
var (
	// ErrContainerNotFound indicates the requested container is not part of the layout.
	ErrContainerNotFound = errors.New("container not found")

	// ErrInvalidSize indicates a negative grid size.
	ErrInvalidSize = errors.New("invalid surface size")

	// ErrInvalidFont indicates an unusable dynamic font configuration.
	ErrInvalidFont = errors.New("invalid font configuration")
)

// CellMetrics is the pixel size of one terminal cell in the font atlas.
type CellMetrics struct {
	Width  int
	Height int
}

// DefaultCellMetrics matches the bundled static font atlas.
var DefaultCellMetrics = CellMetrics{Width: 10, Height: 19}

// DefaultFontSize is used when font families are given without a size.
const DefaultFontSize = 16.0

// FontAtlasConfig selects a dynamic font atlas. A zero value selects the
// static atlas.
type FontAtlasConfig struct {
	Families []string
	Size     float64
}

// IsDynamic reports whether a dynamic atlas was requested.
func (f FontAtlasConfig) IsDynamic() bool {
	return len(f.Families) > 0
}

// Metrics returns the cell metrics of the atlas.
func (f FontAtlasConfig) Metrics(static CellMetrics) CellMetrics {
	if !f.IsDynamic() {
		return static
	}
	size := f.Size
	if size <= 0 {
		size = DefaultFontSize
	}
	return CellMetrics{
		Width:  int(math.Ceil(size*0.6)) + 2,
		Height: int(math.Ceil(size*1.2)) + 2,
	}
}

// CanvasPixelSize returns the pixel size of a grid of cols x rows cells.
// Each cell contributes its metrics minus a two pixel atlas border.
func CanvasPixelSize(cols, rows int, m CellMetrics) (width, height int) {
	return cols * max(m.Width-2, 0), rows * max(m.Height-2, 0)
}

// SurfaceOptions configures a renderer surface.
type SurfaceOptions struct {
	// ContainerID names the layout region hosting the surface.
	ContainerID string

	// Columns and Rows set the grid size. Zero uses the container size.
	Columns int
	Rows    int

	// PaddingColor, when set, paints container cells outside the grid.
	PaddingColor *core.Color

	// Font selects the font atlas used for pixel size calculations.
	Font FontAtlasConfig

	// AutoResize makes the grid follow its container when the layout changes.
	AutoResize bool
}

// Validate checks the options for values no backend can honor.
func (o SurfaceOptions) Validate() error {
	if o.Columns < 0 || o.Rows < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, o.Columns, o.Rows)
	}
	if o.Font.IsDynamic() {
		if o.Font.Size < 0 || math.IsNaN(o.Font.Size) || math.IsInf(o.Font.Size, 0) {
			return fmt.Errorf("%w: size %v", ErrInvalidFont, o.Font.Size)
		}
		for _, fam := range o.Font.Families {
			if fam == "" {
				return fmt.Errorf("%w: empty font family", ErrInvalidFont)
			}
		}
	}
	return nil
}

// Surface is the drawable region of one renderer instance. Its buffer uses
// surface-local coordinates with the origin at the top-left cell; the driver
// places it inside the container when presenting.
type Surface struct {
	opts    SurfaceOptions
	metrics CellMetrics

	// buffer is only touched from the frame goroutine.
	buffer *core.Buffer

	mu        sync.Mutex
	container core.ScreenRect
	area      core.ScreenRect
}

func newSurface(opts SurfaceOptions, container core.ScreenRect, static CellMetrics) *Surface {
	cols, rows := opts.Columns, opts.Rows
	if cols == 0 && rows == 0 {
		cols, rows = container.Size()
	}
	area := core.RectFromSize(0, 0, rows, cols)
	return &Surface{
		opts:      opts,
		metrics:   opts.Font.Metrics(static),
		buffer:    core.NewBuffer(area),
		container: container,
		area:      area,
	}
}

// ContainerID returns the container hosting the surface.
func (s *Surface) ContainerID() string {
	return s.opts.ContainerID
}

// Options returns the options the surface was created with.
func (s *Surface) Options() SurfaceOptions {
	return s.opts
}

// Area returns the local drawable area.
func (s *Surface) Area() core.ScreenRect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.area
}

// Container returns the screen region hosting the surface.
func (s *Surface) Container() core.ScreenRect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.container
}

// Metrics returns the font atlas cell metrics.
func (s *Surface) Metrics() CellMetrics {
	return s.metrics
}

// PixelSize returns the canvas size in pixels for the current grid.
func (s *Surface) PixelSize() (width, height int) {
	cols, rows := s.Area().Size()
	return CanvasPixelSize(cols, rows, s.metrics)
}

// paddingCell returns the cell painted outside the grid.
func (s *Surface) paddingCell() core.Cell {
	cell := core.EmptyCell()
	if s.opts.PaddingColor != nil {
		cell.Style = cell.Style.WithBackground(*s.opts.PaddingColor)
	}
	return cell
}

// relayout moves the surface into a new container. Must be called from the
// frame goroutine.
func (s *Surface) relayout(container core.ScreenRect) {
	s.mu.Lock()
	s.container = container
	resize := s.opts.AutoResize
	if resize {
		s.area = core.RectFromSize(0, 0, container.Height(), container.Width())
	}
	area := s.area
	s.mu.Unlock()

	if resize && area != s.buffer.Area() {
		s.buffer.Resize(area)
	}
}

// present copies the surface into dst at its container, clipped to the
// container, and pads the uncovered container cells.
func (s *Surface) present(dst *core.Buffer) {
	container := s.Container()
	dst.Fill(container, s.paddingCell())

	src := s.buffer.Area()
	for y := src.Top; y < src.Bottom; y++ {
		for x := src.Left; x < src.Right; x++ {
			sx, sy := x+container.Left, y+container.Top
			if container.Contains(sx, sy) {
				dst.SetCell(sx, sy, s.buffer.Cell(x, y))
			}
		}
	}
}
