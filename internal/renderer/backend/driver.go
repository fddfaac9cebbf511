package backend

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/fxplay/internal/renderer/core"
)

// DefaultFPS is the frame rate used when none is configured.
const DefaultFPS = 60

// Frame is the drawing target handed to a frame callback.
type Frame struct {
	buffer *core.Buffer
	count  uint64
}

// NewFrame wraps a buffer as a frame. Used by tests that drive sessions
// without a driver.
func NewFrame(buffer *core.Buffer) *Frame {
	return &Frame{buffer: buffer}
}

// Buffer returns the frame buffer. It persists between frames, so a callback
// that does not draw leaves the previous frame on screen.
func (f *Frame) Buffer() *core.Buffer {
	return f.buffer
}

// Area returns the full drawable area of the frame.
func (f *Frame) Area() core.ScreenRect {
	return f.buffer.Area()
}

// Count returns the driver frame number.
func (f *Frame) Count() uint64 {
	return f.count
}

// FrameFunc draws one frame. It is called once per display refresh and must
// not block.
type FrameFunc func(f *Frame)

// LayoutFunc computes container regions for a screen size.
type LayoutFunc func(width, height int) map[string]core.ScreenRect

type frameEntry struct {
	surface *Surface
	draw    FrameFunc
}

// Driver owns the screen and invokes every registered frame callback once
// per frame, serially, on the goroutine that calls RenderFrame or Run.
//
// Callbacks cannot be unregistered once installed; callers that need to stop
// drawing must mute their callback.
type Driver struct {
	backend *BufferedBackend
	fps     int
	metrics CellMetrics
	layout  LayoutFunc
	observe func(time.Duration)

	mu         sync.Mutex
	containers map[string]core.ScreenRect
	entries    []*frameEntry
	pending    *[2]int
	relayout   bool

	frames atomic.Uint64
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithFPS sets the frame rate used by Run.
func WithFPS(fps int) DriverOption {
	return func(d *Driver) {
		if fps > 0 {
			d.fps = fps
		}
	}
}

// WithCellMetrics sets the static font atlas metrics.
func WithCellMetrics(m CellMetrics) DriverOption {
	return func(d *Driver) {
		d.metrics = m
	}
}

// WithLayout installs a layout function that is re-evaluated on resize.
func WithLayout(fn LayoutFunc) DriverOption {
	return func(d *Driver) {
		d.layout = fn
	}
}

// WithFrameObserver calls fn with the duration of every rendered frame.
func WithFrameObserver(fn func(time.Duration)) DriverOption {
	return func(d *Driver) {
		d.observe = fn
	}
}

// NewDriver creates a driver drawing to b.
func NewDriver(b Backend, opts ...DriverOption) *Driver {
	d := &Driver{
		backend:    NewBufferedBackend(b),
		fps:        DefaultFPS,
		metrics:    DefaultCellMetrics,
		containers: make(map[string]core.ScreenRect),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init initializes the backend and computes the initial layout.
func (d *Driver) Init() error {
	if err := d.backend.Init(); err != nil {
		return err
	}
	d.backend.OnResize(d.requestResize)

	w, h := d.backend.Size()
	d.mu.Lock()
	d.applyLayoutLocked(w, h)
	d.mu.Unlock()
	return nil
}

// Shutdown releases the backend.
func (d *Driver) Shutdown() {
	d.backend.Shutdown()
}

// Backend returns the buffered backend the driver draws to.
func (d *Driver) Backend() *BufferedBackend {
	return d.backend
}

// FPS returns the configured frame rate.
func (d *Driver) FPS() int {
	return d.fps
}

// Frames returns the number of frames rendered so far.
func (d *Driver) Frames() uint64 {
	return d.frames.Load()
}

// SetContainer adds or moves a container.
func (d *Driver) SetContainer(id string, rect core.ScreenRect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.containers[id] = rect
	d.relayout = true
}

// Containers returns a copy of the current container layout.
func (d *Driver) Containers() map[string]core.ScreenRect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return maps.Clone(d.containers)
}

// NewSurface creates a surface in the named container.
func (d *Driver) NewSurface(opts SurfaceOptions) (*Surface, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	container, ok := d.containers[opts.ContainerID]
	d.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrContainerNotFound, opts.ContainerID)
	}

	return newSurface(opts, container, d.metrics), nil
}

// DrawEach registers fn to be called once per frame for surface s.
// There is no way to unregister it.
func (d *Driver) DrawEach(s *Surface, fn FrameFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, &frameEntry{surface: s, draw: fn})
}

// requestResize records a resize; it is applied at the start of the next frame.
func (d *Driver) requestResize(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = &[2]int{width, height}
}

func (d *Driver) applyLayoutLocked(width, height int) {
	if d.layout != nil {
		d.containers = d.layout(width, height)
	}
	d.relayout = true
}

// RenderFrame runs every frame callback once and presents the result.
func (d *Driver) RenderFrame() {
	start := time.Now()
	d.mu.Lock()
	resized := d.pending
	d.pending = nil
	if resized != nil {
		d.applyLayoutLocked(resized[0], resized[1])
	}
	relayout := d.relayout
	d.relayout = false
	containers := d.containers
	entries := make([]*frameEntry, len(d.entries))
	copy(entries, d.entries)
	d.mu.Unlock()

	if resized != nil {
		d.backend.Resize(resized[0], resized[1])
	}
	screen := d.backend.Buffer().Back()
	if relayout {
		screen.Reset()
		for _, e := range entries {
			if rect, ok := containers[e.surface.ContainerID()]; ok {
				e.surface.relayout(rect)
			}
		}
	}

	count := d.frames.Add(1)
	for _, e := range entries {
		e.draw(&Frame{buffer: e.surface.buffer, count: count})
		e.surface.present(screen)
	}
	d.backend.Show()

	if d.observe != nil {
		d.observe(time.Since(start))
	}
}

// Run renders frames at the configured rate until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	return d.run(ctx, 0)
}

// RunFrames renders n frames at the configured rate, or fewer if ctx is
// cancelled first.
func (d *Driver) RunFrames(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	return d.run(ctx, n)
}

func (d *Driver) run(ctx context.Context, limit int) error {
	ticker := time.NewTicker(time.Second / time.Duration(d.fps))
	defer ticker.Stop()

	rendered := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.RenderFrame()
			rendered++
			if limit > 0 && rendered >= limit {
				return nil
			}
		}
	}
}
