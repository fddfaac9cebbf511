package playground

import (
	"fmt"
	"slices"
	"time"

	"github.com/dshills/fxplay/internal/renderer/backend"
	"github.com/dshills/fxplay/internal/renderer/core"
)

// RendererConfig describes a renderer to create. Build it with
// NewRendererConfig and the With methods; each returns an updated copy.
type RendererConfig struct {
	containerID  string
	dsl          string
	canvas       string
	replay       bool
	replayPause  time.Duration
	fontFamilies []string
	fontSize     float64
	padding      *uint32
	autoResize   bool
}

// NewRendererConfig starts a configuration for the given container.
func NewRendererConfig(containerID string) RendererConfig {
	return RendererConfig{containerID: containerID}
}

// WithDSL sets the initial effect source.
func (c RendererConfig) WithDSL(src string) RendererConfig {
	c.dsl = src
	return c
}

// WithCanvas sets the initial ANSI canvas content. The renderer grid is
// sized to fit it.
func (c RendererConfig) WithCanvas(ansiText string) RendererConfig {
	c.canvas = ansiText
	return c
}

// WithSleepBetweenReplay replays every effect forever, pausing d between
// runs.
func (c RendererConfig) WithSleepBetweenReplay(d time.Duration) RendererConfig {
	c.replay = true
	c.replayPause = d
	return c
}

// WithDynamicFontAtlas selects font families and a size for the cell
// metrics. A size of zero uses the default size.
func (c RendererConfig) WithDynamicFontAtlas(families []string, size float64) RendererConfig {
	c.fontFamilies = slices.Clone(families)
	c.fontSize = size
	return c
}

// WithCanvasPaddingColor paints container cells outside the grid with a
// packed 0xRRGGBB color.
func (c RendererConfig) WithCanvasPaddingColor(packed uint32) RendererConfig {
	c.padding = &packed
	return c
}

// WithAutoResizeCanvasCSS makes the grid follow its container on resize.
func (c RendererConfig) WithAutoResizeCanvasCSS(enabled bool) RendererConfig {
	c.autoResize = enabled
	return c
}

// ContainerID returns the container the renderer is placed in.
func (c RendererConfig) ContainerID() string { return c.containerID }

// DSL returns the initial effect source.
func (c RendererConfig) DSL() string { return c.dsl }

// Canvas returns the initial canvas content.
func (c RendererConfig) Canvas() string { return c.canvas }

// SleepBetweenReplay returns the replay pause and whether replay is enabled.
func (c RendererConfig) SleepBetweenReplay() (time.Duration, bool) {
	return c.replayPause, c.replay
}

// Validate reports configuration errors.
func (c RendererConfig) Validate() error {
	if c.containerID == "" {
		return fmt.Errorf("%w: container id is required", ErrInvalidConfig)
	}
	if c.replay && c.replayPause < 0 {
		return fmt.Errorf("%w: negative replay pause %v", ErrInvalidConfig, c.replayPause)
	}
	if c.padding != nil && *c.padding > 0xFFFFFF {
		return fmt.Errorf("%w: padding color %#x exceeds 24 bits", ErrInvalidConfig, *c.padding)
	}
	return nil
}

// surfaceOptions builds backend options for a grid of cols x rows.
func (c RendererConfig) surfaceOptions(cols, rows int) backend.SurfaceOptions {
	opts := backend.SurfaceOptions{
		ContainerID: c.containerID,
		Columns:     cols,
		Rows:        rows,
		AutoResize:  c.autoResize,
	}
	if len(c.fontFamilies) > 0 {
		opts.Font = backend.FontAtlasConfig{Families: c.fontFamilies, Size: c.fontSize}
	}
	if c.padding != nil {
		color := core.ColorFromPacked(*c.padding)
		opts.PaddingColor = &color
	}
	return opts
}
