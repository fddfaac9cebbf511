// Package config provides the configuration for fxplay.
//
// Configuration is layered, later sources overriding earlier ones:
//
//	┌─────────────────────────────┐
//	│  4. Environment (FXPLAY_*)  │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. .env file               │
//	├─────────────────────────────┤
//	│  2. YAML config file        │  ← --config
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Variables from the .env file never replace variables already present
// in the process environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/fxplay/internal/logging"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FXPLAY"

// Layout directions for automatic container placement.
const (
	DirectionVertical   = "vertical"
	DirectionHorizontal = "horizontal"
)

// Config is the complete application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" envconfig:"LOG"`
	Render     RenderConfig     `yaml:"render" envconfig:"RENDER"`
	Layout     LayoutConfig     `yaml:"layout" envconfig:"LAYOUT"`
	Playground PlaygroundConfig `yaml:"playground" envconfig:"PLAYGROUND"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
	// File receives logs while the terminal UI owns the screen.
	File string `yaml:"file" envconfig:"FILE"`
}

// RenderConfig configures the frame driver.
type RenderConfig struct {
	FPS int `yaml:"fps" envconfig:"FPS"`
	// Headless renders Frames frames off-screen and prints the result.
	Headless bool `yaml:"headless" envconfig:"HEADLESS"`
	Frames   int  `yaml:"frames" envconfig:"FRAMES"`
	// Width and Height size the off-screen backend.
	Width  int `yaml:"width" envconfig:"WIDTH"`
	Height int `yaml:"height" envconfig:"HEIGHT"`
	// CellWidth and CellHeight are the static font atlas cell metrics.
	CellWidth  int `yaml:"cell_width" envconfig:"CELL_WIDTH"`
	CellHeight int `yaml:"cell_height" envconfig:"CELL_HEIGHT"`
}

// LayoutConfig places named containers on the screen.
//
// Containers listed in Regions keep fixed positions. Otherwise the screen
// is split evenly among Names along Direction.
type LayoutConfig struct {
	Direction string         `yaml:"direction" envconfig:"DIRECTION"`
	Names     []string       `yaml:"names" envconfig:"NAMES"`
	Regions   []RegionConfig `yaml:"regions" ignored:"true"`
}

// RegionConfig is a fixed container rectangle in cells.
type RegionConfig struct {
	ID     string `yaml:"id"`
	Top    int    `yaml:"top"`
	Left   int    `yaml:"left"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// PlaygroundConfig holds renderer defaults and the renderers created at
// startup.
type PlaygroundConfig struct {
	Replay       bool          `yaml:"replay" envconfig:"REPLAY"`
	ReplayPause  time.Duration `yaml:"replay_pause" envconfig:"REPLAY_PAUSE"`
	PaddingColor string        `yaml:"padding_color" envconfig:"PADDING_COLOR"`
	FontFamilies []string      `yaml:"font_families" envconfig:"FONT_FAMILIES"`
	FontSize     float64       `yaml:"font_size" envconfig:"FONT_SIZE"`
	AutoResize   bool          `yaml:"auto_resize" envconfig:"AUTO_RESIZE"`

	Renderers []RendererSpec `yaml:"renderers" ignored:"true"`
}

// RendererSpec describes one renderer to create at startup. Inline content
// wins over the corresponding file.
type RendererSpec struct {
	Container  string `yaml:"container"`
	Effect     string `yaml:"effect"`
	EffectFile string `yaml:"effect_file"`
	Canvas     string `yaml:"canvas"`
	CanvasFile string `yaml:"canvas_file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatConsole,
			File:   "fxplay.log",
		},
		Render: RenderConfig{
			FPS:        60,
			Frames:     60,
			Width:      80,
			Height:     24,
			CellWidth:  10,
			CellHeight: 19,
		},
		Layout: LayoutConfig{
			Direction: DirectionHorizontal,
			Names:     []string{"left", "right"},
		},
	}
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return &ValidationError{Path: "log.level", Message: "unknown level", Value: c.Log.Level}
	}
	if !logging.ValidFormat(c.Log.Format) {
		return &ValidationError{Path: "log.format", Message: "unknown format", Value: c.Log.Format}
	}

	checks := []struct {
		path  string
		value int
	}{
		{"render.fps", c.Render.FPS},
		{"render.width", c.Render.Width},
		{"render.height", c.Render.Height},
		{"render.cell_width", c.Render.CellWidth},
		{"render.cell_height", c.Render.CellHeight},
	}
	for _, ch := range checks {
		if ch.value <= 0 {
			return &ValidationError{Path: ch.path, Message: "must be positive", Value: ch.value}
		}
	}
	if c.Render.Frames < 0 {
		return &ValidationError{Path: "render.frames", Message: "must not be negative", Value: c.Render.Frames}
	}

	switch c.Layout.Direction {
	case DirectionVertical, DirectionHorizontal:
	default:
		return &ValidationError{Path: "layout.direction", Message: "must be vertical or horizontal", Value: c.Layout.Direction}
	}
	if len(c.Layout.Regions) == 0 && len(c.Layout.Names) == 0 {
		return &ValidationError{Path: "layout.names", Message: "at least one container is required", Value: c.Layout.Names}
	}
	for i, r := range c.Layout.Regions {
		if r.ID == "" || r.Width <= 0 || r.Height <= 0 || r.Top < 0 || r.Left < 0 {
			return &ValidationError{Path: fmt.Sprintf("layout.regions[%d]", i), Message: "needs an id and a positive size", Value: r}
		}
	}

	if c.Playground.ReplayPause < 0 {
		return &ValidationError{Path: "playground.replay_pause", Message: "must not be negative", Value: c.Playground.ReplayPause}
	}
	if c.Playground.FontSize < 0 {
		return &ValidationError{Path: "playground.font_size", Message: "must not be negative", Value: c.Playground.FontSize}
	}
	if c.Playground.PaddingColor != "" {
		if _, err := ParsePackedColor(c.Playground.PaddingColor); err != nil {
			return &ValidationError{Path: "playground.padding_color", Message: err.Error(), Value: c.Playground.PaddingColor}
		}
	}
	for i, r := range c.Playground.Renderers {
		if r.Container == "" {
			return &ValidationError{Path: fmt.Sprintf("playground.renderers[%d].container", i), Message: "is required", Value: r.Container}
		}
	}
	return nil
}

// ContainerIDs returns the names of every configured container.
func (c *Config) ContainerIDs() []string {
	if len(c.Layout.Regions) == 0 {
		return c.Layout.Names
	}
	ids := make([]string, len(c.Layout.Regions))
	for i, r := range c.Layout.Regions {
		ids[i] = r.ID
	}
	return ids
}

// ParsePackedColor decodes "#RRGGBB" or "0xRRGGBB" into a packed 24-bit
// color.
func ParsePackedColor(s string) (uint32, error) {
	hex := strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(hex, "#"):
		hex = hex[1:]
	case strings.HasPrefix(hex, "0x"), strings.HasPrefix(hex, "0X"):
		hex = hex[2:]
	}
	if len(hex) != 6 {
		return 0, fmt.Errorf("color %q must have six hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	return uint32(v), nil
}
