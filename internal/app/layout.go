package app

import (
	"github.com/dshills/fxplay/internal/config"
	"github.com/dshills/fxplay/internal/renderer/backend"
	"github.com/dshills/fxplay/internal/renderer/core"
)

// layoutFunc places the configured containers on a screen of the given
// size. Fixed regions are clipped to the screen. Named containers split the
// screen evenly, the last one taking the remainder.
func layoutFunc(cfg config.LayoutConfig) backend.LayoutFunc {
	return func(width, height int) map[string]core.ScreenRect {
		screen := core.RectFromSize(0, 0, height, width)
		out := make(map[string]core.ScreenRect)

		if len(cfg.Regions) > 0 {
			for _, r := range cfg.Regions {
				out[r.ID] = core.RectFromSize(r.Top, r.Left, r.Height, r.Width).Intersection(screen)
			}
			return out
		}

		n := len(cfg.Names)
		if n == 0 {
			return out
		}
		for i, name := range cfg.Names {
			if cfg.Direction == config.DirectionVertical {
				size := height / n
				top := i * size
				if i == n-1 {
					size = height - top
				}
				out[name] = core.RectFromSize(top, 0, size, width)
			} else {
				size := width / n
				left := i * size
				if i == n-1 {
					size = width - left
				}
				out[name] = core.RectFromSize(0, left, height, size)
			}
		}
		return out
	}
}
