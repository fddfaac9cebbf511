package app

import (
	"io"
	"os"
	"time"

	"github.com/dshills/fxplay/internal/config"
	"github.com/dshills/fxplay/internal/logging"
	"github.com/dshills/fxplay/internal/playground"
	"github.com/dshills/fxplay/internal/renderer/backend"
	"github.com/dshills/fxplay/internal/script"
)

// demoReplayPause separates replays of the built-in demos.
const demoReplayPause = time.Second

// bootstrap loads everything that does not need the backend.
func (app *Application) bootstrap() error {
	// 1. Config
	loadOpts := []config.LoadOption{}
	if app.opts.ConfigPath != "" {
		loadOpts = append(loadOpts, config.WithFile(app.opts.ConfigPath))
	}
	if app.opts.EnvFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(app.opts.EnvFile))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if app.opts.Headless {
		cfg.Render.Headless = true
	}
	if app.opts.Frames > 0 {
		cfg.Render.Frames = app.opts.Frames
	}
	if app.opts.LogLevel != "" {
		if _, err := logging.ParseLevel(app.opts.LogLevel); err != nil {
			return &InitError{Component: "config", Err: err}
		}
		cfg.Log.Level = app.opts.LogLevel
	}
	app.cfg = cfg

	// 2. Logging
	log, closer, err := newLogger(cfg.Log, cfg.Render.Headless, app.opts.Stderr)
	if err != nil {
		return &InitError{Component: "logging", Err: err}
	}
	app.log, app.logFile = log, closer
	app.metrics = NewMetrics(frameBudget(cfg.Render.FPS))

	// 3. Script
	if app.opts.ScriptPath != "" {
		steps, err := script.ParseFile(app.opts.ScriptPath)
		if err != nil {
			return &InitError{Component: "script", Err: err}
		}
		app.steps = steps
	}

	app.log.WithFields(map[string]any{
		"headless":   cfg.Render.Headless,
		"fps":        cfg.Render.FPS,
		"containers": cfg.ContainerIDs(),
	}).Info("fxplay configured")
	return nil
}

// newLogger writes to stderr in headless mode and to the configured file
// while the terminal is in use. No file means no logs.
func newLogger(cfg config.LogConfig, headless bool, stderr io.Writer) (*logging.Logger, io.Closer, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	lc := logging.Config{Level: level, Format: cfg.Format, Prefix: "fxplay"}

	var closer io.Closer
	switch {
	case headless:
		lc.Output = stderr
	case cfg.File == "":
		return logging.Nop(), nil, nil
	default:
		f, err := logging.OpenFile(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		lc.Output, closer = f, f
	}
	return logging.New(lc), closer, nil
}

// start initializes the driver and creates the configured renderers.
func (app *Application) start() error {
	rc := app.cfg.Render
	driver := backend.NewDriver(app.backend,
		backend.WithFPS(rc.FPS),
		backend.WithCellMetrics(backend.CellMetrics{Width: rc.CellWidth, Height: rc.CellHeight}),
		backend.WithLayout(layoutFunc(app.cfg.Layout)),
		backend.WithFrameObserver(app.metrics.RecordFrame),
	)
	if err := driver.Init(); err != nil {
		return &InitError{Component: "backend", Err: err}
	}

	pg := playground.New(driver, playground.WithLogger(app.log))
	app.mu.Lock()
	app.driver, app.playground = driver, pg
	app.mu.Unlock()

	configs, err := app.rendererConfigs()
	if err != nil {
		return &InitError{Component: "playground", Err: err}
	}

	var errs ErrorList
	for _, cfg := range configs {
		if _, err := pg.CreateRenderer(cfg); err != nil {
			errs.Add(err)
		}
	}
	if len(pg.Renderers()) == 0 && errs.Len() > 0 {
		return &InitError{Component: "playground", Err: errs.AsError()}
	}
	for _, err := range errs.Errors() {
		app.log.WithError(err).Warn("renderer skipped")
	}
	return nil
}

// stop destroys every renderer and releases the backend.
func (app *Application) stop() {
	app.log.WithFields(app.metrics.Snapshot().Fields()).Info("shutting down")
	app.playground.DestroyAll()
	app.driver.Shutdown()
}

// rendererConfigs resolves the renderers to create at startup: those in
// the configuration, then one per canvas file, or the built-in demos when
// neither is given.
func (app *Application) rendererConfigs() ([]playground.RendererConfig, error) {
	pc := app.cfg.Playground
	ids := app.cfg.ContainerIDs()

	specs := append([]config.RendererSpec(nil), pc.Renderers...)
	for i, f := range app.opts.CanvasFiles {
		specs = append(specs, config.RendererSpec{
			Container:  ids[i%len(ids)],
			CanvasFile: f,
			EffectFile: app.opts.EffectPath,
		})
	}

	replay, pause := pc.Replay, pc.ReplayPause
	if len(specs) == 0 {
		for i, id := range ids {
			d := demos[i%len(demos)]
			specs = append(specs, config.RendererSpec{Container: id, Canvas: d.canvas, Effect: d.effect})
		}
		if !replay {
			replay, pause = true, demoReplayPause
		}
	}

	var padding *uint32
	if pc.PaddingColor != "" {
		packed, err := config.ParsePackedColor(pc.PaddingColor)
		if err != nil {
			return nil, err
		}
		padding = &packed
	}

	out := make([]playground.RendererConfig, 0, len(specs))
	for _, s := range specs {
		canvas, err := inlineOrFile(s.Canvas, s.CanvasFile)
		if err != nil {
			return nil, err
		}
		effect, err := inlineOrFile(s.Effect, s.EffectFile)
		if err != nil {
			return nil, err
		}

		rc := playground.NewRendererConfig(s.Container).
			WithCanvas(canvas).
			WithDSL(effect).
			WithAutoResizeCanvasCSS(pc.AutoResize)
		if replay {
			rc = rc.WithSleepBetweenReplay(pause)
		}
		if len(pc.FontFamilies) > 0 {
			rc = rc.WithDynamicFontAtlas(pc.FontFamilies, pc.FontSize)
		}
		if padding != nil {
			rc = rc.WithCanvasPaddingColor(*padding)
		}
		out = append(out, rc)
	}
	return out, nil
}

func inlineOrFile(inline, path string) (string, error) {
	if inline != "" || path == "" {
		return inline, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &OperationError{Op: "read", Target: path, Err: err}
	}
	return string(data), nil
}
