package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/fxplay/internal/renderer/backend"
	"github.com/dshills/fxplay/internal/script"
)

// Run starts the driver, creates the renderers and runs until the user
// quits, ctx is cancelled or Shutdown is called. In headless mode it renders
// the configured number of frames and prints the screen instead.
func (app *Application) Run(ctx context.Context) error {
	app.mu.RLock()
	hasBackend := app.backend != nil
	app.mu.RUnlock()
	if !hasBackend {
		return ErrNoBackend
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := app.start(); err != nil {
		return err
	}
	defer app.stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-app.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	var scriptDone <-chan error
	if len(app.steps) > 0 {
		scriptDone = script.NewRunner(script.PlaygroundTarget(app.playground), app.log).Go(ctx, app.steps)
	}

	if app.Headless() {
		return app.runHeadless(ctx, scriptDone)
	}
	return app.eventLoop(ctx, cancel, scriptDone)
}

// runHeadless renders frames off-screen, then prints the screen and,
// when requested, the status snapshot.
func (app *Application) runHeadless(ctx context.Context, scriptDone <-chan error) error {
	if err := app.driver.RunFrames(ctx, app.cfg.Render.Frames); err != nil {
		return err
	}
	select {
	case err := <-scriptDone:
		app.logScriptResult(err)
	default:
	}

	if lb, ok := app.backend.(interface{ Lines() []string }); ok {
		for _, line := range lb.Lines() {
			fmt.Fprintln(app.opts.Stdout, strings.TrimRight(line, " "))
		}
	}
	if app.opts.Status {
		out, err := app.playground.Status()
		if err != nil {
			return err
		}
		fmt.Fprintln(app.opts.Stdout, string(out))
	}
	return nil
}

// eventLoop drives frames on a separate goroutine and handles input until
// quit.
func (app *Application) eventLoop(ctx context.Context, cancel context.CancelFunc, scriptDone <-chan error) error {
	frameErr := make(chan error, 1)
	go func() { frameErr <- app.driver.Run(ctx) }()

	events := app.startInputPolling(ctx)
	err := app.loop(ctx, events, frameErr, scriptDone)

	cancel()
	app.driver.Backend().PostEvent(backend.Event{Type: backend.EventInterrupt})
	if err == nil {
		err = <-frameErr
	}
	return err
}

func (app *Application) loop(ctx context.Context, events <-chan backend.Event, frameErr <-chan error, scriptDone <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-frameErr:
			return fmt.Errorf("frame loop: %w", err)

		case err, ok := <-scriptDone:
			if ok {
				app.logScriptResult(err)
			}
			scriptDone = nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			start := time.Now()
			err := app.handleEvent(ev)
			app.metrics.RecordInput(time.Since(start))
			if errors.Is(err, ErrQuit) {
				return nil
			}
		}
	}
}

// startInputPolling forwards backend events to the returned channel until
// an interrupt arrives. PollEvent blocks, so stopping requires posting an
// interrupt or shutting the backend down.
func (app *Application) startInputPolling(ctx context.Context) <-chan backend.Event {
	events := make(chan backend.Event, 100)
	b := app.driver.Backend()

	go func() {
		defer close(events)
		for {
			ev := b.PollEvent()
			if ev.Type == backend.EventInterrupt || ctx.Err() != nil {
				return
			}
			select {
			case events <- ev:
			default:
				// Buffer full, drop event to prevent blocking.
				app.metrics.RecordInputDropped()
			}
		}
	}()
	return events
}

// handleEvent processes a backend event. Returns ErrQuit if the
// application should exit.
func (app *Application) handleEvent(ev backend.Event) error {
	switch ev.Type {
	case backend.EventKey:
		return app.handleKey(ev)
	case backend.EventResize:
		app.log.Debug("terminal resized to %dx%d", ev.Width, ev.Height)
	}
	return nil
}

// handleKey maps keys to playground actions:
//
//	q, Esc, Ctrl-C  quit
//	s               stop every renderer, or start them all if none runs
//	r               restart every effect
//	i               log a status snapshot
//	1-9             stop or start one renderer
func (app *Application) handleKey(ev backend.Event) error {
	switch ev.Key {
	case backend.KeyEscape, backend.KeyCtrlC:
		return ErrQuit
	case backend.KeyRune:
	default:
		return nil
	}

	pg := app.playground
	switch r := ev.Rune; {
	case r == 'q':
		return ErrQuit
	case r == 's':
		app.toggleAll()
	case r == 'r':
		for _, rd := range pg.Renderers() {
			rd.RestartEffect()
		}
	case r == 'i':
		app.logStatus()
	case r >= '1' && r <= '9':
		rd, ok := pg.Lookup(uint64(r - '0'))
		if !ok {
			return nil
		}
		if rd.IsRunning() {
			_ = rd.Stop()
		} else {
			_ = rd.Start()
		}
	}
	return nil
}

func (app *Application) toggleAll() {
	for _, rd := range app.playground.Renderers() {
		if rd.IsRunning() {
			app.playground.StopAll()
			return
		}
	}
	app.playground.StartAll()
}

func (app *Application) logStatus() {
	out, err := app.playground.Status()
	if err != nil {
		app.log.WithError(err).Warn("status unavailable")
		return
	}
	app.log.Zerolog().Info().RawJSON("status", out).Msg("status")
}

func (app *Application) logScriptResult(err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		app.log.WithError(err).Warn("script stopped")
		return
	}
	app.log.Info("script finished")
}
