package playground

import (
	"sync/atomic"

	"github.com/tidwall/sjson"

	"github.com/dshills/fxplay/internal/renderer/backend"
	"github.com/dshills/fxplay/internal/session"
)

// State is the lifecycle state of a renderer.
type State int

// Lifecycle states.
const (
	// StateActive renderers apply commands and draw every frame.
	StateActive State = iota
	// StatePaused renderers keep their last frame on screen and defer
	// queued commands until started again.
	StatePaused
	// StateDestroyed renderers are gone from the registry for good.
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Renderer is a handle to one rendering instance. Its methods are safe to
// call from any goroutine.
//
// The frame callback of a renderer cannot be removed from the driver.
// Stop and Destroy mute it instead.
type Renderer struct {
	id      uint64
	pg      *Playground
	cfg     RendererConfig
	tx      session.Sender
	rx      *session.Receiver
	running *atomic.Bool
	surface *backend.Surface

	destroyed atomic.Bool
}

// ID returns the instance identifier.
func (r *Renderer) ID() uint64 {
	return r.id
}

// Config returns the configuration the renderer was created with.
func (r *Renderer) Config() RendererConfig {
	return r.cfg
}

// Surface returns the backend surface the renderer draws on.
func (r *Renderer) Surface() *backend.Surface {
	return r.surface
}

// UpdateEffect queues src to be compiled as the new effect.
func (r *Renderer) UpdateEffect(src string) {
	r.tx.Send(session.CompileEffect{Source: src})
}

// RestartEffect queues a restart of the current effect.
func (r *Renderer) RestartEffect() {
	r.tx.Send(session.RestartEffect{})
}

// UpdateCanvas queues new ANSI canvas content.
func (r *Renderer) UpdateCanvas(ansiText string) {
	r.tx.Send(session.ReplaceCanvas{Text: ansiText})
}

// Resize queues an empty canvas of the given size.
func (r *Renderer) Resize(width, height int) {
	r.tx.Send(session.Resize{Width: width, Height: height})
}

// Start resumes drawing and command processing.
func (r *Renderer) Start() error {
	if !r.pg.registry.SetRunning(r.id, true) {
		return ErrInstanceDestroyed
	}
	return nil
}

// Stop pauses the renderer. The frame on screen stays as it is and
// commands sent meanwhile are applied after Start.
func (r *Renderer) Stop() error {
	if !r.pg.registry.SetRunning(r.id, false) {
		return ErrInstanceDestroyed
	}
	return nil
}

// IsRunning reports whether the renderer is active.
func (r *Renderer) IsRunning() bool {
	return r.running.Load()
}

// State returns the lifecycle state.
func (r *Renderer) State() State {
	switch {
	case r.destroyed.Load():
		return StateDestroyed
	case r.running.Load():
		return StateActive
	default:
		return StatePaused
	}
}

// Destroy removes the renderer from the registry and mutes its frame
// callback for good. Commands sent afterwards are dropped.
func (r *Renderer) Destroy() error {
	if !r.destroyed.CompareAndSwap(false, true) {
		return ErrInstanceDestroyed
	}
	r.pg.registry.Destroy(r.id)
	r.rx.Close()
	r.pg.forget(r.id)
	r.pg.log.WithField("instance", r.id).Info("renderer destroyed")
	return nil
}

// PendingCommands returns the number of queued commands not yet applied.
func (r *Renderer) PendingCommands() int {
	return r.rx.Len()
}

func (r *Renderer) statusJSON() ([]byte, error) {
	cols, rows := r.surface.Area().Size()
	pw, ph := r.surface.PixelSize()
	fields := []struct {
		path  string
		value any
	}{
		{"id", r.id},
		{"container", r.cfg.containerID},
		{"state", r.State().String()},
		{"columns", cols},
		{"rows", rows},
		{"pixel_width", pw},
		{"pixel_height", ph},
		{"pending_commands", r.PendingCommands()},
	}

	obj := []byte(`{}`)
	for _, f := range fields {
		var err error
		if obj, err = sjson.SetBytes(obj, f.path, f.value); err != nil {
			return nil, err
		}
	}
	return obj, nil
}
