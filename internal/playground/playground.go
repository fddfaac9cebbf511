// Package playground is the public face of fxplay: it creates renderer
// instances inside screen containers and hands out handles that control
// their effects, canvas and lifecycle.
package playground

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tidwall/sjson"

	"github.com/dshills/fxplay/internal/ansi"
	"github.com/dshills/fxplay/internal/effect"
	"github.com/dshills/fxplay/internal/logging"
	"github.com/dshills/fxplay/internal/registry"
	"github.com/dshills/fxplay/internal/renderer/backend"
	"github.com/dshills/fxplay/internal/session"
)

// Errors returned by the playground.
var (
	// ErrInvalidConfig indicates a renderer configuration that cannot be used.
	ErrInvalidConfig = errors.New("invalid renderer config")

	// ErrInstanceDestroyed indicates an operation on a destroyed renderer.
	ErrInstanceDestroyed = errors.New("renderer destroyed")
)

// CreateError reports why a renderer could not be created.
type CreateError struct {
	ContainerID string
	Err         error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("create renderer in %q: %v", e.ContainerID, e.Err)
}

func (e *CreateError) Unwrap() error {
	return e.Err
}

// Playground creates renderers on a frame driver.
type Playground struct {
	driver   *backend.Driver
	registry *registry.Registry
	parser   *ansi.Parser
	compiler session.Compiler
	reporter session.Reporter
	clock    session.Clock
	log      *logging.Logger

	mu        sync.Mutex
	renderers map[uint64]*Renderer
}

// Option configures a Playground.
type Option func(*Playground)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Playground) { p.log = l }
}

// WithReporter sets where session diagnostics go.
func WithReporter(r session.Reporter) Option {
	return func(p *Playground) { p.reporter = r }
}

// WithClock sets the frame clock.
func WithClock(c session.Clock) Option {
	return func(p *Playground) { p.clock = c }
}

// WithCompiler replaces the effect compiler.
func WithCompiler(c session.Compiler) Option {
	return func(p *Playground) { p.compiler = c }
}

// WithRegistry shares an instance registry.
func WithRegistry(r *registry.Registry) Option {
	return func(p *Playground) { p.registry = r }
}

// New creates a playground drawing through d.
func New(d *backend.Driver, opts ...Option) *Playground {
	p := &Playground{
		driver:    d,
		parser:    ansi.NewParser(),
		clock:     session.SystemClock,
		renderers: make(map[uint64]*Renderer),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logging.Nop()
	}
	p.log = p.log.WithComponent("playground")
	if p.registry == nil {
		p.registry = registry.New()
	}
	if p.compiler == nil {
		p.compiler = effect.NewCompiler(effect.WithPrintHandler(func(s string) {
			p.log.Debug("effect print: %s", s)
		}))
	}
	if p.reporter == nil {
		p.reporter = session.NewLogReporter(p.log)
	}
	return p
}

// Registry returns the instance registry.
func (p *Playground) Registry() *registry.Registry {
	return p.registry
}

// CreateRenderer allocates an instance, queues its initial canvas and
// effect, and registers its frame callback with the driver.
//
// The grid is sized from the canvas content. Content that cannot be
// parsed, or a container that does not exist, fails creation.
func (p *Playground) CreateRenderer(cfg RendererConfig) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &CreateError{ContainerID: cfg.containerID, Err: err}
	}

	text, err := p.parser.Parse(cfg.canvas)
	if err != nil {
		return nil, &CreateError{ContainerID: cfg.containerID, Err: fmt.Errorf("canvas content: %w", err)}
	}

	surface, err := p.driver.NewSurface(cfg.surfaceOptions(text.Width(), text.Height()))
	if err != nil {
		return nil, &CreateError{ContainerID: cfg.containerID, Err: err}
	}

	tx, rx := session.NewQueue()
	rec := p.registry.Create(tx)

	opts := []session.Option{
		session.WithParser(p.parser),
		session.WithCompiler(p.compiler),
		session.WithReporter(p.reporter),
		session.WithLogger(p.log),
		session.WithStartTime(p.clock.Now()),
	}
	if pause, ok := cfg.SleepBetweenReplay(); ok {
		opts = append(opts, session.WithReplayPause(pause))
	}
	sess := session.New(rec.ID, opts...)

	tx.Send(session.ReplaceCanvas{Text: cfg.canvas})
	if strings.TrimSpace(cfg.dsl) != "" {
		tx.Send(session.CompileEffect{Source: cfg.dsl})
	}

	p.driver.DrawEach(surface, frameLoop(rec.Running, sess, rx, p.clock))

	r := &Renderer{
		id:      rec.ID,
		pg:      p,
		cfg:     cfg,
		tx:      tx,
		rx:      rx,
		running: rec.Running,
		surface: surface,
	}
	p.mu.Lock()
	p.renderers[r.id] = r
	p.mu.Unlock()

	cols, rows := surface.Area().Size()
	p.log.WithFields(map[string]any{
		"instance":  r.id,
		"container": cfg.containerID,
		"columns":   cols,
		"rows":      rows,
	}).Info("renderer created")
	return r, nil
}

// frameLoop returns the per-frame callback of one instance. A muted
// instance returns before touching its queue or buffer, leaving the last
// frame on screen. Its clock keeps running, so the first frame after a
// resume advances the effect by the whole paused time.
func frameLoop(running *atomic.Bool, sess *session.Session, rx *session.Receiver, clock session.Clock) backend.FrameFunc {
	return func(f *backend.Frame) {
		if !running.Load() {
			return
		}
		sess.Frame(rx, clock.Now(), f.Buffer())
	}
}

// Lookup returns the live renderer with the given identifier.
func (p *Playground) Lookup(id uint64) (*Renderer, bool) {
	if _, ok := p.registry.Lookup(id); !ok {
		return nil, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.renderers[id]
	return r, ok
}

// Renderers returns the live renderers ordered by identifier.
func (p *Playground) Renderers() []*Renderer {
	p.mu.Lock()
	out := make([]*Renderer, 0, len(p.renderers))
	for _, r := range p.renderers {
		out = append(out, r)
	}
	p.mu.Unlock()

	slices.SortFunc(out, func(a, b *Renderer) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		default:
			return 0
		}
	})
	return out
}

// StartAll resumes every live renderer.
func (p *Playground) StartAll() {
	for _, r := range p.Renderers() {
		_ = r.Start()
	}
}

// StopAll pauses every live renderer.
func (p *Playground) StopAll() {
	for _, r := range p.Renderers() {
		_ = r.Stop()
	}
}

// DestroyAll destroys every live renderer.
func (p *Playground) DestroyAll() {
	for _, r := range p.Renderers() {
		_ = r.Destroy()
	}
}

func (p *Playground) forget(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.renderers, id)
}

// Status returns a JSON snapshot of the live renderers.
func (p *Playground) Status() ([]byte, error) {
	out := []byte(`{"renderers":[]}`)
	out, err := sjson.SetBytes(out, "frames", p.driver.Frames())
	if err != nil {
		return nil, err
	}

	for _, r := range p.Renderers() {
		obj, err := r.statusJSON()
		if err != nil {
			return nil, err
		}
		if out, err = sjson.SetRawBytes(out, "renderers.-1", obj); err != nil {
			return nil, err
		}
	}
	return out, nil
}
