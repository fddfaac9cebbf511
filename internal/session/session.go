package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dshills/fxplay/internal/ansi"
	"github.com/dshills/fxplay/internal/effect"
	"github.com/dshills/fxplay/internal/logging"
	"github.com/dshills/fxplay/internal/renderer/core"
)

// EffectTag is the layer tag every session effect is registered under.
const EffectTag = 0

// MaxElapsed bounds the time step of a single frame.
const MaxElapsed = time.Duration(math.MaxUint32) * time.Millisecond

// Canvas size limits accepted by Resize.
const (
	MaxCanvasDim   = math.MaxUint16
	MaxCanvasCells = 1 << 22
)

// ErrEmptySource is reported when CompileEffect carries blank source.
var ErrEmptySource = errors.New("empty effect source")

// Parser turns canvas text into styled lines.
type Parser interface {
	Parse(text string) (*ansi.Text, error)
}

// Compiler turns effect source into an effect.
type Compiler interface {
	Compile(ctx context.Context, src string) (effect.Effect, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Session is the mutable state of one rendering instance.
//
// A Session is owned by the goroutine that draws its frames. Other
// goroutines talk to it only through the Sender of its queue.
type Session struct {
	id       uint64
	parser   Parser
	compiler Compiler
	reporter Reporter
	log      *logging.Logger

	canvas  *core.Buffer
	effects *effect.Manager

	lastSource  string
	hasSource   bool
	replay      bool
	replayPause time.Duration

	lastTick time.Time
	elapsed  time.Duration
}

// Option configures a Session.
type Option func(*Session)

// WithParser sets the canvas parser.
func WithParser(p Parser) Option {
	return func(s *Session) { s.parser = p }
}

// WithCompiler sets the effect compiler.
func WithCompiler(c Compiler) Option {
	return func(s *Session) { s.compiler = c }
}

// WithReporter sets where diagnostics go.
func WithReporter(r Reporter) Option {
	return func(s *Session) { s.reporter = r }
}

// WithLogger sets the session logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithStartTime sets the time base of the first frame. Without it the
// first frame has no history and its time step is zero.
func WithStartTime(t time.Time) Option {
	return func(s *Session) { s.lastTick = t }
}

// WithReplayPause loops every compiled effect forever with a pause of d
// between runs.
func WithReplayPause(d time.Duration) Option {
	return func(s *Session) {
		s.replay = true
		s.replayPause = max(d, 0)
	}
}

// New creates a session with an empty canvas.
func New(id uint64, opts ...Option) *Session {
	s := &Session{
		id:      id,
		canvas:  core.NewBufferSize(0, 0),
		effects: effect.NewManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.parser == nil {
		s.parser = ansi.NewParser()
	}
	if s.compiler == nil {
		s.compiler = effect.NewCompiler()
	}
	if s.log == nil {
		s.log = logging.Nop()
	}
	if s.reporter == nil {
		s.reporter = NewLogReporter(s.log)
	}
	s.log = s.log.WithField("instance", id)
	return s
}

// ID returns the instance identifier.
func (s *Session) ID() uint64 {
	return s.id
}

// Canvas returns the static canvas. The buffer must not be modified.
func (s *Session) Canvas() *core.Buffer {
	return s.canvas
}

// CanvasSize returns the canvas dimensions.
func (s *Session) CanvasSize() (width, height int) {
	return s.canvas.Size()
}

// ActiveEffect returns the effect registered at EffectTag.
func (s *Session) ActiveEffect() (effect.Effect, bool) {
	return s.effects.Get(EffectTag)
}

// LastEffectSource returns the most recently compiled source.
func (s *Session) LastEffectSource() (string, bool) {
	return s.lastSource, s.hasSource
}

// Elapsed returns the time step computed by the last Step.
func (s *Session) Elapsed() time.Duration {
	return s.elapsed
}

// Step applies cmds in order and advances the frame clock to now.
// A command that fails is reported and skipped; it never aborts the step.
func (s *Session) Step(cmds []Command, now time.Time) {
	for _, cmd := range cmds {
		s.Apply(cmd)
	}
	s.tick(now)
}

// Apply applies a single command, recovering from panics.
func (s *Session) Apply(cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			s.report(KindPanic, cmd, fmt.Errorf("panic applying command: %v", r))
		}
	}()

	switch c := cmd.(type) {
	case ReplaceCanvas:
		s.replaceCanvas(c)
	case CompileEffect:
		s.compileEffect(c)
	case RestartEffect:
		s.restartEffect(c)
	case Resize:
		s.resize(c)
	case Tick:
	default:
		s.report(KindInvariant, cmd, fmt.Errorf("unknown command %T", cmd))
	}
}

func (s *Session) replaceCanvas(c ReplaceCanvas) {
	text, err := s.parser.Parse(c.Text)
	if err != nil {
		s.report(KindParse, c, err)
		return
	}
	canvas := core.NewBufferSize(text.Width(), text.Height())
	text.Render(canvas)
	s.canvas = canvas
}

func (s *Session) resize(c Resize) {
	w, h := max(c.Width, 0), max(c.Height, 0)
	if w > MaxCanvasDim || h > MaxCanvasDim || w*h > MaxCanvasCells {
		s.report(KindInvariant, c, fmt.Errorf("canvas size %dx%d exceeds limit", c.Width, c.Height))
		return
	}
	s.canvas = core.NewBufferSize(w, h)
}

func (s *Session) compileEffect(c CompileEffect) {
	if strings.TrimSpace(c.Source) == "" {
		s.report(KindCompile, c, ErrEmptySource)
		return
	}
	e, err := s.compiler.Compile(context.Background(), c.Source)
	if err != nil {
		s.report(KindCompile, c, err)
		return
	}
	s.install(e)
	s.lastSource = c.Source
	s.hasSource = true
}

func (s *Session) restartEffect(c RestartEffect) {
	if !s.hasSource {
		return
	}
	e, err := s.compiler.Compile(context.Background(), s.lastSource)
	if err != nil {
		s.report(KindInvariant, c, fmt.Errorf("recompiling a previously valid effect failed: %w", err))
		return
	}
	s.install(e)
}

func (s *Session) install(e effect.Effect) {
	if s.replay {
		e = effect.WithReplayPause(e, s.replayPause)
	}
	s.effects.AddUnique(EffectTag, e)
}

// tick computes the time since the previous frame. The clock keeps
// running while no frames are drawn, so the first frame after a pause
// catches up on the paused time.
func (s *Session) tick(now time.Time) {
	if s.lastTick.IsZero() {
		s.elapsed = 0
	} else {
		s.elapsed = min(max(now.Sub(s.lastTick), 0), MaxElapsed)
	}
	s.lastTick = now
}

// Render composes the frame into buf: the canvas is copied at the
// buffer origin and the active effect is painted over area.
func (s *Session) Render(buf *core.Buffer, area core.ScreenRect) {
	buf.Reset()
	origin := buf.Area()
	core.Blit(s.canvas, buf, origin.Left, origin.Top)
	s.effects.Process(s.elapsed, buf, area)
}

// Frame runs one full frame: drain, apply, time step, compose, animate.
func (s *Session) Frame(rx *Receiver, now time.Time, buf *core.Buffer) {
	s.Step(rx.Drain(), now)
	s.Render(buf, buf.Area())
}

func (s *Session) report(kind Kind, cmd Command, err error) {
	d := Diagnostic{Instance: s.id, Kind: kind, Err: err}
	if cmd != nil {
		d.Command = cmd.String()
	}
	s.reporter.Report(d)
}
