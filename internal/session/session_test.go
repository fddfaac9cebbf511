package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/fxplay/internal/ansi"
	"github.com/dshills/fxplay/internal/effect"
	"github.com/dshills/fxplay/internal/logging"
	"github.com/dshills/fxplay/internal/renderer/core"
)

type compilerFunc func(ctx context.Context, src string) (effect.Effect, error)

func (f compilerFunc) Compile(ctx context.Context, src string) (effect.Effect, error) {
	return f(ctx, src)
}

type parserFunc func(text string) (*ansi.Text, error)

func (f parserFunc) Parse(text string) (*ansi.Text, error) {
	return f(text)
}

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T, opts ...Option) (*Session, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	opts = append([]Option{WithReporter(rec)}, opts...)
	return New(1, opts...), rec
}

func TestStepExampleStream(t *testing.T) {
	s, rec := newTestSession(t)

	s.Step([]Command{
		ReplaceCanvas{Text: "AB\nC"},
		CompileEffect{Source: "bad syntax {{"},
		Tick{},
	}, epoch)

	w, h := s.CanvasSize()
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, []string{"AB", "C "}, s.Canvas().Lines())

	_, ok := s.ActiveEffect()
	assert.False(t, ok)
	_, ok = s.LastEffectSource()
	assert.False(t, ok)

	assert.Equal(t, 1, rec.Count(KindCompile))
	assert.Len(t, rec.Diagnostics(), 1)

	var ce *effect.CompileError
	require.ErrorAs(t, rec.Diagnostics()[0].Err, &ce)
	assert.Equal(t, 1, ce.Line)
}

func TestReplaceCanvasKeepsLastValid(t *testing.T) {
	s, rec := newTestSession(t)

	s.Step([]Command{
		ReplaceCanvas{Text: "hello\nworld!"},
		ReplaceCanvas{Text: "bad\x1b[38;5;999m"},
	}, epoch)

	w, h := s.CanvasSize()
	assert.Equal(t, 6, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, 1, rec.Count(KindParse))

	var pe *ansi.ParseError
	assert.ErrorAs(t, rec.Diagnostics()[0].Err, &pe)
}

func TestReplaceCanvasWideGlyphs(t *testing.T) {
	s, _ := newTestSession(t)
	s.Apply(ReplaceCanvas{Text: "🚀abc\nx"})

	w, h := s.CanvasSize()
	assert.Equal(t, 5, w)
	assert.Equal(t, 2, h)
}

func TestCompileEffectRegisters(t *testing.T) {
	s, rec := newTestSession(t)
	src := `fx.fade_to_fg("red", 100)`

	s.Apply(CompileEffect{Source: src})
	_, ok := s.ActiveEffect()
	assert.True(t, ok)
	got, ok := s.LastEffectSource()
	assert.True(t, ok)
	assert.Equal(t, src, got)
	assert.Empty(t, rec.Diagnostics())
}

func TestInvalidCompileKeepsEffect(t *testing.T) {
	s, rec := newTestSession(t)
	good := `fx.sleep(1000)`

	s.Apply(CompileEffect{Source: good})
	before, _ := s.ActiveEffect()

	s.Apply(CompileEffect{Source: "fx.nope("})
	after, ok := s.ActiveEffect()
	require.True(t, ok)
	assert.Same(t, before, after)

	src, _ := s.LastEffectSource()
	assert.Equal(t, good, src)
	assert.Equal(t, 1, rec.Count(KindCompile))
}

func TestEmptyEffectSourceReported(t *testing.T) {
	s, rec := newTestSession(t)
	good := `fx.dissolve(100)`
	s.Apply(CompileEffect{Source: good})
	s.Apply(CompileEffect{Source: " \n\t "})

	_, ok := s.ActiveEffect()
	assert.True(t, ok, "the previous effect stays active")
	src, _ := s.LastEffectSource()
	assert.Equal(t, good, src)

	diags := rec.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, KindCompile, diags[0].Kind)
	assert.ErrorIs(t, diags[0].Err, ErrEmptySource)
}

func TestCompileEffectReplacesAtTag(t *testing.T) {
	s, _ := newTestSession(t)
	s.Apply(CompileEffect{Source: `fx.sleep(1000)`})
	first, _ := s.ActiveEffect()
	s.Apply(CompileEffect{Source: `fx.sleep(2000)`})
	second, _ := s.ActiveEffect()

	assert.NotSame(t, first, second)
	assert.Equal(t, 1, s.effects.Len())
}

func TestRestartWithoutSourceIsNoop(t *testing.T) {
	calls := 0
	s, rec := newTestSession(t, WithCompiler(compilerFunc(func(context.Context, string) (effect.Effect, error) {
		calls++
		return effect.Sleep(effect.Millis(10)), nil
	})))
	s.Apply(ReplaceCanvas{Text: "ab"})
	before := s.Canvas()

	s.Apply(RestartEffect{})

	assert.Equal(t, 0, calls)
	assert.Same(t, before, s.Canvas())
	_, ok := s.ActiveEffect()
	assert.False(t, ok)
	assert.Empty(t, rec.Diagnostics())
}

func TestRestartRecompilesLastSource(t *testing.T) {
	var sources []string
	s, _ := newTestSession(t, WithCompiler(compilerFunc(func(_ context.Context, src string) (effect.Effect, error) {
		sources = append(sources, src)
		return effect.Sleep(effect.Millis(10)), nil
	})))

	s.Apply(CompileEffect{Source: "one"})
	first, _ := s.ActiveEffect()
	s.Apply(RestartEffect{})
	second, ok := s.ActiveEffect()

	require.True(t, ok)
	assert.NotSame(t, first, second)
	assert.Equal(t, []string{"one", "one"}, sources)
}

func TestRestartAfterFinishedEffect(t *testing.T) {
	s, _ := newTestSession(t)
	buf := core.NewBufferSize(1, 1)

	s.Step([]Command{CompileEffect{Source: `fx.sleep(10)`}}, epoch)
	s.Step(nil, epoch.Add(50*time.Millisecond))
	s.Render(buf, buf.Area())
	_, ok := s.ActiveEffect()
	assert.False(t, ok, "finished effects are dropped")

	s.Step([]Command{RestartEffect{}}, epoch.Add(60*time.Millisecond))
	_, ok = s.ActiveEffect()
	assert.True(t, ok)
}

func TestRestartFailureIsInvariantViolation(t *testing.T) {
	calls := 0
	s, rec := newTestSession(t, WithCompiler(compilerFunc(func(context.Context, string) (effect.Effect, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("compiler changed its mind")
		}
		return effect.Sleep(effect.Millis(10)), nil
	})))

	s.Apply(CompileEffect{Source: "x"})
	s.Apply(RestartEffect{})

	assert.Equal(t, 1, rec.Count(KindInvariant))
	assert.Equal(t, 0, rec.Count(KindCompile))
	_, ok := s.ActiveEffect()
	assert.True(t, ok, "the running effect is kept")
}

func TestResizeCommand(t *testing.T) {
	s, _ := newTestSession(t)
	s.Apply(ReplaceCanvas{Text: "abc"})
	s.Apply(Resize{Width: 4, Height: 3})

	w, h := s.CanvasSize()
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)
	assert.Equal(t, []string{"    ", "    ", "    "}, s.Canvas().Lines())

	s.Apply(Resize{Width: -1, Height: 2})
	w, _ = s.CanvasSize()
	assert.Equal(t, 0, w)
}

func TestResizeRejectsOversizedCanvas(t *testing.T) {
	s, rec := newTestSession(t)
	s.Apply(Resize{Width: 4, Height: 3})

	s.Apply(Resize{Width: 30000, Height: 30000})
	s.Apply(Resize{Width: MaxCanvasDim + 1, Height: 1})

	w, h := s.CanvasSize()
	assert.Equal(t, 4, w, "the canvas is kept")
	assert.Equal(t, 3, h)
	assert.Equal(t, 2, rec.Count(KindInvariant))

	s.Apply(Resize{Width: MaxCanvasDim, Height: 1})
	w, _ = s.CanvasSize()
	assert.Equal(t, MaxCanvasDim, w, "the limit itself is accepted")
}

func TestPanicIsRecovered(t *testing.T) {
	s, rec := newTestSession(t, WithParser(parserFunc(func(string) (*ansi.Text, error) {
		panic("parser exploded")
	})))

	s.Step([]Command{ReplaceCanvas{Text: "x"}, Resize{Width: 2, Height: 1}}, epoch)

	assert.Equal(t, 1, rec.Count(KindPanic))
	w, _ := s.CanvasSize()
	assert.Equal(t, 2, w, "later commands still apply")
}

func TestTimeStep(t *testing.T) {
	s, _ := newTestSession(t)

	s.Step(nil, epoch)
	assert.Equal(t, time.Duration(0), s.Elapsed(), "first frame has no history")

	s.Step(nil, epoch.Add(16*time.Millisecond))
	assert.Equal(t, 16*time.Millisecond, s.Elapsed())

	s.Step(nil, epoch)
	assert.Equal(t, time.Duration(0), s.Elapsed(), "clock going backwards clamps to zero")

	s.Step(nil, epoch.Add(MaxElapsed+time.Hour))
	assert.Equal(t, MaxElapsed, s.Elapsed())
}

func TestTimeStepFromStartTime(t *testing.T) {
	s, _ := newTestSession(t, WithStartTime(epoch))

	s.Step(nil, epoch.Add(40*time.Millisecond))
	assert.Equal(t, 40*time.Millisecond, s.Elapsed(), "first frame counts from creation")

	s.Step(nil, epoch.Add(100*time.Millisecond))
	assert.Equal(t, 60*time.Millisecond, s.Elapsed())

	// No frames for ten seconds, as while the instance is stopped.
	s.Step(nil, epoch.Add(10*time.Second))
	assert.Equal(t, 9900*time.Millisecond, s.Elapsed(), "idle time is not dropped")
}

func TestRenderComposesCanvasAndEffect(t *testing.T) {
	s, _ := newTestSession(t)
	s.Step([]Command{
		ReplaceCanvas{Text: "AB\nC"},
		CompileEffect{Source: `fx.fade_to_fg("red", 100)`},
	}, epoch)
	s.Step(nil, epoch.Add(200*time.Millisecond))

	buf := core.NewBufferSize(3, 3)
	buf.SetString(0, 2, "zzz", core.DefaultStyle())
	s.Render(buf, buf.Area())

	assert.Equal(t, []string{"AB ", "C  ", "   "}, buf.Lines(), "stale cells are cleared")
	assert.True(t, buf.Cell(0, 0).Style.Foreground.Equals(core.ColorRed))
	assert.True(t, s.Canvas().Cell(0, 0).Style.Foreground.IsDefault(), "the canvas itself is not painted on")
}

func TestRenderClipsCanvas(t *testing.T) {
	s, _ := newTestSession(t)
	s.Apply(ReplaceCanvas{Text: "abcdef\nghijkl"})

	buf := core.NewBufferSize(3, 1)
	s.Render(buf, buf.Area())
	assert.Equal(t, []string{"abc"}, buf.Lines())
}

func TestReplayPauseLoopsEffect(t *testing.T) {
	s, _ := newTestSession(t, WithReplayPause(50*time.Millisecond))
	buf := core.NewBufferSize(1, 1)

	s.Step([]Command{CompileEffect{Source: `fx.sleep(10)`}}, epoch)
	for i := 1; i <= 10; i++ {
		s.Step(nil, epoch.Add(time.Duration(i)*100*time.Millisecond))
		s.Render(buf, buf.Area())
	}
	_, ok := s.ActiveEffect()
	assert.True(t, ok, "looping effects never finish")
}

func TestFrameDrainsQueue(t *testing.T) {
	s, _ := newTestSession(t)
	tx, rx := NewQueue()
	tx.Send(ReplaceCanvas{Text: "hi"})

	buf := core.NewBufferSize(2, 1)
	s.Frame(rx, epoch, buf)
	assert.Equal(t, []string{"hi"}, buf.Lines())
	assert.Equal(t, 0, rx.Len())
}

func TestLogReporter(t *testing.T) {
	var out bytes.Buffer
	l := logging.New(logging.Config{Level: logging.LevelDebug, Format: logging.FormatJSON, Output: &out})
	s := New(9, WithLogger(l))

	s.Apply(CompileEffect{Source: "bad syntax {{"})

	line := strings.TrimSpace(out.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "compile", entry["kind"])
	assert.Equal(t, float64(9), entry["instance"])
	assert.Equal(t, float64(1), entry["line"])
	assert.Contains(t, entry["message"], "DSL compilation error")
}
