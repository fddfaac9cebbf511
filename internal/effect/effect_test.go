package effect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/fxplay/internal/renderer/core"
)

const ms = time.Millisecond

func newTextBuffer(t *testing.T, lines ...string) *core.Buffer {
	t.Helper()
	w := 0
	for _, l := range lines {
		w = max(w, core.StringWidth(l))
	}
	buf := core.NewBufferSize(w, len(lines))
	for y, l := range lines {
		buf.SetString(0, y, l, core.NewStyle(core.ColorWhite))
	}
	return buf
}

func TestTimer(t *testing.T) {
	timer := Millis(100)
	assert.Equal(t, time.Duration(0), timer.Advance(40*ms))
	assert.InDelta(t, 0.4, timer.Alpha(), 1e-9)
	assert.False(t, timer.Done())

	assert.Equal(t, 30*ms, timer.Advance(90*ms))
	assert.True(t, timer.Done())
	assert.Equal(t, 1.0, timer.Alpha())

	timer.Reset()
	assert.False(t, timer.Done())
	assert.Equal(t, 0.0, timer.Alpha())
}

func TestTimerZeroDuration(t *testing.T) {
	timer := Millis(0)
	assert.True(t, timer.Done())
	assert.Equal(t, 1.0, timer.Alpha())
	assert.Equal(t, 5*ms, timer.Advance(5*ms))
}

func TestInterpolations(t *testing.T) {
	for _, name := range Interpolations() {
		fn, err := LookupInterpolation(name)
		require.NoError(t, err)
		assert.InDelta(t, 0, fn(0), 1e-9, name)
		assert.InDelta(t, 1, fn(1), 1e-9, name)
	}
	_, err := LookupInterpolation("wobble")
	assert.Error(t, err)
}

func TestManagerAddUniqueReplaces(t *testing.T) {
	m := NewManager()
	first := Sleep(Millis(100))
	second := Sleep(Millis(100))

	m.AddUnique(0, first)
	m.AddUnique(0, second)
	assert.Equal(t, 1, m.Len())

	got, ok := m.Get(0)
	require.True(t, ok)
	assert.Same(t, second, got)

	m.Add(Sleep(Millis(100)))
	m.Add(Sleep(Millis(100)))
	assert.Equal(t, 3, m.Len(), "untagged effects stack")

	m.Remove(0)
	assert.Equal(t, 2, m.Len())
	_, ok = m.Get(0)
	assert.False(t, ok)
}

func TestManagerDropsFinished(t *testing.T) {
	m := NewManager()
	buf := core.NewBufferSize(2, 1)
	m.AddUnique(0, Sleep(Millis(50)))
	m.AddUnique(1, Sleep(Millis(200)))

	m.Process(100*ms, buf, buf.Area())
	assert.Equal(t, 1, m.Len())
	_, ok := m.Get(1)
	assert.True(t, ok)
}

func TestFadeToFgEndsAtColor(t *testing.T) {
	buf := newTextBuffer(t, "ab")
	e := FadeToFg(core.ColorRed, Millis(100))

	e.Process(100*ms, buf, buf.Area())
	assert.True(t, e.Done())
	assert.True(t, buf.Cell(0, 0).Style.Foreground.Equals(core.ColorRed))
	assert.Equal(t, 'a', buf.Cell(0, 0).Rune, "glyphs are preserved")
}

func TestFadeFromFgStartsAtColor(t *testing.T) {
	buf := newTextBuffer(t, "ab")
	e := FadeFromFg(core.ColorRed, Millis(100))

	e.Process(0, buf, buf.Area())
	assert.True(t, buf.Cell(1, 0).Style.Foreground.Equals(core.ColorRed))

	buf = newTextBuffer(t, "ab")
	e.Process(100*ms, buf, buf.Area())
	assert.True(t, buf.Cell(1, 0).Style.Foreground.Equals(core.ColorWhite), "ends on the original color")
}

func TestFadeMidpointBlends(t *testing.T) {
	buf := newTextBuffer(t, "a")
	FadeTo(core.ColorBlack, core.ColorWhite, Millis(100)).Process(50*ms, buf, buf.Area())

	fg := buf.Cell(0, 0).Style.Foreground
	assert.False(t, fg.Equals(core.ColorWhite))
	assert.False(t, fg.Equals(core.ColorBlack))
}

func TestSweepInReveals(t *testing.T) {
	buf := newTextBuffer(t, "abcd")
	e := SweepIn(LeftToRight, 1, core.ColorBlue, Millis(100))

	e.Process(0, buf, buf.Area())
	for x := 0; x < 4; x++ {
		assert.True(t, buf.Cell(x, 0).Style.Background.Equals(core.ColorBlue), "cell %d covered", x)
	}

	buf = newTextBuffer(t, "abcd")
	e.Process(50*ms, buf, buf.Area())
	assert.True(t, buf.Cell(0, 0).Style.Foreground.Equals(core.ColorWhite), "leading edge revealed")
	assert.True(t, buf.Cell(3, 0).Style.Background.Equals(core.ColorBlue), "trailing edge still covered")
}

func TestSweepOutRightToLeft(t *testing.T) {
	buf := newTextBuffer(t, "abcd")
	SweepOut(RightToLeft, 1, core.ColorBlue, Millis(100)).Process(50*ms, buf, buf.Area())

	assert.True(t, buf.Cell(3, 0).Style.Background.Equals(core.ColorBlue))
	assert.True(t, buf.Cell(0, 0).Style.Background.IsDefault())
}

func TestSlideIn(t *testing.T) {
	buf := newTextBuffer(t, "abcd")
	e := SlideIn(LeftToRight, core.ColorBlack, Millis(100))

	e.Process(50*ms, buf, buf.Area())
	assert.Equal(t, []string{"cd  "}, buf.Lines(), "the leading edge enters first")

	buf = newTextBuffer(t, "abcd")
	e.Process(50*ms, buf, buf.Area())
	assert.Equal(t, []string{"abcd"}, buf.Lines())
}

func TestDissolveAndCoalesce(t *testing.T) {
	buf := newTextBuffer(t, "abcdefgh")
	Dissolve(7, Millis(100)).Process(100*ms, buf, buf.Area())
	for x := 0; x < 8; x++ {
		c := buf.Cell(x, 0)
		assert.True(t, c.Style.Foreground.Equals(core.ColorBlack), "cell %d hidden", x)
	}

	buf = newTextBuffer(t, "abcdefgh")
	Coalesce(7, Millis(100)).Process(100*ms, buf, buf.Area())
	for x := 0; x < 8; x++ {
		assert.True(t, buf.Cell(x, 0).Style.Foreground.Equals(core.ColorWhite), "cell %d visible", x)
	}
}

func TestHSLShift(t *testing.T) {
	buf := core.NewBufferSize(1, 1)
	buf.SetString(0, 0, "x", core.NewStyle(core.ColorRed))

	HSLShift(HSL{H: 120}, HSL{}, Millis(100)).Process(100*ms, buf, buf.Area())
	fg := buf.Cell(0, 0).Style.Foreground
	assert.Equal(t, uint8(0), fg.R)
	assert.Equal(t, uint8(255), fg.G)
	assert.Equal(t, uint8(0), fg.B)
	assert.True(t, buf.Cell(0, 0).Style.Background.IsDefault(), "zero delta leaves background alone")
}

func TestSequencePassesOverflow(t *testing.T) {
	a := Sleep(Millis(50))
	b := Sleep(Millis(50))
	seq := Sequence(a, b)
	buf := core.NewBufferSize(1, 1)

	assert.Equal(t, time.Duration(0), seq.Process(70*ms, buf, buf.Area()))
	assert.True(t, a.Done())
	assert.False(t, b.Done())

	assert.Equal(t, 20*ms, seq.Process(50*ms, buf, buf.Area()))
	assert.True(t, seq.Done())

	seq.Reset()
	assert.False(t, seq.Done())
	assert.False(t, a.Done())
}

func TestParallel(t *testing.T) {
	p := Parallel(Sleep(Millis(50)), Sleep(Millis(100)))
	buf := core.NewBufferSize(1, 1)

	p.Process(60*ms, buf, buf.Area())
	assert.False(t, p.Done())
	assert.Equal(t, 10*ms, p.Process(50*ms, buf, buf.Area()))
	assert.True(t, p.Done())
}

func TestRepeat(t *testing.T) {
	buf := core.NewBufferSize(1, 1)

	r := Repeat(Sleep(Millis(10)), 3)
	r.Process(25*ms, buf, buf.Area())
	assert.False(t, r.Done())
	assert.Equal(t, 5*ms, r.Process(10*ms, buf, buf.Area()))
	assert.True(t, r.Done())

	forever := Repeat(Sleep(Millis(10)), 0)
	for i := 0; i < 10; i++ {
		forever.Process(15*ms, buf, buf.Area())
	}
	assert.False(t, forever.Done())
}

func TestRepeatZeroDurationDoesNotSpin(t *testing.T) {
	buf := core.NewBufferSize(1, 1)
	r := Repeat(Sleep(Millis(0)), 0)
	assert.Equal(t, time.Duration(0), r.Process(time.Second, buf, buf.Area()))
	assert.False(t, r.Done())
}

func TestWithReplayPause(t *testing.T) {
	buf := newTextBuffer(t, "a")
	e := WithReplayPause(FadeToFg(core.ColorRed, Millis(100)), 50*ms)

	e.Process(100*ms, buf, buf.Area())
	assert.True(t, buf.Cell(0, 0).Style.Foreground.Equals(core.ColorRed))

	buf = newTextBuffer(t, "a")
	e.Process(25*ms, buf, buf.Area())
	assert.True(t, buf.Cell(0, 0).Style.Foreground.Equals(core.ColorWhite), "pause paints nothing")

	buf = newTextBuffer(t, "a")
	e.Process(25*ms, buf, buf.Area())
	assert.True(t, buf.Cell(0, 0).Style.Foreground.Equals(core.ColorWhite), "replay starts from the beginning")
	assert.False(t, e.Done())
}

func TestDirectionParse(t *testing.T) {
	d, err := ParseDirection("down_to_up")
	require.NoError(t, err)
	assert.Equal(t, DownToUp, d)
	assert.Equal(t, "down_to_up", d.String())

	_, err = ParseDirection("diagonal")
	assert.Error(t, err)
}
