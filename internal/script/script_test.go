package script

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/fxplay/internal/playground"
	"github.com/dshills/fxplay/internal/renderer/backend"
	"github.com/dshills/fxplay/internal/renderer/core"
)

type fakeHandle struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (h *fakeHandle) record(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, s)
}

func (h *fakeHandle) UpdateEffect(src string)      { h.record("effect:" + src) }
func (h *fakeHandle) RestartEffect()               { h.record("restart") }
func (h *fakeHandle) UpdateCanvas(ansiText string) { h.record("canvas:" + ansiText) }
func (h *fakeHandle) Resize(w, hh int)             { h.record("resize") }
func (h *fakeHandle) Start() error                 { h.record("start"); return h.err }
func (h *fakeHandle) Stop() error                  { h.record("stop"); return h.err }
func (h *fakeHandle) Destroy() error               { h.record("destroy"); return h.err }

func targetOf(handles map[uint64]*fakeHandle) Target {
	return TargetFunc(func(id uint64) (Handle, bool) {
		h, ok := handles[id]
		if !ok {
			return nil, false
		}
		return h, true
	})
}

func TestParse(t *testing.T) {
	src := `
# demo
{"op": "update_effect", "renderer": 1, "effect": "fx.sleep(100)"}
// pause a little
{"op": "wait", "ms": 250}
{"op": "update_canvas", "renderer": 2, "canvas": "\u001b[31mred"}
{"op": "resize", "renderer": 2, "width": 10, "height": 3}
{"op": "restart_effect", "renderer": 1}
{"op": "stop", "renderer": 1}
`
	steps, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, steps, 6)

	assert.Equal(t, Step{Line: 3, Op: OpUpdateEffect, Renderer: 1, Effect: "fx.sleep(100)"}, steps[0])
	assert.Equal(t, Step{Line: 5, Op: OpWait, Wait: 250 * time.Millisecond}, steps[1])
	assert.Equal(t, "\x1b[31mred", steps[2].Canvas)
	assert.Equal(t, 10, steps[3].Width)
	assert.Equal(t, 3, steps[3].Height)
	assert.Equal(t, "stop #1", steps[5].String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		msg  string
	}{
		{"json", `{"op": `, "not valid JSON"},
		{"array", `[1, 2]`, "step must be an object"},
		{"no op", `{"renderer": 1}`, "op is required"},
		{"unknown op", `{"op": "explode", "renderer": 1}`, `unknown op "explode"`},
		{"no renderer", `{"op": "stop"}`, "renderer id is required"},
		{"no effect", `{"op": "update_effect", "renderer": 1}`, `needs "effect"`},
		{"no canvas", `{"op": "update_canvas", "renderer": 1}`, `needs "canvas"`},
		{"no height", `{"op": "resize", "renderer": 1, "width": 3}`, `needs "height"`},
		{"bad wait", `{"op": "wait", "ms": "soon"}`, `needs "ms"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader("\n" + tt.line))
			var se *SyntaxError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, 2, se.Line)
			assert.Contains(t, se.Message, tt.msg)
			assert.ErrorIs(t, err, ErrInvalidStep)
		})
	}
}

func TestRunDispatchesSteps(t *testing.T) {
	one, two := &fakeHandle{}, &fakeHandle{}
	r := NewRunner(targetOf(map[uint64]*fakeHandle{1: one, 2: two}), nil)

	steps := []Step{
		{Op: OpUpdateEffect, Renderer: 1, Effect: "e"},
		{Op: OpWait, Wait: time.Millisecond},
		{Op: OpUpdateCanvas, Renderer: 2, Canvas: "c"},
		{Op: OpStop, Renderer: 9},
		{Op: OpRestartEffect, Renderer: 1},
		{Op: OpResize, Renderer: 2, Width: 1, Height: 1},
		{Op: OpStop, Renderer: 1},
		{Op: OpStart, Renderer: 1},
		{Op: OpDestroy, Renderer: 2},
	}
	require.NoError(t, r.Run(context.Background(), steps))

	assert.Equal(t, []string{"effect:e", "restart", "stop", "start"}, one.calls)
	assert.Equal(t, []string{"canvas:c", "resize", "destroy"}, two.calls)
}

func TestRunContinuesAfterLifecycleError(t *testing.T) {
	h := &fakeHandle{err: playground.ErrInstanceDestroyed}
	r := NewRunner(targetOf(map[uint64]*fakeHandle{1: h}), nil)

	err := r.Run(context.Background(), []Step{
		{Op: OpStart, Renderer: 1},
		{Op: OpRestartEffect, Renderer: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "restart"}, h.calls)
}

func TestRunCancelled(t *testing.T) {
	h := &fakeHandle{}
	r := NewRunner(targetOf(map[uint64]*fakeHandle{1: h}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := r.Go(ctx, []Step{
		{Op: OpWait, Wait: time.Hour},
		{Op: OpStop, Renderer: 1},
	})
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Empty(t, h.calls)
}

func TestRunAgainstPlayground(t *testing.T) {
	nb := backend.NewNullBackend(4, 1)
	d := backend.NewDriver(nb)
	require.NoError(t, d.Init())
	d.SetContainer("main", core.RectFromSize(0, 0, 1, 4))

	pg := playground.New(d)
	rd, err := pg.CreateRenderer(playground.NewRendererConfig("main").WithCanvas("ab"))
	require.NoError(t, err)
	d.RenderFrame()

	steps, err := Parse(strings.NewReader(`{"op": "update_canvas", "renderer": 1, "canvas": "xy"}
{"op": "stop", "renderer": 1}`))
	require.NoError(t, err)

	require.NoError(t, <-NewRunner(PlaygroundTarget(pg), nil).Go(context.Background(), steps))
	assert.False(t, rd.IsRunning())
	assert.Equal(t, 1, rd.PendingCommands(), "the canvas waits until the renderer is started")

	require.NoError(t, rd.Start())
	d.RenderFrame()
	assert.Equal(t, "xy  ", nb.Lines()[0])
}
