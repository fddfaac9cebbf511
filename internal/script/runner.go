package script

import (
	"context"
	"time"

	"github.com/dshills/fxplay/internal/logging"
	"github.com/dshills/fxplay/internal/playground"
)

// Handle is the part of a renderer a script can drive.
type Handle interface {
	UpdateEffect(src string)
	RestartEffect()
	UpdateCanvas(ansiText string)
	Resize(width, height int)
	Start() error
	Stop() error
	Destroy() error
}

// Target resolves renderer identifiers.
type Target interface {
	Renderer(id uint64) (Handle, bool)
}

// TargetFunc adapts a function to Target.
type TargetFunc func(id uint64) (Handle, bool)

// Renderer implements Target.
func (f TargetFunc) Renderer(id uint64) (Handle, bool) { return f(id) }

// PlaygroundTarget resolves identifiers among the live renderers of pg.
func PlaygroundTarget(pg *playground.Playground) Target {
	return TargetFunc(func(id uint64) (Handle, bool) {
		r, ok := pg.Lookup(id)
		if !ok {
			return nil, false
		}
		return r, true
	})
}

// Runner executes steps against a target.
type Runner struct {
	target Target
	log    *logging.Logger
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(target Target, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.Nop()
	}
	return &Runner{target: target, log: log.WithComponent("script")}
}

// Run executes steps in order. Steps naming unknown renderers, or
// renderers that were destroyed, are logged and skipped. Run returns early
// with ctx.Err() when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if step.Op == OpWait {
			if err := sleep(ctx, step.Wait); err != nil {
				return err
			}
			continue
		}
		r.exec(step)
	}
	r.log.Debug("script finished after %d steps", len(steps))
	return nil
}

// Go runs steps on a new goroutine. The returned channel receives the
// result and is then closed.
func (r *Runner) Go(ctx context.Context, steps []Step) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- r.Run(ctx, steps)
	}()
	return done
}

func (r *Runner) exec(step Step) {
	log := r.log.WithFields(map[string]any{"line": step.Line, "op": step.Op, "instance": step.Renderer})

	h, ok := r.target.Renderer(step.Renderer)
	if !ok {
		log.Warn("no live renderer %d", step.Renderer)
		return
	}

	var err error
	switch step.Op {
	case OpUpdateEffect:
		h.UpdateEffect(step.Effect)
	case OpRestartEffect:
		h.RestartEffect()
	case OpUpdateCanvas:
		h.UpdateCanvas(step.Canvas)
	case OpResize:
		h.Resize(step.Width, step.Height)
	case OpStart:
		err = h.Start()
	case OpStop:
		err = h.Stop()
	case OpDestroy:
		err = h.Destroy()
	}
	if err != nil {
		log.WithError(err).Warn("step failed")
		return
	}
	log.Debug("step %s", step)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
