package effect

import (
	"time"

	"github.com/dshills/fxplay/internal/renderer/core"
)

// sequenceEffect runs its children one after another.
type sequenceEffect struct {
	children []Effect
	current  int
}

// Sequence runs effects in order. Time left over when one finishes is
// passed to the next.
func Sequence(effects ...Effect) Effect {
	return &sequenceEffect{children: effects}
}

func (s *sequenceEffect) Process(elapsed time.Duration, buf *core.Buffer, area core.ScreenRect) time.Duration {
	for s.current < len(s.children) {
		child := s.children[s.current]
		elapsed = child.Process(elapsed, buf, area)
		if !child.Done() {
			return 0
		}
		s.current++
	}
	return elapsed
}

func (s *sequenceEffect) Done() bool {
	return s.current >= len(s.children)
}

func (s *sequenceEffect) Reset() {
	s.current = 0
	for _, c := range s.children {
		c.Reset()
	}
}

// parallelEffect runs its children side by side.
type parallelEffect struct {
	children []Effect
}

// Parallel runs effects at the same time. It finishes when all of them
// have finished.
func Parallel(effects ...Effect) Effect {
	return &parallelEffect{children: effects}
}

func (p *parallelEffect) Process(elapsed time.Duration, buf *core.Buffer, area core.ScreenRect) time.Duration {
	overflow := elapsed
	for _, c := range p.children {
		if c.Done() {
			continue
		}
		overflow = min(overflow, c.Process(elapsed, buf, area))
	}
	if !p.Done() {
		return 0
	}
	return overflow
}

func (p *parallelEffect) Done() bool {
	for _, c := range p.children {
		if !c.Done() {
			return false
		}
	}
	return true
}

func (p *parallelEffect) Reset() {
	for _, c := range p.children {
		c.Reset()
	}
}

// repeatEffect replays its child.
type repeatEffect struct {
	child Effect
	times int
	count int
}

// Repeat replays e the given number of times. A count of zero or less
// repeats forever.
func Repeat(e Effect, times int) Effect {
	return &repeatEffect{child: e, times: max(times, 0)}
}

func (r *repeatEffect) Process(elapsed time.Duration, buf *core.Buffer, area core.ScreenRect) time.Duration {
	for !r.Done() {
		overflow := r.child.Process(elapsed, buf, area)
		if !r.child.Done() {
			return 0
		}
		r.count++
		if r.Done() {
			return overflow
		}
		r.child.Reset()
		// A child that consumed no time would spin forever.
		if overflow == 0 || overflow >= elapsed {
			return 0
		}
		elapsed = overflow
	}
	return elapsed
}

func (r *repeatEffect) Done() bool {
	return r.times > 0 && r.count >= r.times
}

func (r *repeatEffect) Reset() {
	r.count = 0
	r.child.Reset()
}

// Delay waits for d before running e.
func Delay(d time.Duration, e Effect) Effect {
	return Sequence(Sleep(NewTimer(d, Linear)), e)
}

// WithReplayPause loops e forever, waiting pause between the end of one
// run and the start of the next.
func WithReplayPause(e Effect, pause time.Duration) Effect {
	return Repeat(Sequence(e, Sleep(NewTimer(pause, Linear))), 0)
}
