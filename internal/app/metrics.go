package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks frame and input timing.
type Metrics struct {
	budget time.Duration

	frameCount   atomic.Uint64
	frameTotalNs atomic.Int64
	frameMinNs   atomic.Int64
	frameMaxNs   atomic.Int64
	lastFrameNs  atomic.Int64
	slowFrames   atomic.Uint64

	inputCount   atomic.Uint64
	inputTotalNs atomic.Int64
	inputDropped atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a tracker. Frames slower than budget count as slow;
// a zero budget disables the check.
func NewMetrics(budget time.Duration) *Metrics {
	m := &Metrics{budget: budget, startTime: time.Now()}
	// Initialize min to max int64 so first frame will be smaller
	m.frameMinNs.Store(1<<63 - 1)
	return m
}

// RecordFrame records frame timing.
func (m *Metrics) RecordFrame(duration time.Duration) {
	ns := duration.Nanoseconds()

	m.frameCount.Add(1)
	m.frameTotalNs.Add(ns)
	m.lastFrameNs.Store(ns)
	if m.budget > 0 && duration > m.budget {
		m.slowFrames.Add(1)
	}

	for {
		old := m.frameMinNs.Load()
		if ns >= old || m.frameMinNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.frameMaxNs.Load()
		if ns <= old || m.frameMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordInput records input processing timing.
func (m *Metrics) RecordInput(duration time.Duration) {
	m.inputCount.Add(1)
	m.inputTotalNs.Add(duration.Nanoseconds())
}

// RecordInputDropped records a dropped input event.
func (m *Metrics) RecordInputDropped() {
	m.inputDropped.Add(1)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	frameCount := m.frameCount.Load()
	inputCount := m.inputCount.Load()

	var avgFrameNs, avgInputNs int64
	if frameCount > 0 {
		avgFrameNs = m.frameTotalNs.Load() / int64(frameCount)
	}
	if inputCount > 0 {
		avgInputNs = m.inputTotalNs.Load() / int64(inputCount)
	}

	minFrameNs := m.frameMinNs.Load()
	if minFrameNs == 1<<63-1 {
		minFrameNs = 0
	}

	return MetricsSnapshot{
		Uptime:         time.Since(m.startTime),
		FrameCount:     frameCount,
		AvgFrameTimeNs: avgFrameNs,
		MinFrameTimeNs: minFrameNs,
		MaxFrameTimeNs: m.frameMaxNs.Load(),
		LastFrameNs:    m.lastFrameNs.Load(),
		SlowFrames:     m.slowFrames.Load(),
		InputCount:     inputCount,
		AvgInputTimeNs: avgInputNs,
		InputDropped:   m.inputDropped.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime         time.Duration
	FrameCount     uint64
	AvgFrameTimeNs int64
	MinFrameTimeNs int64
	MaxFrameTimeNs int64
	LastFrameNs    int64
	SlowFrames     uint64
	InputCount     uint64
	AvgInputTimeNs int64
	InputDropped   uint64
}

// SlowRate returns the percentage of frames over budget.
func (s MetricsSnapshot) SlowRate() float64 {
	if s.FrameCount == 0 {
		return 0
	}
	return float64(s.SlowFrames) / float64(s.FrameCount) * 100
}

// Fields returns the snapshot as log fields.
func (s MetricsSnapshot) Fields() map[string]any {
	return map[string]any{
		"uptime":         s.Uptime.String(),
		"frames":         s.FrameCount,
		"avg_frame_ns":   s.AvgFrameTimeNs,
		"max_frame_ns":   s.MaxFrameTimeNs,
		"slow_frames":    s.SlowFrames,
		"inputs":         s.InputCount,
		"inputs_dropped": s.InputDropped,
	}
}
