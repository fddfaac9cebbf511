// Package effect provides time-driven cell effects, a manager that layers
// them over a buffer, and a Lua-based compiler that builds effects from
// source text.
//
// Effects are not safe for concurrent use. A Manager and the effects it
// holds belong to the goroutine that renders frames.
package effect

import (
	"time"

	"github.com/dshills/fxplay/internal/renderer/core"
)

// Effect animates the cells of a buffer region over time.
type Effect interface {
	// Process advances the effect by elapsed and paints it into buf,
	// restricted to area. It returns the part of elapsed that was not
	// needed because the effect finished.
	Process(elapsed time.Duration, buf *core.Buffer, area core.ScreenRect) time.Duration

	// Done reports whether the effect has run to completion.
	Done() bool

	// Reset rewinds the effect to its initial state.
	Reset()
}

// entry is one effect held by the manager.
type entry struct {
	tag    int
	unique bool
	effect Effect
}

// Manager runs a set of effects over a buffer every frame.
// Effects registered under a tag replace any earlier effect with the
// same tag. Finished effects are dropped.
type Manager struct {
	entries []entry
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add registers an untagged effect. Untagged effects never replace each
// other.
func (m *Manager) Add(e Effect) {
	if e == nil {
		return
	}
	m.entries = append(m.entries, entry{effect: e})
}

// AddUnique registers e under tag, replacing the effect currently held
// there. The replacement keeps the position of the old effect so layer
// order stays stable.
func (m *Manager) AddUnique(tag int, e Effect) {
	if e == nil {
		return
	}
	for i := range m.entries {
		if m.entries[i].unique && m.entries[i].tag == tag {
			m.entries[i].effect = e
			return
		}
	}
	m.entries = append(m.entries, entry{tag: tag, unique: true, effect: e})
}

// Get returns the effect registered under tag.
func (m *Manager) Get(tag int) (Effect, bool) {
	for _, en := range m.entries {
		if en.unique && en.tag == tag {
			return en.effect, true
		}
	}
	return nil, false
}

// Remove drops the effect registered under tag.
func (m *Manager) Remove(tag int) {
	for i, en := range m.entries {
		if en.unique && en.tag == tag {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of running effects.
func (m *Manager) Len() int {
	return len(m.entries)
}

// Clear drops every effect.
func (m *Manager) Clear() {
	m.entries = nil
}

// Process advances every effect by elapsed, in registration order, then
// drops the ones that finished.
func (m *Manager) Process(elapsed time.Duration, buf *core.Buffer, area core.ScreenRect) {
	if len(m.entries) == 0 {
		return
	}
	for _, en := range m.entries {
		en.effect.Process(elapsed, buf, area)
	}
	kept := m.entries[:0]
	for _, en := range m.entries {
		if !en.effect.Done() {
			kept = append(kept, en)
		}
	}
	clear(m.entries[len(kept):])
	m.entries = kept
}
