// Package registry tracks live rendering instances by identifier.
package registry

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dshills/fxplay/internal/session"
)

// Record is the registry's view of one instance.
type Record struct {
	ID      uint64
	Sender  session.Sender
	Running *atomic.Bool
}

// Registry maps instance identifiers to their records.
// All operations are serialized by one mutex and are safe for concurrent
// use. Identifiers are never reused.
type Registry struct {
	mu      sync.Mutex
	nextID  uint64
	records map[uint64]*Record
}

// New creates an empty registry. The first identifier handed out is 1.
func New() *Registry {
	return &Registry{records: make(map[uint64]*Record)}
}

// Create allocates a fresh identifier and stores a running record for it.
func (r *Registry) Create(sender session.Sender) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	rec := &Record{ID: r.nextID, Sender: sender, Running: new(atomic.Bool)}
	rec.Running.Store(true)
	r.records[rec.ID] = rec
	return rec
}

// Lookup returns the command sender of a live instance.
func (r *Registry) Lookup(id uint64) (session.Sender, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return session.Sender{}, false
	}
	return rec.Sender, true
}

// LookupRunning returns the running flag of a live instance.
func (r *Registry) LookupRunning(id uint64) (*atomic.Bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, false
	}
	return rec.Running, true
}

// SetRunning updates the running flag of a live instance. It reports
// whether the instance exists.
func (r *Registry) SetRunning(id uint64, running bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return false
	}
	rec.Running.Store(running)
	return true
}

// Destroy clears the running flag and removes the record. It reports
// whether the instance existed.
func (r *Registry) Destroy(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return false
	}
	rec.Running.Store(false)
	delete(r.records, id)
	return true
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// IDs returns the identifiers of live instances in ascending order.
func (r *Registry) IDs() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uint64, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
