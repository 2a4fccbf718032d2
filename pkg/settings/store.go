package settings

import (
	"sync"
	"sync/atomic"
)

// Store publishes the current Snapshot.
//
// Get is lock-free and may be called from any number of goroutines. Publish
// swaps the pointer atomically, so a reader holding an older snapshot keeps
// a complete, consistent value. Update serialises read-modify-write
// publishers so concurrent setters cannot lose each other's changes.
type Store struct {
	current atomic.Pointer[Snapshot]
	writeMu sync.Mutex
}

// NewStore creates a store holding initial, or the default snapshot when
// initial is nil.
func NewStore(initial *Snapshot) *Store {
	s := &Store{}
	if initial == nil {
		initial = Default()
	}
	s.current.Store(initial)
	return s
}

// Get returns the published snapshot.
func (s *Store) Get() *Snapshot {
	return s.current.Load()
}

// Publish replaces the published snapshot. A nil snapshot publishes the default.
func (s *Store) Publish(snap *Snapshot) {
	if snap == nil {
		snap = Default()
	}
	s.current.Store(snap)
}

// Update derives a new snapshot from the current one and publishes it.
// fn runs with the write lock held and must not call back into the store.
// Returning nil leaves the published snapshot unchanged.
func (s *Store) Update(fn func(*Snapshot) *Snapshot) *Snapshot {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := fn(s.current.Load())
	if next == nil {
		return s.current.Load()
	}
	s.current.Store(next)
	return next
}
