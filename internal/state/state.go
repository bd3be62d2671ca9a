// Package state holds the process-wide activation state: which packages have
// been initialized, which have had their dependencies loaded, and which
// loaders have been activated.
//
// # Characteristics
//
//   - **Append-only:** Nothing is ever removed. A failed activation leaves
//     every flag that was already set in place.
//   - **Ephemeral:** Lives for the life of the process; nothing is persisted.
//   - **Single writer:** The App is the only writer. The mutex keeps the
//     sets consistent for concurrent readers such as the healthcheck.
package state

import "sync"

// State is an in-memory activation state.
type State struct {
	mu          sync.RWMutex
	initialized orderedSet
	loaded      orderedSet
	activated   orderedSet
}

// New creates an empty State.
func New() *State {
	return &State{
		initialized: newOrderedSet(),
		loaded:      newOrderedSet(),
		activated:   newOrderedSet(),
	}
}

// MarkInitialized records pkg as initialized and reports whether it was new.
func (s *State) MarkInitialized(pkg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized.add(pkg)
}

// IsInitialized reports whether pkg has been initialized.
func (s *State) IsInitialized(pkg string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized.has(pkg)
}

// MarkLoaded records that the dependencies of pkg have been loaded and
// reports whether this is the first time.
func (s *State) MarkLoaded(pkg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded.add(pkg)
}

// IsLoaded reports whether the dependencies of pkg have been loaded.
func (s *State) IsLoaded(pkg string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded.has(pkg)
}

// MarkActivated sets the activated flag of the loader id.
func (s *State) MarkActivated(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activated.add(id)
}

// IsActivated reports whether the loader id has been activated.
func (s *State) IsActivated(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activated.has(id)
}

// Snapshot is a point-in-time copy of a State.
type Snapshot struct {
	Initialized []string `json:"initialized"`
	Loaded      []string `json:"loaded"`
	Activated   []string `json:"activated"`
}

// Snapshot copies the current state, each list in insertion order.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Initialized: s.initialized.list(),
		Loaded:      s.loaded.list(),
		Activated:   s.activated.list(),
	}
}

type orderedSet struct {
	members map[string]struct{}
	order   []string
}

func newOrderedSet() orderedSet {
	return orderedSet{members: make(map[string]struct{})}
}

func (o *orderedSet) add(v string) bool {
	if _, ok := o.members[v]; ok {
		return false
	}
	o.members[v] = struct{}{}
	o.order = append(o.order, v)
	return true
}

func (o *orderedSet) has(v string) bool {
	_, ok := o.members[v]
	return ok
}

func (o *orderedSet) list() []string {
	return append([]string{}, o.order...)
}
