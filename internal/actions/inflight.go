package actions

import (
	"slices"
	"sync"
)

// InFlight tracks the item ids awaiting a response, one set per action kind.
// The same id may be in flight under different kinds at once.
type InFlight struct {
	mu   sync.Mutex
	sets map[Kind]map[string]struct{}
}

// NewInFlight creates empty in-flight sets
func NewInFlight() *InFlight {
	return &InFlight{sets: make(map[Kind]map[string]struct{})}
}

// TryAdd marks id as in flight for kind. It returns false if it already was.
func (f *InFlight) TryAdd(kind Kind, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	set, ok := f.sets[kind]
	if !ok {
		set = make(map[string]struct{})
		f.sets[kind] = set
	}
	if _, busy := set[id]; busy {
		return false
	}
	set[id] = struct{}{}
	return true
}

// Remove clears id from the kind's set
func (f *InFlight) Remove(kind Kind, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if set, ok := f.sets[kind]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(f.sets, kind)
		}
	}
}

// Contains reports whether id is in flight for kind
func (f *InFlight) Contains(kind Kind, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sets[kind][id]
	return ok
}

// Busy reports whether id is in flight under any kind
func (f *InFlight) Busy(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, set := range f.sets {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// Len returns the total number of outstanding (kind, id) pairs
func (f *InFlight) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, set := range f.sets {
		n += len(set)
	}
	return n
}

// Snapshot returns the sorted ids in flight per kind
func (f *InFlight) Snapshot() map[Kind][]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[Kind][]string, len(f.sets))
	for kind, set := range f.sets {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		out[kind] = ids
	}
	return out
}
