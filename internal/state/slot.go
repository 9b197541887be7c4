// Package state holds observable client-side state containers that are
// passed explicitly to the components that read or write them.
package state

import (
	"slices"
	"sync"
)

// Slot is a single observable value. The zero value is not usable; create
// one with NewSlot.
type Slot[T any] struct {
	mu          sync.RWMutex
	value       T
	set         bool
	nextID      int
	subscribers map[int]func(T)
}

// NewSlot returns an empty slot
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{subscribers: make(map[int]func(T))}
}

// Get returns the current value and whether one has been set
func (s *Slot[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.set
}

// Set replaces the value and notifies subscribers synchronously, outside the lock.
func (s *Slot[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.set = true
	subs := s.snapshot()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Clear resets the slot to empty and notifies subscribers with the zero value
func (s *Slot[T]) Clear() {
	var zero T
	s.mu.Lock()
	s.value = zero
	s.set = false
	subs := s.snapshot()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(zero)
	}
}

// Subscribe registers fn for future changes. The returned func unsubscribes.
func (s *Slot[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

// snapshot must be called with s.mu held
func (s *Slot[T]) snapshot() []func(T) {
	ids := make([]int, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	// deliver in subscription order
	slices.Sort(ids)
	out := make([]func(T), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subscribers[id])
	}
	return out
}
