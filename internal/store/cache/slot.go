package cache

import (
	"sync/atomic"
	"time"
)

type slotValue[T any] struct {
	value T
	at    time.Time
}

// Slot holds a single value that is always replaced wholesale.
// Loads never block and never observe a partially written value.
type Slot[T any] struct {
	p atomic.Pointer[slotValue[T]]
}

// Store replaces the value. Last writer wins.
func (s *Slot[T]) Store(v T) {
	s.p.Store(&slotValue[T]{value: v, at: time.Now()})
}

// Load returns the current value, if any.
func (s *Slot[T]) Load() (T, bool) {
	sv := s.p.Load()
	if sv == nil {
		var zero T
		return zero, false
	}
	return sv.value, true
}

// UpdatedAt returns when the value was last stored, zero when empty.
func (s *Slot[T]) UpdatedAt() time.Time {
	if sv := s.p.Load(); sv != nil {
		return sv.at
	}
	return time.Time{}
}

// Clear empties the slot. It reports whether a value was present.
func (s *Slot[T]) Clear() bool {
	return s.p.Swap(nil) != nil
}
