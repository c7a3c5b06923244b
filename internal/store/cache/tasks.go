package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// StartResult is the outcome of Tasks.Start.
type StartResult int

const (
	// Acquired means the caller now owns the key and must release it.
	Acquired StartResult = iota
	// AlreadyRunning means another worker holds the key. Skip, don't retry.
	AlreadyRunning
	// Rejected means the set was closed during shutdown.
	Rejected
)

func (r StartResult) String() string {
	switch r {
	case Acquired:
		return "acquired"
	case AlreadyRunning:
		return "already_running"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Token marks one in-flight computation for Key.
type Token[K comparable] struct {
	Key       K
	StartedAt time.Time
	id        uint64
}

// Age returns how long the token has been held as of now.
func (t *Token[K]) Age(now time.Time) time.Duration {
	return now.Sub(t.StartedAt)
}

// Tasks is a set of in-flight markers with atomic test-and-set.
// At most one token exists per key at any time.
type Tasks[K comparable] struct {
	markers sync.Map // K -> *Token[K]
	ids     atomic.Uint64
	closed  atomic.Bool
	now     func() time.Time
}

// NewTasks returns an empty marker set. A nil clock uses time.Now.
func NewTasks[K comparable](now func() time.Time) *Tasks[K] {
	if now == nil {
		now = time.Now
	}
	return &Tasks[K]{now: now}
}

// Start claims key. On Acquired the returned token must be released exactly
// once, by Release or Complete, whether the work succeeded or failed.
func (t *Tasks[K]) Start(key K) (*Token[K], StartResult) {
	if t.closed.Load() {
		return nil, Rejected
	}
	tok := &Token[K]{Key: key, StartedAt: t.now(), id: t.ids.Add(1)}
	if _, loaded := t.markers.LoadOrStore(key, tok); loaded {
		return nil, AlreadyRunning
	}
	return tok, Acquired
}

// Complete removes whatever marker exists for key. Calling it for a key with
// no marker is a no-op.
func (t *Tasks[K]) Complete(key K) {
	t.markers.Delete(key)
}

// Release removes tok's marker only if it is still the current one. A worker
// whose marker was swept as stale therefore cannot clear a newer worker's claim.
// It reports whether the marker was removed.
func (t *Tasks[K]) Release(tok *Token[K]) bool {
	if tok == nil {
		return false
	}
	return t.markers.CompareAndDelete(tok.Key, tok)
}

// IsRunning reports whether a marker exists for key.
func (t *Tasks[K]) IsRunning(key K) bool {
	_, ok := t.markers.Load(key)
	return ok
}

// Get returns a copy of the marker for key.
func (t *Tasks[K]) Get(key K) (Token[K], bool) {
	v, ok := t.markers.Load(key)
	if !ok {
		return Token[K]{}, false
	}
	return *v.(*Token[K]), true
}

// Len returns the number of in-flight markers.
func (t *Tasks[K]) Len() int {
	n := 0
	t.markers.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Count returns the number of in-flight markers whose key matches.
func (t *Tasks[K]) Count(match func(K) bool) int {
	n := 0
	t.markers.Range(func(k, _ any) bool {
		if match(k.(K)) {
			n++
		}
		return true
	})
	return n
}

// Tokens returns a copy of every marker.
func (t *Tasks[K]) Tokens() []Token[K] {
	var out []Token[K]
	t.markers.Range(func(_, v any) bool {
		out = append(out, *v.(*Token[K]))
		return true
	})
	return out
}

// SweepStale removes markers held longer than timeout and returns their keys.
// A marker re-acquired between the scan and the delete is left alone.
func (t *Tasks[K]) SweepStale(timeout time.Duration) []K {
	now := t.now()
	var swept []K
	t.markers.Range(func(k, v any) bool {
		tok := v.(*Token[K])
		if tok.Age(now) > timeout && t.markers.CompareAndDelete(k, tok) {
			swept = append(swept, tok.Key)
		}
		return true
	})
	return swept
}

// Clear removes every marker.
func (t *Tasks[K]) Clear() {
	t.markers.Range(func(k, _ any) bool {
		t.markers.Delete(k)
		return true
	})
}

// Close makes every later Start return Rejected. Existing markers are kept
// so in-flight workers can still release them.
func (t *Tasks[K]) Close() {
	t.closed.Store(true)
}

// Closed reports whether Close was called.
func (t *Tasks[K]) Closed() bool {
	return t.closed.Load()
}
