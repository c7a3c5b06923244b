// Package collector provides the background workers that fill the shared
// state: the git poller, the llm generators, the monitor runner and the
// staleness sweeper.
//
// Every worker follows the same protocol per (worker, key): claim the key with
// StartTask, skip when it is already running, and release the marker on every
// exit path. Failures are written into the domain error slot as a one-line
// message; raw errors never reach the store.
package collector

import (
	"context"

	"github.com/grovetools/grw/internal/store"
)

// Collector is a background worker that reads from and publishes into the
// shared state.
type Collector interface {
	// Name returns the collector's name for logging.
	Name() string

	// Run starts the collector. It blocks until ctx is canceled.
	Run(ctx context.Context, m *store.Manager) error
}

// queue is a bounded, non-blocking request channel. A full queue drops the
// request; callers re-request on their next render.
type queue[T any] chan T

func newQueue[T any](size int) queue[T] {
	return make(queue[T], size)
}

func (q queue[T]) push(v T) bool {
	select {
	case q <- v:
		return true
	default:
		return false
	}
}
