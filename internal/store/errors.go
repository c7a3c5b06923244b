package store

import (
	"sync/atomic"
	"time"

	"github.com/grovetools/grw/internal/store/cache"
	"github.com/grovetools/grw/pkg/models"
)

// errorSlot holds the last error of one domain.
type errorSlot struct {
	domain models.Domain
	slot   cache.Slot[models.ErrorRecord]
	now    func() time.Time
	notify func(Update)
	closed atomic.Bool
}

func newErrorSlot(domain models.Domain, now func() time.Time) errorSlot {
	return errorSlot{domain: domain, now: now}
}

// SetError records msg as the domain's current error, replacing any previous
// one. It is a no-op after the domain shut down.
func (e *errorSlot) SetError(msg string) {
	if e.closed.Load() {
		return
	}
	e.slot.Store(models.ErrorRecord{Domain: e.domain, Message: msg, At: e.now()})
	e.publish(Update{Type: UpdateError, Domain: e.domain})
}

// ClearError removes the current error. It reports whether one was set.
func (e *errorSlot) ClearError() bool {
	if !e.slot.Clear() {
		return false
	}
	e.publish(Update{Type: UpdateError, Domain: e.domain})
	return true
}

// Error returns the current error record, if any.
func (e *errorSlot) Error() (models.ErrorRecord, bool) {
	return e.slot.Load()
}

// HasError reports whether an error is currently recorded.
func (e *errorSlot) HasError() bool {
	_, ok := e.slot.Load()
	return ok
}

// close drops the current error and discards later ones.
func (e *errorSlot) close() {
	e.closed.Store(true)
	e.slot.Clear()
}

func (e *errorSlot) publish(u Update) {
	if e.notify != nil {
		e.notify(u)
	}
}
