package store

import "sync"

// hub fans change hints out to subscribers. Sends never block a writer: a
// subscriber whose buffer is full misses the hint and picks the change up on
// its next read.
type hub struct {
	mu          sync.RWMutex
	subscribers map[chan Update]struct{}
	closed      bool
}

func newHub() *hub {
	return &hub{subscribers: make(map[chan Update]struct{})}
}

func (h *hub) publish(u Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- u:
		default:
		}
	}
}

func (h *hub) subscribe(buffer int) chan Update {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Update, buffer)
	if h.closed {
		close(ch)
		return ch
	}
	h.subscribers[ch] = struct{}{}
	return ch
}

func (h *hub) unsubscribe(ch chan Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[ch]; !ok {
		return
	}
	delete(h.subscribers, ch)
	close(ch)
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
}
