// Package profiling adds pprof and phase timing flags to the grw commands.
package profiling

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Stopper ends a timed phase.
type Stopper interface {
	Stop()
}

type phase struct {
	name     string
	depth    int
	start    time.Time
	duration time.Duration
	timer    *Timer
}

func (p *phase) Stop() {
	p.timer.end(p)
}

// Timer records nested phases. The zero value is disabled.
type Timer struct {
	mu      sync.Mutex
	enabled bool
	start   time.Time
	phases  []*phase
	open    int
	now     func() time.Time
}

var defaultTimer = &Timer{}

// Enable turns on the process-wide timer.
func Enable() {
	defaultTimer.Enable()
}

// Start begins a phase on the process-wide timer. Stop it with defer.
func Start(name string) Stopper {
	return defaultTimer.Start(name)
}

// Summarize writes the process-wide phases to w.
func Summarize(w io.Writer) {
	defaultTimer.Summarize(w)
}

// Enable starts the clock. Phases started before Enable are not recorded.
func (t *Timer) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enabled {
		return
	}
	if t.now == nil {
		t.now = time.Now
	}
	t.enabled = true
	t.start = t.now()
}

// Start begins a phase nested in the phases still open.
func (t *Timer) Start(name string) Stopper {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return noopStopper{}
	}
	p := &phase{name: name, depth: t.open, start: t.now(), timer: t}
	t.phases = append(t.phases, p)
	t.open++
	return p
}

func (t *Timer) end(p *phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p.duration != 0 {
		return
	}
	p.duration = t.now().Sub(p.start)
	if t.open > 0 {
		t.open--
	}
}

// Summarize writes every finished phase with its share of the total.
func (t *Timer) Summarize(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}

	total := t.now().Sub(t.start)
	fmt.Fprintf(w, "\n--- Timing (%v) ---\n", total.Round(100*time.Microsecond))
	for _, p := range t.phases {
		pct := 0.0
		if total > 0 {
			pct = float64(p.duration) / float64(total) * 100
		}
		fmt.Fprintf(w, "%s- %s (%v, %.1f%%)\n",
			strings.Repeat("  ", p.depth), p.name, p.duration.Round(100*time.Microsecond), pct)
	}
}

type noopStopper struct{}

func (noopStopper) Stop() {}
