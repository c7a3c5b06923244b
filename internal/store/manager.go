package store

import (
	"sync"
	"sync/atomic"
)

// Manager owns the three domain states. It is shared by reference between the
// render loop and every background worker.
type Manager struct {
	cfg     Config
	git     *GitState
	llm     *LLMState
	monitor *MonitorState
	hub     *hub

	closed       atomic.Bool
	shutdownOnce sync.Once
}

// NewManager returns a Manager with empty domains bounded by cfg. Zero fields
// in cfg take their DefaultConfig value.
func NewManager(cfg Config) *Manager {
	cfg = cfg.withDefaults()
	m := &Manager{
		cfg:     cfg,
		git:     NewGitState(cfg),
		llm:     NewLLMState(cfg),
		monitor: NewMonitorState(cfg),
		hub:     newHub(),
	}
	m.git.notify = m.hub.publish
	m.llm.notify = m.hub.publish
	m.monitor.notify = m.hub.publish
	return m
}

// Git returns the git domain.
func (m *Manager) Git() *GitState { return m.git }

// LLM returns the llm domain.
func (m *Manager) LLM() *LLMState { return m.llm }

// Monitor returns the monitor domain.
func (m *Manager) Monitor() *MonitorState { return m.monitor }

// Config returns the bounds the manager was built with.
func (m *Manager) Config() Config { return m.cfg }

// Subscribe returns a channel of change hints. The channel is closed by
// Unsubscribe or Shutdown.
func (m *Manager) Subscribe(buffer int) chan Update {
	return m.hub.subscribe(buffer)
}

// Unsubscribe stops and closes a subscription.
func (m *Manager) Unsubscribe(ch chan Update) {
	m.hub.unsubscribe(ch)
}

// SweepResult lists the task markers a sweep reclaimed.
type SweepResult struct {
	Git []string
	LLM []TaskKey
}

// Total returns the number of reclaimed markers.
func (r SweepResult) Total() int { return len(r.Git) + len(r.LLM) }

// SweepStale reclaims task markers older than the configured stale timeout.
func (m *Manager) SweepStale() SweepResult {
	timeout := m.cfg.StaleTaskTimeout
	return SweepResult{
		Git: m.git.SweepStale(timeout),
		LLM: m.llm.SweepStale(timeout),
	}
}

// Cleanup clears every task marker and error while keeping cached data.
func (m *Manager) Cleanup() {
	m.git.cleanup()
	m.llm.cleanup()
	m.monitor.cleanup()
}

// Shutdown stops accepting new tasks and drops all state. Writes that land
// after Shutdown are discarded. Calling it again is a no-op.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.closed.Store(true)
		m.git.shutdown()
		m.llm.shutdown()
		m.monitor.shutdown()
		m.hub.close()
	})
}

// Closed reports whether Shutdown has run.
func (m *Manager) Closed() bool { return m.closed.Load() }
