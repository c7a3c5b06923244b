package store

import (
	"sync/atomic"
	"time"

	"github.com/grovetools/grw/internal/store/cache"
	"github.com/grovetools/grw/pkg/models"
)

// MonitorState holds the output and run timing of monitor commands and the
// active monitor configuration.
type MonitorState struct {
	errorSlot

	outputs *cache.Cache[string, string]
	timings *cache.Cache[string, models.MonitorTiming]
	config  cache.Slot[models.MonitorConfig]
	now     func() time.Time
	closed  atomic.Bool
}

// NewMonitorState returns an empty monitor domain state. Output and timing
// maps are unbounded; they hold one entry per configured command.
func NewMonitorState(cfg Config) *MonitorState {
	cfg = cfg.withDefaults()
	return &MonitorState{
		errorSlot: newErrorSlot(models.DomainMonitor, cfg.now()),
		outputs:   cache.New[string, string](0),
		timings:   cache.New[string, models.MonitorTiming](0),
		now:       cfg.now(),
	}
}

// UpdateOutput replaces the output stored under key.
func (m *MonitorState) UpdateOutput(key, output string) {
	if m.closed.Load() {
		return
	}
	m.outputs.Upsert(key, output)
	m.publish(Update{Type: UpdateMonitor, Domain: models.DomainMonitor, Key: key})
}

// Output returns the output stored under key.
func (m *MonitorState) Output(key string) (string, bool) {
	return m.outputs.Get(key)
}

// UpdateTiming replaces the timing stored under key.
func (m *MonitorState) UpdateTiming(key string, timing models.MonitorTiming) {
	if m.closed.Load() {
		return
	}
	m.timings.Upsert(key, timing)
}

// Timing returns the timing stored under key.
func (m *MonitorState) Timing(key string) (models.MonitorTiming, bool) {
	return m.timings.Get(key)
}

// RecordRun stores a finished run of key that took elapsed.
func (m *MonitorState) RecordRun(key string, elapsed time.Duration) {
	m.UpdateTiming(key, models.MonitorTiming{
		LastRun: m.now(),
		Elapsed: elapsed,
		HasRun:  true,
	})
}

// HasStaleTiming reports whether any command last ran more than threshold ago.
func (m *MonitorState) HasStaleTiming(threshold time.Duration) bool {
	now := m.now()
	stale := false
	m.timings.Range(func(_ string, t models.MonitorTiming) bool {
		if t.HasRun && now.Sub(t.LastRun) > threshold {
			stale = true
			return false
		}
		return true
	})
	return stale
}

// SetConfig replaces the active monitor configuration.
func (m *MonitorState) SetConfig(cfg models.MonitorConfig) {
	if m.closed.Load() {
		return
	}
	m.config.Store(cfg)
	m.publish(Update{Type: UpdateMonitorConfig, Domain: models.DomainMonitor})
}

// Config returns the active monitor configuration.
func (m *MonitorState) Config() (models.MonitorConfig, bool) {
	return m.config.Load()
}

// OutputCount returns the number of stored outputs.
func (m *MonitorState) OutputCount() int { return m.outputs.Len() }

// TimingCount returns the number of stored timings.
func (m *MonitorState) TimingCount() int { return m.timings.Len() }

func (m *MonitorState) cleanup() {
	m.ClearError()
}

func (m *MonitorState) shutdown() {
	m.closed.Store(true)
	m.outputs.Clear()
	m.timings.Clear()
	m.config.Clear()
	m.errorSlot.close()
}
