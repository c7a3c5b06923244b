package store

import (
	"testing"
	"time"

	"github.com/grovetools/grw/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorOutput(t *testing.T) {
	m := NewMonitorState(DefaultConfig())

	_, ok := m.Output("default")
	assert.False(t, ok)

	m.UpdateOutput("default", "$ make test\nok")
	m.UpdateOutput("default", "$ make test\nFAIL")

	out, ok := m.Output("default")
	require.True(t, ok)
	assert.Equal(t, "$ make test\nFAIL", out)
	assert.Equal(t, 1, m.OutputCount())
}

func TestMonitorTiming(t *testing.T) {
	clock := newFakeClock()
	m := NewMonitorState(Config{Clock: clock.Now})

	assert.False(t, m.HasStaleTiming(time.Minute), "no runs yet")

	m.RecordRun("default", 250*time.Millisecond)
	timing, ok := m.Timing("default")
	require.True(t, ok)
	assert.True(t, timing.HasRun)
	assert.Equal(t, 250*time.Millisecond, timing.Elapsed)
	assert.Equal(t, clock.Now(), timing.LastRun)

	clock.Advance(time.Hour)
	assert.True(t, m.HasStaleTiming(30*time.Minute))
	assert.False(t, m.HasStaleTiming(2*time.Hour))

	m.UpdateTiming("idle", models.MonitorTiming{})
	assert.Equal(t, 2, m.TimingCount())
}

func TestMonitorConfig(t *testing.T) {
	m := NewMonitorState(DefaultConfig())

	_, ok := m.Config()
	assert.False(t, ok)

	m.SetConfig(models.MonitorConfig{Command: "make test", Interval: 5 * time.Second})
	cfg, ok := m.Config()
	require.True(t, ok)
	assert.True(t, cfg.Enabled())
	assert.Equal(t, "make test", cfg.Command)
}
