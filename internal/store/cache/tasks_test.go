package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTasksStartComplete(t *testing.T) {
	tasks := NewTasks[string](nil)

	tok, res := tasks.Start("sha1")
	require.Equal(t, Acquired, res)
	require.NotNil(t, tok)
	assert.Equal(t, "sha1", tok.Key)

	_, res = tasks.Start("sha1")
	assert.Equal(t, AlreadyRunning, res)
	assert.True(t, tasks.IsRunning("sha1"))

	tasks.Complete("sha1")
	assert.False(t, tasks.IsRunning("sha1"))

	_, res = tasks.Start("sha1")
	assert.Equal(t, Acquired, res)
}

func TestTasksCompleteWithoutMarker(t *testing.T) {
	tasks := NewTasks[string](nil)
	assert.NotPanics(t, func() {
		tasks.Complete("never-started")
		tasks.Complete("never-started")
	})
	assert.Equal(t, 0, tasks.Len())
}

func TestTasksRelease(t *testing.T) {
	t.Run("releases own marker", func(t *testing.T) {
		tasks := NewTasks[string](nil)
		tok, _ := tasks.Start("k")
		assert.True(t, tasks.Release(tok))
		assert.False(t, tasks.IsRunning("k"))
		assert.False(t, tasks.Release(tok), "second release is a no-op")
	})

	t.Run("nil token", func(t *testing.T) {
		tasks := NewTasks[string](nil)
		assert.False(t, tasks.Release(nil))
	})

	t.Run("late release does not clear a newer claim", func(t *testing.T) {
		clock := newFakeClock()
		tasks := NewTasks[string](clock.Now)

		old, res := tasks.Start("k")
		require.Equal(t, Acquired, res)

		clock.Advance(time.Minute)
		swept := tasks.SweepStale(30 * time.Second)
		assert.Equal(t, []string{"k"}, swept)

		fresh, res := tasks.Start("k")
		require.Equal(t, Acquired, res)

		assert.False(t, tasks.Release(old))
		assert.True(t, tasks.IsRunning("k"))
		assert.True(t, tasks.Release(fresh))
	})
}

func TestTasksSweepStale(t *testing.T) {
	clock := newFakeClock()
	tasks := NewTasks[string](clock.Now)

	tasks.Start("old")
	clock.Advance(10 * time.Minute)
	tasks.Start("young")

	swept := tasks.SweepStale(5 * time.Minute)
	assert.Equal(t, []string{"old"}, swept)
	assert.False(t, tasks.IsRunning("old"))
	assert.True(t, tasks.IsRunning("young"))

	_, res := tasks.Start("old")
	assert.Equal(t, Acquired, res, "swept key can be acquired again")

	assert.Empty(t, tasks.SweepStale(time.Hour))
}

func TestTasksClose(t *testing.T) {
	tasks := NewTasks[string](nil)
	tok, _ := tasks.Start("inflight")
	tasks.Close()

	_, res := tasks.Start("new")
	assert.Equal(t, Rejected, res)
	assert.True(t, tasks.Closed())
	assert.True(t, tasks.Release(tok), "in-flight work can still release")
}

func TestTasksCountAndTokens(t *testing.T) {
	tasks := NewTasks[string](nil)
	tasks.Start("summary:a")
	tasks.Start("summary:b")
	tasks.Start("advice:a")

	assert.Equal(t, 3, tasks.Len())
	assert.Equal(t, 2, tasks.Count(func(k string) bool { return k[:7] == "summary" }))
	assert.Len(t, tasks.Tokens(), 3)

	tok, ok := tasks.Get("advice:a")
	require.True(t, ok)
	assert.Equal(t, "advice:a", tok.Key)

	tasks.Clear()
	assert.Equal(t, 0, tasks.Len())
}

func TestTasksSingleAcquirerUnderContention(t *testing.T) {
	tasks := NewTasks[string](nil)
	const goroutines = 64

	var acquired atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, res := tasks.Start("contended"); res == Acquired {
				acquired.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), acquired.Load())
}

func TestStartResultString(t *testing.T) {
	assert.Equal(t, "acquired", Acquired.String())
	assert.Equal(t, "already_running", AlreadyRunning.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "unknown", StartResult(42).String())
}
