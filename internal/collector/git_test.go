package collector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/pkg/models"
)

func TestGitPollerPublishesSnapshotAndDiff(t *testing.T) {
	m := newManager()
	reader := &fakeReader{
		snap: models.RepoSnapshot{Branch: "main", DiffHash: "stale", Files: []models.FileChange{{Path: "a.go"}}},
		// The tree changed between the snapshot and the diff read.
		worktree: models.DiffBlob{Key: models.DiffKey{Target: models.WorktreeTarget, Revision: "fresh"}, Text: "+x", Hash: "fresh"},
	}
	p := NewGitPoller(reader, time.Second)

	p.Poll(context.Background(), m)

	snap, ok := m.Git().Repo()
	require.True(t, ok)
	assert.Equal(t, "main", snap.Branch)
	assert.Equal(t, "fresh", snap.DiffHash)

	blob, ok := m.Git().WorktreeDiff()
	require.True(t, ok)
	assert.Equal(t, "+x", blob.Text)
	assert.False(t, m.Git().HasError())
}

func TestGitPollerSkipsCachedDiff(t *testing.T) {
	m := newManager()
	key := models.DiffKey{Target: models.WorktreeTarget, Revision: "h1"}
	m.Git().CacheDiff(key, models.DiffBlob{Key: key, Text: "+y", Hash: "h1"})
	reader := &fakeReader{snap: models.RepoSnapshot{DiffHash: "h1"}}

	NewGitPoller(reader, time.Second).Poll(context.Background(), m)

	assert.Zero(t, reader.wtCalls.Load())
	snap, ok := m.Git().Repo()
	require.True(t, ok)
	assert.Equal(t, "h1", snap.DiffHash)
}

func TestGitPollerErrorIsStickyUntilSuccess(t *testing.T) {
	m := newManager()
	reader := &fakeReader{snapErr: errors.NotARepository("/tmp/x")}
	p := NewGitPoller(reader, time.Second)

	p.Poll(context.Background(), m)
	rec, ok := m.Git().Error()
	require.True(t, ok)
	assert.Equal(t, "not a git repository: /tmp/x", rec.Message)
	_, hasRepo := m.Git().Repo()
	assert.False(t, hasRepo)

	reader.mu.Lock()
	reader.snapErr = nil
	reader.snap = models.RepoSnapshot{Branch: "main"}
	reader.mu.Unlock()

	p.Poll(context.Background(), m)
	assert.False(t, m.Git().HasError())
}

func TestGitPollerRunStopsOnCancel(t *testing.T) {
	m := newManager()
	reader := &fakeReader{snap: models.RepoSnapshot{Branch: "main"}}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewGitPoller(reader, 10*time.Millisecond).Run(ctx, m) }()

	require.Eventually(t, func() bool {
		_, ok := m.Git().Repo()
		return ok
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestCommitLoader(t *testing.T) {
	rec := models.CommitRecord{SHA: "abc123", Message: "fix: thing"}

	t.Run("loads commit and patch", func(t *testing.T) {
		m := newManager()
		reader := &fakeReader{commits: map[string]models.CommitRecord{"abc123": rec}}
		l := NewCommitLoader(reader)

		l.Load(context.Background(), m, "abc123")

		got, ok := m.Git().CachedCommit("abc123")
		require.True(t, ok)
		assert.Equal(t, "fix: thing", got.Message)
		_, ok = m.Git().CachedDiff(models.DiffKey{Target: "abc123", Revision: "abc123"})
		assert.True(t, ok)
		assert.False(t, m.Git().IsLoading("abc123"))

		l.Load(context.Background(), m, "abc123")
		assert.Equal(t, int32(1), reader.commitCalls.Load(), "cached commits are not re-read")
	})

	t.Run("concurrent loads run once", func(t *testing.T) {
		m := newManager()
		gate := make(chan struct{})
		reader := &fakeReader{commits: map[string]models.CommitRecord{"abc123": rec}, gate: gate}
		l := NewCommitLoader(reader)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Load(context.Background(), m, "abc123")
		}()
		require.Eventually(t, func() bool { return m.Git().IsLoading("abc123") }, time.Second, time.Millisecond)

		for i := 0; i < 5; i++ {
			l.Load(context.Background(), m, "abc123")
		}
		close(gate)
		wg.Wait()

		assert.Equal(t, int32(1), reader.commitCalls.Load())
		assert.False(t, m.Git().IsLoading("abc123"))
	})

	t.Run("failure releases marker and sets error", func(t *testing.T) {
		m := newManager()
		reader := &fakeReader{commitErr: errors.GitAccess("show", assert.AnError)}
		l := NewCommitLoader(reader)

		l.Load(context.Background(), m, "abc123")

		assert.False(t, m.Git().IsLoading("abc123"))
		rec, ok := m.Git().Error()
		require.True(t, ok)
		assert.Equal(t, "git show failed", rec.Message)

		tok, res := m.Git().StartTask("abc123")
		require.NotNil(t, tok)
		assert.Equal(t, "acquired", res.String())
	})

	t.Run("request queue feeds run loop", func(t *testing.T) {
		m := newManager()
		reader := &fakeReader{commits: map[string]models.CommitRecord{"abc123": rec}}
		l := NewCommitLoader(reader)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- l.Run(ctx, m) }()

		require.True(t, l.Request("abc123"))
		require.Eventually(t, func() bool {
			_, ok := m.Git().CachedDiff(models.DiffKey{Target: "abc123", Revision: "abc123"})
			return ok && !m.Git().IsLoading("abc123")
		}, time.Second, 5*time.Millisecond)
		cancel()
		assert.NoError(t, <-done)
	})
}
