package store

import (
	"sync/atomic"
	"time"

	"github.com/grovetools/grw/internal/store/cache"
	"github.com/grovetools/grw/pkg/models"
)

// GitToken marks an in-flight commit load.
type GitToken = cache.Token[string]

// GitState holds the repository snapshot and the commit and diff caches.
type GitState struct {
	errorSlot

	repo    cache.Slot[models.RepoSnapshot]
	commits *cache.Cache[string, models.CommitRecord]
	diffs   *cache.Cache[models.DiffKey, models.DiffBlob]
	tasks   *cache.Tasks[string]
	closed  atomic.Bool
}

// NewGitState returns an empty git domain state bounded by cfg.
func NewGitState(cfg Config) *GitState {
	cfg = cfg.withDefaults()
	return &GitState{
		errorSlot: newErrorSlot(models.DomainGit, cfg.now()),
		commits:   cache.New[string, models.CommitRecord](cfg.CommitCacheSize),
		diffs:     cache.New[models.DiffKey, models.DiffBlob](cfg.DiffCacheSize),
		tasks:     cache.NewTasks[string](cfg.now()),
	}
}

// UpdateRepo replaces the repository snapshot.
func (g *GitState) UpdateRepo(snapshot models.RepoSnapshot) {
	if g.closed.Load() {
		return
	}
	g.repo.Store(snapshot.Clone())
	g.publish(Update{Type: UpdateRepo, Domain: models.DomainGit})
}

// Repo returns the current snapshot.
func (g *GitState) Repo() (models.RepoSnapshot, bool) {
	s, ok := g.repo.Load()
	if !ok {
		return models.RepoSnapshot{}, false
	}
	return s.Clone(), true
}

// LastUpdate returns when the snapshot was last replaced.
func (g *GitState) LastUpdate() time.Time {
	return g.repo.UpdatedAt()
}

// CacheCommit stores commit metadata under sha.
func (g *GitState) CacheCommit(sha string, record models.CommitRecord) {
	if g.closed.Load() {
		return
	}
	g.commits.Upsert(sha, record.Clone())
	g.publish(Update{Type: UpdateCommit, Domain: models.DomainGit, Key: sha})
}

// CachedCommit returns the commit metadata cached under sha.
func (g *GitState) CachedCommit(sha string) (models.CommitRecord, bool) {
	rec, ok := g.commits.Get(sha)
	if !ok {
		return models.CommitRecord{}, false
	}
	return rec.Clone(), true
}

// CacheDiff stores a diff body under key.
func (g *GitState) CacheDiff(key models.DiffKey, blob models.DiffBlob) {
	if g.closed.Load() {
		return
	}
	g.diffs.Upsert(key, blob)
	g.publish(Update{Type: UpdateDiff, Domain: models.DomainGit, Key: key.String()})
}

// CachedDiff returns the diff body cached under key.
func (g *GitState) CachedDiff(key models.DiffKey) (models.DiffBlob, bool) {
	return g.diffs.Get(key)
}

// WorktreeDiff returns the cached diff body of the current snapshot.
func (g *GitState) WorktreeDiff() (models.DiffBlob, bool) {
	s, ok := g.repo.Load()
	if !ok || s.DiffHash == "" {
		return models.DiffBlob{}, false
	}
	return g.diffs.Get(models.DiffKey{Target: models.WorktreeTarget, Revision: s.DiffHash})
}

// StartTask claims an on-demand load of sha.
func (g *GitState) StartTask(sha string) (*GitToken, cache.StartResult) {
	return g.tasks.Start(sha)
}

// IsLoading reports whether sha is being loaded.
func (g *GitState) IsLoading(sha string) bool {
	return g.tasks.IsRunning(sha)
}

// CompleteTask drops the marker for sha. Safe without a marker.
func (g *GitState) CompleteTask(sha string) {
	g.tasks.Complete(sha)
}

// ReleaseTask drops tok's marker if it is still current.
func (g *GitState) ReleaseTask(tok *GitToken) bool {
	return g.tasks.Release(tok)
}

// SweepStale drops load markers older than timeout.
func (g *GitState) SweepStale(timeout time.Duration) []string {
	return g.tasks.SweepStale(timeout)
}

// CommitCount returns the number of cached commits.
func (g *GitState) CommitCount() int { return g.commits.Len() }

// DiffCount returns the number of cached diff bodies.
func (g *GitState) DiffCount() int { return g.diffs.Len() }

// ActiveTasks returns the number of in-flight loads.
func (g *GitState) ActiveTasks() int { return g.tasks.Len() }

func (g *GitState) evictions() uint64 {
	return g.commits.Evictions() + g.diffs.Evictions()
}

func (g *GitState) cleanup() {
	g.tasks.Clear()
	g.ClearError()
}

func (g *GitState) shutdown() {
	g.closed.Store(true)
	g.tasks.Close()
	g.tasks.Clear()
	g.repo.Clear()
	g.commits.Clear()
	g.diffs.Clear()
	g.errorSlot.close()
}
