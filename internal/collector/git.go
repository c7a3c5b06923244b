package collector

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/git"
	"github.com/grovetools/grw/internal/store"
	"github.com/grovetools/grw/internal/store/cache"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/pkg/models"
)

// GitPoller snapshots the repository on an interval and caches the
// working-tree diff the snapshot points at.
type GitPoller struct {
	reader   git.Reader
	interval time.Duration
	logger   *logrus.Entry
}

// NewGitPoller creates a poller.
func NewGitPoller(reader git.Reader, interval time.Duration) *GitPoller {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &GitPoller{
		reader:   reader,
		interval: interval,
		logger:   logging.NewLogger("collector.git"),
	}
}

// Name returns the collector's name.
func (c *GitPoller) Name() string { return "git" }

// Run starts the polling loop.
func (c *GitPoller) Run(ctx context.Context, m *store.Manager) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Poll(ctx, m)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Poll(ctx, m)
		}
	}
}

// Poll takes one snapshot. The diff is cached before the snapshot is
// published, so a reader that sees the new DiffHash always finds its body.
func (c *GitPoller) Poll(ctx context.Context, m *store.Manager) {
	gs := m.Git()
	snap, err := c.reader.Snapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.fail(gs, "snapshot", err)
		return
	}

	if snap.DiffHash != "" {
		key := models.DiffKey{Target: models.WorktreeTarget, Revision: snap.DiffHash}
		if _, ok := gs.CachedDiff(key); !ok {
			blob, err := c.reader.WorktreeDiff(ctx)
			if err != nil {
				if ctx.Err() == nil {
					c.fail(gs, "worktree diff", err)
				}
				return
			}
			snap.DiffHash = blob.Hash
			gs.CacheDiff(blob.Key, blob)
		}
	}

	gs.UpdateRepo(snap)
	gs.ClearError()
}

func (c *GitPoller) fail(gs *store.GitState, op string, err error) {
	c.logger.WithError(err).WithField("op", op).Warn("Git poll failed")
	gs.SetError(errors.UserMessage(err))
}

// CommitLoader loads commit metadata and patches on demand, typically when
// the user moves through the commit list.
type CommitLoader struct {
	reader   git.Reader
	requests queue[string]
	logger   *logrus.Entry
}

// NewCommitLoader creates a loader.
func NewCommitLoader(reader git.Reader) *CommitLoader {
	return &CommitLoader{
		reader:   reader,
		requests: newQueue[string](64),
		logger:   logging.NewLogger("collector.commits"),
	}
}

// Name returns the collector's name.
func (c *CommitLoader) Name() string { return "commits" }

// Request asks for sha to be loaded. It never blocks.
func (c *CommitLoader) Request(sha string) bool {
	return c.requests.push(sha)
}

// Run serves load requests until ctx is canceled, then waits for loads
// already in flight.
func (c *CommitLoader) Run(ctx context.Context, m *store.Manager) error {
	var workers errgroup.Group
	defer func() { _ = workers.Wait() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case sha := <-c.requests:
			workers.Go(func() error {
				c.Load(ctx, m, sha)
				return nil
			})
		}
	}
}

// Load fetches and caches one commit and its patch unless another worker is
// already doing so.
func (c *CommitLoader) Load(ctx context.Context, m *store.Manager, sha string) {
	gs := m.Git()
	diffKey := models.DiffKey{Target: sha, Revision: sha}
	_, haveCommit := gs.CachedCommit(sha)
	_, haveDiff := gs.CachedDiff(diffKey)
	if haveCommit && haveDiff {
		return
	}

	tok, res := gs.StartTask(sha)
	if res != cache.Acquired {
		return
	}
	defer gs.ReleaseTask(tok)
	_, haveCommit = gs.CachedCommit(sha)
	_, haveDiff = gs.CachedDiff(diffKey)

	if !haveCommit {
		rec, err := c.reader.Commit(ctx, sha)
		if err != nil {
			c.logger.WithError(err).WithField("sha", sha).Warn("Commit load failed")
			gs.SetError(errors.UserMessage(err))
			return
		}
		gs.CacheCommit(sha, rec)
	}
	if !haveDiff {
		blob, err := c.reader.CommitDiff(ctx, sha)
		if err != nil {
			c.logger.WithError(err).WithField("sha", sha).Warn("Commit diff failed")
			gs.SetError(errors.UserMessage(err))
			return
		}
		gs.CacheDiff(diffKey, blob)
	}
}
