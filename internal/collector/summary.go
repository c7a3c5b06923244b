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
	"github.com/grovetools/grw/llm"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/pkg/models"
)

// SummaryOptions tunes the summary generator.
type SummaryOptions struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// Preload generates summaries for the newest PreloadCount commits of each
	// snapshot without waiting for a request.
	Preload      bool
	PreloadCount int
	// Parallel bounds concurrent preload requests.
	Parallel int
	// Interval is how often the preload list is checked.
	Interval time.Duration
}

// SummaryGenerator writes commit summaries into the llm domain.
type SummaryGenerator struct {
	client   llm.Client
	reader   git.Reader
	opts     SummaryOptions
	requests queue[string]
	logger   *logrus.Entry
}

// NewSummaryGenerator creates a summary generator.
func NewSummaryGenerator(client llm.Client, reader git.Reader, opts SummaryOptions) *SummaryGenerator {
	if opts.Parallel <= 0 {
		opts.Parallel = 2
	}
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	return &SummaryGenerator{
		client:   client,
		reader:   reader,
		opts:     opts,
		requests: newQueue[string](64),
		logger:   logging.NewLogger("collector.summary"),
	}
}

// Name returns the collector's name.
func (c *SummaryGenerator) Name() string { return "summary" }

// Request asks for the summary of sha. It never blocks.
func (c *SummaryGenerator) Request(sha string) bool {
	return c.requests.push(sha)
}

// Run serves requests and, when enabled, preloads recent commits. It returns
// once every summary it started has finished.
func (c *SummaryGenerator) Run(ctx context.Context, m *store.Manager) error {
	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()
	var workers errgroup.Group
	defer func() { _ = workers.Wait() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case sha := <-c.requests:
			workers.Go(func() error {
				c.Generate(ctx, m, sha)
				return nil
			})
		case <-ticker.C:
			if c.opts.Preload {
				c.Preload(ctx, m)
			}
		}
	}
}

// Preload summarizes the newest commits of the current snapshot that have no
// summary yet, a few at a time. It returns once they are all done.
func (c *SummaryGenerator) Preload(ctx context.Context, m *store.Manager) {
	snap, ok := m.Git().Repo()
	if !ok {
		return
	}
	commits := snap.RecentCommits
	if c.opts.PreloadCount > 0 && len(commits) > c.opts.PreloadCount {
		commits = commits[:c.opts.PreloadCount]
	}

	var g errgroup.Group
	g.SetLimit(c.opts.Parallel)
	for _, ref := range commits {
		if _, ok := m.LLM().CachedSummary(ref.SHA); ok {
			continue
		}
		sha := ref.SHA
		g.Go(func() error {
			c.Generate(ctx, m, sha)
			return nil
		})
	}
	_ = g.Wait()
}

// Generate produces the summary of sha unless it is cached or in flight.
func (c *SummaryGenerator) Generate(ctx context.Context, m *store.Manager, sha string) {
	ls := m.LLM()
	if _, ok := ls.CachedSummary(sha); ok {
		return
	}
	key := store.SummaryTask(sha)
	tok, res := ls.StartTask(key)
	if res != cache.Acquired {
		return
	}
	defer ls.ReleaseTask(tok)
	// A worker that finished between the check above and StartTask has
	// already cached the result.
	if _, ok := ls.CachedSummary(sha); ok {
		return
	}

	rec, diff, err := loadCommit(ctx, m, c.reader, sha)
	if err != nil {
		c.fail(ls, sha, err)
		return
	}

	req := llm.SummaryRequest(c.opts.Model, rec.Message, diff.Text, c.opts.MaxTokens)
	req.Timeout = c.opts.Timeout
	start := time.Now()
	summary, err := c.client.Complete(ctx, req)
	if err != nil {
		c.fail(ls, sha, err)
		return
	}
	ls.CacheSummary(sha, summary)
	ls.ClearError()
	c.logger.WithFields(logrus.Fields{
		"sha":      rec.ShortSHA,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("Generated commit summary")
}

func (c *SummaryGenerator) fail(ls *store.LLMState, sha string, err error) {
	c.logger.WithError(err).WithField("sha", sha).Warn("Summary generation failed")
	ls.SetError(errors.UserMessage(err))
}

// loadCommit returns commit metadata and patch from the git cache, reading
// and caching whatever is missing.
func loadCommit(ctx context.Context, m *store.Manager, reader git.Reader, sha string) (models.CommitRecord, models.DiffBlob, error) {
	gs := m.Git()
	rec, ok := gs.CachedCommit(sha)
	if !ok {
		var err error
		if rec, err = reader.Commit(ctx, sha); err != nil {
			return models.CommitRecord{}, models.DiffBlob{}, err
		}
		gs.CacheCommit(sha, rec)
	}
	key := models.DiffKey{Target: sha, Revision: sha}
	diff, ok := gs.CachedDiff(key)
	if !ok {
		var err error
		if diff, err = reader.CommitDiff(ctx, sha); err != nil {
			return models.CommitRecord{}, models.DiffBlob{}, err
		}
		gs.CacheDiff(key, diff)
	}
	return rec, diff, nil
}
