package collector

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/internal/store"
	"github.com/grovetools/grw/internal/store/cache"
	"github.com/grovetools/grw/llm"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/pkg/models"
)

// LLMOptions are the request settings shared by the advice and chat workers.
type LLMOptions struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// AdviceGenerator reviews working-tree diffs and publishes the result as the
// current advice.
type AdviceGenerator struct {
	client   llm.Client
	opts     LLMOptions
	requests queue[string]
	now      func() time.Time
	logger   *logrus.Entry
}

// NewAdviceGenerator creates an advice generator.
func NewAdviceGenerator(client llm.Client, opts LLMOptions) *AdviceGenerator {
	return &AdviceGenerator{
		client:   client,
		opts:     opts,
		requests: newQueue[string](16),
		now:      time.Now,
		logger:   logging.NewLogger("collector.advice"),
	}
}

// Name returns the collector's name.
func (c *AdviceGenerator) Name() string { return "advice" }

// Request asks for advice on the diff with the given hash. An empty hash
// means the work tree is clean.
func (c *AdviceGenerator) Request(diffHash string) bool {
	return c.requests.push(diffHash)
}

// Run serves advice requests until ctx is canceled. It returns once every
// request it started has finished.
func (c *AdviceGenerator) Run(ctx context.Context, m *store.Manager) error {
	var workers errgroup.Group
	defer func() { _ = workers.Wait() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case hash := <-c.requests:
			workers.Go(func() error {
				c.Generate(ctx, m, hash)
				return nil
			})
		}
	}
}

// Generate shows cached advice for diffHash, or asks the model for it.
func (c *AdviceGenerator) Generate(ctx context.Context, m *store.Manager, diffHash string) {
	ls := m.LLM()
	if diffHash == "" {
		ls.UpdateCurrentAdvice(models.AdviceData{Raw: llm.NoChangesMessage, GeneratedAt: c.now()})
		return
	}
	if ls.SelectAdvice(diffHash) {
		return
	}

	tok, res := ls.StartTask(store.AdviceTask(diffHash))
	if res != cache.Acquired {
		return
	}
	defer ls.ReleaseTask(tok)
	if ls.SelectAdvice(diffHash) {
		return
	}

	blob, ok := m.Git().CachedDiff(models.DiffKey{Target: models.WorktreeTarget, Revision: diffHash})
	if !ok || strings.TrimSpace(blob.Text) == "" {
		ls.UpdateCurrentAdvice(models.AdviceData{DiffHash: diffHash, Raw: llm.NoChangesMessage, GeneratedAt: c.now()})
		return
	}

	req := llm.AdviceRequest(c.opts.Model, blob.Text, c.opts.MaxTokens)
	req.Timeout = c.opts.Timeout
	reply, err := c.client.Complete(ctx, req)
	if err != nil {
		c.logger.WithError(err).WithField("diff", diffHash).Warn("Advice generation failed")
		ls.SetError(errors.UserMessage(err))
		return
	}

	data := models.AdviceData{
		DiffHash:     diffHash,
		Improvements: llm.ParseAdvice(reply),
		Raw:          reply,
		GeneratedAt:  c.now(),
	}
	ls.CacheAdvice(diffHash, data)
	ls.UpdateCurrentAdvice(data)
	ls.ClearError()
	c.logger.WithFields(logrus.Fields{
		"diff":         diffHash,
		"improvements": len(data.Improvements),
	}).Debug("Generated advice")
}
