package collector

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/grw/internal/store"
	"github.com/grovetools/grw/logging"
)

// StaleSweeper periodically reclaims task markers whose worker never
// released them.
type StaleSweeper struct {
	interval time.Duration
	logger   *logrus.Entry
}

// NewStaleSweeper creates a sweeper.
func NewStaleSweeper(interval time.Duration) *StaleSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &StaleSweeper{
		interval: interval,
		logger:   logging.NewLogger("collector.sweeper"),
	}
}

// Name returns the collector's name.
func (c *StaleSweeper) Name() string { return "sweeper" }

// Run sweeps on every interval until ctx is canceled.
func (c *StaleSweeper) Run(ctx context.Context, m *store.Manager) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			res := m.SweepStale()
			if res.Total() > 0 {
				c.logger.WithFields(sweepFields(res)).Warn("Reclaimed stale task markers")
			}
		}
	}
}

// sweepFields lists the reclaimed keys of both domains.
func sweepFields(res store.SweepResult) logrus.Fields {
	llmKeys := make([]string, len(res.LLM))
	for i, k := range res.LLM {
		llmKeys[i] = k.String()
	}
	return logrus.Fields{
		"count": res.Total(),
		"git":   res.Git,
		"llm":   llmKeys,
	}
}
