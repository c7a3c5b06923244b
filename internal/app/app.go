// Package app assembles the shared state, the git reader, the LLM client and
// the collectors from a loaded config.
package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/grw/config"
	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/git"
	"github.com/grovetools/grw/internal/collector"
	"github.com/grovetools/grw/internal/engine"
	"github.com/grovetools/grw/internal/store"
	"github.com/grovetools/grw/llm"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/monitor"
)

// reloadDebounce coalesces the burst of events editors produce on save.
const reloadDebounce = 250 * time.Millisecond

// Options locate the repository and the config file.
type Options struct {
	// RepoDir is any directory inside the work tree.
	RepoDir string
	// ConfigPath is watched for changes when set.
	ConfigPath string
	// Flags are re-applied on every config reload.
	Flags config.Flags
}

// App is a wired but not yet running grw instance.
type App struct {
	Config  *config.Config
	Manager *store.Manager
	Engine  *engine.Engine
	Reader  *git.CLIReader

	Poller  *collector.GitPoller
	Commits *collector.CommitLoader
	Monitor *collector.MonitorCollector

	// The LLM collectors are nil when no provider is usable.
	Summaries *collector.SummaryGenerator
	Advice    *collector.AdviceGenerator
	Chat      *collector.ChatResponder

	logger *logrus.Entry
}

// New builds an App from cfg, which must already have flags merged in. A
// missing repository is an error; an unusable LLM provider is recorded in the
// llm domain and the app runs without LLM features.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := logging.NewLogger("app")

	filter, err := git.NewFilter(cfg.Git.Exclude)
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}
	reader, err := git.Open(ctx, opts.RepoDir, git.Options{
		HistoryLimit: cfg.Git.CommitHistoryLimit,
		Filter:       filter,
	})
	if err != nil {
		return nil, err
	}

	manager := store.NewManager(StoreConfig(cfg.SharedState))
	manager.Monitor().SetConfig(cfg.Monitor.Settings())

	a := &App{
		Config:  cfg,
		Manager: manager,
		Engine:  engine.New(manager, logger),
		Reader:  reader,
		Poller:  collector.NewGitPoller(reader, cfg.Git.PollInterval()),
		Commits: collector.NewCommitLoader(reader),
		Monitor: collector.NewMonitorCollector(monitor.NewShellRunner(reader.Root(), cfg.Monitor.Timeout()), time.Second),
		logger:  logger,
	}

	a.Engine.Register(a.Poller)
	a.Engine.Register(a.Commits)
	a.Engine.Register(a.Monitor)
	a.Engine.Register(collector.NewStaleSweeper(cfg.SharedState.CleanupInterval()))
	if opts.ConfigPath != "" {
		a.Engine.Register(collector.NewConfigReloader(opts.ConfigPath, opts.Flags, reloadDebounce))
	}

	if cfg.LLM.Enabled() {
		client, err := llm.NewClient(ctx, cfg.LLM)
		if err != nil {
			logger.WithError(err).WithField("provider", cfg.LLM.Provider).Warn("LLM provider unavailable")
			manager.LLM().SetError(errors.UserMessage(err))
		} else {
			a.wireLLM(client)
		}
	}

	logger.WithFields(logrus.Fields{
		"repo":       reader.Root(),
		"collectors": len(a.Engine.Collectors()),
		"llm":        a.LLMEnabled(),
	}).Debug("Application assembled")
	return a, nil
}

func (a *App) wireLLM(client llm.Client) {
	cfg := a.Config.LLM
	a.Summaries = collector.NewSummaryGenerator(client, a.Reader, collector.SummaryOptions{
		Model:        cfg.SummaryModel,
		MaxTokens:    cfg.MaxTokens,
		Timeout:      cfg.Timeout(),
		Preload:      cfg.PreloadSummaries,
		PreloadCount: cfg.PreloadCount,
	})
	opts := collector.LLMOptions{
		Model:     cfg.AdviceModel,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.Timeout(),
	}
	a.Advice = collector.NewAdviceGenerator(client, opts)
	a.Chat = collector.NewChatResponder(client, opts)

	a.Engine.Register(a.Summaries)
	a.Engine.Register(a.Advice)
	a.Engine.Register(a.Chat)
}

// LLMEnabled reports whether the LLM collectors are wired.
func (a *App) LLMEnabled() bool {
	return a.Summaries != nil
}

// Run starts every collector and blocks until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	return a.Engine.Start(ctx)
}

// Collect takes one snapshot and runs the monitor command once if it is due,
// without starting the background loops.
func (a *App) Collect(ctx context.Context) {
	a.Poller.Poll(ctx, a.Manager)
	a.Monitor.RunDue(ctx, a.Manager)
}

// Close shuts the shared state down. It is safe to call more than once.
func (a *App) Close() {
	a.Manager.Shutdown()
}

// StoreConfig maps the shared_state config section onto store bounds.
func StoreConfig(s config.SharedStateConfig) store.Config {
	return store.Config{
		CommitCacheSize:  s.CommitCacheSize,
		DiffCacheSize:    s.DiffCacheSize,
		SummaryCacheSize: s.SummaryCacheSize,
		AdviceCacheSize:  s.AdviceCacheSize,
		ChatHistoryLimit: s.ChatHistoryLimit,
		StaleTaskTimeout: s.StaleTaskThreshold(),
	}
}
