package collector

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/grw/config"
	"github.com/grovetools/grw/internal/store"
	"github.com/grovetools/grw/logging"
)

// ConfigReloader watches the config file and pushes changes into the running
// process: the monitor command and schedule, and the log settings. Command
// line flags keep precedence over the reloaded file.
type ConfigReloader struct {
	path     string
	flags    config.Flags
	debounce time.Duration
	logger   *logrus.Entry
}

// NewConfigReloader creates a reloader for path.
func NewConfigReloader(path string, flags config.Flags, debounce time.Duration) *ConfigReloader {
	return &ConfigReloader{
		path:     path,
		flags:    flags,
		debounce: debounce,
		logger:   logging.NewLogger("collector.config"),
	}
}

// Name returns the collector's name.
func (c *ConfigReloader) Name() string { return "config" }

// Run watches until ctx is canceled.
func (c *ConfigReloader) Run(ctx context.Context, m *store.Manager) error {
	w, err := config.NewWatcher(c.path, c.debounce, func(cfg *config.Config) {
		c.Apply(m, cfg)
	}, c.logger)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// Apply publishes the reloadable parts of cfg.
func (c *ConfigReloader) Apply(m *store.Manager, cfg *config.Config) {
	merged := cfg.MergeFlags(c.flags)
	logging.Configure(merged.Logging)
	m.Monitor().SetConfig(merged.Monitor.Settings())
	c.logger.WithField("monitor_command", merged.Monitor.Command).Debug("Applied reloaded config")
}
