package collector

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/grw/errors"
	"github.com/grovetools/grw/internal/store"
	"github.com/grovetools/grw/logging"
	"github.com/grovetools/grw/monitor"
)

// MonitorCollector runs the configured monitor command whenever its interval
// has elapsed. The command is read from the monitor domain on every tick, so
// a config reload takes effect without a restart.
type MonitorCollector struct {
	runner monitor.Runner
	tick   time.Duration
	now    func() time.Time
	logger *logrus.Entry
}

// NewMonitorCollector creates a monitor collector that checks its schedule every tick.
func NewMonitorCollector(runner monitor.Runner, tick time.Duration) *MonitorCollector {
	if tick <= 0 {
		tick = time.Second
	}
	return &MonitorCollector{
		runner: runner,
		tick:   tick,
		now:    time.Now,
		logger: logging.NewLogger("collector.monitor"),
	}
}

// Name returns the collector's name.
func (c *MonitorCollector) Name() string { return "monitor" }

// Run starts the scheduling loop.
func (c *MonitorCollector) Run(ctx context.Context, m *store.Manager) error {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	c.RunDue(ctx, m)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.RunDue(ctx, m)
		}
	}
}

// RunDue runs the command if it is configured and due. It reports whether it ran.
func (c *MonitorCollector) RunDue(ctx context.Context, m *store.Manager) bool {
	ms := m.Monitor()
	cfg, ok := ms.Config()
	if !ok || !cfg.Enabled() {
		return false
	}
	timing, _ := ms.Timing(cfg.Command)
	if !monitor.ShouldRun(timing, cfg.Interval, c.now()) {
		return false
	}

	runCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	res, err := c.runner.Run(runCtx, cfg.Command)
	if ctx.Err() != nil {
		return false
	}
	ms.UpdateOutput(cfg.Command, res.Output)
	ms.RecordRun(cfg.Command, res.Elapsed)
	if err != nil {
		c.logger.WithError(err).WithField("command", cfg.Command).Warn("Monitor command failed")
		ms.SetError(errors.UserMessage(err))
		return true
	}
	ms.ClearError()
	return true
}
