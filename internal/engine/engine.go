// Package engine runs the background collectors against the shared state.
package engine

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/grovetools/grw/internal/collector"
	"github.com/grovetools/grw/internal/store"
)

// Engine manages and runs all collectors.
type Engine struct {
	manager    *store.Manager
	collectors []collector.Collector
	logger     *logrus.Entry
}

// New creates a new Engine instance.
func New(m *store.Manager, logger *logrus.Entry) *Engine {
	return &Engine{
		manager: m,
		logger:  logger,
	}
}

// Register adds a collector to the engine.
func (e *Engine) Register(c collector.Collector) {
	e.collectors = append(e.collectors, c)
}

// Collectors returns the registered collectors.
func (e *Engine) Collectors() []collector.Collector {
	return append([]collector.Collector(nil), e.collectors...)
}

// Start runs all collectors and blocks until ctx is canceled and every
// collector has returned. A failing collector is logged and does not stop the
// others; nothing a collector reports is fatal. Start returns the first
// collector error, if any.
func (e *Engine) Start(ctx context.Context) error {
	var g errgroup.Group
	for _, c := range e.collectors {
		col := c
		g.Go(func() (err error) {
			log := e.logger.WithField("collector", col.Name())
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("collector %s panicked: %v", col.Name(), r)
					log.WithField("panic", r).Error("Collector panicked")
				}
			}()

			log.Debug("Starting collector")
			if err := col.Run(ctx, e.manager); err != nil {
				log.WithError(err).Error("Collector failed")
				return fmt.Errorf("collector %s: %w", col.Name(), err)
			}
			log.Debug("Collector stopped")
			return nil
		})
	}
	return g.Wait()
}

// Manager returns the engine's shared state.
func (e *Engine) Manager() *store.Manager {
	return e.manager
}
