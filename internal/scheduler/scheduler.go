// Package scheduler runs the periodic sweep that publishes scheduled posts
// whose time has come.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/blogforge/distributor/internal/destination"
	"github.com/blogforge/distributor/internal/lifecycle"
	"github.com/blogforge/distributor/internal/logger"
)

const sweepTimeout = 2 * time.Minute

// Scheduler drives lifecycle.PublishDue across every registered site on a
// cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	sites     destination.SiteProvider
	lifecycle *lifecycle.Manager
	spec      string
	logger    logger.Logger
}

// New creates a scheduler with the given cron spec, typically every minute.
func New(spec string, sites destination.SiteProvider, lc *lifecycle.Manager, log logger.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		sites:     sites,
		lifecycle: lc,
		spec:      spec,
		logger:    log,
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.sweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Publish scheduler started", logger.String("cron", s.spec))
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Publish scheduler stopped")
}

// sweep publishes due posts on every site. Per-site failures are logged and
// skipped so one unreachable destination never stalls the rest.
func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	sites, err := s.sites.List(ctx)
	if err != nil {
		s.logger.Error("Publish sweep could not list sites", logger.Error(err))
		return
	}

	var published int64
	for _, site := range sites {
		count, err := s.lifecycle.PublishDue(ctx, site.ID)
		if err != nil {
			s.logger.Warn("Publish sweep failed for site",
				logger.String("site_id", site.ID),
				logger.Error(err),
			)
			continue
		}
		published += count
	}
	if published > 0 {
		s.logger.Info("Publish sweep finished", logger.Int64("published", published))
	}
}
