package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"techpulse/internal/config"

	"github.com/robfig/cron/v3"
)

// UsageResetter zeroes the daily credential usage counters.
type UsageResetter interface {
	ResetDailyUsage(ctx context.Context) error
}

// FeedCollector starts a collection run in the background.
type FeedCollector interface {
	CollectAsync() bool
}

type Scheduler struct {
	resetter  UsageResetter
	collector FeedCollector
	cfg       config.SchedulerConfig
	logger    *slog.Logger
	c         *cron.Cron
}

// NewScheduler creates a scheduler. collector may be nil when feed collection is not scheduled.
func NewScheduler(resetter UsageResetter, collector FeedCollector, cfg config.SchedulerConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		resetter:  resetter,
		collector: collector,
		cfg:       cfg,
		logger:    logger.With("component", "scheduler"),
		c:         cron.New(),
	}
}

// Start registers the enabled jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if enabled(s.cfg.UsageResetSpec) {
		if _, err := s.c.AddFunc(s.cfg.UsageResetSpec, s.resetUsage); err != nil {
			return fmt.Errorf("error scheduling usage reset job: %w", err)
		}
		s.logger.Info("Usage reset scheduled", "spec", s.cfg.UsageResetSpec)
	}
	if enabled(s.cfg.FeedCollectSpec) && s.collector != nil {
		if _, err := s.c.AddFunc(s.cfg.FeedCollectSpec, s.collectFeeds); err != nil {
			return fmt.Errorf("error scheduling feed collection job: %w", err)
		}
		s.logger.Info("Feed collection scheduled", "spec", s.cfg.FeedCollectSpec)
	}
	s.c.Start()
	return nil
}

// Stop stops the runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}

func (s *Scheduler) resetUsage() {
	s.logger.Info("Running scheduled job: resetting credential usage")
	if err := s.resetter.ResetDailyUsage(context.Background()); err != nil {
		s.logger.Error("Error resetting credential usage", "error", err)
	}
}

func (s *Scheduler) collectFeeds() {
	if !s.collector.CollectAsync() {
		s.logger.Info("Skipping scheduled feed collection, a run is already in progress")
	}
}

func enabled(spec string) bool {
	return spec != "" && spec != config.DisabledSpec
}
