package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	cron "github.com/robfig/cron/v3"

	"auto_repost_youtube/config"
	"auto_repost_youtube/internal/logger"
	"auto_repost_youtube/internal/usecase"
)

// Scheduler manages cron jobs for the application
type Scheduler struct {
	cron      *cron.Cron
	config    *config.Config
	publisher *usecase.Publisher
	fetcher   *usecase.Fetcher
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a new cron scheduler
func NewScheduler(cfg *config.Config, publisher *usecase.Publisher, fetcher *usecase.Fetcher) *Scheduler {
	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	// Create cron with seconds support
	c := cron.New(cron.WithSeconds())

	return &Scheduler{
		cron:      c,
		config:    cfg,
		publisher: publisher,
		fetcher:   fetcher,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts the cron scheduler
func (s *Scheduler) Start() error {
	publishSchedule := normalizeSchedule(s.config.PublishCron)
	publishJobID, err := s.cron.AddFunc(publishSchedule, s.publishJob)
	if err != nil {
		return fmt.Errorf("failed to schedule publish job: %w", err)
	}
	logger.Infof("Scheduled publish job with ID: %d, schedule: %s", publishJobID, publishSchedule)

	fetchSchedule := normalizeSchedule(s.config.FetchCron)
	fetchJobID, err := s.cron.AddFunc(fetchSchedule, s.fetchJob)
	if err != nil {
		return fmt.Errorf("failed to schedule fetch job: %w", err)
	}
	logger.Infof("Scheduled fetch job with ID: %d, schedule: %s", fetchJobID, fetchSchedule)

	s.cron.Start()
	logger.Infof("Cron scheduler started")

	// Run an initial fetch immediately so new deployments have work queued
	go s.fetchJob()

	return nil
}

// Stop stops the cron scheduler gracefully
func (s *Scheduler) Stop() {
	logger.Infof("Stopping cron scheduler...")
	s.cancel()
	s.cron.Stop()
	logger.Infof("Cron scheduler stopped")
}

// publishJob runs one publish sweep over all active schedules. The sweep's
// own overlap guard handles a run that outlives the cron interval; the outer
// timeout only bounds a completely stuck run.
func (s *Scheduler) publishJob() {
	logger.Infof("Starting publish sweep job...")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(s.ctx, 2*time.Hour)
	defer cancel()

	s.publisher.PublishDueVideos(ctx)

	logger.Infof("Publish sweep job completed in %v", time.Since(startTime))
}

// fetchJob discovers new uploads on all tracked source channels.
func (s *Scheduler) fetchJob() {
	logger.Infof("Starting fetch job...")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(s.ctx, 15*time.Minute)
	defer cancel()

	s.fetcher.FetchAll(ctx)

	logger.Infof("Fetch job completed in %v", time.Since(startTime))
}

// normalizeSchedule ensures cron expressions are compatible with cron.WithSeconds
func normalizeSchedule(expr string) string {
	fields := strings.Fields(expr)
	if len(fields) == 5 {
		return "0 " + expr
	}
	return expr
}
