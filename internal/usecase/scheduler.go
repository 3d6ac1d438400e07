package usecase

import (
	"context"
	"log/slog"
	"time"

	"GTMEngine/internal/ports"
)

// Scheduler wires the interval driver with feed ingestion.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring ingestion.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers feed ingestion with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		reports, err := s.pipeline.IngestFeeds(ctx)
		if err != nil && s.logger != nil {
			s.logger.Warn("scheduled ingestion finished with errors", "trigger", trigger, "error", err)
		}
		if s.logger != nil {
			s.logger.Info("scheduled ingestion run", "trigger", trigger, "feeds", len(reports))
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
