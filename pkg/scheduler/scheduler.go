// Package scheduler runs periodic maintenance jobs of the micro-credit fund.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/robfig/cron/v3"
)

// OverdueSweeper flags loans that passed their due date.
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context) (int64, error)
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron    *cron.Cron
	sweeper OverdueSweeper
	logger  *slog.Logger
	cfg     *config.Scheduler
	timeout time.Duration
}

// New creates a scheduler. Jobs are registered by Start.
func New(sweeper OverdueSweeper, cfg *config.Scheduler, logger *slog.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:    c,
		sweeper: sweeper,
		logger:  logger,
		cfg:     cfg,
		timeout: time.Minute,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.OverdueSweep, s.runOverdueSweep); err != nil {
		s.logger.Error("failed to schedule overdue sweep", "error", err)
		return err
	}
	s.logger.Info("scheduled overdue sweep", "schedule", s.cfg.OverdueSweep)
	s.cron.Start()
	return nil
}

// Stop stops the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runOverdueSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	n, err := s.sweeper.SweepOverdue(ctx)
	if err != nil {
		s.logger.Error("overdue sweep failed", "error", err)
		return
	}
	s.logger.Info("overdue sweep finished", "flagged", n)
}
