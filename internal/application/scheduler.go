package application

import (
	"context"
	"log/slog"
	"time"
)

// CycleRunner runs one full enforcement cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) CycleReport
}

// Scheduler alternates between running a cycle and sleeping for the poll
// interval. Cycles never overlap: the next one only starts after the
// previous cycle's termination phase has fully joined.
type Scheduler struct {
	runner   CycleRunner
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(runner CycleRunner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Scheduler{runner: runner, interval: interval, logger: logger}
}

// Run loops until ctx is cancelled and then returns nil, the orderly
// shutdown path. Cancellation is observed during the idle sleep; a cycle
// already in flight finishes first (its fetches abort through ctx).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		s.runner.RunCycle(ctx)

		if ctx.Err() != nil {
			s.logger.Info("scheduler stopped")
			return nil
		}

		timer.Reset(s.interval)
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-timer.C:
		}
	}
}
