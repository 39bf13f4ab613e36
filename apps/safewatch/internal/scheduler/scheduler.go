package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// PassRunner runs one full monitor pass.
type PassRunner interface {
	RunPass(ctx context.Context)
}

// Scheduler fires the monitor pass once at start and then on a fixed
// cadence. Overlap policy: if a pass is still running when the tick fires,
// the tick is skipped; concurrent passes would share upstream rate limits
// for no gain.
type Scheduler struct {
	interval time.Duration
	runner   PassRunner
	logger   *zap.Logger
	running  atomic.Bool
	inFlight sync.WaitGroup
}

func NewScheduler(interval time.Duration, runner PassRunner, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		interval: interval,
		runner:   runner,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled, then joins the in-flight pass before
// returning. An abandoned mid-pass shutdown would leave dispatch claims
// dangling until their staleness window expires.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Starting monitor scheduler", zap.Duration("interval", s.interval))

	s.firePass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopping, waiting for in-flight pass")
			s.inFlight.Wait()
			return
		case <-ticker.C:
			s.firePass(ctx)
		}
	}
}

func (s *Scheduler) firePass(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Previous pass still running, skipping tick")
		return
	}

	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		defer s.running.Store(false)
		start := time.Now()
		s.runner.RunPass(ctx)
		s.logger.Info("Completed monitor pass", zap.Duration("duration", time.Since(start)))
	}()
}
