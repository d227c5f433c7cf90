// Package job provides background job schedulers.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"book-search-service/internal/app/service"
	"book-search-service/pkg/locker"
)

// IndexScheduler runs periodic vector index synchronization with
// distributed locking so only one instance pushes documents at a time.
type IndexScheduler struct {
	indexService *service.IndexService
	interval     time.Duration
	timeout      time.Duration
	logger       *zap.Logger
	locker       locker.DistributedLocker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// IndexJobConfig holds index scheduler configuration.
type IndexJobConfig struct {
	Interval  time.Duration
	Timeout   time.Duration
	OnStartup bool
}

// NewIndexScheduler creates a new IndexScheduler with distributed locking
// support.
func NewIndexScheduler(
	indexSvc *service.IndexService,
	cfg IndexJobConfig,
	logger *zap.Logger,
	locker locker.DistributedLocker,
) *IndexScheduler {
	return &IndexScheduler{
		indexService: indexSvc,
		interval:     cfg.Interval,
		timeout:      cfg.Timeout,
		logger:       logger,
		locker:       locker,
	}
}

// Start begins the background index job.
func (s *IndexScheduler) Start(runOnStartup bool) {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting index scheduler",
		zap.Duration("interval", s.interval),
		zap.Bool("run_on_startup", runOnStartup),
	)

	s.wg.Add(1)
	go s.run(runOnStartup)
}

// Stop gracefully stops the scheduler.
func (s *IndexScheduler) Stop() {
	s.logger.Info("stopping index scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("index scheduler stopped")
}

// run is the main loop of the scheduler.
func (s *IndexScheduler) run(runOnStartup bool) {
	defer s.wg.Done()

	if runOnStartup {
		s.executeSync()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.executeSync()
		}
	}
}

// executeSync performs one index run under the distributed lock.
//
// Locking behavior:
//   - Lock TTL = interval duration (cooldown model, not timeout)
//   - Success: lock is held for the full interval to prevent duplicate runs
//   - Failure: lock is released immediately so another instance can retry
func (s *IndexScheduler) executeSync() {
	const lockKey = "index:scheduler:lock"

	acquired, err := s.locker.Acquire(s.ctx, lockKey, s.interval)
	if err != nil {
		s.logger.Error("failed to acquire distributed lock", zap.Error(err))

		return
	}
	if !acquired {
		s.logger.Debug("another instance is running index sync, skipping execution")

		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	result, err := s.indexService.Sync(ctx)
	if err != nil {
		if relErr := s.locker.Release(s.ctx, lockKey); relErr != nil {
			s.logger.Error("failed to release lock after index error", zap.Error(relErr))
		}
		s.logger.Warn("index sync failed, lock released for retry", zap.Error(err))

		return
	}

	// Lock expires naturally after the interval (cooldown period)
	s.logger.Info("index sync completed, lock held for cooldown",
		zap.Int("indexed", result.Count),
		zap.Duration("duration", result.Duration),
		zap.Duration("cooldown", s.interval),
	)
}
