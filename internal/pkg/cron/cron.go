package cron

import (
	"context"
	"sync"
	"time"

	"github.com/qs3c/ramadan_bot_server/internal/pkg/logging"
)

const cleanupInterval = time.Hour

// Cleaner 清理过期的分享海报
type Cleaner interface {
	CleanupExpired(ctx context.Context, dryRun bool) (int, error)
}

// CacheInvalidator 清除统计缓存
type CacheInvalidator interface {
	InvalidateAnalytics(ctx context.Context) error
}

// Clock 配额时区下的当前时间与下一次零点
type Clock interface {
	Now() time.Time
	NextReset(now time.Time) time.Time
}

type Service struct {
	cleaner     Cleaner
	invalidator CacheInvalidator
	clock       Clock
	logger      logging.Logger
	interval    time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewService(cleaner Cleaner, invalidator CacheInvalidator, clock Clock, logger logging.Logger) *Service {
	return &Service{
		cleaner:     cleaner,
		invalidator: invalidator,
		clock:       clock,
		logger:      logger,
		interval:    cleanupInterval,
		stopChan:    make(chan struct{}),
	}
}

// Start 启动定时任务，cleaner 为 nil 时不做过期清理
func (s *Service) Start() {
	s.wg.Add(1)
	go s.runMidnight()
	if s.cleaner != nil {
		s.wg.Add(1)
		go s.runCleanup()
	}
	s.logger.Info(context.Background(), "cron service started",
		"cleanup_enabled", s.cleaner != nil, "cleanup_interval", s.interval.String())
}

// Stop 停止定时任务并等待退出，可重复调用
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Info(context.Background(), "cron service stopped")
	})
}

// runMidnight 每到配额时区零点清除统计缓存
func (s *Service) runMidnight() {
	defer s.wg.Done()

	for {
		now := s.clock.Now()
		timer := time.NewTimer(s.clock.NextReset(now).Sub(now))

		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			ctx := context.Background()
			if s.invalidator == nil {
				continue
			}
			if err := s.invalidator.InvalidateAnalytics(ctx); err != nil {
				s.logger.Warn(ctx, "midnight analytics invalidate failed", "error", err)
			}
		}
	}
}

// runCleanup 定期清理过期分享
func (s *Service) runCleanup() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if _, err := s.RunNow(context.Background()); err != nil {
				s.logger.Error(context.Background(), "expired flyer cleanup failed", "error", err)
			}
		}
	}
}

// RunNow 立即执行一次过期分享清理
func (s *Service) RunNow(ctx context.Context) (int, error) {
	if s.cleaner == nil {
		return 0, nil
	}
	return s.cleaner.CleanupExpired(ctx, false)
}
