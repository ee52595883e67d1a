package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/ramadan_bot_server/internal/model"
	"github.com/qs3c/ramadan_bot_server/internal/model/dto"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/flyer"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/logging"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/queue"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/storage"
	"github.com/qs3c/ramadan_bot_server/internal/repository"
)

var (
	ErrFlyerJobNotFound  = errors.New("flyer job not found")
	ErrShareUnavailable  = errors.New("flyer sharing is not available")
	ErrFlyerRenderFailed = errors.New("failed to render flyer")
)

const (
	cleanupBatch    = 100
	dryRunScanLimit = 10000
)

// FlyerRenderer 把寄语渲染成 PNG
type FlyerRenderer interface {
	Render(card flyer.Card) ([]byte, error)
}

// JobQueue 分享任务队列
type JobQueue interface {
	Push(ctx context.Context, msg *queue.FlyerJobMessage) error
}

type FlyerService struct {
	genRepo  *repository.GenerationRepository
	jobRepo  *repository.FlyerJobRepository
	renderer FlyerRenderer
	queue    JobQueue
	store    storage.Storage
	logger   logging.Logger
	now      func() time.Time
}

// NewFlyerService 创建海报服务，queue 或 store 为 nil 时分享/清理不可用
func NewFlyerService(
	genRepo *repository.GenerationRepository,
	jobRepo *repository.FlyerJobRepository,
	renderer FlyerRenderer,
	q JobQueue,
	store storage.Storage,
	logger logging.Logger,
) *FlyerService {
	return &FlyerService{
		genRepo:  genRepo,
		jobRepo:  jobRepo,
		renderer: renderer,
		queue:    q,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
}

// Render 同步渲染海报，返回 PNG 和下载文件名
func (s *FlyerService) Render(ctx context.Context, userID, generationID int64) ([]byte, string, error) {
	gen, err := getOwnedGeneration(s.genRepo, userID, generationID)
	if err != nil {
		return nil, "", err
	}

	card := flyer.Card{Day: gen.Day, Message: gen.Message}
	if gen.User != nil {
		card.UserName = gen.User.Name
	}

	png, err := s.renderer.Render(card)
	if err != nil {
		s.logger.Error(ctx, "flyer render failed", "generation_id", gen.ID, "error", err)
		return nil, "", fmt.Errorf("%w: %v", ErrFlyerRenderFailed, err)
	}

	return png, flyer.FileName(gen.Day, gen.Topic), nil
}

// Share 创建分享任务并投递到队列，由 worker 异步渲染上传
func (s *FlyerService) Share(ctx context.Context, userID, generationID int64) (*dto.ShareResponse, error) {
	if s.queue == nil {
		return nil, ErrShareUnavailable
	}

	gen, err := getOwnedGeneration(s.genRepo, userID, generationID)
	if err != nil {
		return nil, err
	}

	job := &model.FlyerJob{
		GenerationID: gen.ID,
		UserID:       userID,
		Status:       model.FlyerJobQueued,
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, fmt.Errorf("failed to create flyer job: %w", err)
	}

	err = s.queue.Push(ctx, &queue.FlyerJobMessage{
		JobID:        job.ID,
		GenerationID: gen.ID,
		UserID:       userID,
	})
	if err != nil {
		job.Status = model.FlyerJobFailed
		job.ErrorMessage = "failed to enqueue job"
		if uerr := s.jobRepo.Update(job); uerr != nil {
			s.logger.Error(ctx, "failed to mark flyer job failed", "job_id", job.ID, "error", uerr)
		}
		return nil, fmt.Errorf("failed to enqueue flyer job: %w", err)
	}

	return &dto.ShareResponse{JobID: job.ID, Status: job.Status}, nil
}

// GetJob 查询分享任务状态，仅本人可见
func (s *FlyerService) GetJob(userID, jobID int64) (*dto.FlyerJobStatus, error) {
	job, err := s.jobRepo.GetByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFlyerJobNotFound
		}
		return nil, err
	}
	if job.UserID != userID {
		return nil, ErrFlyerJobNotFound
	}

	status := &dto.FlyerJobStatus{
		JobID:        job.ID,
		GenerationID: job.GenerationID,
		Status:       job.Status,
		URL:          job.URL,
		ErrorMessage: job.ErrorMessage,
	}
	if job.ExpiresAt != nil {
		status.ExpiresAt = job.ExpiresAt.Format(time.RFC3339)
	}
	return status, nil
}

// CleanupExpired 删除过期的分享海报并把任务标记为 expired，dryRun 时只统计数量
func (s *FlyerService) CleanupExpired(ctx context.Context, dryRun bool) (int, error) {
	now := s.now()

	if dryRun {
		jobs, err := s.jobRepo.ListExpired(now, dryRunScanLimit)
		if err != nil {
			return 0, err
		}
		return len(jobs), nil
	}

	if s.store == nil {
		return 0, ErrShareUnavailable
	}

	cleaned := 0
	for {
		if err := ctx.Err(); err != nil {
			return cleaned, err
		}

		jobs, err := s.jobRepo.ListExpired(now, cleanupBatch)
		if err != nil {
			return cleaned, err
		}

		progress := 0
		for _, job := range jobs {
			if job.ObjectKey != "" {
				if err := s.store.Delete(ctx, job.ObjectKey); err != nil {
					s.logger.Warn(ctx, "failed to delete expired flyer", "job_id", job.ID, "key", job.ObjectKey, "error", err)
					continue
				}
			}

			job.Status = model.FlyerJobExpired
			job.URL = ""
			if err := s.jobRepo.Update(job); err != nil {
				s.logger.Warn(ctx, "failed to mark flyer job expired", "job_id", job.ID, "error", err)
				continue
			}
			progress++
		}

		cleaned += progress
		if progress == 0 || len(jobs) < cleanupBatch {
			break
		}
	}

	if cleaned > 0 {
		s.logger.Info(ctx, "expired flyers cleaned", "count", cleaned)
	}
	return cleaned, nil
}
