package worker

import (
	"context"
	"time"

	"github.com/qs3c/ramadan_bot_server/internal/pkg/logging"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/queue"
	"github.com/qs3c/ramadan_bot_server/internal/repository"
)

const (
	requeueInterval = 5 * time.Minute
	requeueAfter    = 10 * time.Minute
	// 超过该时长仍在 processing 视为 worker 已退出
	processingTimeout = 10 * time.Minute
	requeueBatch      = 50
)

// JobPusher 任务入队
type JobPusher interface {
	Push(ctx context.Context, msg *queue.FlyerJobMessage) error
}

// Requeuer 后台把长时间停留在 queued 的任务重新入队（例如 Redis 重启丢失了消息），
// 并把 worker 中途退出遗留的 processing 任务退回队列
type Requeuer struct {
	jobRepo *repository.FlyerJobRepository
	queue   JobPusher
	logger  logging.Logger
	now     func() time.Time
}

// NewRequeuer 创建重新入队器
func NewRequeuer(jobRepo *repository.FlyerJobRepository, q JobPusher, logger logging.Logger) *Requeuer {
	return &Requeuer{
		jobRepo: jobRepo,
		queue:   q,
		logger:  logger,
		now:     time.Now,
	}
}

// Start 启动后台循环，直到 ctx 取消
func (r *Requeuer) Start(ctx context.Context) {
	// 启动后先执行一次
	r.RunOnce(ctx)

	ticker := time.NewTicker(requeueInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info(ctx, "requeuer stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce 扫描一次卡住的任务，返回重新入队的数量
func (r *Requeuer) RunOnce(ctx context.Context) int {
	now := r.now()
	r.releaseStuck(ctx, now)

	jobs, err := r.jobRepo.ListStaleQueued(now.Add(-requeueAfter), requeueBatch)
	if err != nil {
		r.logger.Error(ctx, "failed to query stale flyer jobs", "error", err)
		return 0
	}

	pushed := 0
	for _, job := range jobs {
		err := r.queue.Push(ctx, &queue.FlyerJobMessage{
			JobID:        job.ID,
			GenerationID: job.GenerationID,
			UserID:       job.UserID,
		})
		if err != nil {
			r.logger.Warn(ctx, "failed to requeue flyer job", "job_id", job.ID, "error", err)
			continue
		}
		pushed++
	}

	if pushed > 0 {
		r.logger.Info(ctx, "requeued stale flyer jobs", "count", pushed)
	}
	return pushed
}

// releaseStuck 把超时的 processing 任务退回 queued，随后由同一轮扫描重新入队
func (r *Requeuer) releaseStuck(ctx context.Context, now time.Time) {
	jobs, err := r.jobRepo.ListStuckProcessing(now.Add(-processingTimeout), requeueBatch)
	if err != nil {
		r.logger.Error(ctx, "failed to query stuck flyer jobs", "error", err)
		return
	}

	for _, job := range jobs {
		released, err := r.jobRepo.Release(job.ID)
		if err != nil {
			r.logger.Warn(ctx, "failed to release stuck flyer job", "job_id", job.ID, "error", err)
			continue
		}
		if released {
			r.logger.Warn(ctx, "released stuck flyer job", "job_id", job.ID, "started_at", job.StartedAt)
		}
	}
}
