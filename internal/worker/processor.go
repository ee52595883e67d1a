package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qs3c/ramadan_bot_server/config"
	"github.com/qs3c/ramadan_bot_server/internal/model"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/flyer"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/logging"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/pubsub"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/queue"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/storage"
	"github.com/qs3c/ramadan_bot_server/internal/repository"
)

var ErrJobOwnerMismatch = errors.New("flyer job does not belong to the generation owner")

// Renderer 把寄语渲染成 PNG
type Renderer interface {
	Render(card flyer.Card) ([]byte, error)
}

// ProgressPublisher 推送任务进度
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, msg *pubsub.ProgressMessage) error
}

// Processor 分享海报任务处理器
type Processor struct {
	jobRepo   *repository.FlyerJobRepository
	genRepo   *repository.GenerationRepository
	renderer  Renderer
	store     storage.Storage
	publisher ProgressPublisher
	cfg       *config.Config
	logger    logging.Logger
	now       func() time.Time
}

// NewProcessor 创建任务处理器
func NewProcessor(
	jobRepo *repository.FlyerJobRepository,
	genRepo *repository.GenerationRepository,
	renderer Renderer,
	store storage.Storage,
	publisher ProgressPublisher,
	cfg *config.Config,
	logger logging.Logger,
) *Processor {
	return &Processor{
		jobRepo:   jobRepo,
		genRepo:   genRepo,
		renderer:  renderer,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (p *Processor) shareTTL() time.Duration {
	if p.cfg.Flyer.ShareExpireHours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(p.cfg.Flyer.ShareExpireHours) * time.Hour
}

// Process 处理分享任务：渲染 → 上传 → 更新任务 → 推送进度
func (p *Processor) Process(ctx context.Context, msg *queue.FlyerJobMessage) error {
	log := p.logger.With("job_id", msg.JobID, "generation_id", msg.GenerationID)

	// 同一任务可能被重复入队，只有领取成功的 worker 继续
	claimed, err := p.jobRepo.Claim(msg.JobID, p.now())
	if err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}
	if !claimed {
		log.Info(ctx, "flyer job already taken, skipping")
		return nil
	}

	job, err := p.jobRepo.GetByID(msg.JobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	publishProgress := func(step, status, url, errMsg string) {
		if p.publisher == nil {
			return
		}
		err := p.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
			UserID:       job.UserID,
			GenerationID: job.GenerationID,
			JobID:        job.ID,
			Status:       status,
			Step:         step,
			URL:          url,
			Error:        errMsg,
		})
		if err != nil {
			log.Warn(ctx, "failed to publish progress", "step", step, "error", err)
		}
	}

	handleError := func(err error) error {
		completedAt := p.now().UTC()
		job.Status = model.FlyerJobFailed
		job.ErrorMessage = err.Error()
		job.CompletedAt = &completedAt
		if uerr := p.jobRepo.Update(job); uerr != nil {
			log.Error(ctx, "failed to mark job failed", "error", uerr)
		}
		publishProgress(pubsub.StepFailed, model.FlyerJobFailed, "", job.ErrorMessage)
		log.Error(ctx, "flyer job failed", "error", err)
		return err
	}

	publishProgress(pubsub.StepRendering, model.FlyerJobProcessing, "", "")

	gen, err := p.genRepo.GetByID(job.GenerationID)
	if err != nil {
		return handleError(fmt.Errorf("failed to load generation: %w", err))
	}
	if gen.UserID != job.UserID {
		return handleError(ErrJobOwnerMismatch)
	}

	card := flyer.Card{Day: gen.Day, Message: gen.Message}
	if gen.User != nil {
		card.UserName = gen.User.Name
	}
	png, err := p.renderer.Render(card)
	if err != nil {
		return handleError(fmt.Errorf("render failed: %w", err))
	}

	publishProgress(pubsub.StepUploading, model.FlyerJobProcessing, "", "")

	now := p.now().UTC()
	key := storage.ObjectKey(now, flyer.FileName(gen.Day, gen.Topic))
	url, err := p.store.Put(ctx, key, png, "image/png")
	if err != nil {
		return handleError(fmt.Errorf("upload failed: %w", err))
	}

	completedAt := p.now().UTC()
	expiresAt := completedAt.Add(p.shareTTL())
	job.Status = model.FlyerJobCompleted
	job.ObjectKey = key
	job.URL = url
	job.CompletedAt = &completedAt
	job.ExpiresAt = &expiresAt
	if err := p.jobRepo.Update(job); err != nil {
		return handleError(fmt.Errorf("failed to save job: %w", err))
	}

	publishProgress(pubsub.StepDone, model.FlyerJobCompleted, url, "")
	log.Info(ctx, "flyer job completed", "key", key, "bytes", len(png))
	return nil
}
