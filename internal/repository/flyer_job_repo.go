package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/ramadan_bot_server/internal/model"
)

type FlyerJobRepository struct {
	db *gorm.DB
}

func NewFlyerJobRepository(db *gorm.DB) *FlyerJobRepository {
	return &FlyerJobRepository{db: db}
}

func (r *FlyerJobRepository) Create(job *model.FlyerJob) error {
	return r.db.Create(job).Error
}

func (r *FlyerJobRepository) GetByID(id int64) (*model.FlyerJob, error) {
	var job model.FlyerJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *FlyerJobRepository) Update(job *model.FlyerJob) error {
	return r.db.Save(job).Error
}

// ListExpired 获取已过期但仍保留文件的分享任务
func (r *FlyerJobRepository) ListExpired(now time.Time, limit int) ([]*model.FlyerJob, error) {
	var jobs []*model.FlyerJob
	err := r.db.Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", model.FlyerJobCompleted, now.UTC()).
		Order("expires_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// Claim 把排队中的任务标记为处理中，任务已被其它 worker 领取时返回 false
func (r *FlyerJobRepository) Claim(id int64, startedAt time.Time) (bool, error) {
	result := r.db.Model(&model.FlyerJob{}).
		Where("id = ? AND status = ?", id, model.FlyerJobQueued).
		Updates(map[string]interface{}{
			"status":     model.FlyerJobProcessing,
			"started_at": startedAt.UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListStaleQueued 获取在 before 之前创建、仍在排队的任务
func (r *FlyerJobRepository) ListStaleQueued(before time.Time, limit int) ([]*model.FlyerJob, error) {
	var jobs []*model.FlyerJob
	err := r.db.Where("status = ? AND created_at < ?", model.FlyerJobQueued, before.UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// ListStuckProcessing 获取在 before 之前被领取、仍在处理中的任务（worker 异常退出时遗留）
func (r *FlyerJobRepository) ListStuckProcessing(before time.Time, limit int) ([]*model.FlyerJob, error) {
	var jobs []*model.FlyerJob
	err := r.db.Where("status = ? AND started_at < ?", model.FlyerJobProcessing, before.UTC()).
		Order("started_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// Release 把处理中的任务退回排队状态，任务状态已变化时返回 false
func (r *FlyerJobRepository) Release(id int64) (bool, error) {
	result := r.db.Model(&model.FlyerJob{}).
		Where("id = ? AND status = ?", id, model.FlyerJobProcessing).
		Updates(map[string]interface{}{
			"status":     model.FlyerJobQueued,
			"started_at": nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
