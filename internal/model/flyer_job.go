package model

import (
	"time"
)

const (
	FlyerJobQueued     = "queued"
	FlyerJobProcessing = "processing"
	FlyerJobCompleted  = "completed"
	FlyerJobFailed     = "failed"
	FlyerJobExpired    = "expired"
)

// FlyerJob 分享海报的异步渲染任务
type FlyerJob struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	GenerationID int64      `gorm:"not null;index" json:"generation_id"`
	UserID       int64      `gorm:"not null;index" json:"user_id"`
	Status       string     `gorm:"size:20;not null;default:queued;index" json:"status"` // queued, processing, completed, failed, expired
	ObjectKey    string     `gorm:"size:300" json:"-"`
	URL          string     `gorm:"size:500" json:"url,omitempty"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ExpiresAt    *time.Time `gorm:"index" json:"expires_at,omitempty"`
}

func (FlyerJob) TableName() string {
	return "flyer_jobs"
}
