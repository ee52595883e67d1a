package model

import (
	"time"
)

// Generation 一次 AI 寄语生成记录，同时作为每日配额的计数来源
type Generation struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_generations_user_created,priority:1" json:"user_id"`
	Topic     string    `gorm:"size:100;not null" json:"topic"`
	Day       int       `gorm:"not null" json:"day"`
	Hint      string    `gorm:"size:500" json:"hint,omitempty"`
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `gorm:"index;index:idx_generations_user_created,priority:2" json:"created_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Generation) TableName() string {
	return "generations"
}
