package model

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                 int64      `gorm:"primaryKey" json:"id"`
	Name               string     `gorm:"size:50;not null" json:"name"`
	NameKey            string     `gorm:"size:50;uniqueIndex;not null" json:"-"` // 小写的 name，用于不区分大小写的唯一约束
	PinHash            string     `gorm:"size:100;not null" json:"-"`
	Role               string     `gorm:"size:20;not null;default:user" json:"role"`
	Streak             int        `gorm:"not null;default:0" json:"streak"`
	GenerationCount    int        `gorm:"not null;default:0" json:"generation_count"`
	LastLogin          *time.Time `gorm:"index" json:"last_login,omitempty"`
	LastGenerationDate *time.Time `json:"last_generation_date,omitempty"`
	RateLimitOverride  *int       `json:"rate_limit_override,omitempty"`
	IsBanned           bool       `gorm:"not null;default:false;index" json:"is_banned"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
