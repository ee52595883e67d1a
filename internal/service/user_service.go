package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/ramadan_bot_server/internal/model"
	"github.com/qs3c/ramadan_bot_server/internal/model/dto"
	"github.com/qs3c/ramadan_bot_server/internal/repository"
)

type UserService struct {
	userRepo     *repository.UserRepository
	quotaService *QuotaService
}

func NewUserService(userRepo *repository.UserRepository, quotaService *QuotaService) *UserService {
	return &UserService{
		userRepo:     userRepo,
		quotaService: quotaService,
	}
}

// GetProfile 获取用户详情（含今日配额）
func (s *UserService) GetProfile(userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	info := buildUserInfo(user)
	quota, err := s.quotaService.QuotaFor(user, s.quotaService.Now())
	if err != nil {
		return nil, err
	}
	info.QuotaInfo = quota

	return info, nil
}

func buildUserInfo(user *model.User) *dto.UserInfo {
	info := &dto.UserInfo{
		ID:                user.ID,
		Name:              user.Name,
		Role:              user.Role,
		Streak:            user.Streak,
		GenerationCount:   user.GenerationCount,
		RateLimitOverride: user.RateLimitOverride,
		IsBanned:          user.IsBanned,
	}

	if user.LastLogin != nil {
		info.LastLogin = user.LastLogin.Format(time.RFC3339)
	}
	if user.LastGenerationDate != nil {
		last := user.LastGenerationDate.Format(time.RFC3339)
		info.LastGenerationDate = &last
	}
	if !user.CreatedAt.IsZero() {
		info.CreatedAt = user.CreatedAt.Format(time.RFC3339)
	}

	return info
}
