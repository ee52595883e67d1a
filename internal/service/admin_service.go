package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/qs3c/ramadan_bot_server/internal/model/dto"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/logging"
	"github.com/qs3c/ramadan_bot_server/internal/repository"
)

const (
	analyticsCacheKey = "admin:analytics"
	analyticsCacheTTL = 30 * time.Second
	recentLimit       = 10
	maxListUsers      = 100
)

var ErrInvalidLimit = errors.New("limit must be at least 1")

type AdminService struct {
	userRepo     *repository.UserRepository
	genRepo      *repository.GenerationRepository
	quotaService *QuotaService
	rdb          *redis.Client
	logger       logging.Logger
}

// NewAdminService 创建管理服务，rdb 为 nil 时不缓存统计数据
func NewAdminService(
	userRepo *repository.UserRepository,
	genRepo *repository.GenerationRepository,
	quotaService *QuotaService,
	rdb *redis.Client,
	logger logging.Logger,
) *AdminService {
	return &AdminService{
		userRepo:     userRepo,
		genRepo:      genRepo,
		quotaService: quotaService,
		rdb:          rdb,
		logger:       logger,
	}
}

// Analytics 汇总统计数据，Redis 可用时缓存 30 秒
func (s *AdminService) Analytics(ctx context.Context) (*dto.AnalyticsData, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, analyticsCacheKey).Bytes()
		if err == nil {
			var data dto.AnalyticsData
			if err := json.Unmarshal(cached, &data); err == nil {
				return &data, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn(ctx, "analytics cache read failed", "error", err)
		}
	}

	data, err := s.computeAnalytics()
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(data); err == nil {
			if err := s.rdb.Set(ctx, analyticsCacheKey, raw, analyticsCacheTTL).Err(); err != nil {
				s.logger.Warn(ctx, "analytics cache write failed", "error", err)
			}
		}
	}

	return data, nil
}

// InvalidateAnalytics 清除统计缓存
func (s *AdminService) InvalidateAnalytics(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, analyticsCacheKey).Err()
}

func (s *AdminService) computeAnalytics() (*dto.AnalyticsData, error) {
	totalUsers, err := s.userRepo.Count()
	if err != nil {
		return nil, err
	}
	totalGenerations, err := s.genRepo.Count()
	if err != nil {
		return nil, err
	}

	start := s.quotaService.StartOfDay(s.quotaService.Now())
	end := start.AddDate(0, 0, 1)
	generationsToday, err := s.genRepo.CountBetween(start, end)
	if err != nil {
		return nil, err
	}
	activeToday, err := s.genRepo.CountDistinctUsersBetween(start, end)
	if err != nil {
		return nil, err
	}

	banned, err := s.userRepo.CountBanned()
	if err != nil {
		return nil, err
	}

	recent, err := s.genRepo.Recent(recentLimit)
	if err != nil {
		return nil, err
	}

	items := make([]dto.RecentGeneration, len(recent))
	for i, g := range recent {
		items[i] = dto.RecentGeneration{
			ID:        g.ID,
			Topic:     g.Topic,
			CreatedAt: g.CreatedAt.Format(time.RFC3339),
		}
		if g.User != nil {
			items[i].UserName = g.User.Name
		}
	}

	return &dto.AnalyticsData{
		TotalUsers:        totalUsers,
		TotalGenerations:  totalGenerations,
		GenerationsToday:  generationsToday,
		ActiveToday:       activeToday,
		BannedUsers:       banned,
		RecentGenerations: items,
	}, nil
}

// ListUsers 按最近登录倒序列出用户，最多 100 个
func (s *AdminService) ListUsers(limit int) ([]*dto.UserInfo, error) {
	if limit <= 0 || limit > maxListUsers {
		limit = maxListUsers
	}

	users, err := s.userRepo.List(limit)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.UserInfo, len(users))
	for i, u := range users {
		items[i] = buildUserInfo(u)
	}
	return items, nil
}

// UpdateUserLimit 修改用户每日上限
func (s *AdminService) UpdateUserLimit(ctx context.Context, userID int64, limit int) (*dto.UserInfo, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	if err := s.userRepo.SetRateLimit(userID, limit); err != nil {
		return nil, mapUserErr(err)
	}
	s.logger.Info(ctx, "user rate limit updated", "user_id", userID, "limit", limit)
	return s.reload(userID)
}

// ToggleBan 封禁或解封用户
func (s *AdminService) ToggleBan(ctx context.Context, userID int64, banned bool) (*dto.UserInfo, error) {
	if err := s.userRepo.SetBanned(userID, banned); err != nil {
		return nil, mapUserErr(err)
	}
	s.logger.Info(ctx, "user ban updated", "user_id", userID, "banned", banned)
	if err := s.InvalidateAnalytics(ctx); err != nil {
		s.logger.Warn(ctx, "analytics cache invalidate failed", "error", err)
	}
	return s.reload(userID)
}

func (s *AdminService) reload(userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return buildUserInfo(user), nil
}

func mapUserErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
