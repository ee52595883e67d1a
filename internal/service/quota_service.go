package service

import (
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/ramadan_bot_server/config"
	"github.com/qs3c/ramadan_bot_server/internal/model"
	"github.com/qs3c/ramadan_bot_server/internal/model/dto"
	"github.com/qs3c/ramadan_bot_server/internal/repository"
)

var (
	ErrDailyLimitReached = errors.New("daily limit reached")
	ErrUserBanned        = errors.New("account is banned")
)

type QuotaService struct {
	userRepo *repository.UserRepository
	genRepo  *repository.GenerationRepository
	cfg      *config.Config
	loc      *time.Location
	now      func() time.Time

	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewQuotaService(userRepo *repository.UserRepository, genRepo *repository.GenerationRepository, cfg *config.Config) *QuotaService {
	loc, err := cfg.Quota.Location()
	if err != nil {
		loc = time.Local
	}
	return &QuotaService{
		userRepo: userRepo,
		genRepo:  genRepo,
		cfg:      cfg,
		loc:      loc,
		now:      time.Now,
		locks:    make(map[int64]*userLock),
	}
}

// SetClock 替换时间来源，测试使用
func (s *QuotaService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *QuotaService) Now() time.Time {
	return s.now()
}

// Location 按天切分使用的时区
func (s *QuotaService) Location() *time.Location {
	return s.loc
}

// StartOfDay 返回 t 所在自然日的零点
func (s *QuotaService) StartOfDay(t time.Time) time.Time {
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
}

// NextReset 下一次配额重置时间（次日零点）
func (s *QuotaService) NextReset(now time.Time) time.Time {
	return s.StartOfDay(now).AddDate(0, 0, 1)
}

// Limit 用户的每日上限
func (s *QuotaService) Limit(user *model.User) int {
	if user.RateLimitOverride != nil && *user.RateLimitOverride > 0 {
		return *user.RateLimitOverride
	}
	if s.cfg.Quota.DefaultDailyLimit > 0 {
		return s.cfg.Quota.DefaultDailyLimit
	}
	return 1
}

// UsedToday 统计用户今天已生成的次数
func (s *QuotaService) UsedToday(userID int64, now time.Time) (int, error) {
	start := s.StartOfDay(now)
	count, err := s.genRepo.CountByUserBetween(userID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Check 检查用户是否还能生成，管理员不受限制
func (s *QuotaService) Check(user *model.User, now time.Time) error {
	if user.IsBanned {
		return ErrUserBanned
	}
	if user.IsAdmin() {
		return nil
	}

	used, err := s.UsedToday(user.ID, now)
	if err != nil {
		return err
	}
	if used >= s.Limit(user) {
		return ErrDailyLimitReached
	}
	return nil
}

// GetQuotaInfo 获取当前用户配额信息
func (s *QuotaService) GetQuotaInfo(userID int64) (*dto.QuotaInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.QuotaFor(user, s.now())
}

// QuotaFor 计算指定用户在 now 时刻的配额
func (s *QuotaService) QuotaFor(user *model.User, now time.Time) (*dto.QuotaInfo, error) {
	used, err := s.UsedToday(user.ID, now)
	if err != nil {
		return nil, err
	}

	limit := s.Limit(user)
	remain := limit - used
	switch {
	case user.IsAdmin():
		// 管理员不受限额约束，剩余次数不随使用递减
		remain = limit
	case remain < 0:
		remain = 0
	}

	return &dto.QuotaInfo{
		DailyLimit:  limit,
		DailyUsed:   used,
		DailyRemain: remain,
		Unlimited:   user.IsAdmin(),
		ResetAt:     s.NextReset(now).Format(time.RFC3339),
	}, nil
}

// NextStreak 计算本次生成后的连续天数
func (s *QuotaService) NextStreak(user *model.User, now time.Time) int {
	if user.LastGenerationDate == nil {
		return 1
	}

	diff := s.calendarDays(now) - s.calendarDays(*user.LastGenerationDate)
	switch {
	case diff == 1:
		return user.Streak + 1
	case diff > 1:
		return 1
	default:
		// 同一天（或时钟回拨）保持不变
		return user.Streak
	}
}

func (s *QuotaService) calendarDays(t time.Time) int64 {
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// Lock 串行化同一用户的检查与记账，返回解锁函数
func (s *QuotaService) Lock(userID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, userID)
		}
		s.mu.Unlock()
	}
}
