package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/ramadan_bot_server/internal/model"
	"github.com/qs3c/ramadan_bot_server/internal/model/dto"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/flyer"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/llm"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/logging"
	"github.com/qs3c/ramadan_bot_server/internal/repository"
)

var (
	ErrGenerationNotFound = errors.New("generation not found")
	ErrGenerationFailed   = errors.New("failed to generate reflection")
	ErrInvalidTopic       = errors.New("topic must be between 1 and 50 characters")
	ErrInvalidDay         = errors.New("day must be between 1 and 30")
)

// TextGenerator 生成寄语文本
type TextGenerator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

type GenerationService struct {
	userRepo     *repository.UserRepository
	genRepo      *repository.GenerationRepository
	quotaService *QuotaService
	ai           TextGenerator
	logger       logging.Logger
}

func NewGenerationService(
	userRepo *repository.UserRepository,
	genRepo *repository.GenerationRepository,
	quotaService *QuotaService,
	ai TextGenerator,
	logger logging.Logger,
) *GenerationService {
	return &GenerationService{
		userRepo:     userRepo,
		genRepo:      genRepo,
		quotaService: quotaService,
		ai:           ai,
		logger:       logger,
	}
}

// Generate 检查配额、调用 AI 并记账，同一用户的请求串行执行
func (s *GenerationService) Generate(ctx context.Context, userID int64, req *dto.GenerateRequest) (*dto.GenerateResponse, error) {
	topic := strings.TrimSpace(req.Topic)
	if n := len([]rune(topic)); n < 1 || n > 50 {
		return nil, ErrInvalidTopic
	}
	if req.Day < 1 || req.Day > 30 {
		return nil, ErrInvalidDay
	}
	hint := strings.TrimSpace(req.Hint)

	unlock := s.quotaService.Lock(userID)
	defer unlock()

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := s.quotaService.Now()
	if err := s.quotaService.Check(user, now); err != nil {
		return nil, err
	}

	text, err := s.ai.Generate(ctx, llm.Request{Topic: topic, Day: req.Day, Hint: hint})
	if err != nil {
		s.logger.Error(ctx, "reflection generation failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	nowUTC := now.UTC()
	gen := &model.Generation{
		UserID:    user.ID,
		Topic:     topic,
		Day:       req.Day,
		Hint:      hint,
		Message:   text,
		CreatedAt: nowUTC,
	}
	user.Streak = s.quotaService.NextStreak(user, now)
	user.LastGenerationDate = &nowUTC
	if err := s.userRepo.ApplyGeneration(user, gen); err != nil {
		return nil, fmt.Errorf("failed to save generation: %w", err)
	}
	user.GenerationCount++

	quota, err := s.quotaService.QuotaFor(user, now)
	if err != nil {
		return nil, err
	}

	info := buildUserInfo(user)
	info.QuotaInfo = quota

	s.logger.Info(ctx, "reflection generated", "user_id", userID, "generation_id", gen.ID, "day", gen.Day)

	return &dto.GenerateResponse{
		GenerationID: gen.ID,
		Text:         text,
		FileName:     flyer.FileName(gen.Day, gen.Topic),
		User:         info,
		Quota:        quota,
	}, nil
}

// List 分页获取当前用户的生成历史
func (s *GenerationService) List(userID int64, page, pageSize int) ([]*dto.GenerationItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 20
	}

	gens, total, err := s.genRepo.ListByUser(userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.GenerationItem, len(gens))
	for i, g := range gens {
		items[i] = buildGenerationItem(g)
	}
	return items, total, nil
}

// Get 获取单条生成记录，仅本人可见
func (s *GenerationService) Get(userID, generationID int64) (*dto.GenerationItem, error) {
	gen, err := getOwnedGeneration(s.genRepo, userID, generationID)
	if err != nil {
		return nil, err
	}
	return buildGenerationItem(gen), nil
}

// getOwnedGeneration 读取生成记录，非本人的记录按不存在处理
func getOwnedGeneration(repo *repository.GenerationRepository, userID, generationID int64) (*model.Generation, error) {
	gen, err := repo.GetByID(generationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGenerationNotFound
		}
		return nil, err
	}
	if gen.UserID != userID {
		return nil, ErrGenerationNotFound
	}
	return gen, nil
}

func buildGenerationItem(g *model.Generation) *dto.GenerationItem {
	return &dto.GenerationItem{
		ID:        g.ID,
		Topic:     g.Topic,
		Day:       g.Day,
		Hint:      g.Hint,
		Message:   g.Message,
		FileName:  flyer.FileName(g.Day, g.Topic),
		CreatedAt: g.CreatedAt.Format(time.RFC3339),
	}
}
