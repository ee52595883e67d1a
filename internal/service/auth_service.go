package service

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/ramadan_bot_server/config"
	"github.com/qs3c/ramadan_bot_server/internal/model"
	"github.com/qs3c/ramadan_bot_server/internal/model/dto"
	"github.com/qs3c/ramadan_bot_server/internal/pkg/jwt"
	"github.com/qs3c/ramadan_bot_server/internal/repository"
)

var (
	ErrInvalidName          = errors.New("name must be between 2 and 50 characters")
	ErrInvalidPIN           = errors.New("PIN must be exactly 4 digits")
	ErrIncorrectPIN         = errors.New("incorrect PIN")
	ErrInvalidAdminPassword = errors.New("invalid admin password")
	ErrAdminDisabled        = errors.New("admin login is not configured")
	ErrUserNotFound         = errors.New("user not found")
)

type AuthService struct {
	userRepo *repository.UserRepository
	cfg      *config.Config
	now      func() time.Time
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
		now:      time.Now,
	}
}

// ValidPIN PIN 必须是 4 位数字
func ValidPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Login 名字 + PIN 登录，名字不存在时自动注册
func (s *AuthService) Login(name, pin string) (*dto.LoginResponse, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		return nil, ErrInvalidName
	}
	if !ValidPIN(pin) {
		return nil, ErrInvalidPIN
	}

	created := false
	user, err := s.userRepo.GetByNameFold(name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = s.register(name, pin)
		created = err == nil
		if err != nil {
			// 并发注册同名用户时，以先写入者为准
			user, err = s.userRepo.GetByNameFold(name)
		}
	}
	if err != nil {
		return nil, err
	}

	if !created {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PinHash), []byte(pin)); err != nil {
			return nil, ErrIncorrectPIN
		}
		if user.IsBanned {
			return nil, ErrUserBanned
		}

		now := s.now().UTC()
		if err := s.userRepo.TouchLogin(user.ID, now); err != nil {
			return nil, err
		}
		user.LastLogin = &now
	}

	token, err := jwt.GenerateTokenWithRole(user.ID, user.Role, s.cfg.JWT.Secret,
		time.Duration(s.cfg.JWT.ExpireHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token:   token,
		User:    buildUserInfo(user),
		Created: created,
	}, nil
}

func (s *AuthService) register(name, pin string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash pin: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		Name:      name,
		NameKey:   repository.NameKey(name),
		PinHash:   string(hash),
		Role:      model.RoleUser,
		LastLogin: &now,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// AdminLogin 使用配置的管理员密码登录
func (s *AuthService) AdminLogin(password string) (*dto.AdminLoginResponse, error) {
	if s.cfg.Admin.Password == "" {
		return nil, ErrAdminDisabled
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Admin.Password)) != 1 {
		return nil, ErrInvalidAdminPassword
	}

	ttl := time.Duration(s.cfg.Admin.TokenExpireHours) * time.Hour
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}

	token, err := jwt.GenerateTokenWithRole(0, model.RoleAdmin, s.cfg.JWT.Secret, ttl)
	if err != nil {
		return nil, err
	}

	return &dto.AdminLoginResponse{
		Token:     token,
		ExpiresAt: s.now().Add(ttl).UTC().Format(time.RFC3339),
	}, nil
}
