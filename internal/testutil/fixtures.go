package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/ramadan_bot_server/internal/model"
)

// TestPIN 测试用户的默认 PIN
const TestPIN = "1234"

var (
	seq     int64
	pinHash string
)

func defaultPinHash(t *testing.T) string {
	if pinHash == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(TestPIN), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("Failed to hash test PIN: %v", err)
		}
		pinHash = string(hash)
	}
	return pinHash
}

// TestUser 创建测试用户，PIN 为 TestPIN
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	name := fmt.Sprintf("tester%d", atomic.AddInt64(&seq, 1))
	user := &model.User{
		Name:    name,
		NameKey: name,
		PinHash: defaultPinHash(t),
		Role:    model.RoleUser,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithName 设置用户名
func WithName(name string) func(*model.User) {
	return func(u *model.User) {
		u.Name = name
		u.NameKey = strings.ToLower(name)
	}
}

// WithRole 设置角色
func WithRole(role string) func(*model.User) {
	return func(u *model.User) {
		u.Role = role
	}
}

// WithBanned 设置封禁状态
func WithBanned() func(*model.User) {
	return func(u *model.User) {
		u.IsBanned = true
	}
}

// WithRateLimit 设置每日上限覆盖值
func WithRateLimit(limit int) func(*model.User) {
	return func(u *model.User) {
		u.RateLimitOverride = &limit
	}
}

// WithStreak 设置连续天数及上次生成时间
func WithStreak(streak int, lastGeneration time.Time) func(*model.User) {
	return func(u *model.User) {
		u.Streak = streak
		last := lastGeneration.UTC()
		u.LastGenerationDate = &last
	}
}

// WithLastLogin 设置上次登录时间
func WithLastLogin(at time.Time) func(*model.User) {
	return func(u *model.User) {
		last := at.UTC()
		u.LastLogin = &last
	}
}

// TestGeneration 创建测试生成记录
func TestGeneration(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Generation)) *model.Generation {
	t.Helper()

	gen := &model.Generation{
		UserID:  userID,
		Topic:   "Patience",
		Day:     1,
		Message: "Patience is the light that carries us through the fast.",
	}

	for _, opt := range opts {
		opt(gen)
	}

	if err := db.Create(gen).Error; err != nil {
		t.Fatalf("Failed to create test generation: %v", err)
	}

	return gen
}

// WithTopic 设置主题
func WithTopic(topic string) func(*model.Generation) {
	return func(g *model.Generation) {
		g.Topic = topic
	}
}

// WithDay 设置斋月天数
func WithDay(day int) func(*model.Generation) {
	return func(g *model.Generation) {
		g.Day = day
	}
}

// WithCreatedAt 设置生成时间
func WithCreatedAt(at time.Time) func(*model.Generation) {
	return func(g *model.Generation) {
		g.CreatedAt = at.UTC()
	}
}

// TestFlyerJob 创建测试分享任务
func TestFlyerJob(t *testing.T, db *gorm.DB, userID, generationID int64, status string, opts ...func(*model.FlyerJob)) *model.FlyerJob {
	t.Helper()

	job := &model.FlyerJob{
		GenerationID: generationID,
		UserID:       userID,
		Status:       status,
	}

	for _, opt := range opts {
		opt(job)
	}

	if err := db.Create(job).Error; err != nil {
		t.Fatalf("Failed to create test flyer job: %v", err)
	}

	return job
}

// WithExpiresAt 设置分享过期时间及对象
func WithExpiresAt(at time.Time, objectKey string) func(*model.FlyerJob) {
	return func(j *model.FlyerJob) {
		exp := at.UTC()
		j.ExpiresAt = &exp
		j.ObjectKey = objectKey
		j.URL = "/flyers/" + objectKey
	}
}
