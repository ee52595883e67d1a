package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/ramadan_bot_server/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// NameKey 名字的不区分大小写形式
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *UserRepository) Create(user *model.User) error {
	if user.NameKey == "" {
		user.NameKey = NameKey(user.Name)
	}
	return r.db.Create(user).Error
}

func (r *UserRepository) GetByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByNameFold 按名字查询，不区分大小写
func (r *UserRepository) GetByNameFold(name string) (*model.User, error) {
	var user model.User
	err := r.db.Where("name_key = ?", NameKey(name)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

// TouchLogin 记录登录时间
func (r *UserRepository) TouchLogin(id int64, at time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Update("last_login", at.UTC()).Error
}

// ApplyGeneration 在同一事务内写入生成记录并更新用户的连续天数和累计次数
func (r *UserRepository) ApplyGeneration(user *model.User, gen *model.Generation) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(gen).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"streak":               user.Streak,
			"generation_count":     gorm.Expr("generation_count + 1"),
			"last_generation_date": user.LastGenerationDate,
		}).Error
	})
}

// List 按最近登录倒序列出用户
func (r *UserRepository) List(limit int) ([]*model.User, error) {
	var users []*model.User
	err := r.db.Order("last_login IS NULL, last_login DESC").Order("id DESC").
		Limit(limit).Find(&users).Error
	return users, err
}

func (r *UserRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).Count(&count).Error
	return count, err
}

func (r *UserRepository) CountBanned() (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("is_banned = ?", true).Count(&count).Error
	return count, err
}

// SetRateLimit 修改每日上限，用户不存在时返回 gorm.ErrRecordNotFound
func (r *UserRepository) SetRateLimit(id int64, limit int) error {
	return r.updateExisting(id, "rate_limit_override", limit)
}

// SetBanned 修改封禁状态，用户不存在时返回 gorm.ErrRecordNotFound
func (r *UserRepository) SetBanned(id int64, banned bool) error {
	return r.updateExisting(id, "is_banned", banned)
}

func (r *UserRepository) updateExisting(id int64, column string, value interface{}) error {
	result := r.db.Model(&model.User{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
