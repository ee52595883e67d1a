package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/ramadan_bot_server/internal/model"
)

type GenerationRepository struct {
	db *gorm.DB
}

func NewGenerationRepository(db *gorm.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

func (r *GenerationRepository) Create(gen *model.Generation) error {
	return r.db.Create(gen).Error
}

func (r *GenerationRepository) GetByID(id int64) (*model.Generation, error) {
	var gen model.Generation
	err := r.db.Preload("User").Where("id = ?", id).First(&gen).Error
	if err != nil {
		return nil, err
	}
	return &gen, nil
}

// CountByUserBetween 统计用户在 [from, to) 内的生成次数
func (r *GenerationRepository) CountByUserBetween(userID int64, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Generation{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from.UTC(), to.UTC()).
		Count(&count).Error
	return count, err
}

// ListByUser 分页获取用户的生成历史
func (r *GenerationRepository) ListByUser(userID int64, page, pageSize int) ([]*model.Generation, int64, error) {
	var gens []*model.Generation
	var total int64

	query := r.db.Model(&model.Generation{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(pageSize).Find(&gens).Error; err != nil {
		return nil, 0, err
	}

	return gens, total, nil
}

func (r *GenerationRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Generation{}).Count(&count).Error
	return count, err
}

// CountBetween 统计 [from, to) 内的生成次数
func (r *GenerationRepository) CountBetween(from, to time.Time) (int64, error) {
	var count int64
	err := r.between(from, to).Count(&count).Error
	return count, err
}

// CountDistinctUsersBetween 统计 [from, to) 内有生成记录的用户数
func (r *GenerationRepository) CountDistinctUsersBetween(from, to time.Time) (int64, error) {
	var count int64
	err := r.between(from, to).Distinct("user_id").Count(&count).Error
	return count, err
}

// Recent 最近的生成记录，附带用户信息
func (r *GenerationRepository) Recent(limit int) ([]*model.Generation, error) {
	var gens []*model.Generation
	err := r.db.Preload("User").Order("created_at DESC").Order("id DESC").
		Limit(limit).Find(&gens).Error
	return gens, err
}

func (r *GenerationRepository) between(from, to time.Time) *gorm.DB {
	return r.db.Model(&model.Generation{}).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC())
}
