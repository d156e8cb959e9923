package repository

import (
	"errors"

	"github.com/canting-next/internal/models"

	"gorm.io/gorm"
)

// PointLevelRepository 会员等级数据访问接口
type PointLevelRepository interface {
	GetByCode(code string) (*models.PointLevel, error)
	ListActive() ([]models.PointLevel, error)
	ListAll() ([]models.PointLevel, error)
	Create(level *models.PointLevel) error
	Update(level *models.PointLevel) error
}

// GormPointLevelRepository GORM 会员等级仓储实现
type GormPointLevelRepository struct {
	db *gorm.DB
}

// NewPointLevelRepository 创建会员等级仓储
func NewPointLevelRepository(db *gorm.DB) *GormPointLevelRepository {
	return &GormPointLevelRepository{db: db}
}

// GetByCode 按等级编码获取等级
func (r *GormPointLevelRepository) GetByCode(code string) (*models.PointLevel, error) {
	if code == "" {
		return nil, nil
	}
	var level models.PointLevel
	if err := r.db.Where("code = ?", code).First(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &level, nil
}

// ListActive 获取全部启用等级（按门槛升序）
func (r *GormPointLevelRepository) ListActive() ([]models.PointLevel, error) {
	var levels []models.PointLevel
	if err := r.db.Where("is_active = ?", true).
		Order("min_points asc, sort_order asc").
		Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// ListAll 获取全部等级
func (r *GormPointLevelRepository) ListAll() ([]models.PointLevel, error) {
	var levels []models.PointLevel
	if err := r.db.Order("min_points asc, sort_order asc").Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// Create 创建等级
func (r *GormPointLevelRepository) Create(level *models.PointLevel) error {
	return r.db.Create(level).Error
}

// Update 更新等级
func (r *GormPointLevelRepository) Update(level *models.PointLevel) error {
	return r.db.Save(level).Error
}
