package repository

import (
	"errors"

	"github.com/canting-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingRepository 系统设置数据访问接口
type SettingRepository interface {
	GetByKey(key string) (*models.Setting, error)
	Upsert(setting *models.Setting) error
	ListAll() ([]models.Setting, error)
}

// GormSettingRepository GORM 系统设置仓储实现
type GormSettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository 创建系统设置仓储
func NewSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db}
}

// GetByKey 按键获取设置
func (r *GormSettingRepository) GetByKey(key string) (*models.Setting, error) {
	if key == "" {
		return nil, nil
	}
	var setting models.Setting
	if err := r.db.Where("key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// Upsert 按键写入设置
func (r *GormSettingRepository) Upsert(setting *models.Setting) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value_json"}),
	}).Create(setting).Error
}

// ListAll 获取全部设置
func (r *GormSettingRepository) ListAll() ([]models.Setting, error) {
	var settings []models.Setting
	if err := r.db.Order("key asc").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}
