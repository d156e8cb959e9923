package repository

import (
	"errors"

	"github.com/canting-next/internal/models"

	"gorm.io/gorm"
)

// PointRuleRepository 积分规则数据访问接口
type PointRuleRepository interface {
	GetByKey(ruleKey string) (*models.PointRule, error)
	ListActive() ([]models.PointRule, error)
	ListAll() ([]models.PointRule, error)
	Create(rule *models.PointRule) error
	Update(rule *models.PointRule) error
}

// GormPointRuleRepository GORM 积分规则仓储实现
type GormPointRuleRepository struct {
	db *gorm.DB
}

// NewPointRuleRepository 创建积分规则仓储
func NewPointRuleRepository(db *gorm.DB) *GormPointRuleRepository {
	return &GormPointRuleRepository{db: db}
}

// GetByKey 按规则键获取规则
func (r *GormPointRuleRepository) GetByKey(ruleKey string) (*models.PointRule, error) {
	if ruleKey == "" {
		return nil, nil
	}
	var rule models.PointRule
	if err := r.db.Where("rule_key = ?", ruleKey).First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// ListActive 获取全部启用规则
func (r *GormPointRuleRepository) ListActive() ([]models.PointRule, error) {
	var rules []models.PointRule
	if err := r.db.Where("is_active = ?", true).
		Order("sort_order asc, id asc").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// ListAll 获取全部规则
func (r *GormPointRuleRepository) ListAll() ([]models.PointRule, error) {
	var rules []models.PointRule
	if err := r.db.Order("sort_order asc, id asc").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Create 创建规则
func (r *GormPointRuleRepository) Create(rule *models.PointRule) error {
	return r.db.Create(rule).Error
}

// Update 更新规则
func (r *GormPointRuleRepository) Update(rule *models.PointRule) error {
	return r.db.Save(rule).Error
}
