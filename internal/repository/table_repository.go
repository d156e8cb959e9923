package repository

import (
	"errors"

	"github.com/canting-next/internal/models"

	"gorm.io/gorm"
)

// TableRepository 桌台数据访问接口
type TableRepository interface {
	WithTx(tx *gorm.DB) *GormTableRepository
	GetByID(id uint) (*models.DiningTable, error)
	GetByNo(tableNo string) (*models.DiningTable, error)
	ListByStatus(status string) ([]models.DiningTable, error)
	ListAll() ([]models.DiningTable, error)
	Create(table *models.DiningTable) error
	Update(table *models.DiningTable) error
	UpdateStatus(id uint, status string) error
}

// GormTableRepository GORM 桌台仓储实现
type GormTableRepository struct {
	db *gorm.DB
}

// NewTableRepository 创建桌台仓储
func NewTableRepository(db *gorm.DB) *GormTableRepository {
	return &GormTableRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTableRepository) WithTx(tx *gorm.DB) *GormTableRepository {
	if tx == nil {
		return r
	}
	return &GormTableRepository{db: tx}
}

// GetByID 按ID获取桌台
func (r *GormTableRepository) GetByID(id uint) (*models.DiningTable, error) {
	if id == 0 {
		return nil, nil
	}
	var table models.DiningTable
	if err := r.db.First(&table, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &table, nil
}

// GetByNo 按桌号获取桌台
func (r *GormTableRepository) GetByNo(tableNo string) (*models.DiningTable, error) {
	if tableNo == "" {
		return nil, nil
	}
	var table models.DiningTable
	if err := r.db.Where("table_no = ?", tableNo).First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &table, nil
}

// ListByStatus 按状态获取桌台列表
func (r *GormTableRepository) ListByStatus(status string) ([]models.DiningTable, error) {
	var tables []models.DiningTable
	if err := r.db.Where("status = ?", status).
		Order("sort_order asc, id asc").
		Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

// ListAll 获取全部桌台
func (r *GormTableRepository) ListAll() ([]models.DiningTable, error) {
	var tables []models.DiningTable
	if err := r.db.Order("sort_order asc, id asc").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

// Create 创建桌台
func (r *GormTableRepository) Create(table *models.DiningTable) error {
	return r.db.Create(table).Error
}

// Update 更新桌台
func (r *GormTableRepository) Update(table *models.DiningTable) error {
	return r.db.Save(table).Error
}

// UpdateStatus 更新桌台状态
func (r *GormTableRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.DiningTable{}).
		Where("id = ?", id).
		Update("status", status).Error
}
