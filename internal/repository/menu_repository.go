package repository

import (
	"errors"

	"github.com/canting-next/internal/models"

	"gorm.io/gorm"
)

// MenuRepository 菜单数据访问接口
type MenuRepository interface {
	GetCategoryByID(id uint) (*models.MenuCategory, error)
	ListCategories() ([]models.MenuCategory, error)
	CreateCategory(category *models.MenuCategory) error
	UpdateCategory(category *models.MenuCategory) error
	GetItemByID(id uint) (*models.MenuItem, error)
	GetItemsByIDs(ids []uint) ([]models.MenuItem, error)
	ListItems(categoryID uint, onlyAvailable bool) ([]models.MenuItem, error)
	CreateItem(item *models.MenuItem) error
	UpdateItem(item *models.MenuItem) error
	IncrementSoldCount(id uint, delta int) error
}

// GormMenuRepository GORM 菜单仓储实现
type GormMenuRepository struct {
	db *gorm.DB
}

// NewMenuRepository 创建菜单仓储
func NewMenuRepository(db *gorm.DB) *GormMenuRepository {
	return &GormMenuRepository{db: db}
}

// GetCategoryByID 按ID获取分类
func (r *GormMenuRepository) GetCategoryByID(id uint) (*models.MenuCategory, error) {
	if id == 0 {
		return nil, nil
	}
	var category models.MenuCategory
	if err := r.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// ListCategories 获取分类列表
func (r *GormMenuRepository) ListCategories() ([]models.MenuCategory, error) {
	var categories []models.MenuCategory
	if err := r.db.Order("sort_order asc, id asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory 创建分类
func (r *GormMenuRepository) CreateCategory(category *models.MenuCategory) error {
	return r.db.Create(category).Error
}

// UpdateCategory 更新分类
func (r *GormMenuRepository) UpdateCategory(category *models.MenuCategory) error {
	return r.db.Save(category).Error
}

// GetItemByID 按ID获取菜品
func (r *GormMenuRepository) GetItemByID(id uint) (*models.MenuItem, error) {
	if id == 0 {
		return nil, nil
	}
	var item models.MenuItem
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetItemsByIDs 按ID批量获取菜品
func (r *GormMenuRepository) GetItemsByIDs(ids []uint) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.MenuItem
	if err := r.db.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListItems 获取菜品列表
func (r *GormMenuRepository) ListItems(categoryID uint, onlyAvailable bool) ([]models.MenuItem, error) {
	query := r.db.Model(&models.MenuItem{})
	if categoryID != 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	if onlyAvailable {
		query = query.Where("is_available = ?", true)
	}
	var items []models.MenuItem
	if err := query.Order("sort_order asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CreateItem 创建菜品
func (r *GormMenuRepository) CreateItem(item *models.MenuItem) error {
	return r.db.Create(item).Error
}

// UpdateItem 更新菜品
func (r *GormMenuRepository) UpdateItem(item *models.MenuItem) error {
	return r.db.Save(item).Error
}

// IncrementSoldCount 累加菜品销量
func (r *GormMenuRepository) IncrementSoldCount(id uint, delta int) error {
	return r.db.Model(&models.MenuItem{}).
		Where("id = ?", id).
		UpdateColumn("sold_count", gorm.Expr("sold_count + ?", delta)).Error
}
