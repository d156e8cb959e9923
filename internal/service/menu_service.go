package service

import (
	"strings"

	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"
)

// MenuService 菜单服务
type MenuService struct {
	menuRepo repository.MenuRepository
}

// NewMenuService 创建菜单服务
func NewMenuService(menuRepo repository.MenuRepository) *MenuService {
	return &MenuService{menuRepo: menuRepo}
}

// ListCategories 获取分类列表
func (s *MenuService) ListCategories() ([]models.MenuCategory, error) {
	return s.menuRepo.ListCategories()
}

// SaveCategory 创建或更新分类
func (s *MenuService) SaveCategory(category *models.MenuCategory) error {
	if category == nil || strings.TrimSpace(category.Name) == "" {
		return ErrMenuCategoryNotFound
	}
	category.Name = strings.TrimSpace(category.Name)
	if category.ID == 0 {
		return s.menuRepo.CreateCategory(category)
	}
	existing, err := s.menuRepo.GetCategoryByID(category.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrMenuCategoryNotFound
	}
	existing.Name = category.Name
	existing.Slug = category.Slug
	existing.SortOrder = category.SortOrder
	if err := s.menuRepo.UpdateCategory(existing); err != nil {
		return err
	}
	*category = *existing
	return nil
}

// ListItems 获取菜品列表
func (s *MenuService) ListItems(categoryID uint, onlyAvailable bool) ([]models.MenuItem, error) {
	return s.menuRepo.ListItems(categoryID, onlyAvailable)
}

// GetItem 按ID获取菜品
func (s *MenuService) GetItem(id uint) (*models.MenuItem, error) {
	item, err := s.menuRepo.GetItemByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrMenuItemNotFound
	}
	return item, nil
}

// SaveItem 创建或更新菜品
func (s *MenuService) SaveItem(item *models.MenuItem) error {
	if item == nil || strings.TrimSpace(item.Name) == "" {
		return ErrMenuItemNotFound
	}
	if item.CategoryID != 0 {
		category, err := s.menuRepo.GetCategoryByID(item.CategoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return ErrMenuCategoryNotFound
		}
	}
	item.Name = strings.TrimSpace(item.Name)
	if item.ID == 0 {
		return s.menuRepo.CreateItem(item)
	}
	existing, err := s.menuRepo.GetItemByID(item.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrMenuItemNotFound
	}
	existing.CategoryID = item.CategoryID
	existing.Name = item.Name
	existing.Description = item.Description
	existing.Price = item.Price
	existing.Image = item.Image
	existing.IsAvailable = item.IsAvailable
	existing.SortOrder = item.SortOrder
	if err := s.menuRepo.UpdateItem(existing); err != nil {
		return err
	}
	*item = *existing
	return nil
}
