package admin

import (
	"errors"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/service"

	"github.com/gin-gonic/gin"
)

// MenuCategoryRequest 菜单分类请求
type MenuCategoryRequest struct {
	Name      string `json:"name" binding:"required"`
	Slug      string `json:"slug" binding:"required"`
	SortOrder int    `json:"sort_order"`
}

// ListMenuCategories 分类列表 (Admin)
func (h *Handler) ListMenuCategories(c *gin.Context) {
	categories, err := h.MenuService.ListCategories()
	if err != nil {
		respondError(c, response.CodeInternal, "获取菜单分类失败", err)
		return
	}
	response.Success(c, categories)
}

// CreateMenuCategory 创建分类
func (h *Handler) CreateMenuCategory(c *gin.Context) {
	var req MenuCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	category := &models.MenuCategory{
		Name:      req.Name,
		Slug:      req.Slug,
		SortOrder: req.SortOrder,
	}
	if err := h.MenuService.SaveCategory(category); err != nil {
		respondError(c, response.CodeInternal, "保存菜单分类失败", err)
		return
	}
	response.Success(c, category)
}

// UpdateMenuCategory 更新分类
func (h *Handler) UpdateMenuCategory(c *gin.Context) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}

	var req MenuCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	category := &models.MenuCategory{
		ID:        id,
		Name:      req.Name,
		Slug:      req.Slug,
		SortOrder: req.SortOrder,
	}
	if err := h.MenuService.SaveCategory(category); err != nil {
		respondError(c, response.CodeInternal, "保存菜单分类失败", err)
		return
	}
	response.Success(c, category)
}

// MenuItemRequest 菜品请求
type MenuItemRequest struct {
	CategoryID  uint   `json:"category_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       string `json:"price" binding:"required"`
	Image       string `json:"image"`
	IsAvailable *bool  `json:"is_available"`
	SortOrder   int    `json:"sort_order"`
}

// ListMenuItems 菜品列表 (Admin)
func (h *Handler) ListMenuItems(c *gin.Context) {
	var categoryID uint
	if raw := c.Query("category_id"); raw != "" {
		if id, ok := parseUintQuery(c, raw); ok {
			categoryID = id
		} else {
			return
		}
	}

	items, err := h.MenuService.ListItems(categoryID, false)
	if err != nil {
		respondError(c, response.CodeInternal, "获取菜品列表失败", err)
		return
	}
	response.Success(c, items)
}

// CreateMenuItem 创建菜品
func (h *Handler) CreateMenuItem(c *gin.Context) {
	h.saveMenuItem(c, 0)
}

// UpdateMenuItem 更新菜品
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}
	h.saveMenuItem(c, id)
}

func (h *Handler) saveMenuItem(c *gin.Context, id uint) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	price, err := models.NewMoneyFromString(req.Price)
	if err != nil {
		respondError(c, response.CodeBadRequest, "价格格式错误", err)
		return
	}

	item := &models.MenuItem{
		ID:          id,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Image:       req.Image,
		IsAvailable: true,
		SortOrder:   req.SortOrder,
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := h.MenuService.SaveItem(item); err != nil {
		if errors.Is(err, service.ErrMenuCategoryNotFound) {
			respondError(c, response.CodeBadRequest, "菜单分类不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "保存菜品失败", err)
		return
	}
	response.Success(c, item)
}

func parseUintQuery(c *gin.Context, raw string) (uint, bool) {
	id, err := parseUint(raw)
	if err != nil {
		respondError(c, response.CodeBadRequest, "查询参数无效", err)
		return 0, false
	}
	return id, true
}
