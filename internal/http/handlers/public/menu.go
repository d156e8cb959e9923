package public

import (
	"github.com/canting-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetMenuCategories 菜单分类列表
func (h *Handler) GetMenuCategories(c *gin.Context) {
	categories, err := h.MenuService.ListCategories()
	if err != nil {
		respondError(c, response.CodeInternal, "获取菜单分类失败", err)
		return
	}
	response.Success(c, categories)
}

// GetMenuItems 在售菜品列表
func (h *Handler) GetMenuItems(c *gin.Context) {
	var categoryID uint
	if raw := c.Query("category_id"); raw != "" {
		id, ok := parsePathIDFromQuery(c, raw)
		if !ok {
			return
		}
		categoryID = id
	}

	items, err := h.MenuService.ListItems(categoryID, true)
	if err != nil {
		respondError(c, response.CodeInternal, "获取菜品列表失败", err)
		return
	}
	response.Success(c, items)
}

// GetTables 可预约桌台列表
func (h *Handler) GetTables(c *gin.Context) {
	tables, err := h.TableService.ListAll()
	if err != nil {
		respondError(c, response.CodeInternal, "获取桌台列表失败", err)
		return
	}
	response.Success(c, tables)
}
