package admin

import (
	"errors"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/service"

	"github.com/gin-gonic/gin"
)

// TableRequest 餐桌请求
type TableRequest struct {
	TableNo   string `json:"table_no" binding:"required"`
	Name      string `json:"name"`
	Capacity  int    `json:"capacity" binding:"required"`
	SortOrder int    `json:"sort_order"`
}

// ListTables 餐桌列表 (Admin)
func (h *Handler) ListTables(c *gin.Context) {
	status := c.Query("status")
	var (
		tables []models.DiningTable
		err    error
	)
	if status != "" {
		tables, err = h.TableService.ListByStatus(status)
	} else {
		tables, err = h.TableService.ListAll()
	}
	if err != nil {
		respondError(c, response.CodeInternal, "获取餐桌列表失败", err)
		return
	}
	response.Success(c, tables)
}

// CreateTable 创建餐桌
func (h *Handler) CreateTable(c *gin.Context) {
	h.saveTable(c, 0)
}

// UpdateTable 更新餐桌
func (h *Handler) UpdateTable(c *gin.Context) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}
	h.saveTable(c, id)
}

func (h *Handler) saveTable(c *gin.Context, id uint) {
	var req TableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	table := &models.DiningTable{
		ID:        id,
		TableNo:   req.TableNo,
		Name:      req.Name,
		Capacity:  req.Capacity,
		SortOrder: req.SortOrder,
	}
	if err := h.TableService.Save(table); err != nil {
		if errors.Is(err, service.ErrTableNotFound) {
			respondError(c, response.CodeNotFound, "餐桌不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "保存餐桌失败", err)
		return
	}
	response.Success(c, table)
}

// TableStatusRequest 餐桌状态请求
type TableStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateTableStatus 更新餐桌状态
func (h *Handler) UpdateTableStatus(c *gin.Context) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}

	var req TableStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	if err := h.TableService.UpdateStatus(id, req.Status); err != nil {
		if errors.Is(err, service.ErrTableNotFound) {
			respondError(c, response.CodeNotFound, "餐桌不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "更新餐桌状态失败", err)
		return
	}
	response.Success(c, gin.H{"updated": true})
}
