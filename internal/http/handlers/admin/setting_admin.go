package admin

import (
	"errors"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListSettings 设置项列表
func (h *Handler) ListSettings(c *gin.Context) {
	settings, err := h.SettingService.ListAll()
	if err != nil {
		respondError(c, response.CodeInternal, "获取设置失败", err)
		return
	}
	response.Success(c, settings)
}

// GetSetting 获取设置项
func (h *Handler) GetSetting(c *gin.Context) {
	setting, err := h.SettingService.Get(c.Param("key"))
	if err != nil {
		if errors.Is(err, service.ErrSettingNotFound) {
			respondError(c, response.CodeNotFound, "设置项不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取设置失败", err)
		return
	}
	response.Success(c, setting)
}

// SettingRequest 设置项请求
type SettingRequest struct {
	Value models.JSON `json:"value" binding:"required"`
}

// SetSetting 写入设置项
func (h *Handler) SetSetting(c *gin.Context) {
	key := c.Param("key")
	var req SettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	if err := h.SettingService.Set(key, req.Value); err != nil {
		respondError(c, response.CodeInternal, "保存设置失败", err)
		return
	}

	h.recordAuthzAudit(c, "setting.set", key, req.Value)
	response.Success(c, gin.H{"key": key})
}
