package admin

import (
	"strconv"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListAuthzAuditLogs 审计日志列表
func (h *Handler) ListAuthzAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.AuthzAuditLogListFilter{
		Page:     page,
		PageSize: pageSize,
		Action:   c.Query("action"),
		Object:   c.Query("object"),
	}
	if raw := c.Query("operator_admin_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			filter.OperatorAdminID = uint(id)
		}
	}

	logs, total, err := h.AuthzAuditService.ListForAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取审计日志失败", err)
		return
	}

	response.SuccessWithPage(c, logs, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}
