package admin

import (
	"errors"
	"strconv"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/repository"
	"github.com/canting-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListUsers 用户列表
func (h *Handler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	users, total, err := h.UserAuthService.ListUsers(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  c.Query("keyword"),
		Phone:    c.Query("phone"),
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取用户列表失败", err)
		return
	}

	response.SuccessWithPage(c, users, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetUser 用户详情（含积分账户快照）
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}

	user, err := h.UserAuthService.GetUserByID(id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "用户不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取用户信息失败", err)
		return
	}

	account, err := h.PointService.GetAccount(id)
	if err != nil {
		requestLog(c).Warnw("admin_get_user_point_account_failed", "user_id", id, "error", err)
		account = nil
	}

	response.Success(c, gin.H{
		"user":          user,
		"point_account": account,
	})
}
