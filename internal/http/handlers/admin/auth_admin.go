package admin

import (
	"errors"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string                 `json:"token"`
	Admin     map[string]interface{} `json:"admin"`
	ExpiresAt string                 `json:"expires_at"`
}

// Login 管理员登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	admin, token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, response.CodeUnauthorized, "账号或密码错误", nil)
			return
		}
		respondError(c, response.CodeInternal, "登录失败", err)
		return
	}

	response.Success(c, LoginResponse{
		Token: token,
		Admin: map[string]interface{}{
			"id":           admin.ID,
			"username":     admin.Username,
			"display_name": admin.DisplayName,
			"is_super":     admin.IsSuper,
		},
		ExpiresAt: expiresAt.Format("2006-01-02 15:04:05"),
	})
}

// Profile 当前管理员信息
func (h *Handler) Profile(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	admin, err := h.AuthService.GetAdminByID(adminID)
	if err != nil {
		if errors.Is(err, service.ErrAdminNotFound) {
			respondError(c, response.CodeNotFound, "管理员不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取管理员信息失败", err)
		return
	}

	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		requestLog(c).Warnw("admin_profile_roles_failed", "admin_id", adminID, "error", err)
		roles = nil
	}

	response.Success(c, gin.H{
		"id":           admin.ID,
		"username":     admin.Username,
		"display_name": admin.DisplayName,
		"is_super":     admin.IsSuper,
		"roles":        roles,
	})
}
