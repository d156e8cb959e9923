package public

import (
	"errors"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
	Nickname string `json:"nickname"`
}

// Register 顾客注册
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	user, err := h.UserAuthService.Register(service.UserRegisterInput{
		Phone:    req.Phone,
		Password: req.Password,
		Nickname: req.Nickname,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPhoneTaken):
			respondError(c, response.CodeBadRequest, "手机号已被注册", nil)
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeBadRequest, "手机号或密码格式错误", nil)
		default:
			respondError(c, response.CodeInternal, "注册失败", err)
		}
		return
	}

	token, expiresAt, err := h.UserAuthService.GenerateJWT(user)
	if err != nil {
		respondError(c, response.CodeInternal, "登录凭证生成失败", err)
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt.Format("2006-01-02 15:04:05"),
		"user":       user,
	})
}

// UserLoginRequest 登录请求
type UserLoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 顾客登录
func (h *Handler) Login(c *gin.Context) {
	var req UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	user, token, expiresAt, err := h.UserAuthService.Login(req.Phone, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "手机号或密码错误", nil)
		case errors.Is(err, service.ErrUserDisabled):
			respondError(c, response.CodeUnauthorized, "账号已被禁用", nil)
		default:
			respondError(c, response.CodeInternal, "登录失败", err)
		}
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt.Format("2006-01-02 15:04:05"),
		"user":       user,
	})
}

// Profile 当前顾客信息
func (h *Handler) Profile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	user, err := h.UserAuthService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "用户不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取用户信息失败", err)
		return
	}
	response.Success(c, user)
}
