package admin

import (
	"strconv"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListRoles 角色列表
func (h *Handler) ListRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "获取角色列表失败", err)
		return
	}
	response.Success(c, roles)
}

// RoleRequest 角色创建请求
type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// CreateRole 创建角色
func (h *Handler) CreateRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "创建角色失败", err)
		return
	}

	h.recordAuthzAudit(c, "role.create", role, models.JSON{"role": role})
	response.Success(c, gin.H{"role": role})
}

// DeleteRole 删除角色
func (h *Handler) DeleteRole(c *gin.Context) {
	role := c.Param("role")
	if err := h.AuthzService.DeleteRole(role); err != nil {
		respondError(c, response.CodeBadRequest, "删除角色失败", err)
		return
	}

	h.recordAuthzAudit(c, "role.delete", role, models.JSON{"role": role})
	response.Success(c, gin.H{"deleted": true})
}

// RolePolicyRequest 角色策略请求
type RolePolicyRequest struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// GetRolePolicies 查询角色策略
func (h *Handler) GetRolePolicies(c *gin.Context) {
	policies, err := h.AuthzService.GetRolePolicies(c.Param("role"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "获取角色策略失败", err)
		return
	}
	response.Success(c, policies)
}

// GrantRolePolicy 授予角色策略
func (h *Handler) GrantRolePolicy(c *gin.Context) {
	role := c.Param("role")
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	if err := h.AuthzService.GrantRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "授予策略失败", err)
		return
	}

	h.recordAuthzAudit(c, "policy.grant", role, models.JSON{
		"role": role, "object": req.Object, "action": req.Action,
	})
	response.Success(c, gin.H{"granted": true})
}

// RevokeRolePolicy 撤销角色策略
func (h *Handler) RevokeRolePolicy(c *gin.Context) {
	role := c.Param("role")
	var req RolePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	if err := h.AuthzService.RevokeRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "撤销策略失败", err)
		return
	}

	h.recordAuthzAudit(c, "policy.revoke", role, models.JSON{
		"role": role, "object": req.Object, "action": req.Action,
	})
	response.Success(c, gin.H{"revoked": true})
}

// AdminRolesRequest 设置管理员角色请求
type AdminRolesRequest struct {
	Roles []string `json:"roles"`
}

// GetAdminRoles 查询管理员角色
func (h *Handler) GetAdminRoles(c *gin.Context) {
	adminID, ok := parsePathID(c, "id")
	if !ok {
		return
	}

	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeBadRequest, "获取管理员角色失败", err)
		return
	}
	response.Success(c, roles)
}

// SetAdminRoles 覆盖设置管理员角色
func (h *Handler) SetAdminRoles(c *gin.Context) {
	adminID, ok := parsePathID(c, "id")
	if !ok {
		return
	}

	var req AdminRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	if err := h.AuthzService.SetAdminRoles(adminID, req.Roles); err != nil {
		respondError(c, response.CodeBadRequest, "设置管理员角色失败", err)
		return
	}

	h.recordAuthzAudit(c, "admin.set_roles", strconv.FormatUint(uint64(adminID), 10), models.JSON{
		"admin_id": adminID, "roles": req.Roles,
	})
	response.Success(c, gin.H{"updated": true})
}

// ReloadPolicies 重新加载授权策略
func (h *Handler) ReloadPolicies(c *gin.Context) {
	if err := h.AuthzService.ReloadPolicy(); err != nil {
		respondError(c, response.CodeInternal, "重新加载策略失败", err)
		return
	}

	h.recordAuthzAudit(c, "policy.reload", "", nil)
	response.Success(c, gin.H{"reloaded": true})
}

// recordAuthzAudit 记录后台管理操作审计；失败仅记日志
func (h *Handler) recordAuthzAudit(c *gin.Context, action, object string, detail models.JSON) {
	adminID, exists := c.Get("admin_id")
	operatorID, _ := adminID.(uint)
	if !exists || operatorID == 0 {
		return
	}
	username, _ := c.Get("admin_username")
	operatorName, _ := username.(string)
	requestID := ""
	if rid, ok := c.Get("request_id"); ok {
		requestID, _ = rid.(string)
	}

	err := h.AuthzAuditService.Record(service.AuthzAuditRecordInput{
		OperatorAdminID:  operatorID,
		OperatorUsername: operatorName,
		Action:           action,
		Object:           object,
		RequestID:        requestID,
		Detail:           detail,
	})
	if err != nil {
		requestLog(c).Warnw("authz_audit_record_failed", "action", action, "error", err)
	}
}

func parsePathID(c *gin.Context, key string) (uint, bool) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "路径参数无效", err)
		return 0, false
	}
	return uint(id), true
}
