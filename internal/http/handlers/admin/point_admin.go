package admin

import (
	"errors"
	"strconv"
	"time"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"
	"github.com/canting-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PointRuleRequest 积分规则请求
type PointRuleRequest struct {
	RuleKey   string      `json:"rule_key" binding:"required"`
	RuleType  string      `json:"rule_type" binding:"required"`
	Name      string      `json:"name"`
	Config    models.JSON `json:"config"`
	IsActive  *bool       `json:"is_active"`
	SortOrder int         `json:"sort_order"`
}

// ListPointRules 积分规则列表
func (h *Handler) ListPointRules(c *gin.Context) {
	rules, err := h.PointRuleService.ListRules()
	if err != nil {
		respondError(c, response.CodeInternal, "获取积分规则失败", err)
		return
	}
	response.Success(c, rules)
}

// SavePointRule 创建或更新积分规则
func (h *Handler) SavePointRule(c *gin.Context) {
	var req PointRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	rule := &models.PointRule{
		RuleKey:   req.RuleKey,
		RuleType:  req.RuleType,
		Name:      req.Name,
		Config:    req.Config,
		IsActive:  true,
		SortOrder: req.SortOrder,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}

	if err := h.PointRuleService.SaveRule(rule); err != nil {
		if errors.Is(err, service.ErrPointRuleConfigInvalid) {
			respondError(c, response.CodeBadRequest, "积分规则配置无效", nil)
			return
		}
		respondError(c, response.CodeInternal, "保存积分规则失败", err)
		return
	}

	h.recordAuthzAudit(c, "point_rule.save", rule.RuleKey, models.JSON{
		"rule_key": rule.RuleKey, "rule_type": rule.RuleType, "is_active": rule.IsActive,
	})
	response.Success(c, rule)
}

// PointLevelRequest 会员等级请求
type PointLevelRequest struct {
	Code          string `json:"code" binding:"required"`
	Name          string `json:"name" binding:"required"`
	MinPoints     int64  `json:"min_points"`
	DiscountType  string `json:"discount_type"`
	DiscountValue string `json:"discount_value"`
	Icon          string `json:"icon"`
	SortOrder     int    `json:"sort_order"`
	IsActive      *bool  `json:"is_active"`
}

// ListPointLevels 会员等级列表
func (h *Handler) ListPointLevels(c *gin.Context) {
	levels, err := h.PointLevelService.ListLevels()
	if err != nil {
		respondError(c, response.CodeInternal, "获取会员等级失败", err)
		return
	}
	response.Success(c, levels)
}

// SavePointLevel 创建或更新会员等级
func (h *Handler) SavePointLevel(c *gin.Context) {
	var req PointLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	level := &models.PointLevel{
		Code:         req.Code,
		Name:         req.Name,
		MinPoints:    req.MinPoints,
		DiscountType: req.DiscountType,
		Icon:         req.Icon,
		SortOrder:    req.SortOrder,
		IsActive:     true,
	}
	if req.DiscountValue != "" {
		value, err := models.NewMoneyFromString(req.DiscountValue)
		if err != nil {
			respondError(c, response.CodeBadRequest, "折扣数值格式错误", err)
			return
		}
		level.DiscountValue = value
	}
	if req.IsActive != nil {
		level.IsActive = *req.IsActive
	}

	if err := h.PointLevelService.SaveLevel(level); err != nil {
		if errors.Is(err, service.ErrPointLevelConflict) {
			respondError(c, response.CodeBadRequest, "会员等级门槛冲突", nil)
			return
		}
		respondError(c, response.CodeInternal, "保存会员等级失败", err)
		return
	}

	// 等级门槛变化会影响 order_earn 倍率映射与存量用户等级，异步重算
	if h.QueueClient != nil && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueuePointLevelResync(); err != nil {
			requestLog(c).Warnw("enqueue_point_level_resync_failed", "error", err)
		}
	}

	h.recordAuthzAudit(c, "point_level.save", level.Code, models.JSON{
		"code": level.Code, "min_points": level.MinPoints, "is_active": level.IsActive,
	})
	response.Success(c, level)
}

// ResyncPointLevels 触发全量等级重算
func (h *Handler) ResyncPointLevels(c *gin.Context) {
	if h.QueueClient != nil && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueuePointLevelResync(); err != nil {
			respondError(c, response.CodeInternal, "任务投递失败", err)
			return
		}
		h.recordAuthzAudit(c, "point_level.resync", "", nil)
		response.Success(c, gin.H{"enqueued": true})
		return
	}

	// 队列未启用时同步执行
	changed, err := h.PointLevelService.UpdateAllUserLevels()
	if err != nil {
		respondError(c, response.CodeInternal, "等级重算失败", err)
		return
	}
	if err := h.PointRuleService.SyncLevelMultipliers(); err != nil {
		requestLog(c).Warnw("sync_level_multipliers_failed", "error", err)
	}
	h.recordAuthzAudit(c, "point_level.resync", "", models.JSON{"changed": changed})
	response.Success(c, gin.H{"enqueued": false, "changed": changed})
}

// ListPointAccounts 积分账户列表
func (h *Handler) ListPointAccounts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.PointAccountListFilter{
		Page:     page,
		PageSize: pageSize,
		Level:    c.Query("level"),
	}
	if raw := c.Query("user_id"); raw != "" {
		if id, err := parseUint(raw); err == nil {
			filter.UserID = id
		}
	}
	if raw := c.Query("min_total"); raw != "" {
		if min, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.MinTotal = min
		}
	}

	accounts, total, err := h.PointService.ListAccounts(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取积分账户失败", err)
		return
	}

	response.SuccessWithPage(c, accounts, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetPointAccount 积分账户详情
func (h *Handler) GetPointAccount(c *gin.Context) {
	userID, ok := parsePathID(c, "user_id")
	if !ok {
		return
	}

	account, err := h.PointService.GetAccount(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "获取积分账户失败", err)
		return
	}
	response.Success(c, account)
}

// PointAdjustRequest 积分调整请求
type PointAdjustRequest struct {
	Delta  int64  `json:"delta" binding:"required"`
	Remark string `json:"remark" binding:"required"`
}

// AdjustPoints 管理员调整积分
func (h *Handler) AdjustPoints(c *gin.Context) {
	userID, ok := parsePathID(c, "user_id")
	if !ok {
		return
	}

	var req PointAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	txn, err := h.PointService.AdminAdjust(service.PointAdjustInput{
		UserID: userID,
		Delta:  req.Delta,
		Remark: req.Remark,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPointInvalidAmount):
			respondError(c, response.CodeBadRequest, "积分数量无效", nil)
		case errors.Is(err, service.ErrPointInsufficient):
			respondError(c, response.CodeBadRequest, "可用积分不足", nil)
		default:
			respondError(c, response.CodeInternal, "积分调整失败", err)
		}
		return
	}

	h.recordAuthzAudit(c, "point.adjust", strconv.FormatUint(uint64(userID), 10), models.JSON{
		"user_id": userID, "delta": req.Delta, "remark": req.Remark,
	})
	response.Success(c, txn)
}

// ListPointTransactions 积分流水列表 (Admin)
func (h *Handler) ListPointTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.PointTransactionListFilter{
		Page:       page,
		PageSize:   pageSize,
		Type:       c.Query("type"),
		SourceType: c.Query("source_type"),
	}
	if raw := c.Query("user_id"); raw != "" {
		if id, err := parseUint(raw); err == nil {
			filter.UserID = id
		}
	}

	txns, total, err := h.PointService.ListTransactions(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取积分流水失败", err)
		return
	}

	response.SuccessWithPage(c, txns, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// ListPointStatistics 积分日统计列表
func (h *Handler) ListPointStatistics(c *gin.Context) {
	from := c.DefaultQuery("from", time.Now().AddDate(0, 0, -30).Format("2006-01-02"))
	to := c.DefaultQuery("to", time.Now().Format("2006-01-02"))

	stats, err := h.PointStatisticService.ListRange(from, to)
	if err != nil {
		respondError(c, response.CodeInternal, "获取积分统计失败", err)
		return
	}
	response.Success(c, stats)
}

// RecalculatePointStatistics 重算指定日期的积分统计
func (h *Handler) RecalculatePointStatistics(c *gin.Context) {
	raw := c.DefaultQuery("date", time.Now().AddDate(0, 0, -1).Format("2006-01-02"))
	date, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		respondError(c, response.CodeBadRequest, "日期格式错误", err)
		return
	}

	stat, err := h.PointStatisticService.Calculate(date)
	if err != nil {
		respondError(c, response.CodeInternal, "积分统计计算失败", err)
		return
	}
	response.Success(c, stat)
}

// ListPointAnomalies 积分异常检测
func (h *Handler) ListPointAnomalies(c *gin.Context) {
	thresholds := service.DefaultAnomalyThresholds()
	if raw := c.Query("large_earn"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v > 0 {
			thresholds.LargeEarnPoints = v
		}
	}
	if raw := c.Query("lookback_days"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			thresholds.LookbackDays = v
		}
	}

	findings, err := h.AnomalyService.DetectAnomalies(thresholds)
	if err != nil {
		respondError(c, response.CodeInternal, "积分异常检测失败", err)
		return
	}
	response.Success(c, findings)
}
