package public

import (
	"strconv"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetMyPointAccount 我的积分账户
func (h *Handler) GetMyPointAccount(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	account, err := h.PointService.GetAccount(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "获取积分账户失败", err)
		return
	}

	var level interface{}
	if account.Level != "" {
		found, err := h.PointLevelService.GetLevelByCode(account.Level)
		if err != nil {
			requestLog(c).Warnw("get_point_level_failed", "level", account.Level, "error", err)
		} else {
			level = found
		}
	}

	response.Success(c, gin.H{
		"account": account,
		"level":   level,
	})
}

// ListMyPointTransactions 我的积分流水
func (h *Handler) ListMyPointTransactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	txns, total, err := h.PointService.ListTransactions(repository.PointTransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Type:     c.Query("type"),
	})
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

// ListPointLevels 会员等级说明
func (h *Handler) ListPointLevels(c *gin.Context) {
	levels, err := h.PointLevelService.ListActiveLevels()
	if err != nil {
		respondError(c, response.CodeInternal, "获取会员等级失败", err)
		return
	}
	response.Success(c, levels)
}
