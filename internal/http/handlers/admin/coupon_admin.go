package admin

import (
	"strconv"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListCoupons 优惠券列表 (Admin)
func (h *Handler) ListCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		Type:     c.Query("type"),
	}
	if raw := c.Query("user_id"); raw != "" {
		if id, err := parseUint(raw); err == nil {
			filter.UserID = id
		}
	}

	coupons, total, err := h.CouponService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取优惠券列表失败", err)
		return
	}

	response.SuccessWithPage(c, coupons, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}
