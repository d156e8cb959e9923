package public

import (
	"strconv"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"
	"github.com/canting-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CouponRedeemRequest 积分兑换优惠券请求
type CouponRedeemRequest struct {
	Title      string `json:"title" binding:"required"`
	Type       string `json:"type" binding:"required"`
	Value      string `json:"value" binding:"required"`
	MinAmount  string `json:"min_amount"`
	PointsCost int64  `json:"points_cost" binding:"required"`
	ValidDays  int    `json:"valid_days"`
}

// RedeemCoupon 积分兑换优惠券
func (h *Handler) RedeemCoupon(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req CouponRedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	value, err := models.NewMoneyFromString(req.Value)
	if err != nil {
		respondError(c, response.CodeBadRequest, "面额格式错误", err)
		return
	}
	minAmount := models.Money{}
	if req.MinAmount != "" {
		minAmount, err = models.NewMoneyFromString(req.MinAmount)
		if err != nil {
			respondError(c, response.CodeBadRequest, "门槛金额格式错误", err)
			return
		}
	}

	coupon, err := h.CouponService.Redeem(service.CouponRedeemInput{
		UserID:     userID,
		Title:      req.Title,
		Type:       req.Type,
		Value:      value,
		MinAmount:  minAmount,
		PointsCost: req.PointsCost,
		ValidDays:  req.ValidDays,
	})
	if err != nil {
		respondWithMappedError(c, err, couponRedeemErrorRules, response.CodeInternal, "兑换优惠券失败")
		return
	}
	response.Success(c, coupon)
}

// ListMyCoupons 我的优惠券列表
func (h *Handler) ListMyCoupons(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	coupons, total, err := h.CouponService.List(repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   c.Query("status"),
	})
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

// CouponUseRequest 核销优惠券请求
type CouponUseRequest struct {
	OrderID  uint   `json:"order_id" binding:"required"`
	Discount string `json:"discount" binding:"required"`
}

// UseCoupon 订单核销优惠券
func (h *Handler) UseCoupon(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}

	var req CouponUseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	coupon, err := h.CouponService.GetByID(id)
	if err != nil {
		respondError(c, response.CodeNotFound, "优惠券不存在", nil)
		return
	}
	if coupon.UserID != userID {
		respondError(c, response.CodeNotFound, "优惠券不存在", nil)
		return
	}
	if !h.ownOrder(c, userID, req.OrderID) {
		return
	}

	discount, err := models.NewMoneyFromString(req.Discount)
	if err != nil {
		respondError(c, response.CodeBadRequest, "抵扣金额格式错误", err)
		return
	}

	used, err := h.CouponService.Use(id, req.OrderID, discount)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrCouponNotFound, code: response.CodeNotFound, msg: "优惠券不存在"},
			{target: service.ErrCouponStatusInvalid, code: response.CodeBadRequest, msg: "优惠券状态不允许核销"},
			{target: service.ErrCouponExpired, code: response.CodeBadRequest, msg: "优惠券已过期"},
		}, response.CodeInternal, "核销优惠券失败")
		return
	}
	response.Success(c, used)
}
