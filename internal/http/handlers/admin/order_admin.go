package admin

import (
	"errors"
	"strconv"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"
	"github.com/canting-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders 订单列表 (Admin)
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		OrderNo:  c.Query("order_no"),
	}
	if raw := c.Query("user_id"); raw != "" {
		if id, err := parseUint(raw); err == nil {
			filter.UserID = id
		}
	}

	orders, total, err := h.OrderService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取订单列表失败", err)
		return
	}

	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetOrder 订单详情 (Admin)
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}

	order, err := h.OrderService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取订单失败", err)
		return
	}

	items, err := h.OrderService.ListItems(id)
	if err != nil {
		respondError(c, response.CodeInternal, "获取订单明细失败", err)
		return
	}

	response.Success(c, gin.H{"order": order, "items": items})
}

// MarkOrderPaid 标记订单已支付
func (h *Handler) MarkOrderPaid(c *gin.Context) {
	h.transitionOrder(c, h.OrderService.MarkPaid, "标记支付失败")
}

// CompleteOrder 完成订单
func (h *Handler) CompleteOrder(c *gin.Context) {
	h.transitionOrder(c, h.OrderService.Complete, "完成订单失败")
}

// CancelOrder 取消订单 (Admin)
func (h *Handler) CancelOrder(c *gin.Context) {
	h.transitionOrder(c, h.OrderService.Cancel, "取消订单失败")
}

func (h *Handler) transitionOrder(
	c *gin.Context,
	fn func(uint) (*models.Order, error),
	failMsg string,
) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}

	order, err := fn(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "订单状态不允许该操作", nil)
		default:
			respondError(c, response.CodeInternal, failMsg, err)
		}
		return
	}
	response.Success(c, order)
}
