package public

import (
	"errors"
	"strconv"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/repository"
	"github.com/canting-next/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderItemRequest 订单项请求
type OrderItemRequest struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required"`
}

// OrderRequest 下单请求
type OrderRequest struct {
	ReservationID *uint              `json:"reservation_id"`
	TableID       *uint              `json:"table_id"`
	Items         []OrderItemRequest `json:"items" binding:"required"`
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.OrderItemInput{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
		})
	}

	order, err := h.OrderService.Create(service.OrderCreateInput{
		UserID:        userID,
		ReservationID: req.ReservationID,
		TableID:       req.TableID,
		Items:         items,
	})
	if err != nil {
		respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "创建订单失败")
		return
	}
	response.Success(c, order)
}

// PayOrder 支付订单（模拟支付成功回调）
func (h *Handler) PayOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}

	if !h.ownOrder(c, userID, id) {
		return
	}

	order, err := h.OrderService.MarkPaid(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "订单状态不允许支付", nil)
		default:
			respondError(c, response.CodeInternal, "支付订单失败", err)
		}
		return
	}
	response.Success(c, order)
}

// ListMyOrders 我的订单列表
func (h *Handler) ListMyOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   c.Query("status"),
	})
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

// GetMyOrder 我的订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}

	if !h.ownOrder(c, userID, id) {
		return
	}

	order, err := h.OrderService.GetByID(id)
	if err != nil {
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

func (h *Handler) ownOrder(c *gin.Context, userID, orderID uint) bool {
	order, err := h.OrderService.GetByID(orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return false
		}
		respondError(c, response.CodeInternal, "获取订单失败", err)
		return false
	}
	if order.UserID != userID {
		respondError(c, response.CodeNotFound, "订单不存在", nil)
		return false
	}
	return true
}
