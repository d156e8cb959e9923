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

// ListReservations 预约列表 (Admin)
func (h *Handler) ListReservations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.ReservationListFilter{
		Page:          page,
		PageSize:      pageSize,
		Status:        c.Query("status"),
		DepositStatus: c.Query("deposit_status"),
		Date:          c.Query("date"),
	}
	if raw := c.Query("user_id"); raw != "" {
		if id, err := parseUint(raw); err == nil {
			filter.UserID = id
		}
	}
	if raw := c.Query("table_id"); raw != "" {
		if id, err := parseUint(raw); err == nil {
			filter.TableID = id
		}
	}

	reservations, total, err := h.ReservationService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取预约列表失败", err)
		return
	}

	response.SuccessWithPage(c, reservations, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// ConfirmReservation 确认预约
func (h *Handler) ConfirmReservation(c *gin.Context) {
	h.transitionReservation(c, h.ReservationService.Confirm, "确认预约失败")
}

// SeatReservation 顾客入座
func (h *Handler) SeatReservation(c *gin.Context) {
	h.transitionReservation(c, h.ReservationService.Seat, "入座操作失败")
}

// CompleteReservation 完成预约
func (h *Handler) CompleteReservation(c *gin.Context) {
	h.transitionReservation(c, h.ReservationService.Complete, "完成预约失败")
}

// CancelReservation 取消预约 (Admin)
func (h *Handler) CancelReservation(c *gin.Context) {
	h.transitionReservation(c, h.ReservationService.Cancel, "取消预约失败")
}

// MarkReservationDepositPaid 标记押金已支付
func (h *Handler) MarkReservationDepositPaid(c *gin.Context) {
	h.transitionReservation(c, h.ReservationService.MarkDepositPaid, "标记押金失败")
}

func (h *Handler) transitionReservation(
	c *gin.Context,
	fn func(uint) (*models.Reservation, error),
	failMsg string,
) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}

	reservation, err := fn(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReservationNotFound):
			respondError(c, response.CodeNotFound, "预约不存在", nil)
		case errors.Is(err, service.ErrReservationStatusInvalid):
			respondError(c, response.CodeBadRequest, "预约状态不允许该操作", nil)
		case errors.Is(err, service.ErrDepositStatusInvalid):
			respondError(c, response.CodeBadRequest, "押金状态不允许该操作", nil)
		default:
			respondError(c, response.CodeInternal, failMsg, err)
		}
		return
	}
	response.Success(c, reservation)
}
