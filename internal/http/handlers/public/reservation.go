package public

import (
	"errors"
	"strconv"

	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/repository"
	"github.com/canting-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ReservationRequest 创建预约请求
type ReservationRequest struct {
	TableID  uint   `json:"table_id" binding:"required"`
	Date     string `json:"date" binding:"required"`
	TimeSlot string `json:"time_slot" binding:"required"`
	Guests   int    `json:"guests" binding:"required"`
	Remark   string `json:"remark"`
}

// CreateReservation 创建预约
func (h *Handler) CreateReservation(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	reservation, err := h.ReservationService.Create(service.ReservationCreateInput{
		UserID:   userID,
		TableID:  req.TableID,
		Date:     req.Date,
		TimeSlot: req.TimeSlot,
		Guests:   req.Guests,
		Remark:   req.Remark,
	})
	if err != nil {
		respondWithMappedError(c, err, reservationCreateErrorRules, response.CodeInternal, "创建预约失败")
		return
	}
	response.Success(c, reservation)
}

// ListMyReservations 我的预约列表
func (h *Handler) ListMyReservations(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	reservations, total, err := h.ReservationService.List(repository.ReservationListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   c.Query("status"),
	})
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

// PayReservationDeposit 支付预约押金
func (h *Handler) PayReservationDeposit(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}

	if !h.ownReservation(c, userID, id) {
		return
	}

	reservation, err := h.ReservationService.MarkDepositPaid(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReservationNotFound):
			respondError(c, response.CodeNotFound, "预约不存在", nil)
		case errors.Is(err, service.ErrDepositStatusInvalid):
			respondError(c, response.CodeBadRequest, "押金状态不允许该操作", nil)
		default:
			respondError(c, response.CodeInternal, "支付押金失败", err)
		}
		return
	}
	response.Success(c, reservation)
}

// CancelMyReservation 取消本人预约
func (h *Handler) CancelMyReservation(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}

	if !h.ownReservation(c, userID, id) {
		return
	}

	reservation, err := h.ReservationService.Cancel(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReservationNotFound):
			respondError(c, response.CodeNotFound, "预约不存在", nil)
		case errors.Is(err, service.ErrReservationStatusInvalid):
			respondError(c, response.CodeBadRequest, "预约状态不允许取消", nil)
		default:
			respondError(c, response.CodeInternal, "取消预约失败", err)
		}
		return
	}
	response.Success(c, reservation)
}

func (h *Handler) ownReservation(c *gin.Context, userID, reservationID uint) bool {
	reservation, err := h.ReservationService.GetByID(reservationID)
	if err != nil {
		if errors.Is(err, service.ErrReservationNotFound) {
			respondError(c, response.CodeNotFound, "预约不存在", nil)
			return false
		}
		respondError(c, response.CodeInternal, "获取预约失败", err)
		return false
	}
	if reservation.UserID != userID {
		respondError(c, response.CodeNotFound, "预约不存在", nil)
		return false
	}
	return true
}
