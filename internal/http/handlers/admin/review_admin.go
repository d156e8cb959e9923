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

// ListReviews 评价列表 (Admin)
func (h *Handler) ListReviews(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.ReviewListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
	}
	if raw := c.Query("user_id"); raw != "" {
		if id, err := parseUint(raw); err == nil {
			filter.UserID = id
		}
	}
	if raw := c.Query("min_rating"); raw != "" {
		if rating, err := strconv.Atoi(raw); err == nil {
			filter.MinRating = rating
		}
	}
	if raw := c.Query("is_adopted"); raw != "" {
		adopted := raw == "true" || raw == "1"
		filter.IsAdopted = &adopted
	}

	reviews, total, err := h.ReviewService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "获取评价列表失败", err)
		return
	}

	response.SuccessWithPage(c, reviews, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// ApproveReview 审核通过评价
func (h *Handler) ApproveReview(c *gin.Context) {
	h.transitionReview(c, h.ReviewService.Approve, "审核评价失败")
}

// RejectReview 驳回评价
func (h *Handler) RejectReview(c *gin.Context) {
	h.transitionReview(c, h.ReviewService.Reject, "驳回评价失败")
}

// AdoptReview 采纳为精选评价
func (h *Handler) AdoptReview(c *gin.Context) {
	h.transitionReview(c, h.ReviewService.Adopt, "采纳评价失败")
}

func (h *Handler) transitionReview(
	c *gin.Context,
	fn func(uint) (*models.Review, error),
	failMsg string,
) {
	id, ok := parsePathID(c, "id")
	if !ok {
		return
	}

	review, err := fn(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			respondError(c, response.CodeNotFound, "评价不存在", nil)
		case errors.Is(err, service.ErrReviewStatusInvalid):
			respondError(c, response.CodeBadRequest, "评价状态不允许该操作", nil)
		default:
			respondError(c, response.CodeInternal, failMsg, err)
		}
		return
	}
	response.Success(c, review)
}
