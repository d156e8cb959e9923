package public

import (
	"strconv"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/http/response"
	"github.com/canting-next/internal/repository"
	"github.com/canting-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ReviewRequest 提交评价请求
type ReviewRequest struct {
	OrderID uint     `json:"order_id" binding:"required"`
	Rating  int      `json:"rating" binding:"required"`
	Content string   `json:"content"`
	Images  []string `json:"images"`
}

// CreateReview 提交评价
func (h *Handler) CreateReview(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	review, err := h.ReviewService.Create(service.ReviewCreateInput{
		UserID:  userID,
		OrderID: req.OrderID,
		Rating:  req.Rating,
		Content: req.Content,
		Images:  req.Images,
	})
	if err != nil {
		respondWithMappedError(c, err, reviewCreateErrorRules, response.CodeInternal, "提交评价失败")
		return
	}
	response.Success(c, review)
}

// ListMyReviews 我的评价列表
func (h *Handler) ListMyReviews(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	reviews, total, err := h.ReviewService.List(repository.ReviewListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
	})
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

// ListAdoptedReviews 精选评价墙
func (h *Handler) ListAdoptedReviews(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	adopted := true
	reviews, total, err := h.ReviewService.List(repository.ReviewListFilter{
		Page:      page,
		PageSize:  pageSize,
		Status:    constants.ReviewStatusApproved,
		IsAdopted: &adopted,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取精选评价失败", err)
		return
	}

	response.SuccessWithPage(c, reviews, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}
