package service

import (
	"strings"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/events"
	"github.com/canting-next/internal/logger"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"
)

// ReviewService 评价服务
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	orderRepo  repository.OrderRepository
	bus        *events.Bus
}

// ReviewCreateInput 提交评价输入
type ReviewCreateInput struct {
	UserID  uint
	OrderID uint
	Rating  int
	Content string
	Images  []string
}

// NewReviewService 创建评价服务
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	orderRepo repository.OrderRepository,
	bus *events.Bus,
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		orderRepo:  orderRepo,
		bus:        bus,
	}
}

// Create 提交评价：仅限本人已支付订单，每单一条
func (s *ReviewService) Create(input ReviewCreateInput) (*models.Review, error) {
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrReviewRatingInvalid
	}

	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != input.UserID {
		return nil, ErrOrderNotFound
	}
	if order.PaidAt == nil {
		return nil, ErrOrderStatusInvalid
	}

	existing, err := s.reviewRepo.GetByOrderID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrReviewExists
	}

	review := &models.Review{
		UserID:  input.UserID,
		OrderID: input.OrderID,
		Rating:  input.Rating,
		Content: strings.TrimSpace(input.Content),
		Images:  models.StringArray(input.Images),
		Status:  constants.ReviewStatusPending,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}
	logger.Infow("评价已提交", "review_id", review.ID, "order_id", input.OrderID, "rating", input.Rating)
	return review, nil
}

// Approve 审核通过并发布事件（积分发放为尽力而为）
func (s *ReviewService) Approve(id uint) (*models.Review, error) {
	review, err := s.reviewRepo.GetByIDForUpdate(id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	if review.Status != constants.ReviewStatusPending {
		return nil, ErrReviewStatusInvalid
	}

	now := time.Now()
	review.Status = constants.ReviewStatusApproved
	review.ApprovedAt = &now
	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.PublishReviewApproved(*review)
	}
	logger.Infow("评价审核通过", "review_id", review.ID, "user_id", review.UserID)
	return review, nil
}

// Reject 审核驳回
func (s *ReviewService) Reject(id uint) (*models.Review, error) {
	review, err := s.reviewRepo.GetByIDForUpdate(id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	if review.Status != constants.ReviewStatusPending {
		return nil, ErrReviewStatusInvalid
	}
	review.Status = constants.ReviewStatusRejected
	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}
	return review, nil
}

// Adopt 采纳优质评价并发布事件
func (s *ReviewService) Adopt(id uint) (*models.Review, error) {
	review, err := s.reviewRepo.GetByIDForUpdate(id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	if review.Status != constants.ReviewStatusApproved {
		return nil, ErrReviewStatusInvalid
	}
	if review.IsAdopted {
		return review, nil
	}

	now := time.Now()
	review.IsAdopted = true
	review.AdoptedAt = &now
	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.PublishReviewAdopted(*review)
	}
	logger.Infow("评价已采纳", "review_id", review.ID, "user_id", review.UserID)
	return review, nil
}

// GetByID 按ID获取评价
func (s *ReviewService) GetByID(id uint) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	return review, nil
}

// List 分页查询评价
func (s *ReviewService) List(filter repository.ReviewListFilter) ([]models.Review, int64, error) {
	return s.reviewRepo.List(filter)
}
