package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/events"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupReviewServiceTest(t *testing.T) (*ReviewService, *events.Bus, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:review_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderItem{}, &models.Review{}); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	models.DB = db

	reviewRepo := repository.NewReviewRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	bus := events.NewBus()
	return NewReviewService(reviewRepo, orderRepo, bus), bus, db
}

func createPaidTestOrder(t *testing.T, db *gorm.DB, userID uint) *models.Order {
	t.Helper()
	now := time.Now()
	order := &models.Order{
		OrderNo: fmt.Sprintf("CT%d", time.Now().UnixNano()),
		UserID:  userID,
		Status:  constants.OrderStatusPaid,
		Amount:  mustTestMoney(t, "100.00"),
		PaidAt:  &now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("写入测试订单失败: %v", err)
	}
	return order
}

func TestReviewCreate(t *testing.T) {
	svc, _, db := setupReviewServiceTest(t)
	order := createPaidTestOrder(t, db, 1)

	review, err := svc.Create(ReviewCreateInput{
		UserID:  1,
		OrderID: order.ID,
		Rating:  5,
		Content: "味道很好",
		Images:  []string{"a.jpg"},
	})
	if err != nil {
		t.Fatalf("提交评价失败: %v", err)
	}
	if review.Status != constants.ReviewStatusPending {
		t.Fatalf("新评价应为 pending，实际 %s", review.Status)
	}
	if !review.HasImage() {
		t.Fatal("带图评价应识别为有图")
	}

	// 每单一条
	if _, err := svc.Create(ReviewCreateInput{UserID: 1, OrderID: order.ID, Rating: 4}); !errors.Is(err, ErrReviewExists) {
		t.Fatalf("重复评价应返回 ErrReviewExists，实际 %v", err)
	}
}

func TestReviewCreateValidation(t *testing.T) {
	svc, _, db := setupReviewServiceTest(t)
	order := createPaidTestOrder(t, db, 1)

	if _, err := svc.Create(ReviewCreateInput{UserID: 1, OrderID: order.ID, Rating: 0}); !errors.Is(err, ErrReviewRatingInvalid) {
		t.Fatalf("评分越界应返回 ErrReviewRatingInvalid，实际 %v", err)
	}
	if _, err := svc.Create(ReviewCreateInput{UserID: 1, OrderID: order.ID, Rating: 6}); !errors.Is(err, ErrReviewRatingInvalid) {
		t.Fatalf("评分越界应返回 ErrReviewRatingInvalid，实际 %v", err)
	}

	// 他人订单不可评价
	if _, err := svc.Create(ReviewCreateInput{UserID: 2, OrderID: order.ID, Rating: 5}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("他人订单应返回 ErrOrderNotFound，实际 %v", err)
	}

	// 未支付订单不可评价
	unpaid := &models.Order{
		OrderNo: fmt.Sprintf("CT%d", time.Now().UnixNano()),
		UserID:  1,
		Status:  constants.OrderStatusPending,
		Amount:  mustTestMoney(t, "50.00"),
	}
	if err := db.Create(unpaid).Error; err != nil {
		t.Fatalf("写入测试订单失败: %v", err)
	}
	if _, err := svc.Create(ReviewCreateInput{UserID: 1, OrderID: unpaid.ID, Rating: 5}); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("未支付订单应返回 ErrOrderStatusInvalid，实际 %v", err)
	}
}

func TestReviewApproveRejectAdopt(t *testing.T) {
	svc, bus, db := setupReviewServiceTest(t)

	var approvedEvents, adoptedEvents int
	bus.OnReviewApproved(func(models.Review) error {
		approvedEvents++
		return nil
	})
	bus.OnReviewAdopted(func(models.Review) error {
		adoptedEvents++
		return nil
	})

	order := createPaidTestOrder(t, db, 1)
	review, err := svc.Create(ReviewCreateInput{UserID: 1, OrderID: order.ID, Rating: 5, Content: "推荐"})
	if err != nil {
		t.Fatalf("提交评价失败: %v", err)
	}

	// 未过审不可采纳
	if _, err := svc.Adopt(review.ID); !errors.Is(err, ErrReviewStatusInvalid) {
		t.Fatalf("未过审采纳应返回 ErrReviewStatusInvalid，实际 %v", err)
	}

	approved, err := svc.Approve(review.ID)
	if err != nil {
		t.Fatalf("审核通过失败: %v", err)
	}
	if approved.Status != constants.ReviewStatusApproved || approved.ApprovedAt == nil {
		t.Fatalf("过审后状态异常: %+v", approved)
	}
	if approvedEvents != 1 {
		t.Fatalf("过审应广播一次事件，实际 %d 次", approvedEvents)
	}

	// 已过审不可重复审核
	if _, err := svc.Approve(review.ID); !errors.Is(err, ErrReviewStatusInvalid) {
		t.Fatalf("重复过审应返回 ErrReviewStatusInvalid，实际 %v", err)
	}
	if _, err := svc.Reject(review.ID); !errors.Is(err, ErrReviewStatusInvalid) {
		t.Fatalf("过审后驳回应返回 ErrReviewStatusInvalid，实际 %v", err)
	}

	adopted, err := svc.Adopt(review.ID)
	if err != nil {
		t.Fatalf("采纳失败: %v", err)
	}
	if !adopted.IsAdopted || adopted.AdoptedAt == nil {
		t.Fatalf("采纳后状态异常: %+v", adopted)
	}
	if adoptedEvents != 1 {
		t.Fatalf("采纳应广播一次事件，实际 %d 次", adoptedEvents)
	}

	// 重复采纳幂等，不再广播
	if _, err := svc.Adopt(review.ID); err != nil {
		t.Fatalf("重复采纳应幂等: %v", err)
	}
	if adoptedEvents != 1 {
		t.Fatalf("重复采纳不应再广播，实际 %d 次", adoptedEvents)
	}
}

func TestReviewReject(t *testing.T) {
	svc, _, db := setupReviewServiceTest(t)
	order := createPaidTestOrder(t, db, 1)

	review, err := svc.Create(ReviewCreateInput{UserID: 1, OrderID: order.ID, Rating: 2, Content: "一般"})
	if err != nil {
		t.Fatalf("提交评价失败: %v", err)
	}

	rejected, err := svc.Reject(review.ID)
	if err != nil {
		t.Fatalf("驳回失败: %v", err)
	}
	if rejected.Status != constants.ReviewStatusRejected {
		t.Fatalf("驳回后状态异常: %s", rejected.Status)
	}
}
