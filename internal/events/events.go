// Package events 定义领域事件的同步发布/订阅。
// 事件由执行状态变迁的代码同步触发，携带相关实体的不可变快照；
// 订阅方失败只记录日志，绝不阻断触发方的主写入。
package events

import (
	"fmt"

	"github.com/canting-next/internal/logger"
	"github.com/canting-next/internal/models"
)

// OrderPaidHandler 订单支付事件处理函数
type OrderPaidHandler func(order models.Order) error

// ReviewApprovedHandler 评价审核通过事件处理函数
type ReviewApprovedHandler func(review models.Review) error

// ReviewAdoptedHandler 评价被采纳事件处理函数
type ReviewAdoptedHandler func(review models.Review) error

// CouponUsedHandler 优惠券核销事件处理函数
type CouponUsedHandler func(coupon models.Coupon) error

// CouponExpiredHandler 优惠券过期事件处理函数
type CouponExpiredHandler func(coupon models.Coupon) error

// Bus 进程内领域事件总线。
// 订阅在启动装配阶段完成，运行期只读，无并发注册。
type Bus struct {
	orderPaid      []OrderPaidHandler
	reviewApproved []ReviewApprovedHandler
	reviewAdopted  []ReviewAdoptedHandler
	couponUsed     []CouponUsedHandler
	couponExpired  []CouponExpiredHandler
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{}
}

// OnOrderPaid 注册订单支付事件处理函数
func (b *Bus) OnOrderPaid(handler OrderPaidHandler) {
	b.orderPaid = append(b.orderPaid, handler)
}

// OnReviewApproved 注册评价审核通过事件处理函数
func (b *Bus) OnReviewApproved(handler ReviewApprovedHandler) {
	b.reviewApproved = append(b.reviewApproved, handler)
}

// OnReviewAdopted 注册评价被采纳事件处理函数
func (b *Bus) OnReviewAdopted(handler ReviewAdoptedHandler) {
	b.reviewAdopted = append(b.reviewAdopted, handler)
}

// OnCouponUsed 注册优惠券核销事件处理函数
func (b *Bus) OnCouponUsed(handler CouponUsedHandler) {
	b.couponUsed = append(b.couponUsed, handler)
}

// OnCouponExpired 注册优惠券过期事件处理函数
func (b *Bus) OnCouponExpired(handler CouponExpiredHandler) {
	b.couponExpired = append(b.couponExpired, handler)
}

// PublishOrderPaid 发布订单支付事件
func (b *Bus) PublishOrderPaid(order models.Order) {
	for _, handler := range b.orderPaid {
		if err := safeInvoke(func() error { return handler(order) }); err != nil {
			logger.Errorw("订单支付事件处理失败", "order_id", order.ID, "error", err)
		}
	}
}

// PublishReviewApproved 发布评价审核通过事件
func (b *Bus) PublishReviewApproved(review models.Review) {
	for _, handler := range b.reviewApproved {
		if err := safeInvoke(func() error { return handler(review) }); err != nil {
			logger.Errorw("评价审核事件处理失败", "review_id", review.ID, "error", err)
		}
	}
}

// PublishReviewAdopted 发布评价被采纳事件
func (b *Bus) PublishReviewAdopted(review models.Review) {
	for _, handler := range b.reviewAdopted {
		if err := safeInvoke(func() error { return handler(review) }); err != nil {
			logger.Errorw("评价采纳事件处理失败", "review_id", review.ID, "error", err)
		}
	}
}

// PublishCouponUsed 发布优惠券核销事件
func (b *Bus) PublishCouponUsed(coupon models.Coupon) {
	for _, handler := range b.couponUsed {
		if err := safeInvoke(func() error { return handler(coupon) }); err != nil {
			logger.Errorw("优惠券核销事件处理失败", "coupon_id", coupon.ID, "error", err)
		}
	}
}

// PublishCouponExpired 发布优惠券过期事件
func (b *Bus) PublishCouponExpired(coupon models.Coupon) {
	for _, handler := range b.couponExpired {
		if err := safeInvoke(func() error { return handler(coupon) }); err != nil {
			logger.Errorw("优惠券过期事件处理失败", "coupon_id", coupon.ID, "error", err)
		}
	}
}

// safeInvoke 吞掉处理函数中的 panic，转为错误返回
func safeInvoke(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn()
}
