package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 用户优惠券表（积分兑换发放）
type Coupon struct {
	ID         uint           `gorm:"primarykey" json:"id"`                                    // 主键
	Code       string         `gorm:"uniqueIndex;not null" json:"code"`                        // 券码
	UserID     uint           `gorm:"index;not null" json:"user_id"`                           // 持有用户ID
	Title      string         `gorm:"not null" json:"title"`                                   // 名称
	Type       string         `gorm:"not null" json:"type"`                                    // 类型（fixed/percent）
	Value      Money          `gorm:"type:decimal(20,2);not null" json:"value"`                // 面额（固定金额或百分比）
	MinAmount  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_amount"` // 使用门槛
	PointsCost int64          `gorm:"not null;default:0" json:"points_cost"`                   // 兑换消耗（冻结）的积分
	Status     string         `gorm:"index;default:'issued'" json:"status"`                    // 状态（issued/used/expired）
	ExpiresAt  *time.Time     `gorm:"index" json:"expires_at"`                                 // 失效时间
	UsedAt     *time.Time     `json:"used_at"`                                                 // 使用时间
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}

// CouponUsage 优惠券核销记录
type CouponUsage struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	CouponID       uint      `gorm:"index;not null" json:"coupon_id"`                              // 优惠券ID
	UserID         uint      `gorm:"index;not null" json:"user_id"`                                // 用户ID
	OrderID        uint      `gorm:"index;not null" json:"order_id"`                               // 订单ID
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
}

// TableName 指定表名
func (CouponUsage) TableName() string {
	return "coupon_usages"
}
