package constants

// 预约状态常量
const (
	ReservationStatusPending   = "pending"
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusSeated    = "seated"
	ReservationStatusCompleted = "completed"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusExpired   = "expired"
)

// 押金状态常量
const (
	DepositStatusUnpaid    = "unpaid"
	DepositStatusPaid      = "paid"
	DepositStatusRefunded  = "refunded"
	DepositStatusForfeited = "forfeited"
)

// 餐桌状态常量
const (
	TableStatusAvailable = "available"
	TableStatusReserved  = "reserved"
	TableStatusOccupied  = "occupied"
	TableStatusDisabled  = "disabled"
)

// 订单状态常量
const (
	OrderStatusPending       = "pending"
	OrderStatusPaid          = "paid"
	OrderStatusPendingReview = "pending_review"
	OrderStatusCompleted     = "completed"
	OrderStatusCancelled     = "cancelled"
)

// 评价状态常量
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// 积分交易类型常量
const (
	PointTxnTypeEarn     = "earn"
	PointTxnTypeRedeem   = "redeem"
	PointTxnTypeExpire   = "expire"
	PointTxnTypeAdjust   = "adjust"
	PointTxnTypeFreeze   = "freeze"
	PointTxnTypeUnfreeze = "unfreeze"
)

// 积分来源类型常量
const (
	PointSourceOrder          = "order"
	PointSourceReview         = "review"
	PointSourceReviewAdoption = "review_adoption"
	PointSourceCoupon         = "coupon"
	PointSourceAdmin          = "admin"
	PointSourceSystem         = "system"
)

// 积分规则键常量
const (
	PointRuleOrderEarn      = "order_earn"
	PointRuleReviewEarn     = "review_earn"
	PointRuleReviewAdoption = "review_adoption"
	PointRulePointUse       = "point_use"
	PointRulePointExpire    = "point_expire"
)

// 积分规则类型常量
const (
	PointRuleTypeEarn   = "earn"
	PointRuleTypeUse    = "use"
	PointRuleTypeExpire = "expire"
)

// 会员等级兜底编码（等级表可配置，这里只固定兜底等级）
const (
	PointLevelBaseline = "heitie"
)

// 等级折扣类型常量
const (
	LevelDiscountNone       = "none"
	LevelDiscountPercentage = "percentage"
	LevelDiscountFixed      = "fixed"
)

// 用户优惠券状态常量
const (
	CouponStatusIssued  = "issued"
	CouponStatusUsed    = "used"
	CouponStatusExpired = "expired"
)

// 优惠券解冻结果常量
const (
	CouponOutcomeUsed    = "used"
	CouponOutcomeExpired = "expired"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 异常检测严重级别常量
const (
	AnomalySeverityLow    = "low"
	AnomalySeverityMedium = "medium"
	AnomalySeverityHigh   = "high"
)

// 异常检测类别常量
const (
	AnomalyLargeEarn      = "large_earn"
	AnomalyHighFrequency  = "high_frequency"
	AnomalyBalanceOutlier = "balance_outlier"
	AnomalyExpireRate     = "expire_rate"
)

// 队列与任务常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskPointExpire      = "points:expire"
	TaskPointStatistics  = "points:statistics"
	TaskPointLevelResync = "points:levels_resync"
	TaskReservationSweep = "reservation:sweep"
	TaskCouponExpire     = "coupons:expire"
)

// 系统设置键常量
const (
	SettingKeySiteConfig        = "site_config"
	SettingKeyReservationConfig = "reservation_config"
	SettingKeyPointConfig       = "point_config"

	SettingFieldTimeoutMinutes = "timeout_minutes"
	SettingFieldDepositAmount  = "deposit_amount"
	SettingFieldExpireDays     = "expire_days"
)
