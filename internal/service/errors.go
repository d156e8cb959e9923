package service

import "errors"

// 认证与账号相关错误
var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrAdminNotFound      = errors.New("管理员不存在")
	ErrAdminDisabled      = errors.New("管理员已被禁用")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUserDisabled       = errors.New("用户已被禁用")
	ErrPhoneTaken         = errors.New("手机号已被注册")
)

// 积分相关错误
var (
	ErrPointAccountNotFound   = errors.New("积分账户不存在")
	ErrPointRuleNotFound      = errors.New("积分规则不存在或未启用")
	ErrPointInvalidAmount     = errors.New("积分数量无效")
	ErrPointInsufficient      = errors.New("可用积分不足")
	ErrPointFrozenMismatch    = errors.New("冻结积分与解冻请求不匹配")
	ErrPointLevelNotFound     = errors.New("会员等级不存在")
	ErrPointLevelConflict     = errors.New("会员等级门槛冲突")
	ErrPointRuleConfigInvalid = errors.New("积分规则配置无效")
)

// 预约相关错误
var (
	ErrReservationNotFound      = errors.New("预约不存在")
	ErrReservationStatusInvalid = errors.New("预约状态不允许该操作")
	ErrTableNotFound            = errors.New("桌台不存在")
	ErrTableUnavailable         = errors.New("桌台在该时段不可用")
	ErrReservationSlotTaken     = errors.New("该时段已被预约")
	ErrReservationTimeInvalid   = errors.New("预约时间格式无效")
	ErrDepositStatusInvalid     = errors.New("押金状态不允许该操作")
)

// 订单与菜单相关错误
var (
	ErrOrderNotFound        = errors.New("订单不存在")
	ErrOrderStatusInvalid   = errors.New("订单状态不允许该操作")
	ErrOrderEmpty           = errors.New("订单明细不能为空")
	ErrMenuItemNotFound     = errors.New("菜品不存在")
	ErrMenuItemUnavailable  = errors.New("菜品已下架")
	ErrMenuCategoryNotFound = errors.New("菜单分类不存在")
)

// 评价相关错误
var (
	ErrReviewNotFound      = errors.New("评价不存在")
	ErrReviewStatusInvalid = errors.New("评价状态不允许该操作")
	ErrReviewExists        = errors.New("该订单已评价")
	ErrReviewRatingInvalid = errors.New("评分超出范围")
)

// 优惠券相关错误
var (
	ErrCouponNotFound      = errors.New("优惠券不存在")
	ErrCouponStatusInvalid = errors.New("优惠券状态不允许该操作")
	ErrCouponExpired       = errors.New("优惠券已过期")
	ErrCouponNotOwned      = errors.New("优惠券不属于该用户")
)

// 设置相关错误
var (
	ErrSettingNotFound = errors.New("设置项不存在")
)
