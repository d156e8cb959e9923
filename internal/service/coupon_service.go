package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/events"
	"github.com/canting-next/internal/logger"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"

	"gorm.io/gorm"
)

// CouponService 优惠券服务。
// 兑换时冻结等额积分；核销或过期时发布事件，
// 由积分服务按结果解冻（used 消耗 / expired 返还）。
type CouponService struct {
	couponRepo repository.CouponRepository
	pointSvc   *PointService
	bus        *events.Bus
}

// CouponRedeemInput 积分兑换优惠券输入
type CouponRedeemInput struct {
	UserID     uint
	Title      string
	Type       string
	Value      models.Money
	MinAmount  models.Money
	PointsCost int64
	ValidDays  int
}

// NewCouponService 创建优惠券服务
func NewCouponService(
	couponRepo repository.CouponRepository,
	pointSvc *PointService,
	bus *events.Bus,
) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		pointSvc:   pointSvc,
		bus:        bus,
	}
}

// Redeem 积分兑换优惠券：先落券再冻结积分，冻结失败回滚发券
func (s *CouponService) Redeem(input CouponRedeemInput) (*models.Coupon, error) {
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	if input.PointsCost <= 0 {
		return nil, ErrPointInvalidAmount
	}
	if input.ValidDays <= 0 {
		input.ValidDays = 30
	}

	expiresAt := time.Now().AddDate(0, 0, input.ValidDays)
	coupon := &models.Coupon{
		Code:       generateCouponCode(),
		UserID:     input.UserID,
		Title:      strings.TrimSpace(input.Title),
		Type:       input.Type,
		Value:      input.Value,
		MinAmount:  input.MinAmount,
		PointsCost: input.PointsCost,
		Status:     constants.CouponStatusIssued,
		ExpiresAt:  &expiresAt,
	}
	if err := s.couponRepo.Create(coupon); err != nil {
		return nil, err
	}

	if _, err := s.pointSvc.Freeze(PointFreezeInput{
		UserID:     input.UserID,
		Amount:     input.PointsCost,
		SourceType: constants.PointSourceCoupon,
		SourceID:   coupon.ID,
		Remark:     fmt.Sprintf("兑换优惠券 %s", coupon.Code),
	}); err != nil {
		// 冻结失败则收回已发的券
		coupon.Status = constants.CouponStatusExpired
		if updateErr := s.couponRepo.Update(coupon); updateErr != nil {
			logger.Errorw("回收兑换失败的优惠券失败", "coupon_id", coupon.ID, "error", updateErr)
		}
		return nil, err
	}

	logger.Infow("优惠券兑换成功",
		"coupon_id", coupon.ID, "user_id", input.UserID, "points_cost", input.PointsCost)
	return coupon, nil
}

// Use 核销优惠券并发布事件（冻结积分随之消耗）
func (s *CouponService) Use(couponID, orderID uint, discount models.Money) (*models.Coupon, error) {
	var result *models.Coupon
	err := s.couponRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.couponRepo.WithTx(tx)
		coupon, err := repo.GetByIDForUpdate(couponID)
		if err != nil {
			return err
		}
		if coupon == nil {
			return ErrCouponNotFound
		}
		if coupon.Status != constants.CouponStatusIssued {
			return ErrCouponStatusInvalid
		}
		if coupon.ExpiresAt != nil && time.Now().After(*coupon.ExpiresAt) {
			return ErrCouponExpired
		}

		now := time.Now()
		coupon.Status = constants.CouponStatusUsed
		coupon.UsedAt = &now
		if err := repo.Update(coupon); err != nil {
			return err
		}
		if err := repo.CreateUsage(&models.CouponUsage{
			CouponID:       coupon.ID,
			UserID:         coupon.UserID,
			OrderID:        orderID,
			DiscountAmount: discount,
			CreatedAt:      now,
		}); err != nil {
			return err
		}
		result = coupon
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.PublishCouponUsed(*result)
	}
	logger.Infow("优惠券核销成功", "coupon_id", result.ID, "order_id", orderID)
	return result, nil
}

// ExpireCoupons 批量处理过期优惠券，返回处理条数。
// 逐券独立处理，单券失败记录日志后继续。
func (s *CouponService) ExpireCoupons() (int, error) {
	coupons, err := s.couponRepo.ListExpiredUnsettled(time.Now(), 200)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, coupon := range coupons {
		coupon := coupon
		// 状态条件更新。候选列表是快照，整行回写会把期间完成的
		// 核销覆盖掉，这里只在仍为已发放时落库。
		done, err := s.couponRepo.MarkExpired(coupon.ID)
		if err != nil {
			logger.Errorw("优惠券过期落库失败", "coupon_id", coupon.ID, "error", err)
			continue
		}
		if !done {
			continue
		}
		coupon.Status = constants.CouponStatusExpired
		expired++
		if s.bus != nil {
			s.bus.PublishCouponExpired(coupon)
		}
	}
	if expired > 0 {
		logger.Infow("优惠券过期批处理完成", "expired", expired)
	}
	return expired, nil
}

// GetByID 按ID获取优惠券
func (s *CouponService) GetByID(id uint) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// List 分页查询优惠券
func (s *CouponService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.couponRepo.List(filter)
}

func generateCouponCode() string {
	now := time.Now().Format("20060102")
	return fmt.Sprintf("CP%s%s", now, randNumeric(8))
}
