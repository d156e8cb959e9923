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

func setupCouponServiceTest(t *testing.T) (*CouponService, *PointService, *events.Bus, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:coupon_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.PointAccount{},
		&models.PointTransaction{},
		&models.PointRule{},
		&models.PointLevel{},
		&models.Coupon{},
		&models.CouponUsage{},
	); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	models.DB = db

	pointRepo := repository.NewPointRepository(db)
	ruleRepo := repository.NewPointRuleRepository(db)
	levelRepo := repository.NewPointLevelRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	ruleSvc := NewPointRuleService(ruleRepo, levelRepo, time.Hour)
	levelSvc := NewPointLevelService(levelRepo, pointRepo)
	pointSvc := NewPointService(pointRepo, ruleSvc, levelSvc, 365)
	bus := events.NewBus()
	return NewCouponService(couponRepo, pointSvc, bus), pointSvc, bus, db
}

func TestCouponRedeemFreezesPoints(t *testing.T) {
	svc, pointSvc, _, db := setupCouponServiceTest(t)
	seedTestAccount(t, db, 1, 1000, 1000, 0, "heitie")

	coupon, err := svc.Redeem(CouponRedeemInput{
		UserID:     1,
		Title:      "满100减20",
		Type:       "fixed",
		Value:      mustTestMoney(t, "20.00"),
		MinAmount:  mustTestMoney(t, "100.00"),
		PointsCost: 200,
	})
	if err != nil {
		t.Fatalf("兑换优惠券失败: %v", err)
	}
	if coupon.Status != constants.CouponStatusIssued {
		t.Fatalf("新券应为 issued，实际 %s", coupon.Status)
	}
	if coupon.Code == "" || coupon.ExpiresAt == nil {
		t.Fatalf("券码与有效期不应为空: %+v", coupon)
	}

	account, err := pointSvc.GetAccount(1)
	if err != nil {
		t.Fatalf("查询积分账户失败: %v", err)
	}
	if account.AvailablePoints != 800 || account.FrozenPoints != 200 {
		t.Fatalf("兑换后应冻结 200 分: available=%d frozen=%d", account.AvailablePoints, account.FrozenPoints)
	}
}

func TestCouponRedeemInsufficientRollsBack(t *testing.T) {
	svc, pointSvc, _, db := setupCouponServiceTest(t)
	seedTestAccount(t, db, 2, 100, 100, 0, "heitie")

	_, err := svc.Redeem(CouponRedeemInput{
		UserID:     2,
		Title:      "满100减20",
		Type:       "fixed",
		Value:      mustTestMoney(t, "20.00"),
		PointsCost: 500,
	})
	if !errors.Is(err, ErrPointInsufficient) {
		t.Fatalf("积分不足应返回 ErrPointInsufficient，实际 %v", err)
	}

	// 冻结失败的券被立即收回
	var coupon models.Coupon
	if err := db.Where("user_id = ?", 2).First(&coupon).Error; err != nil {
		t.Fatalf("查询优惠券失败: %v", err)
	}
	if coupon.Status != constants.CouponStatusExpired {
		t.Fatalf("回收券应为 expired，实际 %s", coupon.Status)
	}

	account, _ := pointSvc.GetAccount(2)
	if account.AvailablePoints != 100 || account.FrozenPoints != 0 {
		t.Fatalf("失败兑换不应动账: %+v", account)
	}
}

func TestCouponUse(t *testing.T) {
	svc, _, bus, db := setupCouponServiceTest(t)
	seedTestAccount(t, db, 3, 1000, 1000, 0, "heitie")

	var usedEvents []models.Coupon
	bus.OnCouponUsed(func(coupon models.Coupon) error {
		usedEvents = append(usedEvents, coupon)
		return nil
	})

	coupon, err := svc.Redeem(CouponRedeemInput{
		UserID:     3,
		Title:      "无门槛5元券",
		Type:       "fixed",
		Value:      mustTestMoney(t, "5.00"),
		PointsCost: 50,
	})
	if err != nil {
		t.Fatalf("兑换优惠券失败: %v", err)
	}

	used, err := svc.Use(coupon.ID, 77, mustTestMoney(t, "5.00"))
	if err != nil {
		t.Fatalf("核销失败: %v", err)
	}
	if used.Status != constants.CouponStatusUsed || used.UsedAt == nil {
		t.Fatalf("核销后状态异常: %+v", used)
	}
	if len(usedEvents) != 1 || usedEvents[0].ID != coupon.ID {
		t.Fatalf("核销应广播一次事件，实际 %d 次", len(usedEvents))
	}

	var usage models.CouponUsage
	if err := db.Where("coupon_id = ?", coupon.ID).First(&usage).Error; err != nil {
		t.Fatalf("查询核销记录失败: %v", err)
	}
	if usage.OrderID != 77 || !usage.DiscountAmount.Equal(mustTestMoney(t, "5.00").Decimal) {
		t.Fatalf("核销记录异常: %+v", usage)
	}

	// 已核销不可再用
	if _, err := svc.Use(coupon.ID, 78, mustTestMoney(t, "5.00")); !errors.Is(err, ErrCouponStatusInvalid) {
		t.Fatalf("重复核销应返回 ErrCouponStatusInvalid，实际 %v", err)
	}
	if _, err := svc.Use(9999, 78, mustTestMoney(t, "5.00")); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("券不存在应返回 ErrCouponNotFound，实际 %v", err)
	}
}

func TestCouponUseExpired(t *testing.T) {
	svc, _, _, db := setupCouponServiceTest(t)
	seedTestAccount(t, db, 4, 1000, 1000, 0, "heitie")

	coupon, err := svc.Redeem(CouponRedeemInput{
		UserID:     4,
		Title:      "过期测试券",
		Type:       "fixed",
		Value:      mustTestMoney(t, "5.00"),
		PointsCost: 50,
	})
	if err != nil {
		t.Fatalf("兑换优惠券失败: %v", err)
	}

	past := time.Now().Add(-time.Hour)
	if err := db.Model(&models.Coupon{}).Where("id = ?", coupon.ID).
		Update("expires_at", past).Error; err != nil {
		t.Fatalf("回拨有效期失败: %v", err)
	}

	if _, err := svc.Use(coupon.ID, 80, mustTestMoney(t, "5.00")); !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("过期券核销应返回 ErrCouponExpired，实际 %v", err)
	}
}

func TestCouponExpireBatch(t *testing.T) {
	svc, _, bus, db := setupCouponServiceTest(t)
	seedTestAccount(t, db, 5, 1000, 1000, 0, "heitie")

	var expiredEvents []models.Coupon
	bus.OnCouponExpired(func(coupon models.Coupon) error {
		expiredEvents = append(expiredEvents, coupon)
		return nil
	})

	coupon, err := svc.Redeem(CouponRedeemInput{
		UserID:     5,
		Title:      "批量过期券",
		Type:       "fixed",
		Value:      mustTestMoney(t, "5.00"),
		PointsCost: 100,
	})
	if err != nil {
		t.Fatalf("兑换优惠券失败: %v", err)
	}

	past := time.Now().Add(-time.Hour)
	if err := db.Model(&models.Coupon{}).Where("id = ?", coupon.ID).
		Update("expires_at", past).Error; err != nil {
		t.Fatalf("回拨有效期失败: %v", err)
	}

	count, err := svc.ExpireCoupons()
	if err != nil {
		t.Fatalf("批量过期失败: %v", err)
	}
	if count != 1 {
		t.Fatalf("应过期 1 张券，实际 %d", count)
	}
	if len(expiredEvents) != 1 || expiredEvents[0].ID != coupon.ID {
		t.Fatalf("过期应逐券广播事件，实际 %d 次", len(expiredEvents))
	}

	var fresh models.Coupon
	db.First(&fresh, coupon.ID)
	if fresh.Status != constants.CouponStatusExpired {
		t.Fatalf("过期后状态异常: %s", fresh.Status)
	}

	// 再跑一轮无事可做
	count, err = svc.ExpireCoupons()
	if err != nil || count != 0 {
		t.Fatalf("重复批处理应为空转: count=%d err=%v", count, err)
	}
}

// sweepRaceCouponRepo 在候选列表取出之后、过期落库之前把券核销掉，
// 模拟过期批处理与核销并发执行。
type sweepRaceCouponRepo struct {
	*repository.GormCouponRepository
	db *gorm.DB
}

func (r *sweepRaceCouponRepo) ListExpiredUnsettled(now time.Time, limit int) ([]models.Coupon, error) {
	coupons, err := r.GormCouponRepository.ListExpiredUnsettled(now, limit)
	if err != nil || len(coupons) == 0 {
		return coupons, err
	}
	usedAt := time.Now()
	err = r.db.Model(&models.Coupon{}).Where("id = ?", coupons[0].ID).
		Updates(map[string]interface{}{
			"status":  constants.CouponStatusUsed,
			"used_at": usedAt,
		}).Error
	return coupons, err
}

func TestCouponExpireBatchSkipsConcurrentlyUsed(t *testing.T) {
	_, pointSvc, _, db := setupCouponServiceTest(t)
	seedTestAccount(t, db, 6, 1000, 1000, 0, "heitie")

	bus := events.NewBus()
	var expiredEvents []models.Coupon
	bus.OnCouponExpired(func(coupon models.Coupon) error {
		expiredEvents = append(expiredEvents, coupon)
		return nil
	})
	raceRepo := &sweepRaceCouponRepo{GormCouponRepository: repository.NewCouponRepository(db), db: db}
	svc := NewCouponService(raceRepo, pointSvc, bus)

	coupon, err := svc.Redeem(CouponRedeemInput{
		UserID:     6,
		Title:      "并发核销券",
		Type:       "fixed",
		Value:      mustTestMoney(t, "5.00"),
		PointsCost: 100,
	})
	if err != nil {
		t.Fatalf("兑换优惠券失败: %v", err)
	}
	past := time.Now().Add(-time.Hour)
	if err := db.Model(&models.Coupon{}).Where("id = ?", coupon.ID).
		Update("expires_at", past).Error; err != nil {
		t.Fatalf("回拨有效期失败: %v", err)
	}

	count, err := svc.ExpireCoupons()
	if err != nil {
		t.Fatalf("批量过期失败: %v", err)
	}
	if count != 0 {
		t.Fatalf("抢先核销的券不应计入过期，实际 %d", count)
	}
	if len(expiredEvents) != 0 {
		t.Fatalf("抢先核销的券不应广播过期事件，实际 %d 次", len(expiredEvents))
	}

	var fresh models.Coupon
	if err := db.First(&fresh, coupon.ID).Error; err != nil {
		t.Fatalf("查询优惠券失败: %v", err)
	}
	// 核销结果不能被过期落库覆盖
	if fresh.Status != constants.CouponStatusUsed || fresh.UsedAt == nil {
		t.Fatalf("核销结果被覆盖: status=%s used_at=%v", fresh.Status, fresh.UsedAt)
	}
}
