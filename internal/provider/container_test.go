package provider

import (
	"fmt"
	"testing"
	"time"

	"github.com/canting-next/internal/events"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"
	"github.com/canting-next/internal/service"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupContainerTest(t *testing.T) (*Container, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:container_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	models.DB = db

	pointRepo := repository.NewPointRepository(db)
	ruleRepo := repository.NewPointRuleRepository(db)
	levelRepo := repository.NewPointLevelRepository(db)
	ruleSvc := service.NewPointRuleService(ruleRepo, levelRepo, time.Hour)
	levelSvc := service.NewPointLevelService(levelRepo, pointRepo)

	c := &Container{
		EventBus:     events.NewBus(),
		PointService: service.NewPointService(pointRepo, ruleSvc, levelSvc, 365),
	}
	c.registerEventHandlers()
	return c, db
}

func seedFrozenAccount(t *testing.T, db *gorm.DB, userID uint) {
	t.Helper()
	account := models.PointAccount{
		UserID:          userID,
		TotalPoints:     1000,
		AvailablePoints: 800,
		FrozenPoints:    200,
		Level:           "heitie",
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("写入测试账户失败: %v", err)
	}
}

// 优惠券事件经总线进入积分解冻，两种结果都要能通过解冻校验落账
func TestCouponEventsUnfreezePoints(t *testing.T) {
	c, db := setupContainerTest(t)

	seedFrozenAccount(t, db, 1)
	c.EventBus.PublishCouponUsed(models.Coupon{ID: 31, UserID: 1, PointsCost: 200})

	var used models.PointAccount
	if err := db.Where("user_id = ?", 1).First(&used).Error; err != nil {
		t.Fatalf("查询账户失败: %v", err)
	}
	if used.FrozenPoints != 0 || used.AvailablePoints != 800 || used.TotalPoints != 1000 {
		t.Fatalf("核销解冻未落账: %+v", used)
	}

	seedFrozenAccount(t, db, 2)
	c.EventBus.PublishCouponExpired(models.Coupon{ID: 32, UserID: 2, PointsCost: 200})

	var expired models.PointAccount
	if err := db.Where("user_id = ?", 2).First(&expired).Error; err != nil {
		t.Fatalf("查询账户失败: %v", err)
	}
	if expired.FrozenPoints != 0 || expired.AvailablePoints != 1000 || expired.TotalPoints != 1000 {
		t.Fatalf("过期返还未落账: %+v", expired)
	}
}
