package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/provider"
	"github.com/canting-next/internal/queue"
	"github.com/canting-next/internal/repository"
	"github.com/canting-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupWorkerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(
		&models.PointAccount{},
		&models.PointTransaction{},
		&models.PointRule{},
		&models.PointLevel{},
		&models.PointStatistic{},
	); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	models.DB = db

	pointRepo := repository.NewPointRepository(db)
	ruleRepo := repository.NewPointRuleRepository(db)
	levelRepo := repository.NewPointLevelRepository(db)
	statRepo := repository.NewPointStatisticRepository(db)
	ruleSvc := service.NewPointRuleService(ruleRepo, levelRepo, time.Hour)
	levelSvc := service.NewPointLevelService(levelRepo, pointRepo)

	container := &provider.Container{
		PointService:          service.NewPointService(pointRepo, ruleSvc, levelSvc, 365),
		PointStatisticService: service.NewPointStatisticService(pointRepo, statRepo),
	}
	return NewConsumer(container), db
}

func TestHandlePointExpire(t *testing.T) {
	consumer, db := setupWorkerTest(t)

	past := time.Now().Add(-time.Hour)
	account := models.PointAccount{UserID: 1, TotalPoints: 100, AvailablePoints: 100, Level: "heitie"}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("写入测试账户失败: %v", err)
	}
	lot := models.PointTransaction{
		UserID:     1,
		Type:       constants.PointTxnTypeEarn,
		Points:     100,
		SourceType: constants.PointSourceOrder,
		SourceID:   1,
		ExpireAt:   &past,
	}
	if err := db.Create(&lot).Error; err != nil {
		t.Fatalf("写入测试批次失败: %v", err)
	}

	if err := consumer.handlePointExpire(context.Background(), queue.NewPointExpireTask()); err != nil {
		t.Fatalf("过期任务执行失败: %v", err)
	}

	var fresh models.PointAccount
	if err := db.Where("user_id = ?", 1).First(&fresh).Error; err != nil {
		t.Fatalf("查询账户失败: %v", err)
	}
	if fresh.AvailablePoints != 0 {
		t.Fatalf("过期任务应清掉到期积分，实际 available=%d", fresh.AvailablePoints)
	}
}

func TestHandlePointStatisticsWithPayload(t *testing.T) {
	consumer, db := setupWorkerTest(t)

	day := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)
	txn := models.PointTransaction{
		UserID:     1,
		Type:       constants.PointTxnTypeEarn,
		Points:     80,
		SourceType: constants.PointSourceOrder,
		CreatedAt:  day,
	}
	if err := db.Create(&txn).Error; err != nil {
		t.Fatalf("写入测试流水失败: %v", err)
	}

	task, err := queue.NewPointStatisticsTask(queue.PointStatisticsPayload{StatDate: "2026-08-30"})
	if err != nil {
		t.Fatalf("构造任务失败: %v", err)
	}
	if err := consumer.handlePointStatistics(context.Background(), task); err != nil {
		t.Fatalf("统计任务执行失败: %v", err)
	}

	var stat models.PointStatistic
	if err := db.Where("stat_date = ?", "2026-08-30").First(&stat).Error; err != nil {
		t.Fatalf("查询统计失败: %v", err)
	}
	if stat.TotalEarned != 80 {
		t.Fatalf("指定日期统计应为 80，实际 %d", stat.TotalEarned)
	}
}

func TestHandlePointStatisticsInvalidDate(t *testing.T) {
	consumer, _ := setupWorkerTest(t)

	body, err := json.Marshal(queue.PointStatisticsPayload{StatDate: "not-a-date"})
	if err != nil {
		t.Fatalf("构造载荷失败: %v", err)
	}

	// 非法日期只告警不重试
	task := asynq.NewTask(queue.TaskPointStatistics, body)
	if err := consumer.handlePointStatistics(context.Background(), task); err != nil {
		t.Fatalf("非法日期应告警后跳过: %v", err)
	}
}

func TestHandlersSkipWhenServiceMissing(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})

	if err := consumer.handlePointExpire(context.Background(), queue.NewPointExpireTask()); err != nil {
		t.Fatalf("服务缺失应静默跳过: %v", err)
	}
	if err := consumer.handleReservationSweep(context.Background(), queue.NewReservationSweepTask()); err != nil {
		t.Fatalf("服务缺失应静默跳过: %v", err)
	}
	if err := consumer.handleCouponExpire(context.Background(), queue.NewCouponExpireTask()); err != nil {
		t.Fatalf("服务缺失应静默跳过: %v", err)
	}
	if err := consumer.handlePointLevelResync(context.Background(), queue.NewPointLevelResyncTask()); err != nil {
		t.Fatalf("服务缺失应静默跳过: %v", err)
	}
}
