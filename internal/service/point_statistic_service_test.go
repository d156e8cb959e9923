package service

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPointStatisticServiceTest(t *testing.T) (*PointStatisticService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:point_statistic_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&models.PointAccount{}, &models.PointTransaction{}, &models.PointStatistic{}); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	models.DB = db

	pointRepo := repository.NewPointRepository(db)
	statRepo := repository.NewPointStatisticRepository(db)
	return NewPointStatisticService(pointRepo, statRepo), db
}

// seedStatSourceID 为每条种子流水分配唯一 SourceID，避免触发 earn 行上的
// (source_type, source_id) 唯一索引。
var seedStatSourceID uint64

func seedStatTxn(t *testing.T, db *gorm.DB, userID uint, txnType string, points int64, at time.Time) {
	t.Helper()
	txn := models.PointTransaction{
		UserID:     userID,
		Type:       txnType,
		Points:     points,
		SourceType: constants.PointSourceSystem,
		SourceID:   uint(atomic.AddUint64(&seedStatSourceID, 1)),
		CreatedAt:  at,
	}
	if err := db.Create(&txn).Error; err != nil {
		t.Fatalf("写入测试流水失败: %v", err)
	}
}

func TestPointStatisticCalculate(t *testing.T) {
	svc, db := setupPointStatisticServiceTest(t)

	day := time.Date(2026, 8, 30, 15, 0, 0, 0, time.Local)
	seedStatTxn(t, db, 1, constants.PointTxnTypeEarn, 100, day)
	seedStatTxn(t, db, 2, constants.PointTxnTypeEarn, 50, day.Add(2*time.Hour))
	seedStatTxn(t, db, 1, constants.PointTxnTypeRedeem, -30, day.Add(3*time.Hour))
	seedStatTxn(t, db, 3, constants.PointTxnTypeExpire, -20, day.Add(4*time.Hour))
	// 区间外的流水不计入
	seedStatTxn(t, db, 4, constants.PointTxnTypeEarn, 999, day.AddDate(0, 0, 1))
	seedStatTxn(t, db, 5, constants.PointTxnTypeEarn, 888, day.AddDate(0, 0, -1))

	stat, err := svc.Calculate(day)
	if err != nil {
		t.Fatalf("日统计失败: %v", err)
	}
	if stat.StatDate != "2026-08-30" {
		t.Fatalf("统计日期异常: %s", stat.StatDate)
	}
	if stat.TotalEarned != 150 {
		t.Fatalf("当日累积应为 150，实际 %d", stat.TotalEarned)
	}
	if stat.TotalRedeemed != 30 {
		t.Fatalf("当日消耗应取绝对值 30，实际 %d", stat.TotalRedeemed)
	}
	if stat.TotalExpired != 20 {
		t.Fatalf("当日过期应取绝对值 20，实际 %d", stat.TotalExpired)
	}
	if stat.ActiveUsers != 3 {
		t.Fatalf("当日活跃用户应为 3，实际 %d", stat.ActiveUsers)
	}
}

func TestPointStatisticRecalculateUpserts(t *testing.T) {
	svc, db := setupPointStatisticServiceTest(t)

	day := time.Date(2026, 8, 30, 10, 0, 0, 0, time.Local)
	seedStatTxn(t, db, 1, constants.PointTxnTypeEarn, 100, day)

	if _, err := svc.Calculate(day); err != nil {
		t.Fatalf("日统计失败: %v", err)
	}

	// 补录流水后重算，同一日期只保留一行且取新值
	seedStatTxn(t, db, 2, constants.PointTxnTypeEarn, 60, day.Add(time.Hour))
	stat, err := svc.Calculate(day)
	if err != nil {
		t.Fatalf("重算失败: %v", err)
	}
	if stat.TotalEarned != 160 {
		t.Fatalf("重算后累积应为 160，实际 %d", stat.TotalEarned)
	}

	var count int64
	if err := db.Model(&models.PointStatistic{}).Where("stat_date = ?", "2026-08-30").Count(&count).Error; err != nil {
		t.Fatalf("统计行数查询失败: %v", err)
	}
	if count != 1 {
		t.Fatalf("同一日期应只有一行统计，实际 %d", count)
	}

	got, err := svc.GetByDate("2026-08-30")
	if err != nil {
		t.Fatalf("按日期查询失败: %v", err)
	}
	if got == nil || got.TotalEarned != 160 {
		t.Fatalf("按日期查询结果异常: %+v", got)
	}
}

func TestPointStatisticListRange(t *testing.T) {
	svc, db := setupPointStatisticServiceTest(t)

	for i := 0; i < 3; i++ {
		day := time.Date(2026, 8, 28+i, 12, 0, 0, 0, time.Local)
		seedStatTxn(t, db, uint(i+1), constants.PointTxnTypeEarn, int64(10*(i+1)), day)
		if _, err := svc.Calculate(day); err != nil {
			t.Fatalf("日统计失败: %v", err)
		}
	}

	stats, err := svc.ListRange("2026-08-28", "2026-08-29")
	if err != nil {
		t.Fatalf("区间查询失败: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("区间内应有 2 天统计，实际 %d", len(stats))
	}
}
