package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAnomalyServiceTest(t *testing.T) (*AnomalyService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:anomaly_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&models.PointAccount{}, &models.PointTransaction{}); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	models.DB = db

	return NewAnomalyService(repository.NewPointRepository(db)), db
}

func findingsByCategory(findings []AnomalyFinding, category string) []AnomalyFinding {
	matched := make([]AnomalyFinding, 0)
	for _, f := range findings {
		if f.Category == category {
			matched = append(matched, f)
		}
	}
	return matched
}

func TestDetectLargeEarn(t *testing.T) {
	svc, db := setupAnomalyServiceTest(t)
	now := time.Now()

	seedStatTxn(t, db, 1, constants.PointTxnTypeEarn, 6000, now.Add(-time.Hour))
	seedStatTxn(t, db, 1, constants.PointTxnTypeEarn, 20000, now.Add(-30*time.Minute))
	seedStatTxn(t, db, 2, constants.PointTxnTypeEarn, 100, now.Add(-time.Hour))

	findings, err := svc.DetectAnomalies(DefaultAnomalyThresholds())
	if err != nil {
		t.Fatalf("异常检测失败: %v", err)
	}

	large := findingsByCategory(findings, constants.AnomalyLargeEarn)
	if len(large) != 2 {
		t.Fatalf("应报 2 条大额获取，实际 %d", len(large))
	}
	for _, f := range large {
		if f.UserID != 1 {
			t.Fatalf("大额获取应归属用户 1，实际 %d", f.UserID)
		}
	}

	// 3 倍阈值以上判为高危
	var severities []string
	for _, f := range large {
		severities = append(severities, f.Severity)
	}
	hasHigh := false
	for _, s := range severities {
		if s == constants.AnomalySeverityHigh {
			hasHigh = true
		}
	}
	if !hasHigh {
		t.Fatalf("20000 分应判为高危，实际 %v", severities)
	}
}

func TestDetectHighFrequency(t *testing.T) {
	svc, db := setupAnomalyServiceTest(t)
	now := time.Now()

	// 同一小时窗口内 25 条流水
	for i := 0; i < 25; i++ {
		seedStatTxn(t, db, 3, constants.PointTxnTypeEarn, 10, now.Add(-time.Duration(i)*time.Minute))
	}

	findings, err := svc.DetectAnomalies(DefaultAnomalyThresholds())
	if err != nil {
		t.Fatalf("异常检测失败: %v", err)
	}

	frequent := findingsByCategory(findings, constants.AnomalyHighFrequency)
	if len(frequent) != 1 || frequent[0].UserID != 3 {
		t.Fatalf("应报 1 条高频动账: %+v", frequent)
	}
	if frequent[0].Value < 21 {
		t.Fatalf("窗口峰值应超过阈值 20，实际 %d", frequent[0].Value)
	}
}

func TestDetectExpireRate(t *testing.T) {
	svc, db := setupAnomalyServiceTest(t)
	now := time.Now()

	seedStatTxn(t, db, 5, constants.PointTxnTypeEarn, 100, now.Add(-48*time.Hour))
	seedStatTxn(t, db, 5, constants.PointTxnTypeExpire, -60, now.Add(-time.Hour))

	findings, err := svc.DetectAnomalies(DefaultAnomalyThresholds())
	if err != nil {
		t.Fatalf("异常检测失败: %v", err)
	}

	rate := findingsByCategory(findings, constants.AnomalyExpireRate)
	if len(rate) != 1 || rate[0].UserID != 5 {
		t.Fatalf("过期率 0.6 应报 1 条异常: %+v", rate)
	}
	if rate[0].Value != 60 {
		t.Fatalf("异常值应为过期分值 60，实际 %d", rate[0].Value)
	}
}

func TestDetectNothingWhenQuiet(t *testing.T) {
	svc, db := setupAnomalyServiceTest(t)
	now := time.Now()

	seedStatTxn(t, db, 4, constants.PointTxnTypeEarn, 100, now.Add(-2*time.Hour))
	seedStatTxn(t, db, 4, constants.PointTxnTypeRedeem, -50, now.Add(-time.Hour))

	findings, err := svc.DetectAnomalies(DefaultAnomalyThresholds())
	if err != nil {
		t.Fatalf("异常检测失败: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("正常流水不应产生异常: %+v", findings)
	}
}
