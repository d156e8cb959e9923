package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPointLevelServiceTest(t *testing.T) (*PointLevelService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:point_level_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&models.PointLevel{}, &models.PointAccount{}, &models.PointTransaction{}); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	models.DB = db

	levelRepo := repository.NewPointLevelRepository(db)
	pointRepo := repository.NewPointRepository(db)
	return NewPointLevelService(levelRepo, pointRepo), db
}

func TestResolveLevelBoundaries(t *testing.T) {
	svc, db := setupPointLevelServiceTest(t)

	// 等级表为空时回退到兜底编码
	code, err := svc.ResolveLevel(100)
	if err != nil {
		t.Fatalf("解析等级失败: %v", err)
	}
	if code != constants.PointLevelBaseline {
		t.Fatalf("空等级表应回退到 %s，实际 %s", constants.PointLevelBaseline, code)
	}

	levels := []models.PointLevel{
		{Code: "heitie", Name: "黑铁", MinPoints: 0, SortOrder: 1, IsActive: true},
		{Code: "baiyin", Name: "白银", MinPoints: 300, SortOrder: 2, IsActive: true},
		{Code: "huangjin", Name: "黄金", MinPoints: 1000, SortOrder: 3, IsActive: true},
		{Code: "zuanshi", Name: "钻石", MinPoints: 5000, SortOrder: 4, IsActive: false},
	}
	for i := range levels {
		if err := db.Create(&levels[i]).Error; err != nil {
			t.Fatalf("写入测试等级失败: %v", err)
		}
	}

	cases := []struct {
		total int64
		want  string
	}{
		{0, "heitie"},
		{299, "heitie"},
		{300, "baiyin"},
		{999, "baiyin"},
		{1000, "huangjin"},
		{9999, "huangjin"}, // 停用档位不参与解析
	}
	for _, tc := range cases {
		code, err := svc.ResolveLevel(tc.total)
		if err != nil {
			t.Fatalf("解析等级失败: %v", err)
		}
		if code != tc.want {
			t.Fatalf("total=%d 应为 %s，实际 %s", tc.total, tc.want, code)
		}
	}
}

func TestResolveLevelFallbackToLowest(t *testing.T) {
	svc, db := setupPointLevelServiceTest(t)

	level := models.PointLevel{Code: "baiyin", Name: "白银", MinPoints: 100, SortOrder: 1, IsActive: true}
	if err := db.Create(&level).Error; err != nil {
		t.Fatalf("写入测试等级失败: %v", err)
	}

	// 无匹配档位时回退到排序最前的启用档位
	code, err := svc.ResolveLevel(50)
	if err != nil {
		t.Fatalf("解析等级失败: %v", err)
	}
	if code != "baiyin" {
		t.Fatalf("应回退到 baiyin，实际 %s", code)
	}
}

func TestSaveLevelConflict(t *testing.T) {
	svc, _ := setupPointLevelServiceTest(t)

	first := &models.PointLevel{Code: "heitie", Name: "黑铁", MinPoints: 0, SortOrder: 1, IsActive: true}
	if err := svc.SaveLevel(first); err != nil {
		t.Fatalf("创建等级失败: %v", err)
	}

	dup := &models.PointLevel{Code: "baiyin", Name: "白银", MinPoints: 0, SortOrder: 2, IsActive: true}
	if err := svc.SaveLevel(dup); !errors.Is(err, ErrPointLevelConflict) {
		t.Fatalf("启用档位门槛重复应返回 ErrPointLevelConflict，实际 %v", err)
	}

	// 同一编码覆盖更新不算冲突
	first.Name = "黑铁·改"
	if err := svc.SaveLevel(first); err != nil {
		t.Fatalf("覆盖更新失败: %v", err)
	}

	got, err := svc.GetLevelByCode("heitie")
	if err != nil {
		t.Fatalf("查询等级失败: %v", err)
	}
	if got.Name != "黑铁·改" {
		t.Fatalf("更新未生效: %s", got.Name)
	}
}

func TestUpdateAllUserLevels(t *testing.T) {
	svc, db := setupPointLevelServiceTest(t)

	levels := []models.PointLevel{
		{Code: "heitie", Name: "黑铁", MinPoints: 0, SortOrder: 1, IsActive: true},
		{Code: "baiyin", Name: "白银", MinPoints: 300, SortOrder: 2, IsActive: true},
	}
	for i := range levels {
		if err := db.Create(&levels[i]).Error; err != nil {
			t.Fatalf("写入测试等级失败: %v", err)
		}
	}

	accounts := []models.PointAccount{
		{UserID: 1, TotalPoints: 100, AvailablePoints: 100, Level: "heitie"}, // 无变化
		{UserID: 2, TotalPoints: 500, AvailablePoints: 500, Level: "heitie"}, // 应升档
		{UserID: 3, TotalPoints: 100, AvailablePoints: 100, Level: "baiyin"}, // 应降档
	}
	for i := range accounts {
		if err := db.Create(&accounts[i]).Error; err != nil {
			t.Fatalf("写入测试账户失败: %v", err)
		}
	}

	changed, err := svc.UpdateAllUserLevels()
	if err != nil {
		t.Fatalf("全量重算失败: %v", err)
	}
	if changed != 2 {
		t.Fatalf("应有 2 个账户变更，实际 %d", changed)
	}

	var account models.PointAccount
	if err := db.Where("user_id = ?", 2).First(&account).Error; err != nil {
		t.Fatalf("查询账户失败: %v", err)
	}
	if account.Level != "baiyin" {
		t.Fatalf("用户 2 应升为 baiyin，实际 %s", account.Level)
	}
}

// resyncRaceRepo 在批次快照读取之后、等级落库之前插入一笔积分变动，
// 模拟重算任务与积分发放并发执行。
type resyncRaceRepo struct {
	*repository.GormPointRepository
	db *gorm.DB
}

func (r *resyncRaceRepo) ListAllAccounts(batch int, fn func([]models.PointAccount) error) error {
	return r.GormPointRepository.ListAllAccounts(batch, func(accounts []models.PointAccount) error {
		err := r.db.Model(&models.PointAccount{}).
			Where("user_id = ?", 2).
			Updates(map[string]interface{}{
				"total_points":     700,
				"available_points": 700,
			}).Error
		if err != nil {
			return err
		}
		return fn(accounts)
	})
}

func TestUpdateAllUserLevelsKeepsConcurrentBalance(t *testing.T) {
	_, db := setupPointLevelServiceTest(t)

	levels := []models.PointLevel{
		{Code: "heitie", Name: "黑铁", MinPoints: 0, SortOrder: 1, IsActive: true},
		{Code: "baiyin", Name: "白银", MinPoints: 300, SortOrder: 2, IsActive: true},
	}
	for i := range levels {
		if err := db.Create(&levels[i]).Error; err != nil {
			t.Fatalf("写入测试等级失败: %v", err)
		}
	}
	account := models.PointAccount{UserID: 2, TotalPoints: 500, AvailablePoints: 500, Level: "heitie"}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("写入测试账户失败: %v", err)
	}

	levelRepo := repository.NewPointLevelRepository(db)
	raceRepo := &resyncRaceRepo{GormPointRepository: repository.NewPointRepository(db), db: db}
	svc := NewPointLevelService(levelRepo, raceRepo)

	changed, err := svc.UpdateAllUserLevels()
	if err != nil {
		t.Fatalf("全量重算失败: %v", err)
	}
	if changed != 1 {
		t.Fatalf("应有 1 个账户变更，实际 %d", changed)
	}

	var got models.PointAccount
	if err := db.Where("user_id = ?", 2).First(&got).Error; err != nil {
		t.Fatalf("查询账户失败: %v", err)
	}
	if got.Level != "baiyin" {
		t.Fatalf("等级应按快照升为 baiyin，实际 %s", got.Level)
	}
	// 重算期间发放的积分不能被等级落库覆盖
	if got.TotalPoints != 700 || got.AvailablePoints != 700 {
		t.Fatalf("并发积分变动被覆盖: total=%d available=%d", got.TotalPoints, got.AvailablePoints)
	}
}
