package service

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupPointRuleServiceTest(t *testing.T) (*PointRuleService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:point_rule_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&models.PointRule{}, &models.PointLevel{}); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	models.DB = db

	ruleRepo := repository.NewPointRuleRepository(db)
	levelRepo := repository.NewPointLevelRepository(db)
	return NewPointRuleService(ruleRepo, levelRepo, time.Hour), db
}

func TestGetRuleCaching(t *testing.T) {
	svc, db := setupPointRuleServiceTest(t)

	rule := models.PointRule{
		RuleKey:  constants.PointRuleOrderEarn,
		RuleType: constants.PointRuleTypeEarn,
		Name:     "消费累积",
		Config:   models.JSON{"base_ratio": 1.0},
		IsActive: true,
	}
	if err := db.Create(&rule).Error; err != nil {
		t.Fatalf("写入测试规则失败: %v", err)
	}

	got, err := svc.GetRule(constants.PointRuleOrderEarn)
	if err != nil {
		t.Fatalf("读取规则失败: %v", err)
	}
	if got.Name != "消费累积" {
		t.Fatalf("规则名异常: %s", got.Name)
	}

	// 绕开服务直接改库，缓存期内应仍命中旧值
	if err := db.Model(&models.PointRule{}).
		Where("rule_key = ?", constants.PointRuleOrderEarn).
		Update("name", "改名后").Error; err != nil {
		t.Fatalf("更新测试规则失败: %v", err)
	}
	got, err = svc.GetRule(constants.PointRuleOrderEarn)
	if err != nil {
		t.Fatalf("读取规则失败: %v", err)
	}
	if got.Name != "消费累积" {
		t.Fatalf("缓存期内应命中旧值，实际 %s", got.Name)
	}

	svc.ClearCache(constants.PointRuleOrderEarn)
	got, err = svc.GetRule(constants.PointRuleOrderEarn)
	if err != nil {
		t.Fatalf("读取规则失败: %v", err)
	}
	if got.Name != "改名后" {
		t.Fatalf("清缓存后应读到新值，实际 %s", got.Name)
	}
}

func TestGetRuleInactive(t *testing.T) {
	svc, db := setupPointRuleServiceTest(t)

	rule := models.PointRule{
		RuleKey:  constants.PointRulePointUse,
		RuleType: constants.PointRuleTypeUse,
		Name:     "积分抵扣",
		Config:   models.JSON{"points_per_yuan": 100},
		IsActive: false,
	}
	if err := db.Create(&rule).Error; err != nil {
		t.Fatalf("写入测试规则失败: %v", err)
	}

	if _, err := svc.GetRule(constants.PointRulePointUse); !errors.Is(err, ErrPointRuleNotFound) {
		t.Fatalf("停用规则应返回 ErrPointRuleNotFound，实际 %v", err)
	}
	if _, err := svc.GetRule("no_such_rule"); !errors.Is(err, ErrPointRuleNotFound) {
		t.Fatalf("缺失规则应返回 ErrPointRuleNotFound，实际 %v", err)
	}
}

func TestSaveRuleClearsCache(t *testing.T) {
	svc, _ := setupPointRuleServiceTest(t)

	rule := &models.PointRule{
		RuleKey:  constants.PointRuleReviewEarn,
		RuleType: constants.PointRuleTypeEarn,
		Name:     "评价奖励",
		Config:   models.JSON{"base_points": 5},
		IsActive: true,
	}
	if err := svc.SaveRule(rule); err != nil {
		t.Fatalf("创建规则失败: %v", err)
	}
	if _, err := svc.GetRule(constants.PointRuleReviewEarn); err != nil {
		t.Fatalf("读取规则失败: %v", err)
	}

	rule.Config = models.JSON{"base_points": 8}
	if err := svc.SaveRule(rule); err != nil {
		t.Fatalf("更新规则失败: %v", err)
	}

	got, err := svc.GetRule(constants.PointRuleReviewEarn)
	if err != nil {
		t.Fatalf("读取规则失败: %v", err)
	}
	cfg, err := ParseEarnRuleConfig(got.Config)
	if err != nil {
		t.Fatalf("解析规则配置失败: %v", err)
	}
	if cfg.BasePoints != 8 {
		t.Fatalf("SaveRule 应使缓存失效并读到新配置，实际 base_points=%d", cfg.BasePoints)
	}
}

func TestSyncLevelMultipliers(t *testing.T) {
	svc, db := setupPointRuleServiceTest(t)

	rule := models.PointRule{
		RuleKey:  constants.PointRuleOrderEarn,
		RuleType: constants.PointRuleTypeEarn,
		Name:     "消费累积",
		Config:   models.JSON{"base_ratio": 1.0, "level_multiplier": map[string]interface{}{"legacy": 2.0}},
		IsActive: true,
	}
	if err := db.Create(&rule).Error; err != nil {
		t.Fatalf("写入测试规则失败: %v", err)
	}

	levels := []models.PointLevel{
		{Code: "heitie", Name: "黑铁", MinPoints: 0, SortOrder: 1, IsActive: true},
		{Code: "baiyin", Name: "白银", MinPoints: 300, SortOrder: 2, IsActive: true},
		{Code: "huangjin", Name: "黄金", MinPoints: 1000, SortOrder: 3, IsActive: true},
	}
	for i := range levels {
		if err := db.Create(&levels[i]).Error; err != nil {
			t.Fatalf("写入测试等级失败: %v", err)
		}
	}

	if err := svc.SyncLevelMultipliers(); err != nil {
		t.Fatalf("同步等级倍率失败: %v", err)
	}

	got, err := svc.GetRule(constants.PointRuleOrderEarn)
	if err != nil {
		t.Fatalf("读取规则失败: %v", err)
	}
	cfg, err := ParseEarnRuleConfig(got.Config)
	if err != nil {
		t.Fatalf("解析规则配置失败: %v", err)
	}

	// 门槛升序逐档 +5%，既有的冗余编码原样保留
	want := map[string]float64{"heitie": 1.0, "baiyin": 1.05, "huangjin": 1.1, "legacy": 2.0}
	for code, m := range want {
		if math.Abs(cfg.LevelMultiplier[code]-m) > 1e-9 {
			t.Fatalf("%s 倍率应为 %.2f，实际 %.4f", code, m, cfg.LevelMultiplier[code])
		}
	}
}

func TestEarnRuleMultiplierFallback(t *testing.T) {
	cfg := &EarnRuleConfig{LevelMultiplier: map[string]float64{"baiyin": 1.05, "bad": -1}}

	if !cfg.Multiplier("baiyin").Equal(decimal.NewFromFloat(1.05)) {
		t.Fatalf("已配置编码应取配置倍率，实际 %s", cfg.Multiplier("baiyin"))
	}
	if !cfg.Multiplier("unknown").Equal(decimal.NewFromInt(1)) {
		t.Fatalf("未知编码应回退 1.0，实际 %s", cfg.Multiplier("unknown"))
	}
	if !cfg.Multiplier("bad").Equal(decimal.NewFromInt(1)) {
		t.Fatalf("非法倍率应回退 1.0，实际 %s", cfg.Multiplier("bad"))
	}
}
