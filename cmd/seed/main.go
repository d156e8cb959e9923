package main

import (
	"fmt"
	"log"
	"os"

	"github.com/canting-next/internal/config"
	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/logger"
	"github.com/canting-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认管理员
	if err := models.InitDefaultAdmin(os.Getenv("CT_DEFAULT_ADMIN_USERNAME"), os.Getenv("CT_DEFAULT_ADMIN_PASSWORD")); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	seedPointLevels(stdLog)
	seedPointRules(stdLog)
	seedTables(stdLog)
	seedMenu(stdLog)
	seedSiteConfig(stdLog)

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 10 Point levels (heitie … funeng)")
	fmt.Println("- 5 Point rules (order_earn / review_earn / review_adoption / point_use / point_expire)")
	fmt.Println("- 8 Dining tables")
	fmt.Println("- 4 Menu categories with dishes")
	fmt.Println("- Site configuration")
}

// seedPointLevels 会员等级：阈值严格递增，基线 heitie 为 0 分
func seedPointLevels(stdLog *log.Logger) {
	levels := []models.PointLevel{
		{Code: constants.PointLevelBaseline, Name: "黑铁", MinPoints: 0, DiscountType: constants.LevelDiscountNone, SortOrder: 10, IsActive: true},
		{Code: "heitie2", Name: "黑铁II", MinPoints: 100, DiscountType: constants.LevelDiscountNone, SortOrder: 20, IsActive: true},
		{Code: "heitie3", Name: "黑铁III", MinPoints: 300, DiscountType: constants.LevelDiscountNone, SortOrder: 30, IsActive: true},
		{
			Code: "qingtong1", Name: "青铜I", MinPoints: 600,
			DiscountType:  constants.LevelDiscountPercentage,
			DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromFloat(0.98)),
			SortOrder:     40, IsActive: true,
		},
		{
			Code: "qingtong2", Name: "青铜II", MinPoints: 1000,
			DiscountType:  constants.LevelDiscountPercentage,
			DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromFloat(0.97)),
			SortOrder:     50, IsActive: true,
		},
		{
			Code: "baiyin", Name: "白银", MinPoints: 2000,
			DiscountType:  constants.LevelDiscountPercentage,
			DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromFloat(0.95)),
			SortOrder:     60, IsActive: true,
		},
		{
			Code: "huangjin", Name: "黄金", MinPoints: 5000,
			DiscountType:  constants.LevelDiscountPercentage,
			DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromFloat(0.92)),
			SortOrder:     70, IsActive: true,
		},
		{
			Code: "bojin", Name: "铂金", MinPoints: 10000,
			DiscountType:  constants.LevelDiscountPercentage,
			DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromFloat(0.90)),
			SortOrder:     80, IsActive: true,
		},
		{
			Code: "zuanshi", Name: "钻石", MinPoints: 30000,
			DiscountType:  constants.LevelDiscountPercentage,
			DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromFloat(0.88)),
			SortOrder:     90, IsActive: true,
		},
		{
			Code: "funeng", Name: "赋能", MinPoints: 100000,
			DiscountType:  constants.LevelDiscountPercentage,
			DiscountValue: models.NewMoneyFromDecimal(decimal.NewFromFloat(0.85)),
			SortOrder:     100, IsActive: true,
		},
	}

	for _, level := range levels {
		var existing models.PointLevel
		if err := models.DB.Where("code = ?", level.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&level).Error; err != nil {
				stdLog.Printf("Failed to create point level %s: %v", level.Code, err)
			} else {
				stdLog.Printf("Created point level: %s", level.Code)
			}
		} else {
			stdLog.Printf("Point level already exists: %s", level.Code)
		}
	}
}

// seedPointRules 积分规则：等级倍率映射由 SyncLevelMultipliers 补齐
func seedPointRules(stdLog *log.Logger) {
	rules := []models.PointRule{
		{
			RuleKey:  constants.PointRuleOrderEarn,
			RuleType: constants.PointRuleTypeEarn,
			Name:     "消费返积分",
			Config: models.JSON(map[string]interface{}{
				"base_ratio":           "1.0",
				"min_amount":           "0",
				"max_points_per_order": 10000,
				"level_multiplier":     map[string]interface{}{constants.PointLevelBaseline: 1.0},
			}),
			IsActive:  true,
			SortOrder: 10,
		},
		{
			RuleKey:  constants.PointRuleReviewEarn,
			RuleType: constants.PointRuleTypeEarn,
			Name:     "评价返积分",
			Config: models.JSON(map[string]interface{}{
				"base_points":        10,
				"with_image_bonus":   5,
				"first_review_bonus": 10,
			}),
			IsActive:  true,
			SortOrder: 20,
		},
		{
			RuleKey:  constants.PointRuleReviewAdoption,
			RuleType: constants.PointRuleTypeEarn,
			Name:     "评价采纳奖励",
			Config: models.JSON(map[string]interface{}{
				"base_points": 50,
			}),
			IsActive:  true,
			SortOrder: 30,
		},
		{
			RuleKey:  constants.PointRulePointUse,
			RuleType: constants.PointRuleTypeUse,
			Name:     "积分兑换",
			Config: models.JSON(map[string]interface{}{
				"points_per_yuan": 100,
				"min_points":      100,
			}),
			IsActive:  true,
			SortOrder: 40,
		},
		{
			RuleKey:  constants.PointRulePointExpire,
			RuleType: constants.PointRuleTypeExpire,
			Name:     "积分有效期",
			Config: models.JSON(map[string]interface{}{
				"expire_days": 365,
			}),
			IsActive:  true,
			SortOrder: 50,
		},
	}

	for _, rule := range rules {
		var existing models.PointRule
		if err := models.DB.Where("rule_key = ?", rule.RuleKey).First(&existing).Error; err != nil {
			if err := models.DB.Create(&rule).Error; err != nil {
				stdLog.Printf("Failed to create point rule %s: %v", rule.RuleKey, err)
			} else {
				stdLog.Printf("Created point rule: %s", rule.RuleKey)
			}
		} else {
			stdLog.Printf("Point rule already exists: %s", rule.RuleKey)
		}
	}
}

func seedTables(stdLog *log.Logger) {
	tables := []models.DiningTable{
		{TableNo: "A1", Name: "大厅A1", Capacity: 2, Status: constants.TableStatusAvailable, SortOrder: 10},
		{TableNo: "A2", Name: "大厅A2", Capacity: 2, Status: constants.TableStatusAvailable, SortOrder: 20},
		{TableNo: "A3", Name: "大厅A3", Capacity: 4, Status: constants.TableStatusAvailable, SortOrder: 30},
		{TableNo: "A4", Name: "大厅A4", Capacity: 4, Status: constants.TableStatusAvailable, SortOrder: 40},
		{TableNo: "B1", Name: "靠窗B1", Capacity: 4, Status: constants.TableStatusAvailable, SortOrder: 50},
		{TableNo: "B2", Name: "靠窗B2", Capacity: 6, Status: constants.TableStatusAvailable, SortOrder: 60},
		{TableNo: "V1", Name: "包间·牡丹", Capacity: 8, Status: constants.TableStatusAvailable, SortOrder: 70},
		{TableNo: "V2", Name: "包间·芙蓉", Capacity: 12, Status: constants.TableStatusAvailable, SortOrder: 80},
	}

	for _, table := range tables {
		var existing models.DiningTable
		if err := models.DB.Where("table_no = ?", table.TableNo).First(&existing).Error; err != nil {
			if err := models.DB.Create(&table).Error; err != nil {
				stdLog.Printf("Failed to create table %s: %v", table.TableNo, err)
			} else {
				stdLog.Printf("Created table: %s", table.TableNo)
			}
		} else {
			stdLog.Printf("Table already exists: %s", table.TableNo)
		}
	}
}

func seedMenu(stdLog *log.Logger) {
	categories := []models.MenuCategory{
		{Slug: "hot-dishes", Name: "热菜", SortOrder: 10},
		{Slug: "cold-dishes", Name: "凉菜", SortOrder: 20},
		{Slug: "staples", Name: "主食", SortOrder: 30},
		{Slug: "drinks", Name: "酒水饮料", SortOrder: 40},
	}

	for _, cat := range categories {
		var existing models.MenuCategory
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create menu category %s: %v", cat.Slug, err)
			} else {
				stdLog.Printf("Created menu category: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("Menu category already exists: %s", cat.Slug)
		}
	}

	categoryIDs := map[string]uint{}
	var categoryList []models.MenuCategory
	if err := models.DB.Where("slug IN ?", []string{"hot-dishes", "cold-dishes", "staples", "drinks"}).Find(&categoryList).Error; err != nil {
		stdLog.Printf("Failed to load menu categories: %v", err)
	}
	for _, cat := range categoryList {
		categoryIDs[cat.Slug] = cat.ID
	}

	items := []models.MenuItem{
		{
			CategoryID:  categoryIDs["hot-dishes"],
			Name:        "红烧肉",
			Description: "五花肉慢炖两小时，肥而不腻",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(58)),
			IsAvailable: true,
			SortOrder:   10,
		},
		{
			CategoryID:  categoryIDs["hot-dishes"],
			Name:        "清蒸鲈鱼",
			Description: "每日现捞，清蒸锁鲜",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(88)),
			IsAvailable: true,
			SortOrder:   20,
		},
		{
			CategoryID:  categoryIDs["hot-dishes"],
			Name:        "宫保鸡丁",
			Description: "花生酥脆，微辣回甜",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(42)),
			IsAvailable: true,
			SortOrder:   30,
		},
		{
			CategoryID:  categoryIDs["cold-dishes"],
			Name:        "口水鸡",
			Description: "红油香辣，鸡肉嫩滑",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(32)),
			IsAvailable: true,
			SortOrder:   10,
		},
		{
			CategoryID:  categoryIDs["cold-dishes"],
			Name:        "拍黄瓜",
			Description: "蒜香爽口",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(12)),
			IsAvailable: true,
			SortOrder:   20,
		},
		{
			CategoryID:  categoryIDs["staples"],
			Name:        "扬州炒饭",
			Description: "粒粒分明，蛋香浓郁",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(28)),
			IsAvailable: true,
			SortOrder:   10,
		},
		{
			CategoryID:  categoryIDs["staples"],
			Name:        "手工水饺",
			Description: "猪肉白菜馅，12只/份",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(24)),
			IsAvailable: true,
			SortOrder:   20,
		},
		{
			CategoryID:  categoryIDs["drinks"],
			Name:        "酸梅汤",
			Description: "自熬乌梅，冰镇解腻",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(15)),
			IsAvailable: true,
			SortOrder:   10,
		},
		{
			CategoryID:  categoryIDs["drinks"],
			Name:        "精酿啤酒",
			Description: "本地精酿，500ml",
			Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(25)),
			IsAvailable: true,
			SortOrder:   20,
		},
	}

	for _, item := range items {
		if item.CategoryID == 0 {
			stdLog.Printf("Skip menu item %s: category missing", item.Name)
			continue
		}
		var existing models.MenuItem
		if err := models.DB.Where("category_id = ? AND name = ?", item.CategoryID, item.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&item).Error; err != nil {
				stdLog.Printf("Failed to create menu item %s: %v", item.Name, err)
			} else {
				stdLog.Printf("Created menu item: %s", item.Name)
			}
		} else {
			stdLog.Printf("Menu item already exists: %s", item.Name)
		}
	}
}

func seedSiteConfig(stdLog *log.Logger) {
	configData := map[string]interface{}{
		"name":    "canting-next 体验店",
		"phone":   "0571-88888888",
		"address": "杭州市西湖区示例路 1 号",
		"hours": map[string]string{
			"open":  "10:30",
			"close": "21:30",
		},
	}

	var setting models.Setting
	if err := models.DB.Where("key = ?", "site_config").First(&setting).Error; err != nil {
		setting = models.Setting{
			Key:       "site_config",
			ValueJSON: models.JSON(configData),
		}
		if err := models.DB.Create(&setting).Error; err != nil {
			stdLog.Printf("Failed to create setting: %v", err)
		} else {
			stdLog.Println("Created site config")
		}
	} else {
		setting.ValueJSON = models.JSON(configData)
		if err := models.DB.Save(&setting).Error; err != nil {
			stdLog.Printf("Failed to update setting: %v", err)
		} else {
			stdLog.Println("Updated site config")
		}
	}
}
