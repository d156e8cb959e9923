package service

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/logger"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"

	"github.com/shopspring/decimal"
)

// EarnRuleConfig earn 类规则参数
type EarnRuleConfig struct {
	BaseRatio         decimal.Decimal    `json:"base_ratio"`
	BasePoints        int64              `json:"base_points"`
	WithImageBonus    int64              `json:"with_image_bonus"`
	FirstReviewBonus  int64              `json:"first_review_bonus"`
	MinAmount         decimal.Decimal    `json:"min_amount"`
	MaxPointsPerOrder int64              `json:"max_points_per_order"`
	LevelMultiplier   map[string]float64 `json:"level_multiplier"`
}

// UseRuleConfig use 类规则参数
type UseRuleConfig struct {
	PointsPerYuan int64 `json:"points_per_yuan"`
	MinPoints     int64 `json:"min_points"`
}

// ExpireRuleConfig expire 类规则参数
type ExpireRuleConfig struct {
	ExpireDays int `json:"expire_days"`
}

// Multiplier 按等级编码取倍率，未知编码按 1.0 处理
func (c *EarnRuleConfig) Multiplier(levelCode string) decimal.Decimal {
	if c == nil || len(c.LevelMultiplier) == 0 {
		return decimal.NewFromInt(1)
	}
	m, ok := c.LevelMultiplier[levelCode]
	if !ok || m <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(m)
}

type cachedRule struct {
	rule     *models.PointRule
	cachedAt time.Time
}

// PointRuleService 积分规则服务，持有规则的进程内缓存。
// 任何规则写入方必须在同一工作单元内调用 ClearCache。
type PointRuleService struct {
	ruleRepo  repository.PointRuleRepository
	levelRepo repository.PointLevelRepository

	cacheTTL time.Duration
	mu       sync.RWMutex
	cache    map[string]cachedRule
}

// NewPointRuleService 创建积分规则服务
func NewPointRuleService(
	ruleRepo repository.PointRuleRepository,
	levelRepo repository.PointLevelRepository,
	cacheTTL time.Duration,
) *PointRuleService {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &PointRuleService{
		ruleRepo:  ruleRepo,
		levelRepo: levelRepo,
		cacheTTL:  cacheTTL,
		cache:     make(map[string]cachedRule),
	}
}

// GetRule 按规则键获取启用规则，优先命中缓存
func (s *PointRuleService) GetRule(ruleKey string) (*models.PointRule, error) {
	ruleKey = strings.TrimSpace(ruleKey)
	if ruleKey == "" {
		return nil, ErrPointRuleNotFound
	}

	s.mu.RLock()
	entry, ok := s.cache[ruleKey]
	s.mu.RUnlock()
	if ok && time.Since(entry.cachedAt) < s.cacheTTL {
		return entry.rule, nil
	}

	rule, err := s.ruleRepo.GetByKey(ruleKey)
	if err != nil {
		return nil, err
	}
	if rule == nil || !rule.IsActive {
		return nil, ErrPointRuleNotFound
	}

	s.mu.Lock()
	s.cache[ruleKey] = cachedRule{rule: rule, cachedAt: time.Now()}
	s.mu.Unlock()
	return rule, nil
}

// ClearCache 清除缓存；ruleKey 为空时清空全部
func (s *PointRuleService) ClearCache(ruleKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ruleKey == "" {
		s.cache = make(map[string]cachedRule)
		return
	}
	delete(s.cache, ruleKey)
}

// ListRules 获取全部规则（管理端）
func (s *PointRuleService) ListRules() ([]models.PointRule, error) {
	return s.ruleRepo.ListAll()
}

// SaveRule 创建或更新规则，写入后清除该键缓存
func (s *PointRuleService) SaveRule(rule *models.PointRule) error {
	if rule == nil || strings.TrimSpace(rule.RuleKey) == "" {
		return ErrPointRuleConfigInvalid
	}
	rule.RuleKey = strings.TrimSpace(rule.RuleKey)

	existing, err := s.ruleRepo.GetByKey(rule.RuleKey)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := s.ruleRepo.Create(rule); err != nil {
			return err
		}
	} else {
		existing.RuleType = rule.RuleType
		existing.Name = rule.Name
		existing.Config = rule.Config
		existing.IsActive = rule.IsActive
		existing.SortOrder = rule.SortOrder
		if err := s.ruleRepo.Update(existing); err != nil {
			return err
		}
		*rule = *existing
	}
	s.ClearCache(rule.RuleKey)
	return nil
}

// SyncLevelMultipliers 将等级表折算进 order_earn 规则的倍率映射。
// 新算出的倍率与已有映射合并，冲突时以新值为准；完成后清除缓存。
func (s *PointRuleService) SyncLevelMultipliers() error {
	rule, err := s.ruleRepo.GetByKey(constants.PointRuleOrderEarn)
	if err != nil {
		return err
	}
	if rule == nil {
		return ErrPointRuleNotFound
	}

	levels, err := s.levelRepo.ListActive()
	if err != nil {
		return err
	}

	cfg, err := ParseEarnRuleConfig(rule.Config)
	if err != nil {
		return err
	}
	if cfg.LevelMultiplier == nil {
		cfg.LevelMultiplier = make(map[string]float64, len(levels))
	}
	for i, level := range levels {
		// 每升一档加 5% 获取倍率，基线档为 1.0
		cfg.LevelMultiplier[level.Code] = 1.0 + 0.05*float64(i)
	}

	payload, err := earnRuleConfigToJSON(cfg)
	if err != nil {
		return err
	}
	rule.Config = payload
	if err := s.ruleRepo.Update(rule); err != nil {
		return err
	}
	s.ClearCache(constants.PointRuleOrderEarn)
	logger.Infow("等级倍率已同步到积分规则", "rule_key", rule.RuleKey, "levels", len(levels))
	return nil
}

// ParseEarnRuleConfig 解析 earn 类规则参数
func ParseEarnRuleConfig(config models.JSON) (*EarnRuleConfig, error) {
	cfg := &EarnRuleConfig{BaseRatio: decimal.NewFromInt(1)}
	if err := decodeRuleConfig(config, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseUseRuleConfig 解析 use 类规则参数
func ParseUseRuleConfig(config models.JSON) (*UseRuleConfig, error) {
	cfg := &UseRuleConfig{}
	if err := decodeRuleConfig(config, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseExpireRuleConfig 解析 expire 类规则参数
func ParseExpireRuleConfig(config models.JSON) (*ExpireRuleConfig, error) {
	cfg := &ExpireRuleConfig{}
	if err := decodeRuleConfig(config, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeRuleConfig(config models.JSON, target interface{}) error {
	if len(config) == 0 {
		return nil
	}
	raw, err := json.Marshal(map[string]interface{}(config))
	if err != nil {
		return ErrPointRuleConfigInvalid
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return ErrPointRuleConfigInvalid
	}
	return nil
}

func earnRuleConfigToJSON(cfg *EarnRuleConfig) (models.JSON, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, ErrPointRuleConfigInvalid
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrPointRuleConfigInvalid
	}
	return models.JSON(payload), nil
}
