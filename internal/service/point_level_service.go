package service

import (
	"strings"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/logger"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"
)

// PointLevelService 会员等级服务
type PointLevelService struct {
	levelRepo repository.PointLevelRepository
	pointRepo repository.PointRepository
}

// NewPointLevelService 创建会员等级服务
func NewPointLevelService(
	levelRepo repository.PointLevelRepository,
	pointRepo repository.PointRepository,
) *PointLevelService {
	return &PointLevelService{
		levelRepo: levelRepo,
		pointRepo: pointRepo,
	}
}

// ResolveLevel 按累计积分解析等级编码。
// 在启用等级按门槛升序排列后取最后一个 min_points <= totalPoints 的档位；
// 无匹配时回退到排序最前的启用档位，等级表为空时回退到兜底编码。
func (s *PointLevelService) ResolveLevel(totalPoints int64) (string, error) {
	levels, err := s.levelRepo.ListActive()
	if err != nil {
		return "", err
	}
	return resolveLevelCode(totalPoints, levels), nil
}

// GetLevelByCode 按编码获取等级
func (s *PointLevelService) GetLevelByCode(code string) (*models.PointLevel, error) {
	level, err := s.levelRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if level == nil {
		return nil, ErrPointLevelNotFound
	}
	return level, nil
}

// ListLevels 获取全部等级（管理端）
func (s *PointLevelService) ListLevels() ([]models.PointLevel, error) {
	return s.levelRepo.ListAll()
}

// ListActiveLevels 获取启用等级（按门槛升序）
func (s *PointLevelService) ListActiveLevels() ([]models.PointLevel, error) {
	return s.levelRepo.ListActive()
}

// SaveLevel 创建或更新等级，校验启用档位门槛严格递增
func (s *PointLevelService) SaveLevel(level *models.PointLevel) error {
	if level == nil || strings.TrimSpace(level.Code) == "" {
		return ErrPointLevelNotFound
	}
	level.Code = strings.TrimSpace(level.Code)

	if level.IsActive {
		actives, err := s.levelRepo.ListActive()
		if err != nil {
			return err
		}
		for _, other := range actives {
			if other.Code == level.Code {
				continue
			}
			if other.MinPoints == level.MinPoints {
				return ErrPointLevelConflict
			}
		}
	}

	existing, err := s.levelRepo.GetByCode(level.Code)
	if err != nil {
		return err
	}
	if existing == nil {
		return s.levelRepo.Create(level)
	}
	existing.Name = level.Name
	existing.MinPoints = level.MinPoints
	existing.DiscountType = level.DiscountType
	existing.DiscountValue = level.DiscountValue
	existing.MaxDiscountAmount = level.MaxDiscountAmount
	existing.MinOrderAmount = level.MinOrderAmount
	existing.Icon = level.Icon
	existing.SortOrder = level.SortOrder
	existing.IsActive = level.IsActive
	if err := s.levelRepo.Update(existing); err != nil {
		return err
	}
	*level = *existing
	return nil
}

// UpdateAllUserLevels 全量重算会员等级，仅在变化时落库。
// 返回发生变化的账户数。
func (s *PointLevelService) UpdateAllUserLevels() (int, error) {
	levels, err := s.levelRepo.ListActive()
	if err != nil {
		return 0, err
	}

	changed := 0
	err = s.pointRepo.ListAllAccounts(200, func(accounts []models.PointAccount) error {
		for i := range accounts {
			account := accounts[i]
			newLevel := resolveLevelCode(account.TotalPoints, levels)
			if newLevel == account.Level {
				continue
			}
			oldLevel := account.Level
			// 只写等级列。批次读到的是快照，整行 Save 会把并发
			// 变动中的积分余额覆盖回旧值。
			if err := s.pointRepo.UpdateAccountLevel(account.ID, newLevel); err != nil {
				logger.Errorw("会员等级重算落库失败",
					"user_id", account.UserID, "old", oldLevel, "new", newLevel, "error", err)
				continue
			}
			changed++
			logger.Infow("会员等级已更新",
				"user_id", account.UserID, "old", oldLevel, "new", newLevel,
				"total_points", account.TotalPoints)
		}
		return nil
	})
	if err != nil {
		return changed, err
	}
	return changed, nil
}

// resolveLevelCode 纯函数的等级解析，供服务内部与批量任务复用
func resolveLevelCode(totalPoints int64, activeLevels []models.PointLevel) string {
	if len(activeLevels) == 0 {
		return constants.PointLevelBaseline
	}
	code := ""
	for _, level := range activeLevels {
		if level.MinPoints <= totalPoints {
			code = level.Code
		}
	}
	if code == "" {
		return activeLevels[0].Code
	}
	return code
}
