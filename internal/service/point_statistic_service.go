package service

import (
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/logger"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"
)

// PointStatisticService 积分日统计服务
type PointStatisticService struct {
	pointRepo repository.PointRepository
	statRepo  repository.PointStatisticRepository
}

// NewPointStatisticService 创建积分日统计服务
func NewPointStatisticService(
	pointRepo repository.PointRepository,
	statRepo repository.PointStatisticRepository,
) *PointStatisticService {
	return &PointStatisticService{
		pointRepo: pointRepo,
		statRepo:  statRepo,
	}
}

// Calculate 统计指定自然日的积分动账并按日期幂等写入。
// date 取该日任一时刻，统计区间为 [当日零点, 次日零点)。
func (s *PointStatisticService) Calculate(date time.Time) (*models.PointStatistic, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	statDate := dayStart.Format("2006-01-02")

	earned, err := s.pointRepo.SumPointsByTypeAndDate(constants.PointTxnTypeEarn, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	redeemed, err := s.pointRepo.SumPointsByTypeAndDate(constants.PointTxnTypeRedeem, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	expired, err := s.pointRepo.SumPointsByTypeAndDate(constants.PointTxnTypeExpire, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	activeUsers, err := s.pointRepo.CountDistinctUsersByDate(dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	stat := &models.PointStatistic{
		StatDate:      statDate,
		TotalEarned:   earned,
		TotalRedeemed: redeemed,
		TotalExpired:  expired,
		ActiveUsers:   activeUsers,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := s.statRepo.Upsert(stat); err != nil {
		return nil, err
	}

	logger.Infow("积分日统计完成",
		"stat_date", statDate,
		"earned", earned, "redeemed", redeemed,
		"expired", expired, "active_users", activeUsers)
	return s.statRepo.GetByDate(statDate)
}

// GetByDate 按日期查询统计
func (s *PointStatisticService) GetByDate(statDate string) (*models.PointStatistic, error) {
	return s.statRepo.GetByDate(statDate)
}

// ListRange 按日期区间查询统计
func (s *PointStatisticService) ListRange(from, to string) ([]models.PointStatistic, error) {
	return s.statRepo.ListRange(from, to)
}
