package repository

import (
	"errors"

	"github.com/canting-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PointStatisticRepository 积分日报表数据访问接口
type PointStatisticRepository interface {
	GetByDate(statDate string) (*models.PointStatistic, error)
	Upsert(stat *models.PointStatistic) error
	ListRange(from, to string) ([]models.PointStatistic, error)
}

// GormPointStatisticRepository GORM 积分日报表仓储实现
type GormPointStatisticRepository struct {
	db *gorm.DB
}

// NewPointStatisticRepository 创建积分日报表仓储
func NewPointStatisticRepository(db *gorm.DB) *GormPointStatisticRepository {
	return &GormPointStatisticRepository{db: db}
}

// GetByDate 按日期获取报表
func (r *GormPointStatisticRepository) GetByDate(statDate string) (*models.PointStatistic, error) {
	if statDate == "" {
		return nil, nil
	}
	var stat models.PointStatistic
	if err := r.db.Where("stat_date = ?", statDate).First(&stat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stat, nil
}

// Upsert 按日期写入报表（重复执行覆盖当日值）
func (r *GormPointStatisticRepository) Upsert(stat *models.PointStatistic) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stat_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_earned", "total_redeemed", "total_expired", "active_users", "updated_at",
		}),
	}).Create(stat).Error
}

// ListRange 按日期区间查询报表
func (r *GormPointStatisticRepository) ListRange(from, to string) ([]models.PointStatistic, error) {
	query := r.db.Model(&models.PointStatistic{})
	if from != "" {
		query = query.Where("stat_date >= ?", from)
	}
	if to != "" {
		query = query.Where("stat_date <= ?", to)
	}
	var stats []models.PointStatistic
	if err := query.Order("stat_date asc").Find(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
