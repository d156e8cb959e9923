package repository

import (
	"errors"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReservationRepository 预约数据访问接口
type ReservationRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormReservationRepository
	GetByID(id uint) (*models.Reservation, error)
	GetByIDForUpdate(id uint) (*models.Reservation, error)
	GetByNo(reservationNo string) (*models.Reservation, error)
	Create(reservation *models.Reservation) error
	Update(reservation *models.Reservation) error
	List(filter ReservationListFilter) ([]models.Reservation, int64, error)
	ListPendingBefore(date, timeSlot string, limit int) ([]models.Reservation, error)
	ExistsActiveByTableSlot(tableID uint, date, timeSlot string) (bool, error)
}

// GormReservationRepository GORM 预约仓储实现
type GormReservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository 创建预约仓储
func NewReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// Transaction 执行数据库事务
func (r *GormReservationRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormReservationRepository) WithTx(tx *gorm.DB) *GormReservationRepository {
	if tx == nil {
		return r
	}
	return &GormReservationRepository{db: tx}
}

// GetByID 按ID获取预约
func (r *GormReservationRepository) GetByID(id uint) (*models.Reservation, error) {
	if id == 0 {
		return nil, nil
	}
	var reservation models.Reservation
	if err := r.db.First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}

// GetByIDForUpdate 按ID加锁获取预约
func (r *GormReservationRepository) GetByIDForUpdate(id uint) (*models.Reservation, error) {
	if id == 0 {
		return nil, nil
	}
	var reservation models.Reservation
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&reservation, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}

// GetByNo 按预约单号获取预约
func (r *GormReservationRepository) GetByNo(reservationNo string) (*models.Reservation, error) {
	if reservationNo == "" {
		return nil, nil
	}
	var reservation models.Reservation
	if err := r.db.Where("reservation_no = ?", reservationNo).First(&reservation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reservation, nil
}

// Create 创建预约
func (r *GormReservationRepository) Create(reservation *models.Reservation) error {
	return r.db.Create(reservation).Error
}

// Update 更新预约
func (r *GormReservationRepository) Update(reservation *models.Reservation) error {
	return r.db.Save(reservation).Error
}

// List 分页查询预约
func (r *GormReservationRepository) List(filter ReservationListFilter) ([]models.Reservation, int64, error) {
	query := r.db.Model(&models.Reservation{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.TableID != 0 {
		query = query.Where("table_id = ?", filter.TableID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var reservations []models.Reservation
	if err := query.Order("id desc").Find(&reservations).Error; err != nil {
		return nil, 0, err
	}
	return reservations, total, nil
}

// ListPendingBefore 查询应被超时处理的待确认/已确认预约。
// 以 (date, time_slot) 字典序比较筛出不晚于给定时刻的候选，
// 精确的超时判定由调用方按分钟级阈值完成。
func (r *GormReservationRepository) ListPendingBefore(date, timeSlot string, limit int) ([]models.Reservation, error) {
	if limit <= 0 {
		limit = 200
	}
	var reservations []models.Reservation
	if err := r.db.Where("status IN ?", []string{
		constants.ReservationStatusPending,
		constants.ReservationStatusConfirmed,
	}).
		Where("date < ? OR (date = ? AND time_slot <= ?)", date, date, timeSlot).
		Order("date asc, time_slot asc").
		Limit(limit).
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// ExistsActiveByTableSlot 检查桌台在时段内是否已有有效预约
func (r *GormReservationRepository) ExistsActiveByTableSlot(tableID uint, date, timeSlot string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Reservation{}).
		Where("table_id = ? AND date = ? AND time_slot = ?", tableID, date, timeSlot).
		Where("status IN ?", []string{
			constants.ReservationStatusPending,
			constants.ReservationStatusConfirmed,
			constants.ReservationStatusSeated,
		}).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
