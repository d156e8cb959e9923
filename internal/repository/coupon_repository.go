package repository

import (
	"errors"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CouponRepository 优惠券数据访问接口
type CouponRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormCouponRepository
	GetByID(id uint) (*models.Coupon, error)
	GetByIDForUpdate(id uint) (*models.Coupon, error)
	GetByCode(code string) (*models.Coupon, error)
	Create(coupon *models.Coupon) error
	Update(coupon *models.Coupon) error
	List(filter CouponListFilter) ([]models.Coupon, int64, error)
	ListExpiredUnsettled(now time.Time, limit int) ([]models.Coupon, error)
	MarkExpired(couponID uint) (bool, error)
	CreateUsage(usage *models.CouponUsage) error
}

// GormCouponRepository GORM 优惠券仓储实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓储
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// Transaction 执行数据库事务
func (r *GormCouponRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) *GormCouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// GetByID 按ID获取优惠券
func (r *GormCouponRepository) GetByID(id uint) (*models.Coupon, error) {
	if id == 0 {
		return nil, nil
	}
	var coupon models.Coupon
	if err := r.db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByIDForUpdate 按ID加锁获取优惠券
func (r *GormCouponRepository) GetByIDForUpdate(id uint) (*models.Coupon, error) {
	if id == 0 {
		return nil, nil
	}
	var coupon models.Coupon
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByCode 按券码获取优惠券
func (r *GormCouponRepository) GetByCode(code string) (*models.Coupon, error) {
	if code == "" {
		return nil, nil
	}
	var coupon models.Coupon
	if err := r.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// Create 创建优惠券
func (r *GormCouponRepository) Create(coupon *models.Coupon) error {
	return r.db.Create(coupon).Error
}

// Update 更新优惠券
func (r *GormCouponRepository) Update(coupon *models.Coupon) error {
	return r.db.Save(coupon).Error
}

// List 分页查询优惠券
func (r *GormCouponRepository) List(filter CouponListFilter) ([]models.Coupon, int64, error) {
	query := r.db.Model(&models.Coupon{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var coupons []models.Coupon
	if err := query.Order("id desc").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// ListExpiredUnsettled 查询已过有效期但仍处于未使用状态的优惠券
func (r *GormCouponRepository) ListExpiredUnsettled(now time.Time, limit int) ([]models.Coupon, error) {
	if limit <= 0 {
		limit = 200
	}
	var coupons []models.Coupon
	if err := r.db.Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
		constants.CouponStatusIssued, now).
		Order("expires_at asc").
		Limit(limit).
		Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

// MarkExpired 带状态条件的过期落库，仅当优惠券仍为已发放时生效。
// 返回是否实际写入，并发核销抢先提交时返回 false。
func (r *GormCouponRepository) MarkExpired(couponID uint) (bool, error) {
	result := r.db.Model(&models.Coupon{}).
		Where("id = ? AND status = ?", couponID, constants.CouponStatusIssued).
		Updates(map[string]interface{}{
			"status":     constants.CouponStatusExpired,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CreateUsage 记录优惠券核销
func (r *GormCouponRepository) CreateUsage(usage *models.CouponUsage) error {
	return r.db.Create(usage).Error
}
