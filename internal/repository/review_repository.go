package repository

import (
	"errors"

	"github.com/canting-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewRepository 评价数据访问接口
type ReviewRepository interface {
	WithTx(tx *gorm.DB) *GormReviewRepository
	GetByID(id uint) (*models.Review, error)
	GetByIDForUpdate(id uint) (*models.Review, error)
	GetByOrderID(orderID uint) (*models.Review, error)
	Create(review *models.Review) error
	Update(review *models.Review) error
	List(filter ReviewListFilter) ([]models.Review, int64, error)
}

// GormReviewRepository GORM 评价仓储实现
type GormReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓储
func NewReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReviewRepository) WithTx(tx *gorm.DB) *GormReviewRepository {
	if tx == nil {
		return r
	}
	return &GormReviewRepository{db: tx}
}

// GetByID 按ID获取评价
func (r *GormReviewRepository) GetByID(id uint) (*models.Review, error) {
	if id == 0 {
		return nil, nil
	}
	var review models.Review
	if err := r.db.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// GetByIDForUpdate 按ID加锁获取评价
func (r *GormReviewRepository) GetByIDForUpdate(id uint) (*models.Review, error) {
	if id == 0 {
		return nil, nil
	}
	var review models.Review
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// GetByOrderID 按订单ID获取评价
func (r *GormReviewRepository) GetByOrderID(orderID uint) (*models.Review, error) {
	if orderID == 0 {
		return nil, nil
	}
	var review models.Review
	if err := r.db.Where("order_id = ?", orderID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// Create 创建评价
func (r *GormReviewRepository) Create(review *models.Review) error {
	return r.db.Create(review).Error
}

// Update 更新评价
func (r *GormReviewRepository) Update(review *models.Review) error {
	return r.db.Save(review).Error
}

// List 分页查询评价
func (r *GormReviewRepository) List(filter ReviewListFilter) ([]models.Review, int64, error) {
	query := r.db.Model(&models.Review{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.IsAdopted != nil {
		query = query.Where("is_adopted = ?", *filter.IsAdopted)
	}
	if filter.MinRating > 0 {
		query = query.Where("rating >= ?", filter.MinRating)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var reviews []models.Review
	if err := query.Order("id desc").Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}
