package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PointRepository 积分数据访问接口
type PointRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormPointRepository
	GetAccountByUserID(userID uint) (*models.PointAccount, error)
	GetAccountByUserIDForUpdate(userID uint) (*models.PointAccount, error)
	CreateAccount(account *models.PointAccount) error
	UpdateAccount(account *models.PointAccount) error
	UpdateAccountLevel(accountID uint, level string) error
	ListAccounts(filter PointAccountListFilter) ([]models.PointAccount, int64, error)
	ListAllAccounts(batch int, fn func([]models.PointAccount) error) error
	CreateTransaction(txn *models.PointTransaction) error
	GetEarnTransactionBySource(sourceType string, sourceID uint) (*models.PointTransaction, error)
	GetTransactionBySource(txnType, sourceType string, sourceID uint) (*models.PointTransaction, error)
	ListTransactions(filter PointTransactionListFilter) ([]models.PointTransaction, int64, error)
	ListExpirableLots(before time.Time, limit int) ([]models.PointTransaction, error)
	MarkLotExpired(txnID uint) error
	CountUserEarnsBySource(userID uint, sourceType string) (int64, error)
	SumPointsByTypeAndDate(txnType string, from, to time.Time) (int64, error)
	CountDistinctUsersByDate(from, to time.Time) (int64, error)
	ListTransactionsSince(since time.Time) ([]models.PointTransaction, error)
}

// GormPointRepository GORM 积分仓储实现
type GormPointRepository struct {
	db *gorm.DB
}

// NewPointRepository 创建积分仓储
func NewPointRepository(db *gorm.DB) *GormPointRepository {
	return &GormPointRepository{db: db}
}

// Transaction 执行数据库事务
func (r *GormPointRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormPointRepository) WithTx(tx *gorm.DB) *GormPointRepository {
	if tx == nil {
		return r
	}
	return &GormPointRepository{db: tx}
}

// GetAccountByUserID 按用户ID获取积分账户
func (r *GormPointRepository) GetAccountByUserID(userID uint) (*models.PointAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	var account models.PointAccount
	if err := r.db.Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountByUserIDForUpdate 按用户ID加锁获取积分账户
func (r *GormPointRepository) GetAccountByUserIDForUpdate(userID uint) (*models.PointAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	var account models.PointAccount
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// CreateAccount 创建积分账户
func (r *GormPointRepository) CreateAccount(account *models.PointAccount) error {
	return r.db.Create(account).Error
}

// UpdateAccount 更新积分账户
func (r *GormPointRepository) UpdateAccount(account *models.PointAccount) error {
	return r.db.Save(account).Error
}

// UpdateAccountLevel 仅更新账户等级字段，避免覆盖并发写入的积分余额
func (r *GormPointRepository) UpdateAccountLevel(accountID uint, level string) error {
	return r.db.Model(&models.PointAccount{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"level":      level,
			"updated_at": time.Now(),
		}).Error
}

// ListAccounts 分页查询积分账户
func (r *GormPointRepository) ListAccounts(filter PointAccountListFilter) ([]models.PointAccount, int64, error) {
	query := r.db.Model(&models.PointAccount{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}
	if filter.MinTotal > 0 {
		query = query.Where("total_points >= ?", filter.MinTotal)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var accounts []models.PointAccount
	if err := query.Order("id desc").Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// ListAllAccounts 按批次遍历全部积分账户
func (r *GormPointRepository) ListAllAccounts(batch int, fn func([]models.PointAccount) error) error {
	if batch <= 0 {
		batch = 200
	}
	var accounts []models.PointAccount
	result := r.db.Model(&models.PointAccount{}).Order("id asc").
		FindInBatches(&accounts, batch, func(_ *gorm.DB, _ int) error {
			return fn(accounts)
		})
	return result.Error
}

// CreateTransaction 创建积分流水
func (r *GormPointRepository) CreateTransaction(txn *models.PointTransaction) error {
	return r.db.Create(txn).Error
}

// GetEarnTransactionBySource 按来源获取 earn 流水（幂等检查）
func (r *GormPointRepository) GetEarnTransactionBySource(sourceType string, sourceID uint) (*models.PointTransaction, error) {
	return r.GetTransactionBySource(constants.PointTxnTypeEarn, sourceType, sourceID)
}

// GetTransactionBySource 按类型与来源获取流水
func (r *GormPointRepository) GetTransactionBySource(txnType, sourceType string, sourceID uint) (*models.PointTransaction, error) {
	sourceType = strings.TrimSpace(sourceType)
	if sourceType == "" || sourceID == 0 {
		return nil, nil
	}
	var txn models.PointTransaction
	if err := r.db.Where("type = ? AND source_type = ? AND source_id = ?", txnType, sourceType, sourceID).
		First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// ListTransactions 分页查询积分流水
func (r *GormPointRepository) ListTransactions(filter PointTransactionListFilter) ([]models.PointTransaction, int64, error) {
	query := r.db.Model(&models.PointTransaction{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.SourceType != "" {
		query = query.Where("source_type = ?", filter.SourceType)
	}
	if filter.SourceID != 0 {
		query = query.Where("source_id = ?", filter.SourceID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.PointTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// ListExpirableLots 查询已到期且未结算的 earn 批次
func (r *GormPointRepository) ListExpirableLots(before time.Time, limit int) ([]models.PointTransaction, error) {
	if limit <= 0 {
		limit = 500
	}
	var lots []models.PointTransaction
	if err := r.db.Where("type = ? AND expired = ? AND expire_at IS NOT NULL AND expire_at <= ?",
		constants.PointTxnTypeEarn, false, before).
		Order("expire_at asc").
		Limit(limit).
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// MarkLotExpired 标记 earn 批次已过期结算
func (r *GormPointRepository) MarkLotExpired(txnID uint) error {
	return r.db.Model(&models.PointTransaction{}).
		Where("id = ?", txnID).
		Update("expired", true).Error
}

// CountUserEarnsBySource 统计用户某来源类型的 earn 次数
func (r *GormPointRepository) CountUserEarnsBySource(userID uint, sourceType string) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.Model(&models.PointTransaction{}).
		Where("user_id = ? AND type = ? AND source_type = ?", userID, constants.PointTxnTypeEarn, sourceType).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumPointsByTypeAndDate 汇总某类型在时间区间内的积分变动绝对值
func (r *GormPointRepository) SumPointsByTypeAndDate(txnType string, from, to time.Time) (int64, error) {
	var sum *int64
	if err := r.db.Model(&models.PointTransaction{}).
		Select("SUM(ABS(points))").
		Where("type = ? AND created_at >= ? AND created_at < ?", txnType, from, to).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// CountDistinctUsersByDate 统计时间区间内有动账的用户数
func (r *GormPointRepository) CountDistinctUsersByDate(from, to time.Time) (int64, error) {
	var count int64
	if err := r.db.Model(&models.PointTransaction{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Distinct("user_id").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListTransactionsSince 查询某时间点之后的全部流水（异常检测使用）
func (r *GormPointRepository) ListTransactionsSince(since time.Time) ([]models.PointTransaction, error) {
	var txns []models.PointTransaction
	if err := r.db.Where("created_at >= ?", since).
		Order("user_id asc, created_at asc").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
