package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/logger"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"

	"gorm.io/gorm"
)

// PointService 积分核心服务。
// 台账 (PointAccount) 只由本服务修改；每次动账连同流水写入
// 都在同一事务内完成，并对账户行加锁以保证同一用户的动账串行化。
type PointService struct {
	pointRepo repository.PointRepository
	ruleSvc   *PointRuleService
	levelSvc  *PointLevelService

	defaultExpireDays int
}

// PointFreezeInput 冻结积分输入
type PointFreezeInput struct {
	UserID     uint
	Amount     int64
	SourceType string
	SourceID   uint
	Remark     string
}

// PointUnfreezeInput 解冻积分输入
type PointUnfreezeInput struct {
	UserID   uint
	Amount   int64
	CouponID uint
	Outcome  string
	Remark   string
}

// PointRedeemInput 消耗积分输入
type PointRedeemInput struct {
	UserID     uint
	Amount     int64
	SourceType string
	SourceID   uint
	Remark     string
}

// PointAdjustInput 管理员调整积分输入
type PointAdjustInput struct {
	UserID uint
	Delta  int64
	Remark string
}

// NewPointService 创建积分服务
func NewPointService(
	pointRepo repository.PointRepository,
	ruleSvc *PointRuleService,
	levelSvc *PointLevelService,
	defaultExpireDays int,
) *PointService {
	if defaultExpireDays <= 0 {
		defaultExpireDays = 365
	}
	return &PointService{
		pointRepo:         pointRepo,
		ruleSvc:           ruleSvc,
		levelSvc:          levelSvc,
		defaultExpireDays: defaultExpireDays,
	}
}

// GetAccount 获取用户积分账户；账户在首次获得积分时才落库，
// 读取时不存在则返回零值快照。
func (s *PointService) GetAccount(userID uint) (*models.PointAccount, error) {
	if userID == 0 {
		return nil, ErrPointAccountNotFound
	}
	account, err := s.pointRepo.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return &models.PointAccount{
			UserID: userID,
			Level:  constants.PointLevelBaseline,
		}, nil
	}
	return account, nil
}

// ListAccounts 分页查询积分账户（管理端）
func (s *PointService) ListAccounts(filter repository.PointAccountListFilter) ([]models.PointAccount, int64, error) {
	return s.pointRepo.ListAccounts(filter)
}

// ListTransactions 分页查询积分流水
func (s *PointService) ListTransactions(filter repository.PointTransactionListFilter) ([]models.PointTransaction, int64, error) {
	return s.pointRepo.ListTransactions(filter)
}

// EarnFromOrder 订单支付后发放积分。
// 前置条件不满足或命中幂等记录时返回 (nil, nil) 不做任何写入。
func (s *PointService) EarnFromOrder(order *models.Order) (*models.PointTransaction, error) {
	if order == nil || order.ID == 0 || order.UserID == 0 {
		return nil, nil
	}
	if order.PaidAt == nil {
		return nil, nil
	}
	if order.Status != constants.OrderStatusPaid && order.Status != constants.OrderStatusPendingReview {
		return nil, nil
	}

	if dup, err := s.earnAlreadyRecorded(constants.PointSourceOrder, order.ID); err != nil || dup {
		return nil, err
	}

	rule, err := s.ruleSvc.GetRule(constants.PointRuleOrderEarn)
	if err != nil {
		if err == ErrPointRuleNotFound {
			return nil, nil
		}
		return nil, err
	}
	cfg, err := ParseEarnRuleConfig(rule.Config)
	if err != nil {
		return nil, err
	}

	amount := order.Amount.Decimal
	if amount.LessThan(cfg.MinAmount) {
		return nil, nil
	}

	expireAt := s.resolveExpireAt(time.Now())
	remark := fmt.Sprintf("订单 %s 消费奖励", order.OrderNo)

	var result *models.PointTransaction
	err = s.pointRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.pointRepo.WithTx(tx)
		account, err := s.ensureAccountForUpdate(repo, order.UserID)
		if err != nil {
			return err
		}

		// 倍率取当前等级（动账前的累计积分对应档位）
		points := amount.
			Mul(cfg.BaseRatio).
			Mul(cfg.Multiplier(account.Level)).
			Floor().
			IntPart()
		if cfg.MaxPointsPerOrder > 0 && points > cfg.MaxPointsPerOrder {
			points = cfg.MaxPointsPerOrder
		}
		if points <= 0 {
			return nil
		}

		txn, err := s.applyEarn(repo, account, points, constants.PointSourceOrder, order.ID, remark, &expireAt)
		if err != nil {
			return err
		}
		result = txn
		return nil
	})
	if err != nil {
		logger.Errorw("订单积分发放失败", "order_id", order.ID, "user_id", order.UserID, "error", err)
		return nil, err
	}
	if result != nil {
		logger.Infow("订单积分发放成功",
			"order_id", order.ID, "user_id", order.UserID,
			"points", result.Points, "balance_after", result.BalanceAfter)
	}
	return result, nil
}

// EarnFromReview 评价审核通过后发放积分。
// 积分 = 基础分 + 带图加成 + 首评加成（该用户首条通过的评价）。
func (s *PointService) EarnFromReview(review *models.Review) (*models.PointTransaction, error) {
	if review == nil || review.ID == 0 || review.UserID == 0 {
		return nil, nil
	}
	if review.Status != constants.ReviewStatusApproved {
		return nil, nil
	}

	if dup, err := s.earnAlreadyRecorded(constants.PointSourceReview, review.ID); err != nil || dup {
		return nil, err
	}

	rule, err := s.ruleSvc.GetRule(constants.PointRuleReviewEarn)
	if err != nil {
		if err == ErrPointRuleNotFound {
			return nil, nil
		}
		return nil, err
	}
	cfg, err := ParseEarnRuleConfig(rule.Config)
	if err != nil {
		return nil, err
	}

	points := cfg.BasePoints
	if review.HasImage() {
		points += cfg.WithImageBonus
	}
	priorEarns, err := s.pointRepo.CountUserEarnsBySource(review.UserID, constants.PointSourceReview)
	if err != nil {
		return nil, err
	}
	if priorEarns == 0 {
		points += cfg.FirstReviewBonus
	}
	if points <= 0 {
		return nil, nil
	}

	expireAt := s.resolveExpireAt(time.Now())
	remark := "评价奖励"

	var result *models.PointTransaction
	err = s.pointRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.pointRepo.WithTx(tx)
		account, err := s.ensureAccountForUpdate(repo, review.UserID)
		if err != nil {
			return err
		}
		txn, err := s.applyEarn(repo, account, points, constants.PointSourceReview, review.ID, remark, &expireAt)
		if err != nil {
			return err
		}
		result = txn
		return nil
	})
	if err != nil {
		logger.Errorw("评价积分发放失败", "review_id", review.ID, "user_id", review.UserID, "error", err)
		return nil, err
	}
	if result != nil {
		logger.Infow("评价积分发放成功",
			"review_id", review.ID, "user_id", review.UserID, "points", result.Points)
	}
	return result, nil
}

// EarnFromAdoption 评价被采纳后发放固定积分
func (s *PointService) EarnFromAdoption(review *models.Review) (*models.PointTransaction, error) {
	if review == nil || review.ID == 0 || review.UserID == 0 {
		return nil, nil
	}
	if !review.IsAdopted {
		return nil, nil
	}

	if dup, err := s.earnAlreadyRecorded(constants.PointSourceReviewAdoption, review.ID); err != nil || dup {
		return nil, err
	}

	rule, err := s.ruleSvc.GetRule(constants.PointRuleReviewAdoption)
	if err != nil {
		if err == ErrPointRuleNotFound {
			return nil, nil
		}
		return nil, err
	}
	cfg, err := ParseEarnRuleConfig(rule.Config)
	if err != nil {
		return nil, err
	}
	if cfg.BasePoints <= 0 {
		return nil, nil
	}

	expireAt := s.resolveExpireAt(time.Now())
	remark := "评价被采纳奖励"

	var result *models.PointTransaction
	err = s.pointRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.pointRepo.WithTx(tx)
		account, err := s.ensureAccountForUpdate(repo, review.UserID)
		if err != nil {
			return err
		}
		txn, err := s.applyEarn(repo, account, cfg.BasePoints, constants.PointSourceReviewAdoption, review.ID, remark, &expireAt)
		if err != nil {
			return err
		}
		result = txn
		return nil
	})
	if err != nil {
		logger.Errorw("采纳积分发放失败", "review_id", review.ID, "user_id", review.UserID, "error", err)
		return nil, err
	}
	if result != nil {
		logger.Infow("采纳积分发放成功",
			"review_id", review.ID, "user_id", review.UserID, "points", result.Points)
	}
	return result, nil
}

// Freeze 冻结积分：可用减、冻结加，用于优惠券兑换占用
func (s *PointService) Freeze(input PointFreezeInput) (*models.PointTransaction, error) {
	if input.UserID == 0 {
		return nil, ErrPointAccountNotFound
	}
	if input.Amount <= 0 {
		return nil, ErrPointInvalidAmount
	}

	var result *models.PointTransaction
	err := s.pointRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.pointRepo.WithTx(tx)
		account, err := s.ensureAccountForUpdate(repo, input.UserID)
		if err != nil {
			return err
		}
		if account.AvailablePoints < input.Amount {
			return ErrPointInsufficient
		}

		account.AvailablePoints -= input.Amount
		account.FrozenPoints += input.Amount
		account.UpdatedAt = time.Now()
		if err := repo.UpdateAccount(account); err != nil {
			return err
		}

		txn := &models.PointTransaction{
			UserID:       account.UserID,
			Type:         constants.PointTxnTypeFreeze,
			Points:       -input.Amount,
			BalanceAfter: account.AvailablePoints,
			SourceType:   input.SourceType,
			SourceID:     input.SourceID,
			Remark:       cleanPointRemark(input.Remark, "积分冻结"),
			CreatedAt:    time.Now(),
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return err
		}
		result = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("积分冻结成功",
		"user_id", input.UserID, "amount", input.Amount,
		"source_type", input.SourceType, "source_id", input.SourceID)
	return result, nil
}

// Unfreeze 解冻积分。
// outcome=used：冻结扣减、积分被消耗，可用不变；
// outcome=expired：冻结扣减并返还到可用。
// 按券ID幂等：同一张券最多产生一条 unfreeze 流水。
func (s *PointService) Unfreeze(input PointUnfreezeInput) (*models.PointTransaction, error) {
	if input.UserID == 0 {
		return nil, ErrPointAccountNotFound
	}
	if input.Amount <= 0 {
		return nil, ErrPointInvalidAmount
	}
	if input.Outcome != constants.CouponOutcomeUsed && input.Outcome != constants.CouponOutcomeExpired {
		return nil, ErrPointInvalidAmount
	}

	existing, err := s.pointRepo.GetTransactionBySource(
		constants.PointTxnTypeUnfreeze, constants.PointSourceCoupon, input.CouponID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Infow("优惠券已解冻，跳过重复处理",
			"coupon_id", input.CouponID, "user_id", input.UserID)
		return nil, nil
	}

	var result *models.PointTransaction
	err = s.pointRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.pointRepo.WithTx(tx)
		account, err := repo.GetAccountByUserIDForUpdate(input.UserID)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrPointAccountNotFound
		}
		if account.FrozenPoints < input.Amount {
			return ErrPointFrozenMismatch
		}

		account.FrozenPoints -= input.Amount
		var signedPoints int64
		switch input.Outcome {
		case constants.CouponOutcomeUsed:
			// 积分被消耗不返还，可用与累计均不变
			signedPoints = -input.Amount
		case constants.CouponOutcomeExpired:
			account.AvailablePoints += input.Amount
			signedPoints = input.Amount
		}
		account.UpdatedAt = time.Now()
		if err := repo.UpdateAccount(account); err != nil {
			return err
		}

		txn := &models.PointTransaction{
			UserID:       account.UserID,
			Type:         constants.PointTxnTypeUnfreeze,
			Points:       signedPoints,
			BalanceAfter: account.AvailablePoints,
			SourceType:   constants.PointSourceCoupon,
			SourceID:     input.CouponID,
			Remark:       cleanPointRemark(input.Remark, "积分解冻/"+input.Outcome),
			CreatedAt:    time.Now(),
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return err
		}
		result = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("积分解冻成功",
		"user_id", input.UserID, "coupon_id", input.CouponID,
		"outcome", input.Outcome, "amount", input.Amount)
	return result, nil
}

// Redeem 直接消耗可用积分（积分换券等即时场景）
func (s *PointService) Redeem(input PointRedeemInput) (*models.PointTransaction, error) {
	if input.UserID == 0 {
		return nil, ErrPointAccountNotFound
	}
	if input.Amount <= 0 {
		return nil, ErrPointInvalidAmount
	}

	var result *models.PointTransaction
	err := s.pointRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.pointRepo.WithTx(tx)
		account, err := repo.GetAccountByUserIDForUpdate(input.UserID)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrPointInsufficient
		}
		if account.AvailablePoints < input.Amount {
			return ErrPointInsufficient
		}

		account.AvailablePoints -= input.Amount
		account.UpdatedAt = time.Now()
		if err := repo.UpdateAccount(account); err != nil {
			return err
		}

		txn := &models.PointTransaction{
			UserID:       account.UserID,
			Type:         constants.PointTxnTypeRedeem,
			Points:       -input.Amount,
			BalanceAfter: account.AvailablePoints,
			SourceType:   input.SourceType,
			SourceID:     input.SourceID,
			Remark:       cleanPointRemark(input.Remark, "积分消耗"),
			CreatedAt:    time.Now(),
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return err
		}
		result = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("积分消耗成功",
		"user_id", input.UserID, "amount", input.Amount,
		"source_type", input.SourceType, "source_id", input.SourceID)
	return result, nil
}

// AdminAdjust 管理员手工调整积分；delta 可正可负，
// 调整后仍须满足 可用+冻结<=累计 且三者非负。
func (s *PointService) AdminAdjust(input PointAdjustInput) (*models.PointTransaction, error) {
	if input.UserID == 0 {
		return nil, ErrPointAccountNotFound
	}
	if input.Delta == 0 {
		return nil, ErrPointInvalidAmount
	}

	var result *models.PointTransaction
	err := s.pointRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.pointRepo.WithTx(tx)
		account, err := s.ensureAccountForUpdate(repo, input.UserID)
		if err != nil {
			return err
		}

		newAvailable := account.AvailablePoints + input.Delta
		newTotal := account.TotalPoints + input.Delta
		if newAvailable < 0 || newTotal < 0 || newAvailable+account.FrozenPoints > newTotal {
			return ErrPointInvalidAmount
		}

		account.AvailablePoints = newAvailable
		account.TotalPoints = newTotal
		newLevel, err := s.levelSvc.ResolveLevel(account.TotalPoints)
		if err != nil {
			return err
		}
		account.Level = newLevel
		account.UpdatedAt = time.Now()
		if err := repo.UpdateAccount(account); err != nil {
			return err
		}

		txn := &models.PointTransaction{
			UserID:       account.UserID,
			Type:         constants.PointTxnTypeAdjust,
			Points:       input.Delta,
			BalanceAfter: account.AvailablePoints,
			SourceType:   constants.PointSourceAdmin,
			SourceID:     input.UserID,
			Remark:       cleanPointRemark(input.Remark, "管理员调整积分"),
			CreatedAt:    time.Now(),
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return err
		}
		result = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("管理员调整积分",
		"user_id", input.UserID, "delta", input.Delta,
		"balance_after", result.BalanceAfter)
	return result, nil
}

// CheckAndExpirePoints 批量过期到期积分批次，返回写入的 expire 流水数。
// 对每个批次按其名义金额与当前可用取小扣减（兜底为零），
// 逐批次独立事务，单批失败记录日志后继续。
func (s *PointService) CheckAndExpirePoints() (int, error) {
	lots, err := s.pointRepo.ListExpirableLots(time.Now(), 500)
	if err != nil {
		return 0, err
	}
	if len(lots) == 0 {
		return 0, nil
	}

	expired := 0
	for _, lot := range lots {
		lot := lot
		err := s.pointRepo.Transaction(func(tx *gorm.DB) error {
			repo := s.pointRepo.WithTx(tx)
			account, err := repo.GetAccountByUserIDForUpdate(lot.UserID)
			if err != nil {
				return err
			}
			if account == nil {
				// 批次对应账户已不存在，只标记批次不再扫描
				return repo.MarkLotExpired(lot.ID)
			}

			remainder := lot.Points
			if remainder > account.AvailablePoints {
				remainder = account.AvailablePoints
			}
			if remainder <= 0 {
				return repo.MarkLotExpired(lot.ID)
			}

			account.AvailablePoints -= remainder
			account.UpdatedAt = time.Now()
			if err := repo.UpdateAccount(account); err != nil {
				return err
			}

			txn := &models.PointTransaction{
				UserID:       account.UserID,
				Type:         constants.PointTxnTypeExpire,
				Points:       -remainder,
				BalanceAfter: account.AvailablePoints,
				SourceType:   constants.PointSourceSystem,
				SourceID:     lot.ID,
				Remark:       "积分批次到期",
				CreatedAt:    time.Now(),
			}
			if err := repo.CreateTransaction(txn); err != nil {
				return err
			}
			if err := repo.MarkLotExpired(lot.ID); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			logger.Errorw("积分批次过期处理失败",
				"lot_id", lot.ID, "user_id", lot.UserID, "error", err)
			continue
		}
	}
	logger.Infow("积分过期批处理完成", "lots_scanned", len(lots), "expired", expired)
	return expired, nil
}

// earnAlreadyRecorded 幂等检查：同一来源的 earn 流水至多一条
func (s *PointService) earnAlreadyRecorded(sourceType string, sourceID uint) (bool, error) {
	existing, err := s.pointRepo.GetEarnTransactionBySource(sourceType, sourceID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		logger.Infow("积分已发放，跳过重复触发",
			"source_type", sourceType, "source_id", sourceID, "txn_id", existing.ID)
		return true, nil
	}
	return false, nil
}

// ensureAccountForUpdate 加锁取账户，不存在则在事务内创建
func (s *PointService) ensureAccountForUpdate(repo *repository.GormPointRepository, userID uint) (*models.PointAccount, error) {
	account, err := repo.GetAccountByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.PointAccount{
		UserID:    userID,
		Level:     constants.PointLevelBaseline,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := repo.CreateAccount(account); err != nil {
		return nil, err
	}
	return repo.GetAccountByUserIDForUpdate(userID)
}

// applyEarn 在事务内入账：累计/可用同加，按新累计重算等级并写流水
func (s *PointService) applyEarn(
	repo *repository.GormPointRepository,
	account *models.PointAccount,
	points int64,
	sourceType string,
	sourceID uint,
	remark string,
	expireAt *time.Time,
) (*models.PointTransaction, error) {
	if points <= 0 {
		return nil, ErrPointInvalidAmount
	}

	account.TotalPoints += points
	account.AvailablePoints += points
	newLevel, err := s.levelSvc.ResolveLevel(account.TotalPoints)
	if err != nil {
		return nil, err
	}
	account.Level = newLevel
	account.UpdatedAt = time.Now()
	if err := repo.UpdateAccount(account); err != nil {
		return nil, err
	}

	txn := &models.PointTransaction{
		UserID:       account.UserID,
		Type:         constants.PointTxnTypeEarn,
		Points:       points,
		BalanceAfter: account.AvailablePoints,
		SourceType:   sourceType,
		SourceID:     sourceID,
		Remark:       remark,
		ExpireAt:     expireAt,
		CreatedAt:    time.Now(),
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// resolveExpireAt 按 point_expire 规则计算批次过期时间，规则缺失时用默认天数
func (s *PointService) resolveExpireAt(now time.Time) time.Time {
	days := s.defaultExpireDays
	rule, err := s.ruleSvc.GetRule(constants.PointRulePointExpire)
	if err == nil && rule != nil {
		if cfg, cfgErr := ParseExpireRuleConfig(rule.Config); cfgErr == nil && cfg.ExpireDays > 0 {
			days = cfg.ExpireDays
		}
	}
	return now.AddDate(0, 0, days)
}

func cleanPointRemark(remark, fallback string) string {
	remark = strings.TrimSpace(remark)
	if remark == "" {
		return fallback
	}
	if len(remark) > 500 {
		return remark[:500]
	}
	return remark
}
