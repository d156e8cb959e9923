package service

import (
	"fmt"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/logger"
	"github.com/canting-next/internal/repository"
)

// AnomalyThresholds 异常检测阈值
type AnomalyThresholds struct {
	LargeEarnPoints  int64         // 单笔 earn 超过该值视为大额
	MaxTxnsPerWindow int           // 窗口内流水条数上限
	TxnWindow        time.Duration // 高频检测滚动窗口
	BalanceMultiple  float64       // 可用余额相对近期日均获取的倍数上限
	ExpireRateLimit  float64       // 过期积分占获取积分比例上限
	LookbackDays     int           // 回溯天数
}

// DefaultAnomalyThresholds 默认阈值
func DefaultAnomalyThresholds() AnomalyThresholds {
	return AnomalyThresholds{
		LargeEarnPoints:  5000,
		MaxTxnsPerWindow: 20,
		TxnWindow:        time.Hour,
		BalanceMultiple:  30,
		ExpireRateLimit:  0.5,
		LookbackDays:     30,
	}
}

// AnomalyFinding 一条异常报告
type AnomalyFinding struct {
	Category string `json:"category"`
	Severity string `json:"severity"`
	UserID   uint   `json:"user_id"`
	Detail   string `json:"detail"`
	Value    int64  `json:"value"`
}

// AnomalyService 积分异常检测服务。
// 只读报表，不做任何纠正动作。
type AnomalyService struct {
	pointRepo repository.PointRepository
}

// NewAnomalyService 创建异常检测服务
func NewAnomalyService(pointRepo repository.PointRepository) *AnomalyService {
	return &AnomalyService{pointRepo: pointRepo}
}

// DetectAnomalies 按阈值扫描近期流水并输出异常清单
func (s *AnomalyService) DetectAnomalies(thresholds AnomalyThresholds) ([]AnomalyFinding, error) {
	if thresholds.LookbackDays <= 0 {
		thresholds.LookbackDays = 30
	}
	if thresholds.TxnWindow <= 0 {
		thresholds.TxnWindow = time.Hour
	}
	since := time.Now().AddDate(0, 0, -thresholds.LookbackDays)

	txns, err := s.pointRepo.ListTransactionsSince(since)
	if err != nil {
		return nil, err
	}

	findings := make([]AnomalyFinding, 0)

	// 按用户聚合近期流水
	type userStat struct {
		earned  int64
		expired int64
		times   []time.Time
	}
	stats := make(map[uint]*userStat)
	for _, txn := range txns {
		stat := stats[txn.UserID]
		if stat == nil {
			stat = &userStat{}
			stats[txn.UserID] = stat
		}
		stat.times = append(stat.times, txn.CreatedAt)
		switch txn.Type {
		case constants.PointTxnTypeEarn:
			stat.earned += txn.Points
			if thresholds.LargeEarnPoints > 0 && txn.Points >= thresholds.LargeEarnPoints {
				findings = append(findings, AnomalyFinding{
					Category: constants.AnomalyLargeEarn,
					Severity: largeEarnSeverity(txn.Points, thresholds.LargeEarnPoints),
					UserID:   txn.UserID,
					Detail:   fmt.Sprintf("单笔获取 %d 分（流水 %d）超过阈值 %d", txn.Points, txn.ID, thresholds.LargeEarnPoints),
					Value:    txn.Points,
				})
			}
		case constants.PointTxnTypeExpire:
			stat.expired += -txn.Points
		}
	}

	// 滚动窗口内的高频动账
	if thresholds.MaxTxnsPerWindow > 0 {
		for userID, stat := range stats {
			if peak := peakCountInWindow(stat.times, thresholds.TxnWindow); peak > thresholds.MaxTxnsPerWindow {
				findings = append(findings, AnomalyFinding{
					Category: constants.AnomalyHighFrequency,
					Severity: constants.AnomalySeverityMedium,
					UserID:   userID,
					Detail: fmt.Sprintf("%s 窗口内流水 %d 条超过阈值 %d",
						thresholds.TxnWindow, peak, thresholds.MaxTxnsPerWindow),
					Value: int64(peak),
				})
			}
		}
	}

	// 余额与近期日均获取的偏离
	if thresholds.BalanceMultiple > 0 {
		for userID, stat := range stats {
			if stat.earned <= 0 {
				continue
			}
			account, err := s.pointRepo.GetAccountByUserID(userID)
			if err != nil {
				logger.Warnw("异常检测读取账户失败", "user_id", userID, "error", err)
				continue
			}
			if account == nil {
				continue
			}
			dailyAvg := float64(stat.earned) / float64(thresholds.LookbackDays)
			if dailyAvg <= 0 {
				continue
			}
			if float64(account.AvailablePoints) > dailyAvg*thresholds.BalanceMultiple {
				findings = append(findings, AnomalyFinding{
					Category: constants.AnomalyBalanceOutlier,
					Severity: constants.AnomalySeverityLow,
					UserID:   userID,
					Detail: fmt.Sprintf("可用余额 %d 超过近期日均获取 %.1f 的 %.0f 倍",
						account.AvailablePoints, dailyAvg, thresholds.BalanceMultiple),
					Value: account.AvailablePoints,
				})
			}
		}
	}

	// 过期率
	if thresholds.ExpireRateLimit > 0 {
		for userID, stat := range stats {
			if stat.earned <= 0 || stat.expired <= 0 {
				continue
			}
			rate := float64(stat.expired) / float64(stat.earned)
			if rate > thresholds.ExpireRateLimit {
				findings = append(findings, AnomalyFinding{
					Category: constants.AnomalyExpireRate,
					Severity: constants.AnomalySeverityLow,
					UserID:   userID,
					Detail: fmt.Sprintf("过期 %d / 获取 %d，过期率 %.2f 超过阈值 %.2f",
						stat.expired, stat.earned, rate, thresholds.ExpireRateLimit),
					Value: stat.expired,
				})
			}
		}
	}

	logger.Infow("积分异常检测完成",
		"txns_scanned", len(txns), "findings", len(findings),
		"lookback_days", thresholds.LookbackDays)
	return findings, nil
}

// peakCountInWindow 求时间序列在任一滚动窗口内的最大条数。
// 输入按时间升序（仓储保证）。
func peakCountInWindow(times []time.Time, window time.Duration) int {
	peak := 0
	left := 0
	for right := range times {
		for times[right].Sub(times[left]) > window {
			left++
		}
		if count := right - left + 1; count > peak {
			peak = count
		}
	}
	return peak
}

func largeEarnSeverity(points, threshold int64) string {
	if points >= threshold*3 {
		return constants.AnomalySeverityHigh
	}
	return constants.AnomalySeverityMedium
}
