package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/canting-next/internal/logger"
	"github.com/canting-next/internal/provider"
	"github.com/canting-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者。
// 周期性任务各持一把互斥锁，上一轮未结束时新一轮直接跳过，保证不重叠。
type Consumer struct {
	*provider.Container

	expireMu      sync.Mutex
	statisticsMu  sync.Mutex
	levelResyncMu sync.Mutex
	sweepMu       sync.Mutex
	couponMu      sync.Mutex
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPointExpire, c.handlePointExpire)
	mux.HandleFunc(queue.TaskPointStatistics, c.handlePointStatistics)
	mux.HandleFunc(queue.TaskPointLevelResync, c.handlePointLevelResync)
	mux.HandleFunc(queue.TaskReservationSweep, c.handleReservationSweep)
	mux.HandleFunc(queue.TaskCouponExpire, c.handleCouponExpire)
}

func (c *Consumer) handlePointExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	if !c.expireMu.TryLock() {
		logger.Infow("worker_point_expire_skip_overlap")
		return nil
	}
	defer c.expireMu.Unlock()

	if c.PointService == nil {
		logger.Warnw("worker_point_expire_skip_service_nil")
		return nil
	}
	count, err := c.PointService.CheckAndExpirePoints()
	if err != nil {
		logger.Warnw("worker_point_expire_failed", "error", err)
		return err
	}
	logger.Infow("worker_point_expire_done", "expired", count)
	return nil
}

func (c *Consumer) handlePointStatistics(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	if !c.statisticsMu.TryLock() {
		logger.Infow("worker_point_statistics_skip_overlap")
		return nil
	}
	defer c.statisticsMu.Unlock()

	if c.PointStatisticService == nil {
		logger.Warnw("worker_point_statistics_skip_service_nil")
		return nil
	}

	var payload queue.PointStatisticsPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Warnw("worker_point_statistics_unmarshal_failed", "error", err)
			return err
		}
	}

	// 缺省统计前一自然日
	target := time.Now().AddDate(0, 0, -1)
	if payload.StatDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", payload.StatDate, time.Local)
		if err != nil {
			logger.Warnw("worker_point_statistics_invalid_date", "stat_date", payload.StatDate)
			return nil
		}
		target = parsed
	}

	stat, err := c.PointStatisticService.Calculate(target)
	if err != nil {
		logger.Warnw("worker_point_statistics_failed", "stat_date", target.Format("2006-01-02"), "error", err)
		return err
	}
	logger.Infow("worker_point_statistics_done",
		"stat_date", stat.StatDate, "earned", stat.TotalEarned, "active_users", stat.ActiveUsers)
	return nil
}

func (c *Consumer) handlePointLevelResync(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	if !c.levelResyncMu.TryLock() {
		logger.Infow("worker_level_resync_skip_overlap")
		return nil
	}
	defer c.levelResyncMu.Unlock()

	if c.PointLevelService == nil || c.PointRuleService == nil {
		logger.Warnw("worker_level_resync_skip_service_nil")
		return nil
	}
	changed, err := c.PointLevelService.UpdateAllUserLevels()
	if err != nil {
		logger.Warnw("worker_level_resync_failed", "changed", changed, "error", err)
		return err
	}
	if err := c.PointRuleService.SyncLevelMultipliers(); err != nil {
		logger.Warnw("worker_level_resync_multiplier_failed", "error", err)
		return err
	}
	logger.Infow("worker_level_resync_done", "changed", changed)
	return nil
}

func (c *Consumer) handleReservationSweep(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	if !c.sweepMu.TryLock() {
		logger.Infow("worker_reservation_sweep_skip_overlap")
		return nil
	}
	defer c.sweepMu.Unlock()

	if c.ReservationService == nil {
		logger.Warnw("worker_reservation_sweep_skip_service_nil")
		return nil
	}
	swept, err := c.ReservationService.SweepExpired()
	if err != nil {
		logger.Warnw("worker_reservation_sweep_failed", "error", err)
		return err
	}
	if swept > 0 {
		logger.Infow("worker_reservation_sweep_done", "swept", swept)
	}
	return nil
}

func (c *Consumer) handleCouponExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	if !c.couponMu.TryLock() {
		logger.Infow("worker_coupon_expire_skip_overlap")
		return nil
	}
	defer c.couponMu.Unlock()

	if c.CouponService == nil {
		logger.Warnw("worker_coupon_expire_skip_service_nil")
		return nil
	}
	expired, err := c.CouponService.ExpireCoupons()
	if err != nil {
		logger.Warnw("worker_coupon_expire_failed", "error", err)
		return err
	}
	if expired > 0 {
		logger.Infow("worker_coupon_expire_done", "expired", expired)
	}
	return nil
}
