package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/canting-next/internal/config"
	"github.com/canting-next/internal/logger"
	"github.com/canting-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务：消费者 + 周期调度。
// 周期任务由 asynq.Scheduler 按 cron 表达式入队，
// 处理端再以互斥锁兜底防止同类任务重叠执行。
type Service struct {
	name      string
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	consumer  *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}

	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})
	if err := registerCronEntries(scheduler, cfg); err != nil {
		return nil, err
	}

	return &Service{
		name:      "worker",
		server:    server,
		mux:       mux,
		scheduler: scheduler,
		consumer:  consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	_ = ctx
	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			return err
		}
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	_ = ctx
	if s.scheduler != nil {
		s.scheduler.Shutdown()
	}
	if s.server != nil {
		s.server.Shutdown()
	}
	return nil
}

// registerCronEntries 注册周期任务：
// 积分过期与日统计每日一次，预约清扫按配置分钟间隔，优惠券过期随清扫节奏。
func registerCronEntries(scheduler *asynq.Scheduler, cfg *config.Config) error {
	expireCron := cfg.Points.ExpireCron
	if expireCron == "" {
		expireCron = "0 3 * * *"
	}
	statisticsCron := cfg.Points.StatisticsCron
	if statisticsCron == "" {
		statisticsCron = "30 3 * * *"
	}
	sweepMinutes := cfg.Reservation.SweepIntervalMinutes
	if sweepMinutes <= 0 {
		sweepMinutes = 5
	}
	sweepSpec := fmt.Sprintf("@every %dm", sweepMinutes)

	if _, err := scheduler.Register(expireCron, queue.NewPointExpireTask()); err != nil {
		return err
	}
	statTask, err := queue.NewPointStatisticsTask(queue.PointStatisticsPayload{})
	if err != nil {
		return err
	}
	if _, err := scheduler.Register(statisticsCron, statTask); err != nil {
		return err
	}
	if _, err := scheduler.Register(sweepSpec, queue.NewReservationSweepTask()); err != nil {
		return err
	}
	if _, err := scheduler.Register(sweepSpec, queue.NewCouponExpireTask()); err != nil {
		return err
	}

	logger.Infow("worker_cron_registered",
		"point_expire", expireCron,
		"point_statistics", statisticsCron,
		"reservation_sweep", sweepSpec)
	return nil
}
