package queue

import (
	"encoding/json"

	"github.com/canting-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPointExpire 积分过期批处理任务
	TaskPointExpire = constants.TaskPointExpire
	// TaskPointStatistics 积分日统计任务
	TaskPointStatistics = constants.TaskPointStatistics
	// TaskPointLevelResync 会员等级全量重算任务
	TaskPointLevelResync = constants.TaskPointLevelResync
	// TaskReservationSweep 预约超时清扫任务
	TaskReservationSweep = constants.TaskReservationSweep
	// TaskCouponExpire 优惠券过期批处理任务
	TaskCouponExpire = constants.TaskCouponExpire
)

// PointStatisticsPayload 积分日统计任务载荷
// StatDate 为空时统计前一自然日。
type PointStatisticsPayload struct {
	StatDate string `json:"stat_date"`
}

// NewPointExpireTask 创建积分过期任务
func NewPointExpireTask() *asynq.Task {
	return asynq.NewTask(TaskPointExpire, nil)
}

// NewPointStatisticsTask 创建积分日统计任务
func NewPointStatisticsTask(payload PointStatisticsPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPointStatistics, body), nil
}

// NewPointLevelResyncTask 创建等级全量重算任务
func NewPointLevelResyncTask() *asynq.Task {
	return asynq.NewTask(TaskPointLevelResync, nil)
}

// NewReservationSweepTask 创建预约清扫任务
func NewReservationSweepTask() *asynq.Task {
	return asynq.NewTask(TaskReservationSweep, nil)
}

// NewCouponExpireTask 创建优惠券过期任务
func NewCouponExpireTask() *asynq.Task {
	return asynq.NewTask(TaskCouponExpire, nil)
}
