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

// ReservationService 预约服务
type ReservationService struct {
	reservationRepo repository.ReservationRepository
	tableRepo       repository.TableRepository

	timeout       time.Duration
	depositAmount models.Money
	location      *time.Location
}

// ReservationCreateInput 创建预约输入
type ReservationCreateInput struct {
	UserID   uint
	TableID  uint
	Date     string
	TimeSlot string
	Guests   int
	Remark   string
}

// NewReservationService 创建预约服务
func NewReservationService(
	reservationRepo repository.ReservationRepository,
	tableRepo repository.TableRepository,
	timeoutMinutes int,
	depositAmount models.Money,
) *ReservationService {
	if timeoutMinutes <= 0 {
		timeoutMinutes = 30
	}
	return &ReservationService{
		reservationRepo: reservationRepo,
		tableRepo:       tableRepo,
		timeout:         time.Duration(timeoutMinutes) * time.Minute,
		depositAmount:   depositAmount,
		location:        time.Local,
	}
}

// Create 创建预约并把桌台置为已预约
func (s *ReservationService) Create(input ReservationCreateInput) (*models.Reservation, error) {
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	if !validReservationSlot(input.Date, input.TimeSlot) {
		return nil, ErrReservationTimeInvalid
	}
	if input.Guests <= 0 {
		input.Guests = 1
	}

	table, err := s.tableRepo.GetByID(input.TableID)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, ErrTableNotFound
	}
	if table.Status == constants.TableStatusDisabled {
		return nil, ErrTableUnavailable
	}

	taken, err := s.reservationRepo.ExistsActiveByTableSlot(input.TableID, input.Date, input.TimeSlot)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrReservationSlotTaken
	}

	reservation := &models.Reservation{
		ReservationNo: generateReservationNo(),
		UserID:        input.UserID,
		TableID:       input.TableID,
		Date:          input.Date,
		TimeSlot:      input.TimeSlot,
		Guests:        input.Guests,
		Status:        constants.ReservationStatusPending,
		DepositAmount: s.depositAmount,
		DepositStatus: constants.DepositStatusUnpaid,
		Remark:        strings.TrimSpace(input.Remark),
	}

	err = s.reservationRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.reservationRepo.WithTx(tx).Create(reservation); err != nil {
			return err
		}
		return s.tableRepo.WithTx(tx).UpdateStatus(table.ID, constants.TableStatusReserved)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("预约创建成功",
		"reservation_no", reservation.ReservationNo, "user_id", input.UserID,
		"table_id", input.TableID, "date", input.Date, "time_slot", input.TimeSlot)
	return reservation, nil
}

// MarkDepositPaid 标记押金已支付
func (s *ReservationService) MarkDepositPaid(id uint) (*models.Reservation, error) {
	return s.mutate(id, func(reservation *models.Reservation) error {
		if reservation.Status != constants.ReservationStatusPending &&
			reservation.Status != constants.ReservationStatusConfirmed {
			return ErrReservationStatusInvalid
		}
		if reservation.DepositStatus != constants.DepositStatusUnpaid {
			return ErrDepositStatusInvalid
		}
		reservation.DepositStatus = constants.DepositStatusPaid
		return nil
	})
}

// Confirm 商家确认预约
func (s *ReservationService) Confirm(id uint) (*models.Reservation, error) {
	return s.mutate(id, func(reservation *models.Reservation) error {
		if reservation.Status != constants.ReservationStatusPending {
			return ErrReservationStatusInvalid
		}
		now := time.Now()
		reservation.Status = constants.ReservationStatusConfirmed
		reservation.ConfirmedAt = &now
		return nil
	})
}

// Cancel 取消预约：已付押金原路退回，桌台释放
func (s *ReservationService) Cancel(id uint) (*models.Reservation, error) {
	var result *models.Reservation
	err := s.reservationRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.reservationRepo.WithTx(tx)
		reservation, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if reservation == nil {
			return ErrReservationNotFound
		}
		if reservation.Status != constants.ReservationStatusPending &&
			reservation.Status != constants.ReservationStatusConfirmed {
			return ErrReservationStatusInvalid
		}

		now := time.Now()
		reservation.Status = constants.ReservationStatusCancelled
		reservation.CancelledAt = &now
		if reservation.DepositStatus == constants.DepositStatusPaid {
			reservation.DepositStatus = constants.DepositStatusRefunded
		}
		if err := repo.Update(reservation); err != nil {
			return err
		}
		if err := s.tableRepo.WithTx(tx).UpdateStatus(reservation.TableID, constants.TableStatusAvailable); err != nil {
			return err
		}
		result = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("预约已取消", "reservation_id", id, "deposit_status", result.DepositStatus)
	return result, nil
}

// Seat 顾客到店入座，桌台置为使用中
func (s *ReservationService) Seat(id uint) (*models.Reservation, error) {
	var result *models.Reservation
	err := s.reservationRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.reservationRepo.WithTx(tx)
		reservation, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if reservation == nil {
			return ErrReservationNotFound
		}
		if reservation.Status != constants.ReservationStatusConfirmed &&
			reservation.Status != constants.ReservationStatusPending {
			return ErrReservationStatusInvalid
		}
		reservation.Status = constants.ReservationStatusSeated
		if err := repo.Update(reservation); err != nil {
			return err
		}
		if err := s.tableRepo.WithTx(tx).UpdateStatus(reservation.TableID, constants.TableStatusOccupied); err != nil {
			return err
		}
		result = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Complete 用餐结束，桌台释放
func (s *ReservationService) Complete(id uint) (*models.Reservation, error) {
	var result *models.Reservation
	err := s.reservationRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.reservationRepo.WithTx(tx)
		reservation, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if reservation == nil {
			return ErrReservationNotFound
		}
		if reservation.Status != constants.ReservationStatusSeated {
			return ErrReservationStatusInvalid
		}
		reservation.Status = constants.ReservationStatusCompleted
		if reservation.DepositStatus == constants.DepositStatusPaid {
			reservation.DepositStatus = constants.DepositStatusRefunded
		}
		if err := repo.Update(reservation); err != nil {
			return err
		}
		if err := s.tableRepo.WithTx(tx).UpdateStatus(reservation.TableID, constants.TableStatusAvailable); err != nil {
			return err
		}
		result = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID 按ID获取预约
func (s *ReservationService) GetByID(id uint) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}
	return reservation, nil
}

// List 分页查询预约
func (s *ReservationService) List(filter repository.ReservationListFilter) ([]models.Reservation, int64, error) {
	return s.reservationRepo.List(filter)
}

// SweepExpired 预约超时清扫，返回本轮置为过期的预约数。
// 对每条候选独立事务处理：超时则置 expired，已付未退押金没收，
// 桌台释放为可用；单条失败记录日志后继续。
func (s *ReservationService) SweepExpired() (int, error) {
	now := time.Now()
	cutoff := now.Add(-s.timeout)
	candidates, err := s.reservationRepo.ListPendingBefore(
		cutoff.Format("2006-01-02"), cutoff.Format("15:04"), 200)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, candidate := range candidates {
		scheduledAt, ok := candidate.ScheduledAt(s.location)
		if !ok {
			logger.Warnw("预约时间无法解析，跳过",
				"reservation_id", candidate.ID, "date", candidate.Date, "time_slot", candidate.TimeSlot)
			continue
		}
		if !now.After(scheduledAt.Add(s.timeout)) {
			continue
		}

		err := s.reservationRepo.Transaction(func(tx *gorm.DB) error {
			repo := s.reservationRepo.WithTx(tx)
			reservation, err := repo.GetByIDForUpdate(candidate.ID)
			if err != nil {
				return err
			}
			if reservation == nil {
				return nil
			}
			if reservation.Status != constants.ReservationStatusPending &&
				reservation.Status != constants.ReservationStatusConfirmed {
				return nil
			}

			reservation.Status = constants.ReservationStatusExpired
			if reservation.DepositStatus == constants.DepositStatusPaid {
				reservation.DepositStatus = constants.DepositStatusForfeited
			}
			if err := repo.Update(reservation); err != nil {
				return err
			}
			if err := s.tableRepo.WithTx(tx).UpdateStatus(reservation.TableID, constants.TableStatusAvailable); err != nil {
				return err
			}
			swept++
			logger.Infow("预约超时处理完成",
				"reservation_id", reservation.ID, "reservation_no", reservation.ReservationNo,
				"deposit_status", reservation.DepositStatus)
			return nil
		})
		if err != nil {
			logger.Errorw("预约超时处理失败", "reservation_id", candidate.ID, "error", err)
			continue
		}
	}
	return swept, nil
}

// mutate 在行锁事务内修改预约
func (s *ReservationService) mutate(id uint, fn func(*models.Reservation) error) (*models.Reservation, error) {
	var result *models.Reservation
	err := s.reservationRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.reservationRepo.WithTx(tx)
		reservation, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if reservation == nil {
			return ErrReservationNotFound
		}
		if err := fn(reservation); err != nil {
			return err
		}
		if err := repo.Update(reservation); err != nil {
			return err
		}
		result = reservation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validReservationSlot(date, timeSlot string) bool {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return false
	}
	if _, err := time.Parse("15:04", timeSlot); err != nil {
		return false
	}
	return true
}

func generateReservationNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("CR%s%s", now, randNumeric(6))
}
