package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupReservationServiceTest(t *testing.T) (*ReservationService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:reservation_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.DiningTable{}, &models.Reservation{}); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	models.DB = db

	reservationRepo := repository.NewReservationRepository(db)
	tableRepo := repository.NewTableRepository(db)
	deposit, err := models.NewMoneyFromString("50.00")
	if err != nil {
		t.Fatalf("解析押金金额失败: %v", err)
	}
	return NewReservationService(reservationRepo, tableRepo, 30, deposit), db
}

func createTestTable(t *testing.T, db *gorm.DB, tableNo, status string) *models.DiningTable {
	t.Helper()
	table := &models.DiningTable{TableNo: tableNo, Name: "大厅" + tableNo, Capacity: 4, Status: status}
	if err := db.Create(table).Error; err != nil {
		t.Fatalf("写入测试餐桌失败: %v", err)
	}
	return table
}

func TestReservationCreate(t *testing.T) {
	svc, db := setupReservationServiceTest(t)
	table := createTestTable(t, db, "A1", constants.TableStatusAvailable)

	input := ReservationCreateInput{
		UserID:   1,
		TableID:  table.ID,
		Date:     time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		TimeSlot: "18:30",
		Guests:   3,
	}
	reservation, err := svc.Create(input)
	if err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}
	if reservation.Status != constants.ReservationStatusPending {
		t.Fatalf("新预约应为 pending，实际 %s", reservation.Status)
	}
	if reservation.DepositStatus != constants.DepositStatusUnpaid {
		t.Fatalf("新预约押金应为 unpaid，实际 %s", reservation.DepositStatus)
	}
	if reservation.ReservationNo == "" {
		t.Fatal("预约编号不应为空")
	}
	if !reservation.DepositAmount.Equal(mustTestMoney(t, "50.00").Decimal) {
		t.Fatalf("押金金额异常: %s", reservation.DepositAmount)
	}

	var fresh models.DiningTable
	if err := db.First(&fresh, table.ID).Error; err != nil {
		t.Fatalf("查询餐桌失败: %v", err)
	}
	if fresh.Status != constants.TableStatusReserved {
		t.Fatalf("下单后餐桌应为 reserved，实际 %s", fresh.Status)
	}

	// 同桌同时段不可重复预约
	input.UserID = 2
	if _, err := svc.Create(input); !errors.Is(err, ErrReservationSlotTaken) {
		t.Fatalf("同时段重复预约应返回 ErrReservationSlotTaken，实际 %v", err)
	}
}

func TestReservationCreateValidation(t *testing.T) {
	svc, db := setupReservationServiceTest(t)
	table := createTestTable(t, db, "B1", constants.TableStatusAvailable)
	disabled := createTestTable(t, db, "B2", constants.TableStatusDisabled)

	base := ReservationCreateInput{
		UserID:   1,
		TableID:  table.ID,
		Date:     time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		TimeSlot: "18:30",
	}

	bad := base
	bad.TimeSlot = "半夜"
	if _, err := svc.Create(bad); !errors.Is(err, ErrReservationTimeInvalid) {
		t.Fatalf("非法时段应返回 ErrReservationTimeInvalid，实际 %v", err)
	}

	bad = base
	bad.TableID = 9999
	if _, err := svc.Create(bad); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("餐桌不存在应返回 ErrTableNotFound，实际 %v", err)
	}

	bad = base
	bad.TableID = disabled.ID
	if _, err := svc.Create(bad); !errors.Is(err, ErrTableUnavailable) {
		t.Fatalf("停用餐桌应返回 ErrTableUnavailable，实际 %v", err)
	}
}

func TestReservationLifecycle(t *testing.T) {
	svc, db := setupReservationServiceTest(t)
	table := createTestTable(t, db, "C1", constants.TableStatusAvailable)

	reservation, err := svc.Create(ReservationCreateInput{
		UserID:   1,
		TableID:  table.ID,
		Date:     time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		TimeSlot: "12:00",
		Guests:   2,
	})
	if err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}

	if _, err := svc.MarkDepositPaid(reservation.ID); err != nil {
		t.Fatalf("标记押金已付失败: %v", err)
	}
	// 押金只允许支付一次
	if _, err := svc.MarkDepositPaid(reservation.ID); !errors.Is(err, ErrDepositStatusInvalid) {
		t.Fatalf("重复支付押金应返回 ErrDepositStatusInvalid，实际 %v", err)
	}

	confirmed, err := svc.Confirm(reservation.ID)
	if err != nil {
		t.Fatalf("确认预约失败: %v", err)
	}
	if confirmed.Status != constants.ReservationStatusConfirmed || confirmed.ConfirmedAt == nil {
		t.Fatalf("确认后状态异常: %+v", confirmed)
	}
	if _, err := svc.Confirm(reservation.ID); !errors.Is(err, ErrReservationStatusInvalid) {
		t.Fatalf("重复确认应返回 ErrReservationStatusInvalid，实际 %v", err)
	}

	seated, err := svc.Seat(reservation.ID)
	if err != nil {
		t.Fatalf("入座失败: %v", err)
	}
	if seated.Status != constants.ReservationStatusSeated {
		t.Fatalf("入座后状态异常: %s", seated.Status)
	}
	var fresh models.DiningTable
	db.First(&fresh, table.ID)
	if fresh.Status != constants.TableStatusOccupied {
		t.Fatalf("入座后餐桌应为 occupied，实际 %s", fresh.Status)
	}

	completed, err := svc.Complete(reservation.ID)
	if err != nil {
		t.Fatalf("完成预约失败: %v", err)
	}
	if completed.Status != constants.ReservationStatusCompleted {
		t.Fatalf("完成后状态异常: %s", completed.Status)
	}
	if completed.DepositStatus != constants.DepositStatusRefunded {
		t.Fatalf("完成后押金应退回，实际 %s", completed.DepositStatus)
	}
	db.First(&fresh, table.ID)
	if fresh.Status != constants.TableStatusAvailable {
		t.Fatalf("完成后餐桌应释放为 available，实际 %s", fresh.Status)
	}
}

func TestReservationCancelRefundsDeposit(t *testing.T) {
	svc, db := setupReservationServiceTest(t)
	table := createTestTable(t, db, "D1", constants.TableStatusAvailable)

	reservation, err := svc.Create(ReservationCreateInput{
		UserID:   1,
		TableID:  table.ID,
		Date:     time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		TimeSlot: "19:00",
	})
	if err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}
	if _, err := svc.MarkDepositPaid(reservation.ID); err != nil {
		t.Fatalf("标记押金已付失败: %v", err)
	}

	cancelled, err := svc.Cancel(reservation.ID)
	if err != nil {
		t.Fatalf("取消预约失败: %v", err)
	}
	if cancelled.Status != constants.ReservationStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("取消后状态异常: %+v", cancelled)
	}
	if cancelled.DepositStatus != constants.DepositStatusRefunded {
		t.Fatalf("主动取消应退押金，实际 %s", cancelled.DepositStatus)
	}

	var fresh models.DiningTable
	db.First(&fresh, table.ID)
	if fresh.Status != constants.TableStatusAvailable {
		t.Fatalf("取消后餐桌应释放，实际 %s", fresh.Status)
	}

	if _, err := svc.Cancel(reservation.ID); !errors.Is(err, ErrReservationStatusInvalid) {
		t.Fatalf("重复取消应返回 ErrReservationStatusInvalid，实际 %v", err)
	}
}

func TestReservationSweepExpired(t *testing.T) {
	svc, db := setupReservationServiceTest(t)
	table := createTestTable(t, db, "E1", constants.TableStatusAvailable)

	// 时段已过超时窗口的 pending 预约
	past := time.Now().Add(-2 * time.Hour)
	reservation, err := svc.Create(ReservationCreateInput{
		UserID:   1,
		TableID:  table.ID,
		Date:     past.Format("2006-01-02"),
		TimeSlot: past.Format("15:04"),
	})
	if err != nil {
		t.Fatalf("创建预约失败: %v", err)
	}
	if _, err := svc.MarkDepositPaid(reservation.ID); err != nil {
		t.Fatalf("标记押金已付失败: %v", err)
	}

	count, err := svc.SweepExpired()
	if err != nil {
		t.Fatalf("扫描过期预约失败: %v", err)
	}
	if count != 1 {
		t.Fatalf("应清理 1 条过期预约，实际 %d", count)
	}

	var fresh models.Reservation
	if err := db.First(&fresh, reservation.ID).Error; err != nil {
		t.Fatalf("查询预约失败: %v", err)
	}
	if fresh.Status != constants.ReservationStatusExpired {
		t.Fatalf("过期预约状态应为 expired，实际 %s", fresh.Status)
	}
	if fresh.DepositStatus != constants.DepositStatusForfeited {
		t.Fatalf("过期未到店押金应没收，实际 %s", fresh.DepositStatus)
	}

	var freshTable models.DiningTable
	db.First(&freshTable, table.ID)
	if freshTable.Status != constants.TableStatusAvailable {
		t.Fatalf("清理后餐桌应释放，实际 %s", freshTable.Status)
	}

	// 幂等：再次扫描无事可做
	count, err = svc.SweepExpired()
	if err != nil || count != 0 {
		t.Fatalf("重复扫描应为空转: count=%d err=%v", count, err)
	}
}

func mustTestMoney(t *testing.T, raw string) models.Money {
	t.Helper()
	m, err := models.NewMoneyFromString(raw)
	if err != nil {
		t.Fatalf("解析金额失败: %v", err)
	}
	return m
}
