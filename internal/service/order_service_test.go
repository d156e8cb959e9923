package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/events"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *events.Bus, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.MenuCategory{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	bus := events.NewBus()
	return NewOrderService(orderRepo, menuRepo, bus), bus, db
}

func createTestMenuItem(t *testing.T, db *gorm.DB, name, price string, available bool) *models.MenuItem {
	t.Helper()
	category := models.MenuCategory{Slug: "cat-" + name, Name: "测试分类"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("写入测试分类失败: %v", err)
	}
	item := &models.MenuItem{
		CategoryID:  category.ID,
		Name:        name,
		Price:       mustTestMoney(t, price),
		IsAvailable: available,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("写入测试菜品失败: %v", err)
	}
	return item
}

func TestOrderCreateSnapshotsItems(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	fish := createTestMenuItem(t, db, "酸菜鱼", "68.00", true)
	rice := createTestMenuItem(t, db, "米饭", "2.00", true)

	order, err := svc.Create(OrderCreateInput{
		UserID: 1,
		Items: []OrderItemInput{
			{MenuItemID: fish.ID, Quantity: 2},
			{MenuItemID: rice.ID, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("新订单应为 pending，实际 %s", order.Status)
	}
	if order.OrderNo == "" {
		t.Fatal("订单编号不应为空")
	}
	// 68*2 + 2*3 = 142
	if !order.Amount.Equal(mustTestMoney(t, "142.00").Decimal) {
		t.Fatalf("订单总额应为 142.00，实际 %s", order.Amount)
	}

	items, err := svc.ListItems(order.ID)
	if err != nil {
		t.Fatalf("查询明细失败: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("应有 2 条明细，实际 %d", len(items))
	}
	for _, item := range items {
		if item.Name == "" || item.UnitPrice.IsZero() {
			t.Fatalf("明细应快照菜品名称与单价: %+v", item)
		}
	}

	// 下单后改价不影响既有订单
	if err := db.Model(&models.MenuItem{}).Where("id = ?", fish.ID).
		Update("price", mustTestMoney(t, "88.00")).Error; err != nil {
		t.Fatalf("更新测试菜品失败: %v", err)
	}
	fresh, err := svc.GetByID(order.ID)
	if err != nil {
		t.Fatalf("查询订单失败: %v", err)
	}
	if !fresh.Amount.Equal(mustTestMoney(t, "142.00").Decimal) {
		t.Fatalf("历史订单金额不应随改价变化，实际 %s", fresh.Amount)
	}
}

func TestOrderCreateValidation(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	offShelf := createTestMenuItem(t, db, "下架菜", "10.00", false)

	if _, err := svc.Create(OrderCreateInput{UserID: 1}); !errors.Is(err, ErrOrderEmpty) {
		t.Fatalf("空明细应返回 ErrOrderEmpty，实际 %v", err)
	}

	if _, err := svc.Create(OrderCreateInput{
		UserID: 1,
		Items:  []OrderItemInput{{MenuItemID: 9999, Quantity: 1}},
	}); !errors.Is(err, ErrMenuItemNotFound) {
		t.Fatalf("菜品不存在应返回 ErrMenuItemNotFound，实际 %v", err)
	}

	if _, err := svc.Create(OrderCreateInput{
		UserID: 1,
		Items:  []OrderItemInput{{MenuItemID: offShelf.ID, Quantity: 1}},
	}); !errors.Is(err, ErrMenuItemUnavailable) {
		t.Fatalf("下架菜品应返回 ErrMenuItemUnavailable，实际 %v", err)
	}
}

func TestOrderMarkPaid(t *testing.T) {
	svc, bus, db := setupOrderServiceTest(t)
	fish := createTestMenuItem(t, db, "水煮鱼", "58.00", true)

	var published []models.Order
	bus.OnOrderPaid(func(order models.Order) error {
		published = append(published, order)
		return nil
	})

	order, err := svc.Create(OrderCreateInput{
		UserID: 1,
		Items:  []OrderItemInput{{MenuItemID: fish.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}

	paid, err := svc.MarkPaid(order.ID)
	if err != nil {
		t.Fatalf("标记支付失败: %v", err)
	}
	if paid.Status != constants.OrderStatusPaid || paid.PaidAt == nil {
		t.Fatalf("支付后状态异常: %+v", paid)
	}

	if len(published) != 1 || published[0].ID != order.ID {
		t.Fatalf("支付成功应广播一次订单事件，实际 %d 次", len(published))
	}

	var freshItem models.MenuItem
	db.First(&freshItem, fish.ID)
	if freshItem.SoldCount != 1 {
		t.Fatalf("支付后销量应累加，实际 %d", freshItem.SoldCount)
	}

	// 已支付订单不可重复支付
	if _, err := svc.MarkPaid(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("重复支付应返回 ErrOrderStatusInvalid，实际 %v", err)
	}
}

func TestOrderCancelAndComplete(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	fish := createTestMenuItem(t, db, "清蒸鲈鱼", "78.00", true)

	order, err := svc.Create(OrderCreateInput{
		UserID: 1,
		Items:  []OrderItemInput{{MenuItemID: fish.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}

	// 未支付订单不可结单
	if _, err := svc.Complete(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("未支付结单应返回 ErrOrderStatusInvalid，实际 %v", err)
	}

	cancelled, err := svc.Cancel(order.ID)
	if err != nil {
		t.Fatalf("取消订单失败: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("取消后状态异常: %+v", cancelled)
	}

	// 已取消订单不可再支付
	if _, err := svc.MarkPaid(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("已取消订单支付应返回 ErrOrderStatusInvalid，实际 %v", err)
	}

	second, err := svc.Create(OrderCreateInput{
		UserID: 1,
		Items:  []OrderItemInput{{MenuItemID: fish.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("下单失败: %v", err)
	}
	if _, err := svc.MarkPaid(second.ID); err != nil {
		t.Fatalf("标记支付失败: %v", err)
	}
	completed, err := svc.Complete(second.ID)
	if err != nil {
		t.Fatalf("结单失败: %v", err)
	}
	if completed.Status != constants.OrderStatusCompleted {
		t.Fatalf("结单后状态异常: %s", completed.Status)
	}
}
