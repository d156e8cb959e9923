package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/canting-next/internal/constants"
	"github.com/canting-next/internal/events"
	"github.com/canting-next/internal/logger"
	"github.com/canting-next/internal/models"
	"github.com/canting-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 点餐订单服务
type OrderService struct {
	orderRepo repository.OrderRepository
	menuRepo  repository.MenuRepository
	bus       *events.Bus
}

// OrderItemInput 下单明细输入
type OrderItemInput struct {
	MenuItemID uint
	Quantity   int
}

// OrderCreateInput 下单输入
type OrderCreateInput struct {
	UserID        uint
	ReservationID *uint
	TableID       *uint
	Items         []OrderItemInput
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	menuRepo repository.MenuRepository,
	bus *events.Bus,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		menuRepo:  menuRepo,
		bus:       bus,
	}
}

// Create 创建订单：菜品快照入明细，金额为明细合计
func (s *OrderService) Create(input OrderCreateInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	if len(input.Items) == 0 {
		return nil, ErrOrderEmpty
	}

	ids := make([]uint, 0, len(input.Items))
	for _, item := range input.Items {
		if item.MenuItemID == 0 || item.Quantity <= 0 {
			return nil, ErrOrderEmpty
		}
		ids = append(ids, item.MenuItemID)
	}
	menuItems, err := s.menuRepo.GetItemsByIDs(ids)
	if err != nil {
		return nil, err
	}
	itemByID := make(map[uint]models.MenuItem, len(menuItems))
	for _, item := range menuItems {
		itemByID[item.ID] = item
	}

	total := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		menuItem, ok := itemByID[item.MenuItemID]
		if !ok {
			return nil, ErrMenuItemNotFound
		}
		if !menuItem.IsAvailable {
			return nil, ErrMenuItemUnavailable
		}
		lineTotal := menuItem.Price.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		total = total.Add(lineTotal)
		orderItems = append(orderItems, models.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			UnitPrice:  menuItem.Price,
			Quantity:   item.Quantity,
			TotalPrice: models.NewMoneyFromDecimal(lineTotal),
		})
	}

	order := &models.Order{
		OrderNo:       generateOrderNo(),
		UserID:        input.UserID,
		ReservationID: input.ReservationID,
		TableID:       input.TableID,
		Status:        constants.OrderStatusPending,
		Amount:        models.NewMoneyFromDecimal(total),
	}

	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		if err := repo.Create(order); err != nil {
			return err
		}
		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		return repo.CreateItems(orderItems)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("订单创建成功",
		"order_no", order.OrderNo, "user_id", input.UserID,
		"amount", order.Amount.String(), "items", len(orderItems))
	return order, nil
}

// MarkPaid 标记订单已支付并发布支付事件（积分发放为尽力而为）
func (s *OrderService) MarkPaid(id uint) (*models.Order, error) {
	var result *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status != constants.OrderStatusPending {
			return ErrOrderStatusInvalid
		}

		now := time.Now()
		order.Status = constants.OrderStatusPaid
		order.PaidAt = &now
		if err := repo.Update(order); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 明细销量累加失败不影响订单状态
	if items, itemErr := s.orderRepo.ListItems(result.ID); itemErr == nil {
		for _, item := range items {
			if err := s.menuRepo.IncrementSoldCount(item.MenuItemID, item.Quantity); err != nil {
				logger.Warnw("菜品销量累加失败", "menu_item_id", item.MenuItemID, "error", err)
			}
		}
	}

	if s.bus != nil {
		s.bus.PublishOrderPaid(*result)
	}
	logger.Infow("订单支付成功", "order_id", result.ID, "order_no", result.OrderNo)
	return result, nil
}

// Complete 完成订单
func (s *OrderService) Complete(id uint) (*models.Order, error) {
	return s.mutateOrder(id, func(order *models.Order) error {
		if order.Status != constants.OrderStatusPaid && order.Status != constants.OrderStatusPendingReview {
			return ErrOrderStatusInvalid
		}
		order.Status = constants.OrderStatusCompleted
		return nil
	})
}

// Cancel 取消未支付订单
func (s *OrderService) Cancel(id uint) (*models.Order, error) {
	return s.mutateOrder(id, func(order *models.Order) error {
		if order.Status != constants.OrderStatusPending {
			return ErrOrderStatusInvalid
		}
		now := time.Now()
		order.Status = constants.OrderStatusCancelled
		order.CancelledAt = &now
		return nil
	})
}

// GetByID 按ID获取订单
func (s *OrderService) GetByID(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByNo 按订单号获取订单
func (s *OrderService) GetByNo(orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByNo(strings.TrimSpace(orderNo))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List 分页查询订单
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// ListItems 获取订单明细
func (s *OrderService) ListItems(orderID uint) ([]models.OrderItem, error) {
	return s.orderRepo.ListItems(orderID)
}

func (s *OrderService) mutateOrder(id uint, fn func(*models.Order) error) (*models.Order, error) {
	var result *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := repo.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if err := fn(order); err != nil {
			return err
		}
		if err := repo.Update(order); err != nil {
			return err
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("CT%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		fmt.Fprintf(&b, "%d", n.Int64())
	}
	return b.String()
}
