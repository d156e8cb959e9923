package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                // 主键
	OrderNo       string         `gorm:"uniqueIndex;not null" json:"order_no"`                // 订单编号
	UserID        uint           `gorm:"index;not null" json:"user_id"`                       // 用户ID
	ReservationID *uint          `gorm:"index" json:"reservation_id,omitempty"`               // 关联预约ID
	TableID       *uint          `gorm:"index" json:"table_id,omitempty"`                     // 就餐餐桌ID
	Status        string         `gorm:"index;not null" json:"status"`                        // 订单状态
	Amount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"` // 实付金额
	Remark        string         `gorm:"type:varchar(500)" json:"remark"`                     // 备注
	PaidAt        *time.Time     `gorm:"index" json:"paid_at"`                                // 支付时间
	CancelledAt   *time.Time     `json:"cancelled_at"`                                        // 取消时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                             // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderItem 订单项表
type OrderItem struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                     // 主键
	OrderID    uint      `gorm:"index;not null" json:"order_id"`                           // 订单ID
	MenuItemID uint      `gorm:"index;not null" json:"menu_item_id"`                       // 菜品ID
	Name       string    `gorm:"not null" json:"name"`                                     // 下单时菜品名称快照
	UnitPrice  Money     `gorm:"type:decimal(20,2);not null" json:"unit_price"`            // 下单时单价快照
	Quantity   int       `gorm:"not null;default:1" json:"quantity"`                       // 数量
	TotalPrice Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // 小计
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                                  // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
