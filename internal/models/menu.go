package models

import (
	"time"

	"gorm.io/gorm"
)

// MenuCategory 菜单分类表
type MenuCategory struct {
	ID        uint           `gorm:"primarykey" json:"id"`             // 主键
	Slug      string         `gorm:"uniqueIndex;not null" json:"slug"` // 唯一标识
	Name      string         `gorm:"not null" json:"name"`             // 分类名称
	SortOrder int            `gorm:"default:0;index" json:"sort_order"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (MenuCategory) TableName() string {
	return "menu_categories"
}

// MenuItem 菜品表
type MenuItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                      // 主键
	CategoryID  uint           `gorm:"index;not null" json:"category_id"`         // 分类ID
	Name        string         `gorm:"not null" json:"name"`                      // 菜品名称
	Description string         `gorm:"type:varchar(1000)" json:"description"`     // 描述
	Price       Money          `gorm:"type:decimal(20,2);not null" json:"price"`  // 价格
	Image       string         `gorm:"type:varchar(500)" json:"image"`            // 图片路径
	IsAvailable bool           `gorm:"not null;default:true" json:"is_available"` // 是否可点
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`         // 排序权重
	SoldCount   int            `gorm:"not null;default:0" json:"sold_count"`      // 累计销量
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Category *MenuCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 关联分类
}

// TableName 指定表名
func (MenuItem) TableName() string {
	return "menu_items"
}
