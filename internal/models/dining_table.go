package models

import (
	"time"

	"gorm.io/gorm"
)

// DiningTable 餐桌表
type DiningTable struct {
	ID        uint           `gorm:"primarykey" json:"id"`                    // 主键
	TableNo   string         `gorm:"uniqueIndex;not null" json:"table_no"`    // 桌号
	Name      string         `gorm:"default:''" json:"name"`                  // 名称（大厅A1、包间等）
	Capacity  int            `gorm:"not null;default:2" json:"capacity"`      // 可坐人数
	Status    string         `gorm:"index;default:'available'" json:"status"` // 状态
	SortOrder int            `gorm:"default:0;index" json:"sort_order"`       // 排序权重
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                 // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                 // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                          // 软删除时间
}

// TableName 指定表名
func (DiningTable) TableName() string {
	return "dining_tables"
}
