package models

import (
	"time"

	"gorm.io/gorm"
)

// Review 评价表
type Review struct {
	ID         uint           `gorm:"primarykey" json:"id"`                     // 主键
	UserID     uint           `gorm:"index;not null" json:"user_id"`            // 用户ID
	OrderID    uint           `gorm:"index;not null" json:"order_id"`           // 订单ID
	Rating     int            `gorm:"not null;default:5" json:"rating"`         // 评分（1-5）
	Content    string         `gorm:"type:varchar(2000)" json:"content"`        // 评价内容
	Images     StringArray    `gorm:"type:json" json:"images"`                  // 评价图片
	Status     string         `gorm:"index;default:'pending'" json:"status"`    // 审核状态
	IsAdopted  bool           `gorm:"not null;default:false" json:"is_adopted"` // 是否被采纳为精选
	ApprovedAt *time.Time     `json:"approved_at"`                              // 审核通过时间
	AdoptedAt  *time.Time     `json:"adopted_at"`                               // 采纳时间
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                  // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                  // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                           // 软删除时间
}

// TableName 指定表名
func (Review) TableName() string {
	return "reviews"
}

// HasImage 是否带图评价
func (r Review) HasImage() bool {
	return len(r.Images) > 0
}
