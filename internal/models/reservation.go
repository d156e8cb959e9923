package models

import (
	"time"

	"gorm.io/gorm"
)

// Reservation 预约表
type Reservation struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                        // 主键
	ReservationNo string         `gorm:"uniqueIndex;not null" json:"reservation_no"`                  // 预约编号
	UserID        uint           `gorm:"index;not null" json:"user_id"`                               // 用户ID
	TableID       uint           `gorm:"index;not null" json:"table_id"`                              // 餐桌ID
	Date          string         `gorm:"type:varchar(10);index;not null" json:"date"`                 // 预约日期（YYYY-MM-DD）
	TimeSlot      string         `gorm:"type:varchar(5);not null" json:"time_slot"`                   // 预约时段（HH:MM）
	Guests        int            `gorm:"not null;default:1" json:"guests"`                            // 就餐人数
	Status        string         `gorm:"index;default:'pending'" json:"status"`                       // 预约状态
	DepositAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"deposit_amount"` // 押金金额
	DepositStatus string         `gorm:"index;default:'unpaid'" json:"deposit_status"`                // 押金状态
	Remark        string         `gorm:"type:varchar(500)" json:"remark"`                             // 备注
	ConfirmedAt   *time.Time     `json:"confirmed_at"`                                                // 确认时间
	CancelledAt   *time.Time     `json:"cancelled_at"`                                                // 取消时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                                     // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间

	Table *DiningTable `gorm:"foreignKey:TableID" json:"table,omitempty"` // 关联餐桌
}

// TableName 指定表名
func (Reservation) TableName() string {
	return "reservations"
}

// ScheduledAt 预约日期加时段解析为时间点；格式非法时返回零值与 false
func (r Reservation) ScheduledAt(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", r.Date+" "+r.TimeSlot, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
