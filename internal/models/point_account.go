package models

import "time"

// PointAccount 会员积分台账，每用户一行
// 约束：AvailablePoints + FrozenPoints <= TotalPoints，三者均不为负；
// 仅由积分服务在单行事务内更新，首次获得积分时懒创建，永不删除。
type PointAccount struct {
	ID              uint      `gorm:"primarykey" json:"id"`                           // 主键
	UserID          uint      `gorm:"uniqueIndex;not null" json:"user_id"`            // 用户ID
	TotalPoints     int64     `gorm:"not null;default:0" json:"total_points"`         // 累计获得积分（除管理员修正外单调不减）
	AvailablePoints int64     `gorm:"not null;default:0" json:"available_points"`     // 可用积分
	FrozenPoints    int64     `gorm:"not null;default:0" json:"frozen_points"`        // 冻结积分（优惠券兑换占用）
	Level           string    `gorm:"type:varchar(40);index;default:''" json:"level"` // 等级编码（由累计积分推导）
	CreatedAt       time.Time `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt       time.Time `gorm:"index" json:"updated_at"`                        // 更新时间
}

// TableName 指定表名
func (PointAccount) TableName() string {
	return "point_accounts"
}

// PointTransaction 积分流水，只增不改
// BalanceAfter 为该事件提交后的可用积分快照；earn 类型带 ExpireAt 形成积分批次。
// earn 行上 (source_type, source_id) 唯一，兜底业务层的幂等预检；
// 其余类型会复用来源键（如 adjust 以用户ID为来源），不参与唯一约束。
type PointTransaction struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                                                                                                                     // 主键
	UserID       uint       `gorm:"index;not null" json:"user_id"`                                                                                                                            // 用户ID
	Type         string     `gorm:"type:varchar(20);index;not null" json:"type"`                                                                                                              // 类型（earn/redeem/expire/adjust/freeze/unfreeze）
	Points       int64      `gorm:"not null" json:"points"`                                                                                                                                   // 本次变动（带符号）
	BalanceAfter int64      `gorm:"not null" json:"balance_after"`                                                                                                                            // 变动后可用积分快照
	SourceType   string     `gorm:"type:varchar(30);index:idx_point_txn_source,priority:1;uniqueIndex:uidx_point_txn_earn_source,priority:1,where:type = 'earn';not null" json:"source_type"` // 来源类型
	SourceID     uint       `gorm:"index:idx_point_txn_source,priority:2;uniqueIndex:uidx_point_txn_earn_source,priority:2;not null" json:"source_id"`                                        // 来源ID
	Remark       string     `gorm:"type:varchar(500)" json:"remark"`                                                                                                                          // 备注
	ExpireAt     *time.Time `gorm:"index" json:"expire_at"`                                                                                                                                   // 过期时间（earn 批次）
	Expired      bool       `gorm:"not null;default:false;index" json:"expired"`                                                                                                              // 该批次是否已过期结算
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                                                                                                                                  // 创建时间
}

// TableName 指定表名
func (PointTransaction) TableName() string {
	return "point_transactions"
}

// PointRule 积分规则表，每个规则键一行
type PointRule struct {
	ID        uint      `gorm:"primarykey" json:"id"`                             // 主键
	RuleKey   string    `gorm:"uniqueIndex;not null" json:"rule_key"`             // 规则键（order_earn 等）
	RuleType  string    `gorm:"type:varchar(20);index;not null" json:"rule_type"` // 规则类型（earn/use/expire）
	Name      string    `gorm:"default:''" json:"name"`                           // 展示名称
	Config    JSON      `gorm:"type:json" json:"config"`                          // 规则参数（按规则类型解析）
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`           // 是否启用
	SortOrder int       `gorm:"default:0;index" json:"sort_order"`                // 排序权重
	CreatedAt time.Time `gorm:"index" json:"created_at"`                          // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                          // 更新时间
}

// TableName 指定表名
func (PointRule) TableName() string {
	return "point_rules"
}

// PointLevel 会员等级表
// 启用等级按 MinPoints 升序排列且阈值严格递增；等级解析取累计积分覆盖到的最高档。
type PointLevel struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                 // 主键
	Code              string    `gorm:"uniqueIndex;not null" json:"code"`                     // 等级编码
	Name              string    `gorm:"not null" json:"name"`                                 // 展示名称
	MinPoints         int64     `gorm:"not null;default:0;index" json:"min_points"`           // 累计积分门槛
	DiscountType      string    `gorm:"type:varchar(20);default:'none'" json:"discount_type"` // 折扣类型
	DiscountValue     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_value"`
	MaxDiscountAmount *Money    `gorm:"type:decimal(20,2)" json:"max_discount_amount,omitempty"` // 单笔折扣上限
	MinOrderAmount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_amount"`
	Icon              string    `gorm:"type:varchar(500)" json:"icon"`          // 展示图标
	SortOrder         int       `gorm:"default:0;index" json:"sort_order"`      // 排序权重
	IsActive          bool      `gorm:"not null;default:true" json:"is_active"` // 是否启用
	CreatedAt         time.Time `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt         time.Time `gorm:"index" json:"updated_at"`                // 更新时间
}

// TableName 指定表名
func (PointLevel) TableName() string {
	return "point_levels"
}

// PointStatistic 积分日统计表，每自然日一行，按日期幂等重算
type PointStatistic struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                   // 主键
	StatDate      string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"stat_date"` // 统计日期（YYYY-MM-DD）
	TotalEarned   int64     `gorm:"not null;default:0" json:"total_earned"`                 // 当日获得积分
	TotalRedeemed int64     `gorm:"not null;default:0" json:"total_redeemed"`               // 当日消耗积分
	TotalExpired  int64     `gorm:"not null;default:0" json:"total_expired"`                // 当日过期积分
	ActiveUsers   int64     `gorm:"not null;default:0" json:"active_users"`                 // 当日有积分动账的用户数
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                // 创建时间
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`                                // 更新时间
}

// TableName 指定表名
func (PointStatistic) TableName() string {
	return "point_statistics"
}
