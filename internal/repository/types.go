package repository

import "time"

// PointAccountListFilter 查询积分账户列表的过滤条件
type PointAccountListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Level    string
	MinTotal int64
}

// PointTransactionListFilter 查询积分流水列表的过滤条件
type PointTransactionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Type        string
	SourceType  string
	SourceID    uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ReservationListFilter 查询预约列表的过滤条件
type ReservationListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	TableID       uint
	Status        string
	DepositStatus string
	Date          string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	Status        string
	OrderNo       string
	ReservationID uint
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// ReviewListFilter 查询评价列表的过滤条件
type ReviewListFilter struct {
	Page      int
	PageSize  int
	UserID    uint
	OrderID   uint
	Status    string
	IsAdopted *bool
	MinRating int
}

// CouponListFilter 查询优惠券列表的过滤条件
type CouponListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Status   string
	Type     string
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Phone       string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AuthzAuditLogListFilter 查询审计日志列表的过滤条件
type AuthzAuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorAdminID uint
	Action          string
	Object          string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}
