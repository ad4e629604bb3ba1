package model

import (
	"time"
)

// 邀请人返佣模式
const (
	CommissionTypeSystem    = 0 // 跟随系统设置
	CommissionTypePerOrder  = 1
	CommissionTypeUnlimited = 2 // 循环返佣
	CommissionTypeFirstOnly = 3 // 仅首单
)

// User 订阅用户，u/d/transfer_enable 单位均为字节
type User struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	Email          string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PlanID         *int64     `gorm:"index" json:"plan_id"`
	GroupID        *int64     `json:"group_id"`
	Balance        int64      `gorm:"default:0" json:"balance"`
	U              int64      `gorm:"column:u;default:0" json:"u"`
	D              int64      `gorm:"column:d;default:0" json:"d"`
	TransferEnable int64      `gorm:"default:0" json:"transfer_enable"`
	ExpiredAt      *time.Time `gorm:"index" json:"expired_at"` // nil 表示永不过期
	SpeedLimit     *int       `json:"speed_limit"`
	Discount       *int       `json:"discount"` // 专属折扣百分比
	InviteUserID   *int64     `gorm:"index" json:"invite_user_id"`
	CommissionRate *int       `json:"commission_rate"`
	CommissionType int        `gorm:"default:0" json:"commission_type"`
	Banned         bool       `gorm:"default:false" json:"banned"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UsedTraffic 已用流量（上行+下行）
func (u *User) UsedTraffic() int64 {
	return u.U + u.D
}
