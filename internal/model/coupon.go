package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	CouponTypeAmount  = 1
	CouponTypePercent = 2
)

type Coupon struct {
	ID               int64                      `gorm:"primaryKey" json:"id"`
	Code             string                     `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name             string                     `gorm:"size:100" json:"name"`
	Type             int                        `gorm:"not null" json:"type"`
	Value            int64                      `gorm:"not null" json:"value"` // 固定金额为分，百分比为 0-100
	LimitUse         *int64                     `json:"limit_use"`              // nil 表示不限次数
	LimitUseWithUser *int64                     `json:"limit_use_with_user"`
	LimitPlanIDs     datatypes.JSONSlice[int64]  `gorm:"type:json" json:"limit_plan_ids"`
	LimitPeriod      datatypes.JSONSlice[string] `gorm:"type:json" json:"limit_period"`
	Show             bool                       `gorm:"not null" json:"show"`
	StartedAt        time.Time                  `json:"started_at"`
	EndedAt          time.Time                  `json:"ended_at"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}
