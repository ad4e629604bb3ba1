package model

import (
	"time"
)

// 订阅周期，与套餐价格字段一一对应
const (
	PeriodMonth     = "month_price"
	PeriodQuarter   = "quarter_price"
	PeriodHalfYear  = "half_year_price"
	PeriodYear      = "year_price"
	PeriodTwoYear   = "two_year_price"
	PeriodThreeYear = "three_year_price"
	PeriodOneTime   = "onetime_price"
	PeriodReset     = "reset_price"
)

// BytesPerGB 套餐流量以 GB 计
const BytesPerGB int64 = 1073741824

type Plan struct {
	ID                 int64     `gorm:"primaryKey" json:"id"`
	Name               string    `gorm:"size:100;not null" json:"name"`
	GroupID            int64     `gorm:"not null" json:"group_id"`
	TransferEnable     int64     `gorm:"not null" json:"transfer_enable"` // GB
	SpeedLimit         *int      `json:"speed_limit"`
	CapacityLimit      *int      `json:"capacity_limit"`
	ResetTrafficMethod *int      `json:"reset_traffic_method"`
	MonthPrice         *int64    `json:"month_price"`
	QuarterPrice       *int64    `json:"quarter_price"`
	HalfYearPrice      *int64    `json:"half_year_price"`
	YearPrice          *int64    `json:"year_price"`
	TwoYearPrice       *int64    `json:"two_year_price"`
	ThreeYearPrice     *int64    `json:"three_year_price"`
	OnetimePrice       *int64    `json:"onetime_price"`
	ResetPrice         *int64    `json:"reset_price"`
	Show               bool      `gorm:"not null" json:"show"`
	Sell               bool      `gorm:"not null" json:"sell"`
	Renew              bool      `gorm:"not null" json:"renew"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// Price 返回指定周期的价格，未开放的周期返回 false
func (p *Plan) Price(period string) (int64, bool) {
	var price *int64
	switch period {
	case PeriodMonth:
		price = p.MonthPrice
	case PeriodQuarter:
		price = p.QuarterPrice
	case PeriodHalfYear:
		price = p.HalfYearPrice
	case PeriodYear:
		price = p.YearPrice
	case PeriodTwoYear:
		price = p.TwoYearPrice
	case PeriodThreeYear:
		price = p.ThreeYearPrice
	case PeriodOneTime:
		price = p.OnetimePrice
	case PeriodReset:
		price = p.ResetPrice
	}
	if price == nil {
		return 0, false
	}
	return *price, true
}

// TransferBytes 套餐流量（字节）
func (p *Plan) TransferBytes() int64 {
	return p.TransferEnable * BytesPerGB
}
