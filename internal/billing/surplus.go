package billing

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/qs3c/sub_billing_server/internal/model"
)

// Surplus 升级时旧订阅的剩余价值与被折抵的订单
type Surplus struct {
	Amount   int64
	OrderIDs []int64
}

var bytesPerGB = decimal.NewFromInt(model.BytesPerGB)

// SurplusByOneTime 一次性套餐按剩余流量折算：单价 = 实付 / 总流量(GB)，剩余价值 = 单价 × 未用流量(GB)。
// completed 为用户全部已完成的非重置订单，它们都会被标记为已折抵。
func SurplusByOneTime(user *model.User, lastOneTime *model.Order, completed []model.Order) Surplus {
	if lastOneTime == nil {
		return Surplus{}
	}

	quotaGB := decimal.NewFromInt(user.TransferEnable).Div(bytesPerGB)
	if quotaGB.IsZero() {
		return Surplus{}
	}

	paid := decimal.NewFromInt(lastOneTime.TotalAmount + lastOneTime.BalanceAmount)
	if paid.IsZero() {
		return Surplus{}
	}

	unitPrice := paid.Div(quotaGB)
	usedGB := decimal.NewFromInt(user.UsedTraffic()).Div(bytesPerGB)
	value := unitPrice.Mul(quotaGB.Sub(usedGB))

	amount := value.Round(0).IntPart()
	if amount < 0 {
		amount = 0
	}

	return Surplus{
		Amount:   amount,
		OrderIDs: lo.Map(completed, func(o model.Order, _ int) int64 { return o.ID }),
	}
}

// SurplusByPeriod 周期套餐按剩余时间折算。只统计自身周期尚未结束的订单，
// 以其中最晚的下单时间为起点、月数之和为长度得到合并到期时间，再按秒均摊实付金额。
func SurplusByPeriod(orders []model.Order, now time.Time) Surplus {
	var (
		months  int
		paid    int64
		anchor  time.Time
		counted []int64
	)

	for _, o := range orders {
		m, ok := MonthsOf(o.Period)
		if !ok {
			continue
		}
		if !AddMonths(o.CreatedAt, m).After(now) {
			continue
		}
		if o.CreatedAt.After(anchor) {
			anchor = o.CreatedAt
		}
		months += m
		paid += o.TotalAmount + o.BalanceAmount + o.SurplusAmount - o.RefundAmount
		counted = append(counted, o.ID)
	}

	if len(counted) == 0 {
		return Surplus{}
	}

	expiredAt := AddMonths(anchor, months)
	if !expiredAt.After(now) {
		return Surplus{}
	}

	rangeSeconds := decimal.NewFromInt(int64(expiredAt.Sub(anchor) / time.Second))
	remainSeconds := decimal.NewFromInt(int64(expiredAt.Sub(now) / time.Second))

	amount := decimal.NewFromInt(paid).Mul(remainSeconds).Div(rangeSeconds).Round(0).IntPart()
	if amount < 0 {
		amount = 0
	}

	return Surplus{Amount: amount, OrderIDs: counted}
}

// ApplySurplus 用剩余价值抵扣订单金额，超出部分记为退款（退回余额）
func ApplySurplus(order *model.Order, s Surplus) {
	order.SurplusAmount = s.Amount
	order.SurplusOrderIDs = s.OrderIDs
	if order.SurplusAmount >= order.TotalAmount {
		order.RefundAmount = order.SurplusAmount - order.TotalAmount
		order.TotalAmount = 0
		return
	}
	order.TotalAmount -= order.SurplusAmount
}
