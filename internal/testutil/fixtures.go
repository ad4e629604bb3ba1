package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/sub_billing_server/internal/model"
)

var seq int64

func nextSeq() int64 {
	return atomic.AddInt64(&seq, 1)
}

func Int64Ptr(v int64) *int64 { return &v }

func IntPtr(v int) *int { return &v }

func TimePtr(t time.Time) *time.Time { return &t }

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	user := &model.User{
		Email: fmt.Sprintf("test_%d@example.com", nextSeq()),
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithPlan 设置当前套餐及分组
func WithPlan(plan *model.Plan) func(*model.User) {
	return func(u *model.User) {
		u.PlanID = &plan.ID
		u.GroupID = &plan.GroupID
		u.TransferEnable = plan.TransferBytes()
	}
}

// WithExpiry 设置到期时间
func WithExpiry(at time.Time) func(*model.User) {
	return func(u *model.User) {
		u.ExpiredAt = &at
	}
}

// WithBalance 设置余额（分）
func WithBalance(balance int64) func(*model.User) {
	return func(u *model.User) {
		u.Balance = balance
	}
}

// WithTraffic 设置已用流量
func WithTraffic(up, down int64) func(*model.User) {
	return func(u *model.User) {
		u.U = up
		u.D = down
	}
}

// WithDiscount 设置专属折扣
func WithDiscount(percent int) func(*model.User) {
	return func(u *model.User) {
		u.Discount = &percent
	}
}

// WithInviter 设置邀请人及返佣方式
func WithInviter(inviterID int64, commissionType int) func(*model.User) {
	return func(u *model.User) {
		u.InviteUserID = &inviterID
		u.CommissionType = commissionType
	}
}

// TestPlan 创建测试套餐，默认开放月付 1000 分
func TestPlan(t *testing.T, db *gorm.DB, opts ...func(*model.Plan)) *model.Plan {
	t.Helper()

	plan := &model.Plan{
		Name:           fmt.Sprintf("Plan %d", nextSeq()),
		GroupID:        1,
		TransferEnable: 100,
		MonthPrice:     Int64Ptr(1000),
		Show:           true,
		Sell:           true,
		Renew:          true,
	}

	for _, opt := range opts {
		opt(plan)
	}

	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	return plan
}

// WithPrice 设置指定周期价格
func WithPrice(period string, price int64) func(*model.Plan) {
	return func(p *model.Plan) {
		switch period {
		case model.PeriodMonth:
			p.MonthPrice = &price
		case model.PeriodQuarter:
			p.QuarterPrice = &price
		case model.PeriodHalfYear:
			p.HalfYearPrice = &price
		case model.PeriodYear:
			p.YearPrice = &price
		case model.PeriodTwoYear:
			p.TwoYearPrice = &price
		case model.PeriodThreeYear:
			p.ThreeYearPrice = &price
		case model.PeriodOneTime:
			p.OnetimePrice = &price
		case model.PeriodReset:
			p.ResetPrice = &price
		}
	}
}

// WithCapacity 设置容量上限
func WithCapacity(limit int) func(*model.Plan) {
	return func(p *model.Plan) {
		p.CapacityLimit = &limit
	}
}

// WithSell 设置是否在售
func WithSell(sell bool) func(*model.Plan) {
	return func(p *model.Plan) {
		p.Sell = sell
	}
}

// WithRenew 设置是否允许续费
func WithRenew(renew bool) func(*model.Plan) {
	return func(p *model.Plan) {
		p.Renew = renew
	}
}

// TestOrder 创建测试订单，默认为已完成的月付新购
func TestOrder(t *testing.T, db *gorm.DB, userID, planID int64, opts ...func(*model.Order)) *model.Order {
	t.Helper()

	order := &model.Order{
		TradeNo:     uuid.NewString(),
		UserID:      userID,
		PlanID:      planID,
		Period:      model.PeriodMonth,
		Type:        model.OrderTypeNewPurchase,
		Status:      model.OrderStatusCompleted,
		TotalAmount: 1000,
	}

	for _, opt := range opts {
		opt(order)
	}

	if err := db.Create(order).Error; err != nil {
		t.Fatalf("Failed to create test order: %v", err)
	}

	return order
}

// WithOrderStatus 设置订单状态
func WithOrderStatus(status int) func(*model.Order) {
	return func(o *model.Order) {
		o.Status = status
	}
}

// WithOrderPeriod 设置订单周期
func WithOrderPeriod(period string) func(*model.Order) {
	return func(o *model.Order) {
		o.Period = period
	}
}

// WithOrderType 设置订单类型
func WithOrderType(orderType int) func(*model.Order) {
	return func(o *model.Order) {
		o.Type = orderType
	}
}

// WithAmounts 设置实付与余额抵扣金额
func WithAmounts(total, balance int64) func(*model.Order) {
	return func(o *model.Order) {
		o.TotalAmount = total
		o.BalanceAmount = balance
	}
}

// WithCreatedAt 设置下单时间
func WithCreatedAt(at time.Time) func(*model.Order) {
	return func(o *model.Order) {
		o.CreatedAt = at
	}
}

// WithCoupon 设置使用的优惠券
func WithCoupon(couponID int64) func(*model.Order) {
	return func(o *model.Order) {
		o.CouponID = &couponID
	}
}

// TestCoupon 创建测试优惠券，默认 10 元固定减免，前后各一天有效
func TestCoupon(t *testing.T, db *gorm.DB, opts ...func(*model.Coupon)) *model.Coupon {
	t.Helper()

	now := time.Now()
	coupon := &model.Coupon{
		Code:      fmt.Sprintf("CODE%d", nextSeq()),
		Name:      "test coupon",
		Type:      model.CouponTypeAmount,
		Value:     1000,
		Show:      true,
		StartedAt: now.Add(-24 * time.Hour),
		EndedAt:   now.Add(24 * time.Hour),
	}

	for _, opt := range opts {
		opt(coupon)
	}

	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("Failed to create test coupon: %v", err)
	}

	return coupon
}

// WithHidden 设置优惠券为不可见
func WithHidden() func(*model.Coupon) {
	return func(c *model.Coupon) {
		c.Show = false
	}
}

// WithCouponValue 设置优惠券类型与面值
func WithCouponValue(couponType int, value int64) func(*model.Coupon) {
	return func(c *model.Coupon) {
		c.Type = couponType
		c.Value = value
	}
}

// WithLimitUse 设置全局剩余次数
func WithLimitUse(n int64) func(*model.Coupon) {
	return func(c *model.Coupon) {
		c.LimitUse = &n
	}
}

// WithLimitUseWithUser 设置每人可用次数
func WithLimitUseWithUser(n int64) func(*model.Coupon) {
	return func(c *model.Coupon) {
		c.LimitUseWithUser = &n
	}
}

// WithLimitPlans 限定可用套餐
func WithLimitPlans(ids ...int64) func(*model.Coupon) {
	return func(c *model.Coupon) {
		c.LimitPlanIDs = ids
	}
}

// WithLimitPeriods 限定可用周期
func WithLimitPeriods(periods ...string) func(*model.Coupon) {
	return func(c *model.Coupon) {
		c.LimitPeriod = periods
	}
}

// TestServer 创建测试节点
func TestServer(t *testing.T, db *gorm.DB, serverType model.ServerType, rate float64) *model.Server {
	t.Helper()

	server := &model.Server{
		Type: serverType,
		Name: fmt.Sprintf("node-%d", nextSeq()),
		Rate: rate,
		Show: true,
	}

	if err := db.Create(server).Error; err != nil {
		t.Fatalf("Failed to create test server: %v", err)
	}

	return server
}
