package service

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/qs3c/sub_billing_server/config"
	"github.com/qs3c/sub_billing_server/internal/billing"
	"github.com/qs3c/sub_billing_server/internal/model"
	"github.com/qs3c/sub_billing_server/internal/pkg/metrics"
	"github.com/qs3c/sub_billing_server/internal/repository"
)

var (
	ErrPlanChangeDisabled = errors.Mark(errors.New("目前不允许更改订阅，请联系客服或提交工单操作"), billing.ErrValidation)
	ErrHasPendingOrder    = errors.Mark(errors.New("您有未付款或开通中的订单，请稍后再试或将其取消"), billing.ErrConcurrencyConflict)
	ErrResetUnavailable   = errors.Mark(errors.New("订阅已过期或无有效订阅，无法购买重置包"), billing.ErrValidation)
	ErrUserBanned         = errors.Mark(errors.New("账号已被封禁"), billing.ErrValidation)
	ErrOrderNotFound      = errors.Mark(errors.New("订单不存在"), billing.ErrNotFound)
)

// CheckoutRequest 下单参数
type CheckoutRequest struct {
	PlanID     int64
	Period     string
	CouponCode string
}

type OrderService struct {
	store       *repository.Store
	cfg         *config.Config
	users       *UserService
	plans       *PlanService
	coupons     *CouponService
	fulfillment *FulfillmentService
	now         func() time.Time
}

func NewOrderService(
	store *repository.Store,
	cfg *config.Config,
	users *UserService,
	plans *PlanService,
	coupons *CouponService,
	fulfillment *FulfillmentService,
) *OrderService {
	return &OrderService{
		store:       store,
		cfg:         cfg,
		users:       users,
		plans:       plans,
		coupons:     coupons,
		fulfillment: fulfillment,
		now:         time.Now,
	}
}

// Checkout 创建订单：校验套餐与容量、使用优惠券、定价、余额抵扣，全部在同一事务内完成。
// 应付金额为 0 的订单提交后直接标记为已支付。
func (s *OrderService) Checkout(ctx context.Context, userID int64, req CheckoutRequest) (*model.Order, error) {
	settings := s.cfg.Billing
	now := s.now()

	var order *model.Order
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		user, err := tx.Users.GetByIDForUpdate(userID)
		if err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if user.Banned {
			return ErrUserBanned
		}

		unfinished, err := tx.Orders.HasUnfinishedOrder(userID)
		if err != nil {
			return err
		}
		if unfinished {
			return ErrHasPendingOrder
		}

		plan, err := tx.Plans.GetByIDForUpdate(req.PlanID)
		if err != nil {
			return notFound(err, ErrPlanNotFound)
		}

		price, ok := plan.Price(req.Period)
		if !ok {
			return ErrPeriodNotOpen
		}

		if err := s.checkPurchasable(tx, user, plan, req.Period, now); err != nil {
			return err
		}

		order = &model.Order{
			TradeNo:     newTradeNo(),
			UserID:      user.ID,
			PlanID:      plan.ID,
			Period:      req.Period,
			Status:      model.OrderStatusPending,
			TotalAmount: price,
		}

		if req.CouponCode != "" {
			if _, err := s.coupons.ApplyTx(tx, req.CouponCode, order); err != nil {
				return err
			}
		}

		if err := s.Classify(tx, order, user, settings); err != nil {
			return err
		}

		if user.Balance > 0 && order.TotalAmount > 0 {
			use := user.Balance
			if use > order.TotalAmount {
				use = order.TotalAmount
			}
			if err := s.users.addBalanceTx(tx, user.ID, -use); err != nil {
				return err
			}
			order.BalanceAmount = use
			order.TotalAmount -= use
		}

		if err := tx.Orders.Create(order); err != nil {
			return errors.Wrap(err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.WithLabelValues(metrics.OrderTypeLabel(order.Type)).Inc()
	log.WithFields(log.Fields{
		"trade_no": order.TradeNo,
		"user_id":  order.UserID,
		"plan_id":  order.PlanID,
		"type":     order.Type,
		"total":    order.TotalAmount,
	}).Info("order created")

	if order.TotalAmount == 0 {
		if err := s.fulfillment.MarkPaid(ctx, order.TradeNo, ""); err != nil {
			// 投递失败时取消订单并退回余额，避免占住待支付名额
			if cerr := s.fulfillment.Cancel(ctx, order.TradeNo); cerr != nil {
				log.WithError(cerr).WithField("trade_no", order.TradeNo).Error("cancel undispatched free order failed")
			}
			return nil, err
		}
		// 回读最新状态
		if fresh, err := s.store.WithContext(ctx).Orders.GetByID(order.ID); err == nil {
			order = fresh
		}
	}

	return order, nil
}

// checkPurchasable 在售、续费与容量规则
func (s *OrderService) checkPurchasable(tx *repository.Store, user *model.User, plan *model.Plan, period string, now time.Time) error {
	current := user.PlanID != nil && *user.PlanID == plan.ID

	if period == model.PeriodReset {
		if !current || !billing.ExpiryOf(user.ExpiredAt).ActiveAt(now) {
			return ErrResetUnavailable
		}
		return nil
	}

	if current {
		if !plan.Renew {
			return ErrPlanNoRenew
		}
		return nil
	}

	if !plan.Sell {
		return ErrPlanNotForSale
	}

	ok, err := s.plans.HaveCapacity(tx, plan)
	if err != nil {
		return err
	}
	if !ok {
		return billing.ErrCapacityExceeded
	}
	return nil
}

// Classify 按顺序确定订单类型（含升级折算）、专属折扣与邀请返佣。
// 专属折扣以折算前的金额为基数，从折算后的金额中扣除。
func (s *OrderService) Classify(tx *repository.Store, order *model.Order, user *model.User, settings config.BillingConfig) error {
	base := order.TotalAmount

	if err := s.setOrderType(tx, order, user, settings); err != nil {
		return err
	}
	setVipDiscount(order, user, base)
	return s.setInvite(tx, order, user, settings)
}

func (s *OrderService) setOrderType(tx *repository.Store, order *model.Order, user *model.User, settings config.BillingConfig) error {
	now := s.now()
	expiry := billing.ExpiryOf(user.ExpiredAt)
	active := user.PlanID != nil && expiry.ActiveAt(now)

	switch {
	case order.Period == model.PeriodReset:
		order.Type = model.OrderTypeResetTraffic
	case active && *user.PlanID != order.PlanID:
		if !settings.PlanChangeEnable {
			return ErrPlanChangeDisabled
		}
		order.Type = model.OrderTypeUpgrade

		var surplus billing.Surplus
		if settings.SurplusEnable {
			var err error
			surplus, err = s.surplus(tx, user, expiry, now)
			if err != nil {
				return err
			}
		}
		billing.ApplySurplus(order, surplus)
	case active:
		order.Type = model.OrderTypeRenewal
	default:
		order.Type = model.OrderTypeNewPurchase
	}
	return nil
}

// surplus 永不过期的用户按流量折算，其余按时间折算
func (s *OrderService) surplus(tx *repository.Store, user *model.User, expiry billing.Expiry, now time.Time) (billing.Surplus, error) {
	if expiry.IsNever() {
		last, err := tx.Orders.GetLastCompletedOneTime(user.ID)
		if err != nil {
			return billing.Surplus{}, errors.Wrap(err, "load onetime order")
		}
		completed, err := tx.Orders.ListCompletedNonReset(user.ID)
		if err != nil {
			return billing.Surplus{}, errors.Wrap(err, "load completed orders")
		}
		return billing.SurplusByOneTime(user, last, completed), nil
	}

	orders, err := tx.Orders.ListCompletedPeriodic(user.ID)
	if err != nil {
		return billing.Surplus{}, errors.Wrap(err, "load periodic orders")
	}
	return billing.SurplusByPeriod(orders, now), nil
}

func setVipDiscount(order *model.Order, user *model.User, base int64) {
	if user.Discount != nil && *user.Discount > 0 {
		order.DiscountAmount += billing.Percent(base, int64(*user.Discount))
	}
	if order.DiscountAmount > base {
		order.DiscountAmount = base
	}

	order.TotalAmount -= order.DiscountAmount
	if order.TotalAmount < 0 {
		order.TotalAmount = 0
	}
}

func (s *OrderService) setInvite(tx *repository.Store, order *model.Order, user *model.User, settings config.BillingConfig) error {
	if user.InviteUserID == nil || order.TotalAmount <= 0 {
		return nil
	}

	order.InviteUserID = user.InviteUserID
	inviter, err := tx.Users.GetByID(*user.InviteUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	qualified, err := s.commissionQualified(tx, inviter, user, settings)
	if err != nil || !qualified {
		return err
	}

	rate := int64(settings.InviteCommission)
	if inviter.CommissionRate != nil {
		rate = int64(*inviter.CommissionRate)
	}
	order.CommissionBalance = billing.Percent(order.TotalAmount, rate)
	return nil
}

// commissionQualified 按邀请人的返佣模式判断本单是否返佣
func (s *OrderService) commissionQualified(tx *repository.Store, inviter, user *model.User, settings config.BillingConfig) (bool, error) {
	switch inviter.CommissionType {
	case model.CommissionTypePerOrder, model.CommissionTypeUnlimited:
		return true, nil
	case model.CommissionTypeFirstOnly:
		has, err := tx.Orders.HasValidOrder(user.ID)
		return !has, err
	default:
		if !settings.CommissionFirstTimeEnable {
			return true, nil
		}
		has, err := tx.Orders.HasValidOrder(user.ID)
		return !has, err
	}
}

// GetUserOrder 查询用户自己的订单
func (s *OrderService) GetUserOrder(ctx context.Context, userID int64, tradeNo string) (*model.Order, error) {
	order, err := s.store.WithContext(ctx).Orders.GetByTradeNo(tradeNo)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListUserOrders 分页查询用户订单，status 为 nil 时不过滤
func (s *OrderService) ListUserOrders(ctx context.Context, userID int64, status *int, page, pageSize int) ([]*model.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.store.WithContext(ctx).Orders.ListByUser(userID, status, page, pageSize)
}

// newTradeNo 32 位订单号
func newTradeNo() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
