package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"

	"github.com/qs3c/sub_billing_server/internal/billing"
	"github.com/qs3c/sub_billing_server/internal/model"
	"github.com/qs3c/sub_billing_server/internal/repository"
)

type CouponService struct {
	store *repository.Store
	now   func() time.Time
}

func NewCouponService(store *repository.Store) *CouponService {
	return &CouponService{
		store: store,
		now:   time.Now,
	}
}

// Check 仅校验优惠券是否可用，不扣减次数
func (s *CouponService) Check(ctx context.Context, code string, cc billing.CouponContext) (*model.Coupon, error) {
	store := s.store.WithContext(ctx)

	coupon, err := store.Coupons.GetByCode(code)
	if err != nil {
		return nil, couponNotFound(err)
	}

	usedByUser := func() (int64, error) {
		return store.Orders.CountCouponUsage(coupon.ID, cc.UserID)
	}
	if err := billing.ValidateCoupon(coupon, cc, usedByUser, s.now()); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Apply 在独立事务中锁定并使用优惠券，返回优惠金额
func (s *CouponService) Apply(ctx context.Context, code string, order *model.Order) (int64, error) {
	var discount int64
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		discount, err = s.ApplyTx(tx, code, order)
		return err
	})
	if err != nil {
		return 0, err
	}
	return discount, nil
}

// ApplyTx 在调用方事务中使用优惠券：锁定、校验、计算优惠并扣减剩余次数。
// 成功后写入 order.DiscountAmount 与 order.CouponID。
func (s *CouponService) ApplyTx(tx *repository.Store, code string, order *model.Order) (int64, error) {
	coupon, err := tx.Coupons.GetByCodeForUpdate(code)
	if err != nil {
		return 0, couponNotFound(err)
	}

	cc := billing.CouponContext{
		PlanID: order.PlanID,
		Period: order.Period,
		UserID: order.UserID,
	}
	usedByUser := func() (int64, error) {
		return tx.Orders.CountCouponUsage(coupon.ID, order.UserID)
	}
	if err := billing.ValidateCoupon(coupon, cc, usedByUser, s.now()); err != nil {
		return 0, err
	}

	discount := billing.CouponDiscount(coupon, order.TotalAmount)

	if coupon.LimitUse != nil {
		ok, err := tx.Coupons.DecrementLimitUse(coupon.ID)
		if err != nil {
			return 0, errors.Mark(errors.Wrap(err, "decrement coupon"), billing.ErrConcurrencyConflict)
		}
		if !ok {
			return 0, billing.NewCouponError(billing.CouponExhausted)
		}
	}

	order.DiscountAmount += discount
	order.CouponID = &coupon.ID

	log.WithFields(log.Fields{
		"coupon_id": coupon.ID,
		"user_id":   order.UserID,
		"discount":  discount,
	}).Debug("coupon applied")

	return discount, nil
}

func couponNotFound(err error) error {
	return notFound(err, billing.NewCouponError(billing.CouponNotFound))
}
