package service

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/qs3c/sub_billing_server/internal/billing"
	"github.com/qs3c/sub_billing_server/internal/model"
	"github.com/qs3c/sub_billing_server/internal/repository"
)

var (
	ErrPlanNotFound   = errors.Mark(errors.New("该订阅不存在"), billing.ErrNotFound)
	ErrPlanNotForSale = errors.Mark(errors.New("该订阅已售罄，请更换其它订阅"), billing.ErrValidation)
	ErrPlanNoRenew    = errors.Mark(errors.New("该订阅无法续费，请更换其它订阅"), billing.ErrValidation)
	ErrPeriodNotOpen  = errors.Mark(errors.New("该订阅周期无法进行购买，请选择其它周期"), billing.ErrValidation)
)

type PlanService struct {
	now func() time.Time
}

func NewPlanService() *PlanService {
	return &PlanService{now: time.Now}
}

// HaveCapacity 未设置容量上限视为不限；否则有效期内的用户数需小于上限。
// 调用方应在同一事务中先锁定套餐行。
func (s *PlanService) HaveCapacity(tx *repository.Store, plan *model.Plan) (bool, error) {
	if plan.CapacityLimit == nil {
		return true, nil
	}
	count, err := tx.Users.CountActiveByPlan(plan.ID, s.now())
	if err != nil {
		return false, errors.Wrap(err, "count plan users")
	}
	return count < int64(*plan.CapacityLimit), nil
}
