package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/qs3c/sub_billing_server/config"
	"github.com/qs3c/sub_billing_server/internal/billing"
	"github.com/qs3c/sub_billing_server/internal/model"
	"github.com/qs3c/sub_billing_server/internal/repository"
)

var (
	ErrUserNotFound        = errors.Mark(errors.New("用户不存在"), billing.ErrNotFound)
	ErrBalanceUpdateFailed = errors.Mark(errors.Mark(errors.New("余额不足"), billing.ErrValidation), billing.ErrInsufficientBalance)
)

type UserService struct {
	store *repository.Store
	cfg   *config.Config
	now   func() time.Time
}

func NewUserService(store *repository.Store, cfg *config.Config) *UserService {
	return &UserService{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// AddBalance 在独立事务中变更余额，delta 可为负
func (s *UserService) AddBalance(ctx context.Context, userID int64, delta int64) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		return s.addBalanceTx(tx, userID, delta)
	})
}

// addBalanceTx 锁定用户行后变更余额，供订单、取消、退款等事务复用
func (s *UserService) addBalanceTx(tx *repository.Store, userID int64, delta int64) error {
	user, err := tx.Users.GetByIDForUpdate(userID)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}

	balance := user.Balance + delta
	if balance < 0 && !s.cfg.Billing.AllowNegativeBalance {
		return ErrBalanceUpdateFailed
	}

	if err := tx.Users.UpdateFields(userID, map[string]interface{}{"balance": balance}); err != nil {
		return errors.Wrap(err, "update balance")
	}
	return nil
}

// CheckActive 用户存在且未被封禁
func (s *UserService) CheckActive(ctx context.Context, userID int64) error {
	user, err := s.store.WithContext(ctx).Users.GetByID(userID)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if user.Banned {
		return ErrUserBanned
	}
	return nil
}

// SubscribeInfo 用户订阅概况
type SubscribeInfo struct {
	PlanID         *int64     `json:"plan_id"`
	PlanName       string     `json:"plan_name,omitempty"`
	U              int64      `json:"u"`
	D              int64      `json:"d"`
	TransferEnable int64      `json:"transfer_enable"`
	ExpiredAt      *time.Time `json:"expired_at"`
	ResetDay       *int       `json:"reset_day"`
	Balance        int64      `json:"balance"`
}

// GetSubscribe 获取订阅信息及距下次流量重置的天数
func (s *UserService) GetSubscribe(ctx context.Context, userID int64) (*SubscribeInfo, error) {
	store := s.store.WithContext(ctx)

	user, err := store.Users.GetByID(userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	info := &SubscribeInfo{
		PlanID:         user.PlanID,
		U:              user.U,
		D:              user.D,
		TransferEnable: user.TransferEnable,
		ExpiredAt:      user.ExpiredAt,
		Balance:        user.Balance,
	}

	if user.PlanID == nil {
		return info, nil
	}

	plan, err := store.Plans.GetByID(*user.PlanID)
	if err != nil {
		return nil, notFound(err, ErrPlanNotFound)
	}
	info.PlanName = plan.Name

	if days, ok := s.ResetDay(user, plan); ok {
		info.ResetDay = &days
	}
	return info, nil
}

// ResetDay 套餐未设置重置方式时使用全局配置
func (s *UserService) ResetDay(user *model.User, plan *model.Plan) (int, bool) {
	var planMethod *int
	if plan != nil {
		planMethod = plan.ResetTrafficMethod
	}
	method := billing.ResolveResetMethod(planMethod, s.cfg.Billing.ResetTrafficMethod)
	return billing.DaysUntilReset(method, billing.ExpiryOf(user.ExpiredAt), user.PlanID != nil, s.now())
}
