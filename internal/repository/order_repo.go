package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/sub_billing_server/internal/model"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(order *model.Order) error {
	return r.db.Create(order).Error
}

func (r *OrderRepository) GetByID(id int64) (*model.Order, error) {
	var order model.Order
	err := r.db.Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetByTradeNo(tradeNo string) (*model.Order, error) {
	var order model.Order
	err := r.db.Where("trade_no = ?", tradeNo).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate 加行锁读取订单
func (r *OrderRepository) GetByIDForUpdate(id int64) (*model.Order, error) {
	var order model.Order
	err := forUpdate(r.db).Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetByTradeNoForUpdate(tradeNo string) (*model.Order, error) {
	var order model.Order
	err := forUpdate(r.db).Where("trade_no = ?", tradeNo).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) Update(order *model.Order) error {
	return r.db.Save(order).Error
}

// MarkProcessing 仅当订单仍为待支付时更新，返回是否命中
func (r *OrderRepository) MarkProcessing(id int64, callbackNo string, paidAt time.Time) (bool, error) {
	res := r.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", id, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":      model.OrderStatusProcessing,
			"callback_no": callbackNo,
			"paid_at":     paidAt,
		})
	return res.RowsAffected > 0, res.Error
}

// ListProcessingPaidBefore 支付时间早于 before 仍在开通中的订单
func (r *OrderRepository) ListProcessingPaidBefore(before time.Time, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Where("status = ? AND paid_at < ?", model.OrderStatusProcessing, before).
		Order("id ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// MarkDiscounted 将被升级折抵的订单置为已折抵
func (r *OrderRepository) MarkDiscounted(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&model.Order{}).
		Where("id IN ?", ids).
		Update("status", model.OrderStatusDiscounted).Error
}

// GetLastCompletedOneTime 用户最近一笔已完成的一次性订单，不存在时返回 nil
func (r *OrderRepository) GetLastCompletedOneTime(userID int64) (*model.Order, error) {
	var orders []model.Order
	err := r.db.Where("user_id = ? AND period = ? AND status = ?", userID, model.PeriodOneTime, model.OrderStatusCompleted).
		Order("id DESC").
		Limit(1).
		Find(&orders).Error
	if err != nil || len(orders) == 0 {
		return nil, err
	}
	return &orders[0], nil
}

// ListCompletedNonReset 用户全部已完成的非重置流量订单
func (r *OrderRepository) ListCompletedNonReset(userID int64) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Where("user_id = ? AND period <> ? AND status = ?", userID, model.PeriodReset, model.OrderStatusCompleted).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

// ListCompletedPeriodic 用户全部已完成的周期订单
func (r *OrderRepository) ListCompletedPeriodic(userID int64) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Where("user_id = ? AND status = ?", userID, model.OrderStatusCompleted).
		Where("period NOT IN ?", []string{model.PeriodReset, model.PeriodOneTime}).
		Order("id ASC").
		Find(&orders).Error
	return orders, err
}

// HasValidOrder 用户是否存在有效订单（非待支付、非取消）
func (r *OrderRepository) HasValidOrder(userID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.Order{}).
		Where("user_id = ? AND status NOT IN ?", userID, model.VoidOrderStatuses).
		Count(&count).Error
	return count > 0, err
}

// HasUnfinishedOrder 用户是否有待支付或开通中的订单
func (r *OrderRepository) HasUnfinishedOrder(userID int64) (bool, error) {
	var count int64
	err := r.db.Model(&model.Order{}).
		Where("user_id = ? AND status IN ?", userID, []int{model.OrderStatusPending, model.OrderStatusProcessing}).
		Count(&count).Error
	return count > 0, err
}

// CountCouponUsage 用户使用某优惠券的有效订单数
func (r *OrderRepository) CountCouponUsage(couponID, userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Order{}).
		Where("coupon_id = ? AND user_id = ? AND status NOT IN ?", couponID, userID, model.VoidOrderStatuses).
		Count(&count).Error
	return count, err
}

// ListByUser 分页查询用户订单，最新的在前
func (r *OrderRepository) ListByUser(userID int64, status *int, page, pageSize int) ([]*model.Order, int64, error) {
	var orders []*model.Order
	var total int64

	query := r.db.Model(&model.Order{}).Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}
