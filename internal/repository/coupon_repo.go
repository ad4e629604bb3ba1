package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/sub_billing_server/internal/model"
)

type CouponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

func (r *CouponRepository) Create(coupon *model.Coupon) error {
	return r.db.Create(coupon).Error
}

func (r *CouponRepository) GetByID(id int64) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.Where("id = ?", id).First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *CouponRepository) GetByCode(code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.Where("code = ?", code).First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// GetByCodeForUpdate 锁定优惠券行，校验与扣减次数期间持有
func (r *CouponRepository) GetByCodeForUpdate(code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := forUpdate(r.db).Where("code = ?", code).First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// DecrementLimitUse 剩余次数大于 0 时减一，返回是否扣减成功
func (r *CouponRepository) DecrementLimitUse(id int64) (bool, error) {
	res := r.db.Model(&model.Coupon{}).
		Where("id = ? AND limit_use IS NOT NULL AND limit_use > 0", id).
		Update("limit_use", gorm.Expr("limit_use - 1"))
	return res.RowsAffected > 0, res.Error
}
